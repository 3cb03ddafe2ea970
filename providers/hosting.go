package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pagegen/core"
	"pagegen/logging"

	"go.uber.org/zap"
)

// HostClient uploads inline-encoded images to the external asset host and
// returns their public URLs. A URL that is already externally hosted passes
// through unchanged, so callers can upload unconditionally.
type HostClient struct {
	uploadURL   string
	credentials *core.CredentialStore
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewHostClient creates the asset hosting client.
func NewHostClient(cfg *core.Config, credentials *core.CredentialStore, logger *logging.Logger) *HostClient {
	return &HostClient{
		uploadURL:   cfg.HostingAPIURL,
		credentials: credentials,
		httpClient:  core.GetHTTPClient(cfg.RequestTimeout),
		logger:      logger.Named("hosting"),
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends an inline image to the host and returns its public URL.
// Idempotent pass-through for http(s) URLs. Vector placeholders and other
// unsupported embedded payloads fail with an upload failure.
func (c *HostClient) Upload(ctx context.Context, imageData string) (string, error) {
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		return imageData, nil
	}

	base64Payload, err := extractBase64Payload(imageData)
	if err != nil {
		return "", err
	}

	apiKey, err := c.credentials.Get(core.ProviderHosting)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("key", apiKey)
	form.Set("image", base64Payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.WrapFailure(core.KindUpload, "hosting", "upload request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.WrapFailure(core.KindUpload, "hosting", "failed to read upload response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPFailure("hosting", resp.StatusCode, string(payload))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", core.WrapFailure(core.KindUpload, "hosting", "malformed upload response", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", core.NewFailure(core.KindUpload, "hosting",
			fmt.Sprintf("host rejected upload: %s", parsed.Error.Message))
	}

	c.logger.Debug("image uploaded", zap.String("url", parsed.Data.URL))
	return parsed.Data.URL, nil
}

// extractBase64Payload strips the data-URL prefix and rejects payload types
// the host cannot store.
func extractBase64Payload(imageData string) (string, error) {
	if !strings.HasPrefix(imageData, "data:image/") {
		return "", core.NewFailure(core.KindUpload, "hosting", "payload is not an inline image")
	}
	if strings.HasPrefix(imageData, "data:image/svg") {
		return "", core.NewFailure(core.KindUpload, "hosting", "vector placeholders cannot be hosted")
	}
	idx := strings.Index(imageData, "base64,")
	if idx < 0 {
		return "", core.NewFailure(core.KindUpload, "hosting", "inline image is not base64 encoded")
	}
	return imageData[idx+len("base64,"):], nil
}
