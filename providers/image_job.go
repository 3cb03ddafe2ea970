// Package providers implements the gateway to the external generation
// backends: job-based image generation, synchronous text completion, web
// search, and asset hosting. Every call is a single network round trip;
// credentials are read lazily from the credential store so settings changes
// take effect immediately.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pagegen/core"
	"pagegen/logging"

	"go.uber.org/zap"
)

// JobState is the lifecycle state of an image generation job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// JobStatus is the result of a single poll.
type JobStatus struct {
	State      JobState
	ResultURLs []string // populated when State == JobSucceeded
	FailReason string   // populated when State == JobFailed
}

// ImageInput is the structured input for one image generation job.
type ImageInput struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls,omitempty"` // source photos the model styles
	AspectRatio  string   `json:"aspect_ratio,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
}

// ImageJobClient submits image generation jobs and polls their status.
//
// The remote API is asynchronous: Submit returns an opaque job ID which must
// be polled separately. Submit and Poll each perform exactly one round trip
// and never block beyond it; PollUntilDone drives the repeated polling with
// the configured interval and ceiling.
type ImageJobClient struct {
	baseURL     string
	credentials *core.CredentialStore
	httpClient  *http.Client
	logger      *logging.Logger

	pollInterval  time.Duration
	pollMaxChecks int
}

// NewImageJobClient creates the job-based image generation client.
func NewImageJobClient(cfg *core.Config, credentials *core.CredentialStore, logger *logging.Logger) *ImageJobClient {
	return &ImageJobClient{
		baseURL:       cfg.ImageAPIURL,
		credentials:   credentials,
		httpClient:    core.GetHTTPClient(cfg.RequestTimeout),
		logger:        logger.Named("image-jobs"),
		pollInterval:  cfg.PollInterval,
		pollMaxChecks: cfg.PollMaxChecks,
	}
}

type submitRequest struct {
	Model string     `json:"model"`
	Input ImageInput `json:"input"`
}

type submitResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

// Submit creates a generation job and returns its ID.
// Fails with auth_or_config before any network I/O when no credential is set.
func (c *ImageJobClient) Submit(ctx context.Context, modelID string, input ImageInput) (string, error) {
	apiKey, err := c.credentials.Get(core.ProviderImage)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(submitRequest{Model: modelID, Input: input})
	if err != nil {
		return "", fmt.Errorf("failed to encode job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs/createTask", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.WrapFailure(core.KindProvider, "image", "job submit request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.WrapFailure(core.KindProvider, "image", "failed to read job submit response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPFailure("image", resp.StatusCode, string(payload))
	}

	var parsed submitResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", core.WrapFailure(core.KindProvider, "image", "malformed job submit response", err)
	}
	if parsed.Code != 200 {
		kind := core.ClassifyProviderMessage(parsed.Message)
		if kind == core.KindCreditsExhausted {
			return "", core.ErrCreditsExhausted("image", parsed.Message)
		}
		return "", core.NewFailure(kind, "image", fmt.Sprintf("job submit rejected: %s", parsed.Message))
	}
	if parsed.Data.TaskID == "" {
		return "", core.NewFailure(core.KindProvider, "image", "job submit response missing task id")
	}

	c.logger.Debug("image job submitted",
		zap.String("job_id", parsed.Data.TaskID),
		zap.String("model", modelID))
	return parsed.Data.TaskID, nil
}

type pollResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		State      string `json:"state"` // "waiting" | "queuing" | "generating" | "success" | "fail"
		ResultJSON string `json:"resultJson"`
		FailMsg    string `json:"failMsg"`
	} `json:"data"`
}

type pollResultPayload struct {
	ResultURLs []string `json:"resultUrls"`
}

// Poll performs exactly one status check for a job.
func (c *ImageJobClient) Poll(ctx context.Context, jobID string) (JobStatus, error) {
	apiKey, err := c.credentials.Get(core.ProviderImage)
	if err != nil {
		return JobStatus{}, err
	}

	url := fmt.Sprintf("%s/jobs/recordInfo?taskId=%s", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("failed to build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, core.WrapFailure(core.KindProvider, "image", "job poll request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return JobStatus{}, core.WrapFailure(core.KindProvider, "image", "failed to read poll response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, classifyHTTPFailure("image", resp.StatusCode, string(payload))
	}

	var parsed pollResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return JobStatus{}, core.WrapFailure(core.KindProvider, "image", "malformed poll response", err)
	}

	switch parsed.Data.State {
	case "success":
		var result pollResultPayload
		if err := json.Unmarshal([]byte(parsed.Data.ResultJSON), &result); err != nil {
			return JobStatus{}, core.WrapFailure(core.KindProvider, "image", "malformed job result payload", err)
		}
		if len(result.ResultURLs) == 0 {
			return JobStatus{}, core.NewFailure(core.KindProvider, "image", "job succeeded with no result URLs")
		}
		return JobStatus{State: JobSucceeded, ResultURLs: result.ResultURLs}, nil
	case "fail":
		kind := core.ClassifyProviderMessage(parsed.Data.FailMsg)
		if kind == core.KindCreditsExhausted {
			return JobStatus{}, core.ErrCreditsExhausted("image", parsed.Data.FailMsg)
		}
		return JobStatus{State: JobFailed, FailReason: parsed.Data.FailMsg}, nil
	default:
		return JobStatus{State: JobPending}, nil
	}
}

// PollUntilDone polls a job until it resolves or the polling ceiling is hit.
// Hitting the ceiling reports a Timeout failure, distinct from a
// provider-reported failure; a job that never leaves pending is classified
// the same way.
func (c *ImageJobClient) PollUntilDone(ctx context.Context, jobID string) ([]string, error) {
	for check := 0; check < c.pollMaxChecks; check++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		status, err := c.Poll(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch status.State {
		case JobSucceeded:
			return status.ResultURLs, nil
		case JobFailed:
			return nil, core.NewFailure(core.KindProvider, "image",
				fmt.Sprintf("job failed: %s", status.FailReason))
		}
	}

	c.logger.Warn("image job polling ceiling reached",
		zap.String("job_id", jobID),
		zap.Int("checks", c.pollMaxChecks))
	return nil, core.NewFailure(core.KindTimeout, "image",
		fmt.Sprintf("job %s still pending after %d checks", jobID, c.pollMaxChecks))
}

// classifyHTTPFailure turns a non-2xx provider response into a Failure with
// the right kind. 402-style and quota-worded responses become
// credits_exhausted; 429 becomes rate_limited.
func classifyHTTPFailure(provider string, status int, body string) error {
	switch {
	case status == http.StatusPaymentRequired:
		return core.ErrCreditsExhausted(provider, body)
	case status == http.StatusTooManyRequests:
		return core.NewFailure(core.KindRateLimited, provider,
			fmt.Sprintf("too many requests (status %d)", status))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.NewFailure(core.KindAuthOrConfig, provider,
			fmt.Sprintf("request rejected with status %d, check the configured API key", status))
	}
	kind := core.ClassifyProviderMessage(body)
	if kind == core.KindCreditsExhausted {
		return core.ErrCreditsExhausted(provider, body)
	}
	return core.NewFailure(kind, provider,
		fmt.Sprintf("unexpected status %d: %s", status, truncate(body, 200)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
