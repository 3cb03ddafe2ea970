package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pagegen/core"
	"pagegen/logging"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	searchCacheTTL     = 10 * time.Minute
	searchCacheCleanup = 30 * time.Minute
	maxSnippets        = 5
)

// SearchClient queries the web search provider and flattens the response
// into human-readable research text for the copy generator. Identical
// queries within the cache TTL are served from memory; product research does
// not change within a session and the provider bills per request.
type SearchClient struct {
	baseURL     string
	credentials *core.CredentialStore
	httpClient  *http.Client
	logger      *logging.Logger
	cache       *gocache.Cache
}

// NewSearchClient creates the web search client.
func NewSearchClient(cfg *core.Config, credentials *core.CredentialStore, logger *logging.Logger) *SearchClient {
	return &SearchClient{
		baseURL:     cfg.SearchAPIURL,
		credentials: credentials,
		httpClient:  core.GetHTTPClient(cfg.RequestTimeout),
		logger:      logger.Named("search"),
		cache:       gocache.New(searchCacheTTL, searchCacheCleanup),
	}
}

type searchResponse struct {
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search runs one query and returns a concatenated summary plus ranked
// snippets. A response with nothing usable is a no_results failure.
func (c *SearchClient) Search(ctx context.Context, query string) (string, error) {
	if cached, ok := c.cache.Get(query); ok {
		c.logger.Debug("search cache hit", zap.String("query", query))
		return cached.(string), nil
	}

	apiKey, err := c.credentials.Get(core.ProviderSearch)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.WrapFailure(core.KindProvider, "search", "search request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.WrapFailure(core.KindProvider, "search", "failed to read search response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPFailure("search", resp.StatusCode, string(payload))
	}

	var parsed searchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", core.WrapFailure(core.KindProvider, "search", "malformed search response", err)
	}

	text := flattenSearchResponse(parsed)
	if text == "" {
		return "", core.NewFailure(core.KindNoResults, "search",
			fmt.Sprintf("no usable results for %q", query))
	}

	c.cache.SetDefault(query, text)
	return text, nil
}

func flattenSearchResponse(parsed searchResponse) string {
	var parts []string
	if parsed.AnswerBox.Answer != "" {
		parts = append(parts, parsed.AnswerBox.Answer)
	} else if parsed.AnswerBox.Snippet != "" {
		parts = append(parts, parsed.AnswerBox.Snippet)
	}
	for i, item := range parsed.Organic {
		if i >= maxSnippets {
			break
		}
		if item.Snippet == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d. %s: %s", i+1, item.Title, item.Snippet))
	}
	return strings.Join(parts, "\n")
}
