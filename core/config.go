package core

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds all configuration values for the detail page generator.
// Values come from environment variables (a .env file is loaded at startup);
// everything except provider credentials has a working default.
type Config struct {
	// API keys. All optional at load time: each provider call checks its
	// credential lazily through the CredentialStore and fails with an
	// auth_or_config failure when missing.
	ImageAPIKey   string
	TextAPIKey    string
	SearchAPIKey  string
	HostingAPIKey string

	// Provider endpoints
	ImageAPIURL   string // job-based image generation API
	TextAPIURL    string // OpenAI-compatible chat completion endpoint
	SearchAPIURL  string // web search API
	HostingAPIURL string // image hosting upload API

	// Model selection per quality tier
	TextModel         string
	ImageModelBasic   string
	ImageModelPremium string

	// Server configuration
	Port    int
	DataDir string

	// Pipeline configuration
	MaxRetries     int           // attempts per image, including the first
	RetryDelay     time.Duration // flat delay for non-rate-limit retries
	BatchSize      int           // concurrency ceiling per chunk
	ChunkPause     time.Duration // pause between chunks
	PollInterval   time.Duration // delay between job status polls
	PollMaxChecks  int           // polling ceiling before Timeout
	RequestTimeout time.Duration // per network round trip

	// History configuration
	UndoDepth       int // in-memory undo/redo timeline cap
	SavedHistoryCap int // persisted history item cap

	// Preset override file (optional, YAML)
	PresetFile string
}

// LoadConfig loads configuration from environment variables.
// Provider credentials are optional here; URL and numeric values are
// validated so that a bad override fails at startup rather than mid-batch.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ImageAPIKey:   GetEnvOrDefault("IMAGE_API_KEY", ""),
		TextAPIKey:    GetEnvOrDefault("TEXT_API_KEY", ""),
		SearchAPIKey:  GetEnvOrDefault("SEARCH_API_KEY", ""),
		HostingAPIKey: GetEnvOrDefault("HOSTING_API_KEY", ""),

		ImageAPIURL:   GetEnvOrDefault("IMAGE_API_URL", "https://api.kie.ai/api/v1"),
		TextAPIURL:    GetEnvOrDefault("TEXT_API_URL", "https://api.openai.com/v1"),
		SearchAPIURL:  GetEnvOrDefault("SEARCH_API_URL", "https://google.serper.dev"),
		HostingAPIURL: GetEnvOrDefault("HOSTING_API_URL", "https://api.imgbb.com/1/upload"),

		TextModel:         GetEnvOrDefault("TEXT_MODEL", "gpt-4o-mini"),
		ImageModelBasic:   GetEnvOrDefault("IMAGE_MODEL_BASIC", "flux-kontext-pro"),
		ImageModelPremium: GetEnvOrDefault("IMAGE_MODEL_PREMIUM", "flux-kontext-max"),

		Port:    ParseIntEnv("PORT", 8090),
		DataDir: GetEnvOrDefault("DATA_DIR", "./data"),

		MaxRetries:     ParseIntEnv("MAX_RETRIES", 3),
		RetryDelay:     ParseDurationEnv("RETRY_DELAY", 1),
		BatchSize:      ParseIntEnv("BATCH_SIZE", 12),
		ChunkPause:     ParseDurationEnv("CHUNK_PAUSE", 1),
		PollInterval:   ParseDurationEnv("POLL_INTERVAL", 2),
		PollMaxChecks:  ParseIntEnv("POLL_MAX_CHECKS", 60),
		RequestTimeout: ParseDurationEnv("REQUEST_TIMEOUT", 60),

		UndoDepth:       ParseIntEnv("UNDO_DEPTH", 50),
		SavedHistoryCap: ParseIntEnv("SAVED_HISTORY_CAP", 200),

		PresetFile: GetEnvOrDefault("PRESET_FILE", ""),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.PollMaxChecks < 1 {
		return nil, fmt.Errorf("POLL_MAX_CHECKS must be at least 1, got %d", cfg.PollMaxChecks)
	}
	if cfg.UndoDepth < 1 {
		return nil, fmt.Errorf("UNDO_DEPTH must be at least 1, got %d", cfg.UndoDepth)
	}
	if cfg.SavedHistoryCap < 1 {
		return nil, fmt.Errorf("SAVED_HISTORY_CAP must be at least 1, got %d", cfg.SavedHistoryCap)
	}

	return cfg, nil
}

// ImageModelForTier maps a quality tier to the configured image model ID.
// Unknown tiers fall back to the basic model.
func (c *Config) ImageModelForTier(tier string) string {
	if tier == "premium" {
		return c.ImageModelPremium
	}
	return c.ImageModelBasic
}

// GetHTTPClient returns an HTTP client with the configured request timeout.
// A zero timeout disables the client-side deadline.
func GetHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
