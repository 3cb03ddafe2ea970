package core

import (
	"sync"
)

// ProviderName identifies one of the external providers the gateway talks to.
type ProviderName string

const (
	ProviderImage   ProviderName = "image"
	ProviderText    ProviderName = "text"
	ProviderSearch  ProviderName = "search"
	ProviderHosting ProviderName = "hosting"
)

// envVarFor maps a provider to the environment variable its key is seeded from.
var envVarFor = map[ProviderName]string{
	ProviderImage:   "IMAGE_API_KEY",
	ProviderText:    "TEXT_API_KEY",
	ProviderSearch:  "SEARCH_API_KEY",
	ProviderHosting: "HOSTING_API_KEY",
}

// CredentialStore is the process-wide credential service. The provider
// gateway reads credentials lazily on every call, so a key set through the
// settings API takes effect without a restart.
//
// Thread-safe; values live only in process memory plus the environment they
// were seeded from.
type CredentialStore struct {
	mu   sync.RWMutex
	keys map[ProviderName]string
}

// NewCredentialStore creates a store seeded from the loaded configuration.
func NewCredentialStore(cfg *Config) *CredentialStore {
	return &CredentialStore{
		keys: map[ProviderName]string{
			ProviderImage:   cfg.ImageAPIKey,
			ProviderText:    cfg.TextAPIKey,
			ProviderSearch:  cfg.SearchAPIKey,
			ProviderHosting: cfg.HostingAPIKey,
		},
	}
}

// Get returns the credential for a provider, or an auth_or_config failure
// when none is configured. No network call may be attempted without it.
func (s *CredentialStore) Get(provider ProviderName) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key := s.keys[provider]; key != "" {
		return key, nil
	}
	return "", ErrMissingCredential(string(provider), envVarFor[provider])
}

// Set stores or replaces the credential for a provider.
func (s *CredentialStore) Set(provider ProviderName, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = key
}

// Clear removes the credential for a provider.
func (s *CredentialStore) Clear(provider ProviderName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
}

// Configured reports, per provider, whether a credential is present.
// Key values are never exposed through this method.
func (s *CredentialStore) Configured() map[ProviderName]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ProviderName]bool, len(envVarFor))
	for provider := range envVarFor {
		out[provider] = s.keys[provider] != ""
	}
	return out
}
