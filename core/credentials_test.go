package core

import (
	"errors"
	"testing"
)

func TestCredentialStoreMissingKey(t *testing.T) {
	store := NewCredentialStore(&Config{})

	_, err := store.Get(ProviderImage)
	if err == nil {
		t.Fatal("Get() with no configured key did not return an error")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("Get() error is %T, want *Failure", err)
	}
	if failure.Kind != KindAuthOrConfig {
		t.Errorf("failure kind = %s, want %s", failure.Kind, KindAuthOrConfig)
	}
}

func TestCredentialStoreSetAndClear(t *testing.T) {
	store := NewCredentialStore(&Config{TextAPIKey: "seeded"})

	key, err := store.Get(ProviderText)
	if err != nil {
		t.Fatalf("Get(seeded) error: %v", err)
	}
	if key != "seeded" {
		t.Errorf("Get() = %q, want seeded", key)
	}

	store.Set(ProviderImage, "runtime-key")
	key, err = store.Get(ProviderImage)
	if err != nil {
		t.Fatalf("Get(after Set) error: %v", err)
	}
	if key != "runtime-key" {
		t.Errorf("Get() = %q, want runtime-key", key)
	}

	store.Clear(ProviderImage)
	if _, err := store.Get(ProviderImage); err == nil {
		t.Error("Get() after Clear did not return an error")
	}
}

func TestCredentialStoreConfigured(t *testing.T) {
	store := NewCredentialStore(&Config{ImageAPIKey: "k"})

	configured := store.Configured()
	if !configured[ProviderImage] {
		t.Error("Configured() missed the seeded image key")
	}
	if configured[ProviderSearch] {
		t.Error("Configured() reported an absent search key as present")
	}
	if len(configured) != 4 {
		t.Errorf("Configured() reported %d providers, want 4", len(configured))
	}
}
