package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pagegen/appstate"
	"pagegen/domain"
)

func previewState(hosted, inline int) appstate.State {
	var images []domain.GeneratedImage
	for i := 0; i < hosted; i++ {
		images = append(images, domain.GeneratedImage{
			URL:    fmt.Sprintf("https://cdn.example.com/h%d.png", i),
			Prompt: fmt.Sprintf("scene %d", i),
		})
	}
	for i := 0; i < inline; i++ {
		images = append(images, domain.GeneratedImage{
			URL:    "data:image/png;base64,aGVsbG8=",
			Prompt: fmt.Sprintf("placeholder %d", i),
		})
	}
	return appstate.State{
		Phase:   appstate.PhasePreview,
		Request: domain.ProductRequest{Name: "mug", TargetPlatform: "coupang", SourceImages: []domain.SourceImage{{Name: "src", DataURL: "data:image/png;base64,eA=="}}},
		GeneratedImages: images,
		GeneratedCopy:   &domain.GeneratedCopy{Headline: "Headline", Features: []domain.Feature{{Title: "f"}}},
	}
}

func TestEncodeShareRoundTrip(t *testing.T) {
	state := previewState(3, 0)
	state.MainImageIndex = 2

	token, oversize, err := EncodeShare(state)
	if err != nil {
		t.Fatalf("EncodeShare: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token is not base64url: %q", token)
	}
	_ = oversize

	restored, err := DecodeShare(token)
	if err != nil {
		t.Fatalf("DecodeShare: %v", err)
	}
	if restored.Phase != appstate.PhasePreview {
		t.Errorf("phase = %s", restored.Phase)
	}
	if restored.Request.Name != "mug" {
		t.Errorf("request name = %q", restored.Request.Name)
	}
	if len(restored.Request.SourceImages) != 0 {
		t.Error("source images survived the share encoding")
	}
	if len(restored.GeneratedImages) != 3 {
		t.Fatalf("images = %d, want 3", len(restored.GeneratedImages))
	}
	if restored.MainImageIndex != 2 {
		t.Errorf("main index = %d, want 2", restored.MainImageIndex)
	}
	if restored.GeneratedCopy == nil || restored.GeneratedCopy.Headline != "Headline" {
		t.Error("copy lost in round trip")
	}
}

func TestEncodeShareCapsImages(t *testing.T) {
	state := previewState(7, 0)
	state.MainImageIndex = 6

	token, _, err := EncodeShare(state)
	if err != nil {
		t.Fatalf("EncodeShare: %v", err)
	}
	restored, err := DecodeShare(token)
	if err != nil {
		t.Fatalf("DecodeShare: %v", err)
	}
	if len(restored.GeneratedImages) != MaxSharedImages {
		t.Errorf("images = %d, want %d", len(restored.GeneratedImages), MaxSharedImages)
	}
	// The main image fell outside the kept range; the index clamps to 0.
	if restored.MainImageIndex != 0 {
		t.Errorf("main index = %d, want clamped 0", restored.MainImageIndex)
	}
}

func TestEncodeShareSkipsInlineImages(t *testing.T) {
	state := previewState(2, 3)

	token, _, err := EncodeShare(state)
	if err != nil {
		t.Fatalf("EncodeShare: %v", err)
	}
	restored, err := DecodeShare(token)
	if err != nil {
		t.Fatalf("DecodeShare: %v", err)
	}
	for _, img := range restored.GeneratedImages {
		if !strings.HasPrefix(img.URL, "https://") {
			t.Errorf("inline image leaked into share token: %s", img.URL)
		}
	}
	if len(restored.GeneratedImages) != 2 {
		t.Errorf("images = %d, want 2", len(restored.GeneratedImages))
	}
}

func TestEncodeShareNothingDisplayable(t *testing.T) {
	state := previewState(0, 3)

	_, _, err := EncodeShare(state)
	if !errors.Is(err, ErrNothingDisplayable) {
		t.Fatalf("err = %v, want ErrNothingDisplayable", err)
	}
}

func TestEncodeShareOversizeFlag(t *testing.T) {
	state := previewState(4, 0)
	state.Request.Description = strings.Repeat("a very detailed product description ", 100)

	_, oversize, err := EncodeShare(state)
	if err != nil {
		t.Fatalf("EncodeShare: %v", err)
	}
	if !oversize {
		t.Error("oversize flag not set for a token past the threshold")
	}
}

func TestDecodeShareRejectsGarbage(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64url", "%%%not-base64%%%"},
		{"not json", "aGVsbG8"},
		{"no images", "e30"}, // "{}"
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeShare(tc.token); err == nil {
				t.Error("malformed token decoded without error")
			}
		})
	}
}

func TestEncodePersistedStripsAndDefaults(t *testing.T) {
	state := previewState(2, 1)
	state.MainImageIndex = 1

	item, err := EncodePersisted(state, "")
	if err != nil {
		t.Fatalf("EncodePersisted: %v", err)
	}
	if len(item.Request.SourceImages) != 0 {
		t.Error("source images persisted")
	}
	if len(item.Images) != 2 {
		t.Errorf("images = %d, want hosted 2", len(item.Images))
	}
	if item.MainIndex != 1 {
		t.Errorf("main index = %d", item.MainIndex)
	}
	if item.Thumbnail != "https://cdn.example.com/h0.png" {
		t.Errorf("thumbnail = %s", item.Thumbnail)
	}
	if !strings.Contains(item.DisplayName, "mug") {
		t.Errorf("default display name = %q", item.DisplayName)
	}
	if item.CreatedAt.IsZero() {
		t.Error("created-at not stamped")
	}
}

func TestEncodePersistedClampsMainIndex(t *testing.T) {
	state := previewState(1, 2)
	state.MainImageIndex = 2 // points at an inline image that gets stripped

	item, err := EncodePersisted(state, "Clamped")
	if err != nil {
		t.Fatalf("EncodePersisted: %v", err)
	}
	if item.MainIndex != 0 {
		t.Errorf("main index = %d, want clamped 0", item.MainIndex)
	}
	if item.DisplayName != "Clamped" {
		t.Errorf("display name = %q", item.DisplayName)
	}
}

func TestEncodePersistedNothingDisplayable(t *testing.T) {
	if _, err := EncodePersisted(previewState(0, 2), "x"); !errors.Is(err, ErrNothingDisplayable) {
		t.Fatalf("err = %v, want ErrNothingDisplayable", err)
	}
}

func TestRestoreStateIsolation(t *testing.T) {
	state := previewState(2, 0)
	item, err := EncodePersisted(state, "Iso")
	if err != nil {
		t.Fatalf("EncodePersisted: %v", err)
	}

	restored := item.RestoreState()
	restored.GeneratedImages[0].URL = "https://mutated.example.com/x.png"
	restored.GeneratedCopy.Headline = "Mutated"

	second := item.RestoreState()
	if second.GeneratedImages[0].URL != "https://cdn.example.com/h0.png" {
		t.Error("restored states share image memory")
	}
	if second.GeneratedCopy.Headline != "Headline" {
		t.Error("restored states share copy memory")
	}
}
