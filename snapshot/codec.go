// Package snapshot serializes reduced views of application state: the
// storage-safe form persisted to the local database, and the URL-embeddable
// share token. Both are lossy with respect to inline image data.
package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagegen/appstate"
	"pagegen/domain"
)

// ShareSizeThreshold is the encoded-token size, in bytes, above which the
// caller should warn that some images may be dropped by the consuming side.
const ShareSizeThreshold = 2000

// MaxSharedImages caps the image list embedded in a share token.
const MaxSharedImages = 4

// ErrNothingDisplayable means stripping inline data left a snapshot with no
// image to show, so it must not be persisted.
var ErrNothingDisplayable = errors.New("snapshot has no externally hosted image")

// PersistedItem is the durable, storage-safe subset of application state.
// Inline-encoded image data is stripped before persistence to bound storage
// size; only externally hosted URLs survive.
type PersistedItem struct {
	ID          string                  `json:"id"`
	CreatedAt   time.Time               `json:"createdAt"`
	DisplayName string                  `json:"displayName"`
	Thumbnail   string                  `json:"thumbnail"`
	Request     domain.ProductRequest   `json:"request"`
	Images      []domain.GeneratedImage `json:"images"`
	MainIndex   int                     `json:"mainImageIndex"`
	Copy        *domain.GeneratedCopy   `json:"copy,omitempty"`
}

// EncodePersisted reduces a state snapshot to its persisted form.
// The request's source images are dropped along with every non-hosted
// generated image; an item left with no displayable image is rejected.
func EncodePersisted(state appstate.State, displayName string) (*PersistedItem, error) {
	hosted := hostedOnly(state.GeneratedImages, len(state.GeneratedImages))
	if len(hosted) == 0 {
		return nil, ErrNothingDisplayable
	}

	request := state.Request
	request.SourceImages = nil

	mainIndex := state.MainImageIndex
	if mainIndex >= len(hosted) {
		mainIndex = 0
	}

	if displayName == "" {
		displayName = fmt.Sprintf("%s (%s)", request.Name, time.Now().Format("2006-01-02 15:04"))
	}

	return &PersistedItem{
		CreatedAt:   time.Now(),
		DisplayName: displayName,
		Thumbnail:   hosted[0].URL,
		Request:     request,
		Images:      hosted,
		MainIndex:   mainIndex,
		Copy:        state.GeneratedCopy.Clone(),
	}, nil
}

// RestoreState rebuilds a preview-phase state from a persisted item.
func (item *PersistedItem) RestoreState() appstate.State {
	return appstate.State{
		Phase:           appstate.PhasePreview,
		Request:         item.Request,
		GeneratedImages: append([]domain.GeneratedImage(nil), item.Images...),
		MainImageIndex:  item.MainIndex,
		GeneratedCopy:   item.Copy.Clone(),
	}
}

// shareSnapshot is the wire form embedded in a share link.
type shareSnapshot struct {
	Request   domain.ProductRequest   `json:"request"`
	Copy      *domain.GeneratedCopy   `json:"copy,omitempty"`
	Images    []domain.GeneratedImage `json:"images"`
	MainIndex int                     `json:"mainImageIndex"`
}

// EncodeShare produces the opaque URL-safe token for a state snapshot.
// Truncation to MaxSharedImages hosted images is always applied; oversize
// reports whether the token still exceeds ShareSizeThreshold, in which case
// the caller should warn that some images may be dropped.
func EncodeShare(state appstate.State) (token string, oversize bool, err error) {
	hosted := hostedOnly(state.GeneratedImages, MaxSharedImages)
	if len(hosted) == 0 {
		return "", false, ErrNothingDisplayable
	}

	request := state.Request
	request.SourceImages = nil

	mainIndex := state.MainImageIndex
	if mainIndex >= len(hosted) {
		mainIndex = 0
	}

	payload, err := json.Marshal(shareSnapshot{
		Request:   request,
		Copy:      state.GeneratedCopy,
		Images:    hosted,
		MainIndex: mainIndex,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to encode share snapshot: %w", err)
	}

	token = base64.RawURLEncoding.EncodeToString(payload)
	return token, len(token) > ShareSizeThreshold, nil
}

// DecodeShare reverses EncodeShare into a preview-phase state.
// Malformed tokens return an error; callers log and ignore them, leaving the
// state at its default.
func DecodeShare(token string) (appstate.State, error) {
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return appstate.State{}, fmt.Errorf("share token is not valid base64url: %w", err)
	}

	var snap shareSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return appstate.State{}, fmt.Errorf("share token payload is not valid JSON: %w", err)
	}
	if len(snap.Images) == 0 {
		return appstate.State{}, errors.New("share token contains no images")
	}
	if len(snap.Images) > MaxSharedImages {
		snap.Images = snap.Images[:MaxSharedImages]
	}
	if snap.MainIndex < 0 || snap.MainIndex >= len(snap.Images) {
		snap.MainIndex = 0
	}

	return appstate.State{
		Phase:           appstate.PhasePreview,
		Request:         snap.Request,
		GeneratedImages: snap.Images,
		MainImageIndex:  snap.MainIndex,
		GeneratedCopy:   snap.Copy,
	}, nil
}

// hostedOnly filters to externally hosted images, capped at limit.
func hostedOnly(images []domain.GeneratedImage, limit int) []domain.GeneratedImage {
	var out []domain.GeneratedImage
	for _, img := range images {
		if !img.Hosted() {
			continue
		}
		out = append(out, img)
		if len(out) == limit {
			break
		}
	}
	return out
}
