// Package appstate holds the application state machine driving the
// input → processing → preview lifecycle and the preview editing operations.
package appstate

import (
	"context"

	"pagegen/domain"
)

// Phase is the lifecycle phase of the application.
type Phase string

const (
	PhaseInput      Phase = "input"      // collecting a product request
	PhaseProcessing Phase = "processing" // pipeline running
	PhasePreview    Phase = "preview"    // editable result on screen
)

// State is the complete application state. Snapshots of it feed the
// undo/redo timeline and the persistence codecs, so Clone must be deep.
type State struct {
	Phase           Phase                   `json:"phase"`
	Request         domain.ProductRequest   `json:"request"`
	OriginalImages  []domain.SourceImage    `json:"originalImages,omitempty"`
	GeneratedImages []domain.GeneratedImage `json:"generatedImages,omitempty"`
	MainImageIndex  int                     `json:"mainImageIndex"`
	GeneratedCopy   *domain.GeneratedCopy   `json:"generatedCopy,omitempty"`
	IsEditingImage  bool                    `json:"isEditingImage"`
}

// NewState returns the empty input-phase state.
func NewState() State {
	return State{Phase: PhaseInput}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.OriginalImages = append([]domain.SourceImage(nil), s.OriginalImages...)
	out.GeneratedImages = append([]domain.GeneratedImage(nil), s.GeneratedImages...)
	out.GeneratedCopy = s.GeneratedCopy.Clone()
	return out
}

// HasPreviewContent reports whether the state is a committed preview with at
// least one generated image; only such states enter the history timeline.
func (s State) HasPreviewContent() bool {
	return s.Phase == PhasePreview && len(s.GeneratedImages) > 0
}

// Generator is the slice of the pipeline the state machine drives.
type Generator interface {
	GenerateImages(ctx context.Context, req domain.ProductRequest) ([]domain.GeneratedImage, error)
	GenerateCopy(ctx context.Context, req domain.ProductRequest) (*domain.GeneratedCopy, error)
	RefineCopyField(ctx context.Context, current *domain.GeneratedCopy, field domain.CopyField, instruction string) (*domain.GeneratedCopy, error)
	RegenerateImage(ctx context.Context, req domain.ProductRequest, existing domain.GeneratedImage, poolIndex int, instruction string) (domain.GeneratedImage, error)
}
