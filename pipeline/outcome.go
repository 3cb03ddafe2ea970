// Package pipeline turns one product submission into the generated asset
// bundle: it plans the scene prompts, fans image generation out in bounded
// batches with per-item retry, and produces the structured marketing copy.
package pipeline

import (
	"context"

	"pagegen/domain"
	"pagegen/providers"
)

// OutcomeStatus tags the per-image generation result.
type OutcomeStatus int

const (
	// OutcomeSuccess carries a provider-generated image.
	OutcomeSuccess OutcomeStatus = iota
	// OutcomePlaceholder carries the fallback graphic after retries ran out.
	OutcomePlaceholder
	// OutcomeFatal aborts the whole batch (credits exhausted, missing
	// credential). No image is carried.
	OutcomeFatal
)

// Outcome is the tagged result of generating one image. The scheduler
// inspects the tag rather than an error class to decide whether to continue
// or abort.
type Outcome struct {
	Status OutcomeStatus
	Image  domain.GeneratedImage // valid for Success and Placeholder
	Reason error                 // cause for Placeholder and Fatal
}

// GenerationItem is one unit of image generation work.
type GenerationItem struct {
	Index       int      // position in the batch, preserved in the output
	Prompt      string   // scene description, without uniqueness tokens
	ModelID     string   // image model for the request's quality tier
	SourceURLs  []string // hosted product photos the model styles
	AspectRatio string
}

// ImageBackend is the slice of the provider gateway the executor needs.
type ImageBackend interface {
	Submit(ctx context.Context, modelID string, input providers.ImageInput) (string, error)
	PollUntilDone(ctx context.Context, jobID string) ([]string, error)
}

// TextBackend produces synchronous completions.
type TextBackend interface {
	Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error)
}

// SearchBackend runs web research queries.
type SearchBackend interface {
	Search(ctx context.Context, query string) (string, error)
}

// HostBackend uploads inline images and passes hosted URLs through.
type HostBackend interface {
	Upload(ctx context.Context, imageData string) (string, error)
}
