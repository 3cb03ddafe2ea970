// Package domain holds the data model shared by the generation pipeline,
// the application state machine, and the snapshot codecs.
package domain

// SourceImage is one user-supplied product photo, held as a data URL
// (base64-encoded inline image) until it is uploaded to the asset host.
type SourceImage struct {
	Name    string `json:"name"`
	DataURL string `json:"dataUrl"`
}

// ProductRequest is the user submission that drives one generation run.
// Immutable once handed to the pipeline.
type ProductRequest struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	TargetAudience string        `json:"targetAudience"`
	SourceImages   []SourceImage `json:"sourceImages,omitempty"`
	QualityTier    string        `json:"qualityTier"`    // "basic" | "premium"
	TargetPlatform string        `json:"targetPlatform"` // "coupang" | "smartstore"
	Price          int64         `json:"price"`
	DiscountRate   int           `json:"discountRate"`
	PromotionText  string        `json:"promotionText,omitempty"`
}

// HasPromotion reports whether the request carries promotion text, which adds
// a leading promotion-banner scene to the generation plan.
func (r ProductRequest) HasPromotion() bool {
	return r.PromotionText != ""
}

// GeneratedImage is one pipeline-produced product scene. URL is an opaque
// reference: either a hosted https URL or an inline data URL. Prompt is the
// text that produced it, kept for per-image regeneration and slot mapping.
type GeneratedImage struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// Hosted reports whether the image lives at an external URL rather than as
// inline-encoded data. Only hosted images survive persistence and sharing.
func (g GeneratedImage) Hosted() bool {
	return len(g.URL) > 8 && (g.URL[:8] == "https://" || g.URL[:7] == "http://")
}
