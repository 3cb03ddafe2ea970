package core

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies generation failures so that callers can decide
// between retrying, substituting a placeholder, or aborting the whole batch.
type FailureKind string

const (
	// KindAuthOrConfig means a required credential or setting is missing.
	// Never retried; the user must configure the provider first.
	KindAuthOrConfig FailureKind = "auth_or_config"

	// KindCreditsExhausted means the provider reported exhausted quota or
	// credits. Never retried; aborts the whole batch immediately.
	KindCreditsExhausted FailureKind = "credits_exhausted"

	// KindRateLimited means the provider rejected the call as too frequent.
	// Retried with exponential backoff.
	KindRateLimited FailureKind = "rate_limited"

	// KindTimeout means job polling exceeded its ceiling. Retryable at the
	// item level, distinct from a provider-reported failure.
	KindTimeout FailureKind = "timeout"

	// KindProvider is a generic provider-side failure (non-success status,
	// empty completion, malformed response). Retried a bounded number of times.
	KindProvider FailureKind = "provider"

	// KindUpload means the asset host rejected the payload.
	KindUpload FailureKind = "upload"

	// KindNoResults means the search provider returned nothing usable.
	KindNoResults FailureKind = "no_results"
)

// Failure is the error type raised by the provider gateway and pipeline.
// It carries a kind for programmatic handling, the provider that produced it,
// and an optional remediation hint shown to the user.
type Failure struct {
	Kind     FailureKind
	Provider string // "image", "text", "search", "hosting"
	Message  string
	Action   string // actionable instruction, may be empty
	Err      error  // wrapped cause, may be nil
}

func (f *Failure) Error() string {
	msg := f.Message
	if f.Provider != "" {
		msg = fmt.Sprintf("%s: %s", f.Provider, msg)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure creates a Failure with the given kind.
func NewFailure(kind FailureKind, provider, message string) *Failure {
	return &Failure{Kind: kind, Provider: provider, Message: message}
}

// WrapFailure creates a Failure wrapping an underlying cause.
func WrapFailure(kind FailureKind, provider, message string, err error) *Failure {
	return &Failure{Kind: kind, Provider: provider, Message: message, Err: err}
}

// ErrMissingCredential returns the AuthOrConfig failure for a provider with
// no configured credential.
func ErrMissingCredential(provider, envVar string) *Failure {
	return &Failure{
		Kind:     KindAuthOrConfig,
		Provider: provider,
		Message:  fmt.Sprintf("no API key configured for %s", provider),
		Action:   fmt.Sprintf("Set %s in your .env file or via the settings API", envVar),
	}
}

// ErrCreditsExhausted returns the CreditsExhausted failure for a provider.
func ErrCreditsExhausted(provider, detail string) *Failure {
	return &Failure{
		Kind:     KindCreditsExhausted,
		Provider: provider,
		Message:  fmt.Sprintf("provider credits exhausted: %s", detail),
		Action:   "Top up your account with the provider before generating again",
	}
}

// KindOf extracts the FailureKind from an error chain.
// Unclassified errors report KindProvider.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindProvider
}

// IsCreditsExhausted reports whether the error chain contains a
// credits-exhausted failure.
func IsCreditsExhausted(err error) bool {
	return KindOf(err) == KindCreditsExhausted
}

// IsRateLimited reports whether the error chain contains a rate-limit failure.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// IsAuthOrConfig reports whether the error chain contains a missing-credential
// or misconfiguration failure.
func IsAuthOrConfig(err error) bool {
	return KindOf(err) == KindAuthOrConfig
}

// quota phrasings seen across providers; matched case-insensitively
var creditMessageMarkers = []string{
	"insufficient credit",
	"credits exhausted",
	"insufficient quota",
	"quota exceeded",
	"exceeded your current quota",
	"billing hard limit",
	"not enough credits",
}

var rateLimitMessageMarkers = []string{
	"too many requests",
	"rate limit",
	"429",
}

// ClassifyProviderMessage inspects a provider error message and returns the
// matching FailureKind. Quota wording wins over rate-limit wording because
// some providers phrase exhausted credits as a 429.
func ClassifyProviderMessage(message string) FailureKind {
	lower := strings.ToLower(message)
	for _, marker := range creditMessageMarkers {
		if strings.Contains(lower, marker) {
			return KindCreditsExhausted
		}
	}
	for _, marker := range rateLimitMessageMarkers {
		if strings.Contains(lower, marker) {
			return KindRateLimited
		}
	}
	return KindProvider
}
