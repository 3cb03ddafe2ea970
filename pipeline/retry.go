package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"
	"pagegen/providers"

	"go.uber.org/zap"
)

// RetryExecutor produces exactly one GeneratedImage per generation item.
//
// In the batch path it never returns an error: unrecoverable failures become
// a placeholder outcome, except fatal classes (credits exhausted, missing
// credential) which abort the batch. The user-triggered regenerate path
// reuses the same retry loop but surfaces the final error instead, because
// there is an existing image to fall back to.
type RetryExecutor struct {
	backend    ImageBackend
	logger     *logging.Logger
	maxRetries int
	retryDelay time.Duration

	// overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	randN func(n int64) int64
}

// NewRetryExecutor creates the per-item executor.
func NewRetryExecutor(backend ImageBackend, cfg *core.Config, logger *logging.Logger) *RetryExecutor {
	return &RetryExecutor{
		backend:    backend,
		logger:     logger.Named("retry"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		sleep:      sleepCtx,
		now:        time.Now,
		randN:      rand.Int63n,
	}
}

// GenerateOne runs the retry loop for one item and reports the outcome.
// On success or placeholder the result's prompt is the original, un-tokened
// prompt so later edits and regenerations start from clean text.
func (e *RetryExecutor) GenerateOne(ctx context.Context, item GenerationItem) Outcome {
	url, err := e.attemptLoop(ctx, item)
	if err == nil {
		return Outcome{
			Status: OutcomeSuccess,
			Image:  domain.GeneratedImage{URL: url, Prompt: item.Prompt},
		}
	}

	switch core.KindOf(err) {
	case core.KindCreditsExhausted, core.KindAuthOrConfig:
		return Outcome{Status: OutcomeFatal, Reason: err}
	}

	e.logger.Warn("image generation exhausted retries, substituting placeholder",
		zap.Int("index", item.Index),
		zap.Error(err))
	return Outcome{
		Status: OutcomePlaceholder,
		Image:  domain.GeneratedImage{URL: placeholderDataURL(), Prompt: item.Prompt},
		Reason: err,
	}
}

// Regenerate runs the same retry loop but propagates the final failure to
// the caller instead of substituting a placeholder.
func (e *RetryExecutor) Regenerate(ctx context.Context, item GenerationItem) (domain.GeneratedImage, error) {
	url, err := e.attemptLoop(ctx, item)
	if err != nil {
		return domain.GeneratedImage{}, err
	}
	return domain.GeneratedImage{URL: url, Prompt: item.Prompt}, nil
}

func (e *RetryExecutor) attemptLoop(ctx context.Context, item GenerationItem) (string, error) {
	var lastErr error

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		url, err := e.attemptOnce(ctx, item, attempt)
		if err == nil {
			return url, nil
		}
		lastErr = err

		kind := core.KindOf(err)
		if kind == core.KindCreditsExhausted || kind == core.KindAuthOrConfig {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
		if attempt == e.maxRetries-1 {
			break
		}

		delay := e.retryDelay
		if kind == core.KindRateLimited {
			// 2^attempt seconds plus up to 1s of jitter keeps retries from
			// re-colliding at the provider's rate window.
			delay = time.Duration(1<<uint(attempt))*time.Second +
				time.Duration(e.randN(int64(time.Second)))
		}
		e.logger.Debug("retrying image generation",
			zap.Int("index", item.Index),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.String("kind", string(kind)))
		if err := e.sleep(ctx, delay); err != nil {
			return "", lastErr
		}
	}

	return "", lastErr
}

func (e *RetryExecutor) attemptOnce(ctx context.Context, item GenerationItem, attempt int) (string, error) {
	input := providers.ImageInput{
		Prompt:       e.tokenizedPrompt(item, attempt),
		ImageURLs:    item.SourceURLs,
		AspectRatio:  item.AspectRatio,
		OutputFormat: "png",
	}

	jobID, err := e.backend.Submit(ctx, item.ModelID, input)
	if err != nil {
		return "", err
	}

	urls, err := e.backend.PollUntilDone(ctx, jobID)
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

// tokenizedPrompt appends a uniqueness token so repeated attempts are not
// served identical cached outputs by the provider.
func (e *RetryExecutor) tokenizedPrompt(item GenerationItem, attempt int) string {
	return fmt.Sprintf("%s [take %d-%d-%04d-%d]",
		item.Prompt, attempt, item.Index, e.randN(10000), e.now().UnixMilli())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
