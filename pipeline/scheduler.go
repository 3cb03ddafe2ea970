package pipeline

import (
	"context"
	"time"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchScheduler fans generation items out in bounded-concurrency chunks.
//
// Items are partitioned into chunks of at most the concurrency ceiling,
// preserving input order. Each chunk's items run concurrently; the next
// chunk starts only after the previous one fully resolves, with a pause in
// between as provider-friendly pacing. The assembled output always reflects
// input order regardless of completion order.
type BatchScheduler struct {
	executor  *RetryExecutor
	logger    *logging.Logger
	chunkSize int
	pause     time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchScheduler creates the scheduler around a per-item executor.
func NewBatchScheduler(executor *RetryExecutor, cfg *core.Config, logger *logging.Logger) *BatchScheduler {
	return &BatchScheduler{
		executor:  executor,
		logger:    logger.Named("scheduler"),
		chunkSize: cfg.BatchSize,
		pause:     cfg.ChunkPause,
		sleep:     sleepCtx,
	}
}

// GenerateAll runs every item and returns the images in input order.
// Output length always equals input length, with placeholders standing in
// for items that exhausted their retries. A fatal outcome from any item
// aborts the whole run: no partial results are returned, no further chunks
// start, and results from the already-launched chunk are discarded.
func (s *BatchScheduler) GenerateAll(ctx context.Context, items []GenerationItem) ([]domain.GeneratedImage, error) {
	results := make([]domain.GeneratedImage, len(items))

	for start := 0; start < len(items); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		s.logger.Info("launching generation chunk",
			zap.Int("from", start),
			zap.Int("size", len(chunk)),
			zap.Int("total", len(items)))

		eg, egCtx := errgroup.WithContext(ctx)
		for _, item := range chunk {
			item := item
			eg.Go(func() error {
				outcome := s.executor.GenerateOne(egCtx, item)
				if outcome.Status == OutcomeFatal {
					return outcome.Reason
				}
				results[item.Index] = outcome.Image
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			if core.IsCreditsExhausted(err) {
				s.logger.Error("batch aborted, provider credits exhausted",
					zap.Int("completed_chunks", start/s.chunkSize))
			} else {
				s.logger.Error("batch aborted", zap.Error(err))
			}
			return nil, err
		}

		if end < len(items) {
			if err := s.sleep(ctx, s.pause); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}
