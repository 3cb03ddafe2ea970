package pipeline

import (
	"context"
	"fmt"
	"time"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"
	"pagegen/metrics"

	"go.uber.org/zap"
)

// Pipeline is the generation orchestrator handed to the state machine.
// One Pipeline serves the whole process; it holds no per-run state.
type Pipeline struct {
	planner   *ScenePlanner
	scheduler *BatchScheduler
	executor  *RetryExecutor
	copygen   *CopyGenerator
	hosting   HostBackend
	stats     *metrics.Store
	cfg       *core.Config
	logger    *logging.Logger
}

// New assembles the pipeline from its parts. stats may be nil.
func New(planner *ScenePlanner, scheduler *BatchScheduler, executor *RetryExecutor, copygen *CopyGenerator, hosting HostBackend, stats *metrics.Store, cfg *core.Config, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		planner:   planner,
		scheduler: scheduler,
		executor:  executor,
		copygen:   copygen,
		hosting:   hosting,
		stats:     stats,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
	}
}

// record logs one finished operation to the stats store.
func (p *Pipeline) record(rec metrics.Record) {
	if p.stats == nil {
		return
	}
	p.stats.Add(rec)
}

// GenerateImages runs the full image side of one submission: hosts the
// source photos, plans the scene prompts, and fans generation out through
// the batch scheduler. The returned pool is ordered: the promotion scene, if
// any, is first.
func (p *Pipeline) GenerateImages(ctx context.Context, req domain.ProductRequest) ([]domain.GeneratedImage, error) {
	start := time.Now()

	sourceURLs, err := p.hostSourceImages(ctx, req)
	if err != nil {
		p.record(failureRecord(metrics.OpGenerateImages, start, err))
		return nil, err
	}

	items, err := p.planner.Plan(ctx, req, sourceURLs)
	if err != nil {
		p.record(failureRecord(metrics.OpGenerateImages, start, err))
		return nil, err
	}

	p.logger.Info("image generation plan ready",
		zap.Int("scenes", len(items)),
		zap.Bool("promotion", req.HasPromotion()),
		zap.String("platform", req.TargetPlatform))

	pool, err := p.scheduler.GenerateAll(ctx, items)
	if err != nil {
		p.record(failureRecord(metrics.OpGenerateImages, start, err))
		return nil, err
	}

	placeholders := 0
	for _, img := range pool {
		if !img.Hosted() {
			placeholders++
		}
	}
	p.record(metrics.Record{
		Type:         metrics.OpGenerateImages,
		Status:       "success",
		StartTime:    start,
		Duration:     time.Since(start),
		Scenes:       len(pool),
		Placeholders: placeholders,
	})
	return pool, nil
}

// GenerateCopy runs the text side of one submission.
func (p *Pipeline) GenerateCopy(ctx context.Context, req domain.ProductRequest) (*domain.GeneratedCopy, error) {
	start := time.Now()
	copyDoc, err := p.copygen.Generate(ctx, req)
	if err != nil {
		p.record(failureRecord(metrics.OpGenerateCopy, start, err))
		return nil, err
	}
	p.record(metrics.Record{
		Type:      metrics.OpGenerateCopy,
		Status:    "success",
		StartTime: start,
		Duration:  time.Since(start),
	})
	return copyDoc, nil
}

// RefineCopyField regenerates one copy field wholesale.
func (p *Pipeline) RefineCopyField(ctx context.Context, current *domain.GeneratedCopy, field domain.CopyField, instruction string) (*domain.GeneratedCopy, error) {
	start := time.Now()
	next, err := p.copygen.RefineField(ctx, current, field, instruction)
	if err != nil {
		p.record(failureRecord(metrics.OpRefineCopy, start, err))
		return nil, err
	}
	p.record(metrics.Record{
		Type:      metrics.OpRefineCopy,
		Status:    "success",
		StartTime: start,
		Duration:  time.Since(start),
	})
	return next, nil
}

// RegenerateImage re-runs a single pool image with the user's refinement
// instruction folded into its prompt. Failures are surfaced to the caller:
// the existing image stays in place, so no placeholder is substituted.
func (p *Pipeline) RegenerateImage(ctx context.Context, req domain.ProductRequest, existing domain.GeneratedImage, poolIndex int, instruction string) (domain.GeneratedImage, error) {
	start := time.Now()

	sourceURLs, err := p.hostSourceImages(ctx, req)
	if err != nil {
		p.record(failureRecord(metrics.OpRegenerateImage, start, err))
		return domain.GeneratedImage{}, err
	}

	preset, err := p.planner.presets.For(req.TargetPlatform)
	if err != nil {
		p.record(failureRecord(metrics.OpRegenerateImage, start, err))
		return domain.GeneratedImage{}, err
	}

	prompt := existing.Prompt
	if instruction != "" {
		prompt = fmt.Sprintf("%s. Revision: %s", existing.Prompt, instruction)
	}

	img, err := p.executor.Regenerate(ctx, GenerationItem{
		Index:       poolIndex,
		Prompt:      prompt,
		ModelID:     p.cfg.ImageModelForTier(req.QualityTier),
		SourceURLs:  sourceURLs,
		AspectRatio: preset.AspectRatio,
	})
	if err != nil {
		p.record(failureRecord(metrics.OpRegenerateImage, start, err))
		return domain.GeneratedImage{}, err
	}
	p.record(metrics.Record{
		Type:      metrics.OpRegenerateImage,
		Status:    "success",
		StartTime: start,
		Duration:  time.Since(start),
	})
	return img, nil
}

func failureRecord(opType string, start time.Time, err error) metrics.Record {
	return metrics.Record{
		Type:      opType,
		Status:    "error",
		StartTime: start,
		Duration:  time.Since(start),
		ErrorKind: string(core.KindOf(err)),
	}
}

// hostSourceImages uploads the request's inline source photos and returns
// their hosted URLs. Already-hosted URLs pass through untouched. A source
// photo that cannot be hosted is skipped with a warning rather than failing
// the run; generation degrades to prompt-only styling.
func (p *Pipeline) hostSourceImages(ctx context.Context, req domain.ProductRequest) ([]string, error) {
	var urls []string
	for i, src := range req.SourceImages {
		hosted, err := p.hosting.Upload(ctx, src.DataURL)
		if err != nil {
			if core.IsAuthOrConfig(err) || core.IsCreditsExhausted(err) {
				return nil, err
			}
			p.logger.Warn("source image hosting failed, continuing without it",
				zap.Int("index", i),
				zap.String("name", src.Name),
				zap.Error(err))
			continue
		}
		urls = append(urls, hosted)
	}
	return urls, nil
}
