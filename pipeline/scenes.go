package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"

	"go.uber.org/zap"
)

// fallbackScenes is the generic pool used when the planner completion fails
// or yields too few usable lines. Cycled to the required count.
var fallbackScenes = []string{
	"product centered on a seamless white studio background with soft shadows",
	"product in use on a tidy desk in a bright modern home office",
	"close-up of the product surface showing material and build quality",
	"product beside its packaging with accessories neatly arranged",
	"lifestyle scene of the product in a warm living room setting",
	"product held in hand for scale against a neutral background",
	"top-down flat lay of the product with complementary props",
	"product on a kitchen counter in morning light",
	"detail shot of controls and ports from a three-quarter angle",
	"product staged outdoors in natural daylight",
	"side profile of the product against a soft gradient backdrop",
	"product paired with everyday items that suggest its routine use",
}

const sceneSystemInstruction = "You are a commercial product photographer planning a detail page shoot. " +
	"Answer with a numbered list only, one scene description per line, no commentary."

var numberedLine = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)

// ScenePlanner turns a product request into the ordered list of generation
// items: an optional leading promotion scene, then the platform's quota of
// tailored scene descriptions.
type ScenePlanner struct {
	text    TextBackend
	presets *core.Presets
	cfg     *core.Config
	logger  *logging.Logger
}

// NewScenePlanner creates the planner.
func NewScenePlanner(text TextBackend, presets *core.Presets, cfg *core.Config, logger *logging.Logger) *ScenePlanner {
	return &ScenePlanner{
		text:    text,
		presets: presets,
		cfg:     cfg,
		logger:  logger.Named("scenes"),
	}
}

// Plan builds the generation items for one request. sourceURLs are the
// hosted product photos every job receives as style reference.
func (p *ScenePlanner) Plan(ctx context.Context, req domain.ProductRequest, sourceURLs []string) ([]GenerationItem, error) {
	preset, err := p.presets.For(req.TargetPlatform)
	if err != nil {
		return nil, err
	}

	scenes := p.describeScenes(ctx, req, preset)

	modelID := p.cfg.ImageModelForTier(req.QualityTier)
	var items []GenerationItem

	if req.HasPromotion() {
		items = append(items, GenerationItem{
			Prompt: fmt.Sprintf(
				"promotion banner for %s: bold festive composition announcing %q, %s",
				req.Name, req.PromotionText, preset.StyleHint),
		})
	}
	for _, scene := range scenes {
		items = append(items, GenerationItem{
			Prompt: fmt.Sprintf("%s, featuring %s, %s", scene, req.Name, preset.StyleHint),
		})
	}

	for i := range items {
		items[i].Index = i
		items[i].ModelID = modelID
		items[i].SourceURLs = sourceURLs
		items[i].AspectRatio = preset.AspectRatio
	}
	return items, nil
}

// describeScenes asks the text backend for the platform's quota of numbered
// scene descriptions. Any failure or short answer falls back to the generic
// pool; scene planning never blocks a run.
func (p *ScenePlanner) describeScenes(ctx context.Context, req domain.ProductRequest, preset core.PlatformPreset) []string {
	userInstruction := fmt.Sprintf(
		"Product: %s\nDescription: %s\nTarget audience: %s\nPlatform: %s\n\n"+
			"List exactly %d distinct photo scene descriptions for this product's detail page.",
		req.Name, req.Description, req.TargetAudience, preset.Name, preset.SceneCount)

	completion, err := p.text.Complete(ctx, sceneSystemInstruction, userInstruction)
	if err != nil {
		p.logger.Warn("scene planning completion failed, using fallback pool", zap.Error(err))
		return cycleTo(fallbackScenes, preset.SceneCount)
	}

	parsed := parseNumberedLines(completion)
	if len(parsed) == 0 {
		p.logger.Warn("scene planning yielded no usable lines, using fallback pool")
		return cycleTo(fallbackScenes, preset.SceneCount)
	}
	return cycleTo(parsed, preset.SceneCount)
}

func parseNumberedLines(completion string) []string {
	var scenes []string
	for _, line := range strings.Split(completion, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			scenes = append(scenes, strings.TrimSpace(m[1]))
		}
	}
	return scenes
}

// cycleTo truncates or pads (by cycling) a pool to exactly n entries.
func cycleTo(pool []string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[i%len(pool)]
	}
	return out
}
