package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"

	"go.uber.org/zap"
)

const copySystemInstruction = "You are a senior e-commerce copywriter for the Korean market. " +
	"Respond with a single JSON object matching the requested schema exactly. " +
	"No markdown fences, no commentary."

// CopyGenerator produces the structured marketing copy for one request.
// It optionally researches the product category via web search first; the
// research call is best-effort and its failure never blocks copy generation.
type CopyGenerator struct {
	text   TextBackend
	search SearchBackend
	logger *logging.Logger
}

// NewCopyGenerator creates the copy generator.
func NewCopyGenerator(text TextBackend, search SearchBackend, logger *logging.Logger) *CopyGenerator {
	return &CopyGenerator{
		text:   text,
		search: search,
		logger: logger.Named("copy"),
	}
}

// Generate writes the full copy document. Failures propagate: there is no
// placeholder concept for text, and the state machine must not commit a
// preview with stale copy.
func (g *CopyGenerator) Generate(ctx context.Context, req domain.ProductRequest) (*domain.GeneratedCopy, error) {
	research := g.research(ctx, req)

	userInstruction := buildCopyInstruction(req, research)
	completion, err := g.text.Complete(ctx, copySystemInstruction, userInstruction)
	if err != nil {
		return nil, err
	}

	copyDoc, err := parseCopyJSON(completion)
	if err != nil {
		return nil, core.WrapFailure(core.KindProvider, "text", "copy completion was not valid JSON", err)
	}
	if copyDoc.Headline == "" || len(copyDoc.Features) == 0 {
		return nil, core.NewFailure(core.KindProvider, "text", "copy completion missing required fields")
	}
	return copyDoc, nil
}

// RefineField regenerates a single copy field per the user's instruction and
// returns a new document with that field replaced wholesale.
func (g *CopyGenerator) RefineField(ctx context.Context, current *domain.GeneratedCopy, field domain.CopyField, instruction string) (*domain.GeneratedCopy, error) {
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current copy: %w", err)
	}

	userInstruction := fmt.Sprintf(
		"Current copy document:\n%s\n\nRewrite only the %q field per this instruction: %s\n"+
			"Respond with a JSON object containing a single key %q holding the replacement value.",
		currentJSON, field, instruction, field)

	completion, err := g.text.Complete(ctx, copySystemInstruction, userInstruction)
	if err != nil {
		return nil, err
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(completion)), &patch); err != nil {
		return nil, core.WrapFailure(core.KindProvider, "text", "refinement was not valid JSON", err)
	}
	raw, ok := patch[string(field)]
	if !ok {
		return nil, core.NewFailure(core.KindProvider, "text",
			fmt.Sprintf("refinement response missing field %q", field))
	}

	next := current.Clone()
	if err := next.ApplyField(field, raw); err != nil {
		return nil, core.WrapFailure(core.KindProvider, "text", "refinement value had wrong shape", err)
	}
	return next, nil
}

func (g *CopyGenerator) research(ctx context.Context, req domain.ProductRequest) string {
	query := fmt.Sprintf("%s %s 장단점 리뷰", req.Name, req.TargetAudience)
	result, err := g.search.Search(ctx, query)
	if err != nil {
		g.logger.Warn("product research skipped", zap.Error(err))
		return ""
	}
	return result
}

func buildCopyInstruction(req domain.ProductRequest, research string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\nDescription: %s\nTarget audience: %s\nPrice: %d KRW (discount %d%%)\nPlatform: %s\n",
		req.Name, req.Description, req.TargetAudience, req.Price, req.DiscountRate, req.TargetPlatform)
	if req.PromotionText != "" {
		fmt.Fprintf(&b, "Active promotion: %s\n", req.PromotionText)
	}
	if research != "" {
		fmt.Fprintf(&b, "\nMarket research notes:\n%s\n", research)
	}
	b.WriteString(`
Write detail page copy as JSON with this schema:
{
  "catchphrase": string,
  "headline": string,
  "emotionalBenefit": string,
  "painPoints": [{"title": string, "description": string}] (3 entries),
  "solution": string,
  "features": [{"title": string, "subtitle": string, "description": string}] (3 entries),
  "usageScenarios": [{"situation": string, "benefit": string}] (3 entries),
  "specs": [{"label": string, "value": string}] (5 entries),
  "faqs": [{"question": string, "answer": string}] (4 entries)
}`)
	return b.String()
}

// parseCopyJSON tolerates markdown fences some models insist on emitting.
func parseCopyJSON(completion string) (*domain.GeneratedCopy, error) {
	var copyDoc domain.GeneratedCopy
	if err := json.Unmarshal([]byte(stripFences(completion)), &copyDoc); err != nil {
		return nil, err
	}
	return &copyDoc, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
