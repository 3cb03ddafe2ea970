package domain

import (
	"encoding/json"
	"fmt"
)

// PainPoint is one customer frustration the product addresses.
type PainPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Feature is one marketing feature highlighted with its own image slot.
type Feature struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

// UsageScenario pairs a situation with the benefit the product delivers in it.
type UsageScenario struct {
	Situation string `json:"situation"`
	Benefit   string `json:"benefit"`
}

// SpecEntry is one row of the specification table.
type SpecEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FAQEntry is one frequently-asked question with its answer.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GeneratedCopy is the structured marketing text for one detail page.
// It is treated as a single versioned document: a refinement call replaces a
// field wholesale, sub-fields are never merged.
type GeneratedCopy struct {
	Catchphrase      string          `json:"catchphrase"`
	Headline         string          `json:"headline"`
	EmotionalBenefit string          `json:"emotionalBenefit"`
	PainPoints       []PainPoint     `json:"painPoints"`
	Solution         string          `json:"solution"`
	Features         []Feature       `json:"features"`
	UsageScenarios   []UsageScenario `json:"usageScenarios"`
	Specs            []SpecEntry     `json:"specs"`
	FAQs             []FAQEntry      `json:"faqs"`
}

// CopyField names one independently replaceable field of GeneratedCopy.
type CopyField string

const (
	FieldCatchphrase      CopyField = "catchphrase"
	FieldHeadline         CopyField = "headline"
	FieldEmotionalBenefit CopyField = "emotionalBenefit"
	FieldPainPoints       CopyField = "painPoints"
	FieldSolution         CopyField = "solution"
	FieldFeatures         CopyField = "features"
	FieldUsageScenarios   CopyField = "usageScenarios"
	FieldSpecs            CopyField = "specs"
	FieldFAQs             CopyField = "faqs"
)

// ApplyField replaces one field of the document wholesale from its JSON
// representation. Sub-fields are never merged.
func (c *GeneratedCopy) ApplyField(field CopyField, raw json.RawMessage) error {
	switch field {
	case FieldCatchphrase:
		return json.Unmarshal(raw, &c.Catchphrase)
	case FieldHeadline:
		return json.Unmarshal(raw, &c.Headline)
	case FieldEmotionalBenefit:
		return json.Unmarshal(raw, &c.EmotionalBenefit)
	case FieldPainPoints:
		return json.Unmarshal(raw, &c.PainPoints)
	case FieldSolution:
		return json.Unmarshal(raw, &c.Solution)
	case FieldFeatures:
		return json.Unmarshal(raw, &c.Features)
	case FieldUsageScenarios:
		return json.Unmarshal(raw, &c.UsageScenarios)
	case FieldSpecs:
		return json.Unmarshal(raw, &c.Specs)
	case FieldFAQs:
		return json.Unmarshal(raw, &c.FAQs)
	default:
		return fmt.Errorf("unknown copy field %q", field)
	}
}

// Clone returns a deep copy. Snapshots must not alias the live document.
func (c *GeneratedCopy) Clone() *GeneratedCopy {
	if c == nil {
		return nil
	}
	out := *c
	out.PainPoints = append([]PainPoint(nil), c.PainPoints...)
	out.Features = append([]Feature(nil), c.Features...)
	out.UsageScenarios = append([]UsageScenario(nil), c.UsageScenarios...)
	out.Specs = append([]SpecEntry(nil), c.Specs...)
	out.FAQs = append([]FAQEntry(nil), c.FAQs...)
	return &out
}
