// Package slots maps the flat ordered pool of generated images onto the
// named regions of the detail page. Allocation is pure and deterministic:
// the same pool, copy, and promotion flag always produce the same layout.
package slots

import (
	"pagegen/domain"
)

// Region names one image-bearing area of the assembled page, in page order.
type Region string

const (
	RegionPromotion Region = "promotion"
	RegionHero      Region = "hero"
	RegionLifestyle Region = "lifestyle"
	RegionFeature   Region = "feature"
	RegionUsage     Region = "usage"
	RegionExtra     Region = "extra"  // overflow gallery, placed before details
	RegionDetail    Region = "detail" // detail gallery, capped at 3
)

// detailCap bounds the detail gallery region.
const detailCap = 3

// Slot is one allocated page region. PoolIndex records which pool position
// the image came from so per-image edits write back to the right place.
type Slot struct {
	Region    Region `json:"region"`
	Ordinal   int    `json:"ordinal"` // 0-based position within its region
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	PoolIndex int    `json:"poolIndex"`
}

// Layout is the full allocation result, regions in page order.
type Layout struct {
	Promotion *Slot  `json:"promotion,omitempty"`
	Hero      Slot   `json:"hero"`
	Lifestyle Slot   `json:"lifestyle"`
	Features  []Slot `json:"features"`
	Usage     Slot   `json:"usage"`
	Extra     []Slot `json:"extra,omitempty"`
	Details   []Slot `json:"details,omitempty"`
}

// Allocate walks a cursor over the pool with modulo indexing, so the pool is
// logically infinite when demand exceeds supply. Allocation order is fixed:
// promotion (iff hasPromotion) → hero → lifestyle → one slot per copy
// feature → usage → remaining pool images split between the extra gallery
// and the detail gallery (first 3 encountered).
//
// Returns the zero Layout when the pool is empty.
func Allocate(pool []domain.GeneratedImage, copyDoc *domain.GeneratedCopy, hasPromotion bool) Layout {
	var layout Layout
	if len(pool) == 0 {
		return layout
	}

	cursor := 0
	take := func(region Region, ordinal int) (Slot, int) {
		idx := cursor % len(pool)
		slot := Slot{
			Region:    region,
			Ordinal:   ordinal,
			URL:       pool[idx].URL,
			Prompt:    pool[idx].Prompt,
			PoolIndex: idx,
		}
		return slot, cursor + 1
	}

	if hasPromotion {
		slot, next := take(RegionPromotion, 0)
		layout.Promotion = &slot
		cursor = next
	}

	layout.Hero, cursor = take(RegionHero, 0)
	layout.Lifestyle, cursor = take(RegionLifestyle, 0)

	featureCount := 0
	if copyDoc != nil {
		featureCount = len(copyDoc.Features)
	}
	for i := 0; i < featureCount; i++ {
		var slot Slot
		slot, cursor = take(RegionFeature, i)
		layout.Features = append(layout.Features, slot)
	}

	layout.Usage, cursor = take(RegionUsage, 0)

	// Remaining pool images, each at most once: the leftovers after the
	// named regions. If the cursor has already wrapped there are none.
	remaining := len(pool) - cursor
	detailCount := 0
	extraCount := 0
	for i := 0; i < remaining; i++ {
		if detailCount < detailCap {
			var slot Slot
			slot, cursor = take(RegionDetail, detailCount)
			layout.Details = append(layout.Details, slot)
			detailCount++
		} else {
			var slot Slot
			slot, cursor = take(RegionExtra, extraCount)
			layout.Extra = append(layout.Extra, slot)
			extraCount++
		}
	}

	return layout
}

// SlotCount returns the total number of allocated slots in the layout.
func (l Layout) SlotCount() int {
	count := 2 + len(l.Features) + 1 + len(l.Extra) + len(l.Details) // hero, lifestyle, usage
	if l.Promotion != nil {
		count++
	}
	return count
}
