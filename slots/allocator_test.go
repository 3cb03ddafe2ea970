package slots

import (
	"fmt"
	"testing"

	"pagegen/domain"
)

func imagePool(n int) []domain.GeneratedImage {
	pool := make([]domain.GeneratedImage, n)
	for i := range pool {
		pool[i] = domain.GeneratedImage{
			URL:    fmt.Sprintf("https://cdn.example.com/%d.png", i),
			Prompt: fmt.Sprintf("scene %d", i),
		}
	}
	return pool
}

func copyWithFeatures(n int) *domain.GeneratedCopy {
	features := make([]domain.Feature, n)
	for i := range features {
		features[i] = domain.Feature{Title: fmt.Sprintf("feature %d", i)}
	}
	return &domain.GeneratedCopy{Headline: "h", Features: features}
}

func TestAllocateEmptyPool(t *testing.T) {
	layout := Allocate(nil, copyWithFeatures(3), true)
	if layout.Promotion != nil || layout.Hero.URL != "" || len(layout.Features) != 0 {
		t.Errorf("empty pool produced allocations: %+v", layout)
	}
}

func TestAllocateFullPoolNoPromotion(t *testing.T) {
	// 12 images, 3 features: hero, lifestyle, 3 features, usage = 6 named
	// slots, then 6 remaining split 3 details + 3 extra.
	layout := Allocate(imagePool(12), copyWithFeatures(3), false)

	if layout.Promotion != nil {
		t.Error("promotion slot allocated without promotion text")
	}
	if layout.Hero.PoolIndex != 0 {
		t.Errorf("hero pool index = %d, want 0", layout.Hero.PoolIndex)
	}
	if layout.Lifestyle.PoolIndex != 1 {
		t.Errorf("lifestyle pool index = %d, want 1", layout.Lifestyle.PoolIndex)
	}
	if len(layout.Features) != 3 {
		t.Fatalf("feature slots = %d, want 3", len(layout.Features))
	}
	for i, slot := range layout.Features {
		if slot.PoolIndex != 2+i {
			t.Errorf("feature %d pool index = %d, want %d", i, slot.PoolIndex, 2+i)
		}
		if slot.Ordinal != i {
			t.Errorf("feature %d ordinal = %d", i, slot.Ordinal)
		}
	}
	if layout.Usage.PoolIndex != 5 {
		t.Errorf("usage pool index = %d, want 5", layout.Usage.PoolIndex)
	}
	if len(layout.Details) != 3 {
		t.Errorf("detail slots = %d, want 3 (capped)", len(layout.Details))
	}
	if len(layout.Extra) != 3 {
		t.Errorf("extra slots = %d, want 3", len(layout.Extra))
	}
	if layout.SlotCount() != 12 {
		t.Errorf("slot count = %d, want 12", layout.SlotCount())
	}
}

func TestAllocatePromotionLeads(t *testing.T) {
	layout := Allocate(imagePool(4), copyWithFeatures(1), true)

	if layout.Promotion == nil {
		t.Fatal("no promotion slot despite promotion flag")
	}
	if layout.Promotion.PoolIndex != 0 {
		t.Errorf("promotion pool index = %d, want 0", layout.Promotion.PoolIndex)
	}
	if layout.Hero.PoolIndex != 1 {
		t.Errorf("hero pool index = %d, want 1 when promotion leads", layout.Hero.PoolIndex)
	}
}

func TestAllocateWrapsWhenDemandExceedsSupply(t *testing.T) {
	// 2 images but 4 features: the cursor wraps and images repeat.
	layout := Allocate(imagePool(2), copyWithFeatures(4), false)

	if layout.Hero.PoolIndex != 0 || layout.Lifestyle.PoolIndex != 1 {
		t.Errorf("hero/lifestyle = %d/%d, want 0/1", layout.Hero.PoolIndex, layout.Lifestyle.PoolIndex)
	}
	wantIndexes := []int{0, 1, 0, 1}
	for i, slot := range layout.Features {
		if slot.PoolIndex != wantIndexes[i] {
			t.Errorf("feature %d pool index = %d, want %d", i, slot.PoolIndex, wantIndexes[i])
		}
		if slot.URL == "" {
			t.Errorf("feature %d has no image despite wraparound", i)
		}
	}
	// Everything named is filled even though the pool wrapped.
	if layout.Usage.URL == "" {
		t.Error("usage slot empty despite wraparound")
	}
	// The pool was exhausted before the galleries; none remain.
	if len(layout.Details) != 0 || len(layout.Extra) != 0 {
		t.Errorf("galleries allocated from a wrapped pool: details=%d extra=%d", len(layout.Details), len(layout.Extra))
	}
}

func TestAllocateDeterministic(t *testing.T) {
	pool := imagePool(7)
	copyDoc := copyWithFeatures(2)

	first := Allocate(pool, copyDoc, true)
	second := Allocate(pool, copyDoc, true)

	if first.SlotCount() != second.SlotCount() {
		t.Fatalf("slot counts differ: %d vs %d", first.SlotCount(), second.SlotCount())
	}
	if first.Hero != second.Hero || first.Usage != second.Usage {
		t.Error("identical inputs produced different layouts")
	}
}

func TestAllocateNilCopy(t *testing.T) {
	layout := Allocate(imagePool(5), nil, false)

	if len(layout.Features) != 0 {
		t.Errorf("feature slots = %d with nil copy, want 0", len(layout.Features))
	}
	// hero, lifestyle, usage consume 3; remaining 2 go to details.
	if len(layout.Details) != 2 {
		t.Errorf("detail slots = %d, want 2", len(layout.Details))
	}
}
