package appstate

import (
	"context"
	"fmt"

	"pagegen/domain"

	"go.uber.org/zap"
)

// ReplaceImage overwrites one pool image in place. Pure state change.
func (m *Machine) ReplaceImage(poolIndex int, img domain.GeneratedImage) error {
	m.mu.Lock()
	if err := m.previewIndexValid(poolIndex); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state.GeneratedImages[poolIndex] = img
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notifyCommit(snapshot)
	return nil
}

// ReorderImages moves the image at fromIndex to toIndex, shifting the rest.
// MainImageIndex is re-derived so it keeps denoting the same logical image.
func (m *Machine) ReorderImages(fromIndex, toIndex int) error {
	m.mu.Lock()
	if err := m.previewIndexValid(fromIndex); err != nil {
		m.mu.Unlock()
		return err
	}
	if toIndex < 0 || toIndex >= len(m.state.GeneratedImages) {
		m.mu.Unlock()
		return fmt.Errorf("reorder target %d out of range", toIndex)
	}

	images := m.state.GeneratedImages
	moved := images[fromIndex]
	images = append(images[:fromIndex], images[fromIndex+1:]...)
	images = append(images[:toIndex], append([]domain.GeneratedImage{moved}, images[toIndex:]...)...)
	m.state.GeneratedImages = images
	m.state.MainImageIndex = remapIndex(m.state.MainImageIndex, fromIndex, toIndex)

	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notifyCommit(snapshot)
	return nil
}

// SelectMain points the main image at a new pool index.
func (m *Machine) SelectMain(poolIndex int) error {
	m.mu.Lock()
	if err := m.previewIndexValid(poolIndex); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state.MainImageIndex = poolIndex
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notifyCommit(snapshot)
	return nil
}

// ReplaceCopy swaps in a new copy document wholesale. Pure state change used
// by direct field edits from the preview UI.
func (m *Machine) ReplaceCopy(copyDoc *domain.GeneratedCopy) error {
	m.mu.Lock()
	if m.state.Phase != PhasePreview {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	m.state.GeneratedCopy = copyDoc.Clone()
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notifyCommit(snapshot)
	return nil
}

// RefineCopyField regenerates one copy field through the pipeline and
// replaces the document atomically. Network effect.
func (m *Machine) RefineCopyField(ctx context.Context, field domain.CopyField, instruction string) error {
	m.mu.Lock()
	if m.state.Phase != PhasePreview || m.state.GeneratedCopy == nil {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	current := m.state.GeneratedCopy.Clone()
	m.mu.Unlock()

	next, err := m.gen.RefineCopyField(ctx, current, field, instruction)
	if err != nil {
		return err
	}
	return m.ReplaceCopy(next)
}

// RegenerateImage re-runs one pool image with a refinement instruction.
// Failure propagates to the caller and the existing image stays in place.
func (m *Machine) RegenerateImage(ctx context.Context, poolIndex int, instruction string) error {
	m.mu.Lock()
	if err := m.previewIndexValid(poolIndex); err != nil {
		m.mu.Unlock()
		return err
	}
	req := m.state.Request
	existing := m.state.GeneratedImages[poolIndex]
	m.state.IsEditingImage = true
	m.mu.Unlock()

	img, err := m.gen.RegenerateImage(ctx, req, existing, poolIndex, instruction)

	m.mu.Lock()
	m.state.IsEditingImage = false
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("image regeneration failed, keeping existing image",
			zap.Int("index", poolIndex),
			zap.Error(err))
		return err
	}
	if poolIndex >= len(m.state.GeneratedImages) {
		// Pool shrank while the network call was in flight (reset).
		m.mu.Unlock()
		return ErrWrongPhase
	}
	m.state.GeneratedImages[poolIndex] = img
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.notifyCommit(snapshot)
	return nil
}

// remapIndex re-derives an index into the pool after moving one element, so
// it continues to denote the same logical image.
func remapIndex(current, from, to int) int {
	switch {
	case current == from:
		return to
	case from < current && to >= current:
		return current - 1
	case from > current && to <= current:
		return current + 1
	default:
		return current
	}
}

// previewIndexValid checks phase and pool bounds under the caller's lock.
func (m *Machine) previewIndexValid(poolIndex int) error {
	if m.state.Phase != PhasePreview {
		return ErrWrongPhase
	}
	if poolIndex < 0 || poolIndex >= len(m.state.GeneratedImages) {
		return fmt.Errorf("pool index %d out of range [0,%d)", poolIndex, len(m.state.GeneratedImages))
	}
	return nil
}
