// Package history provides the bounded undo/redo timeline and the persisted
// history item service.
package history

import (
	"sync"

	"pagegen/appstate"
)

// Timeline is a capped, linear sequence of state snapshots with a cursor.
//
// Appending while the cursor is not at the tail first discards everything
// after the cursor (branch discard: linear history, no redo tree). Recording
// is suppressed for exactly one observation after an Undo or Redo, because
// re-applying the navigated-to snapshot would otherwise register as a fresh
// edit and corrupt the timeline.
type Timeline struct {
	mu           sync.Mutex
	entries      []appstate.State
	cursor       int // index of the current entry, -1 when empty
	cap          int
	suppressNext bool
}

// NewTimeline creates a timeline bounded to cap snapshots.
func NewTimeline(cap int) *Timeline {
	return &Timeline{cursor: -1, cap: cap}
}

// Record observes a committed state. Non-preview or image-less states are
// ignored, as is the single observation following an Undo/Redo.
func (t *Timeline) Record(snapshot appstate.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.suppressNext {
		t.suppressNext = false
		return
	}
	if !snapshot.HasPreviewContent() {
		return
	}

	t.entries = append(t.entries[:t.cursor+1], snapshot.Clone())
	if len(t.entries) > t.cap {
		t.entries = t.entries[len(t.entries)-t.cap:]
	}
	t.cursor = len(t.entries) - 1
}

// Undo steps the cursor back and returns that snapshot. No-op at the start.
func (t *Timeline) Undo() (appstate.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursor <= 0 {
		return appstate.State{}, false
	}
	t.cursor--
	t.suppressNext = true
	return t.entries[t.cursor].Clone(), true
}

// Redo steps the cursor forward and returns that snapshot. No-op at the tail.
func (t *Timeline) Redo() (appstate.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursor >= len(t.entries)-1 {
		return appstate.State{}, false
	}
	t.cursor++
	t.suppressNext = true
	return t.entries[t.cursor].Clone(), true
}

// CanUndo reports whether Undo would move the cursor.
func (t *Timeline) CanUndo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (t *Timeline) CanRedo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor < len(t.entries)-1
}

// Len returns the number of recorded snapshots.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Cursor returns the current cursor position, -1 when empty.
func (t *Timeline) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}
