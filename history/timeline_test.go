package history

import (
	"fmt"
	"testing"

	"pagegen/appstate"
	"pagegen/domain"
)

// previewState builds a distinguishable preview snapshot.
func previewState(tag string) appstate.State {
	return appstate.State{
		Phase: appstate.PhasePreview,
		GeneratedImages: []domain.GeneratedImage{
			{URL: "https://cdn.example.com/" + tag + ".png"},
		},
		GeneratedCopy: &domain.GeneratedCopy{Headline: tag},
	}
}

func headlineAt(t *testing.T, s appstate.State) string {
	t.Helper()
	if s.GeneratedCopy == nil {
		t.Fatal("snapshot has no copy")
	}
	return s.GeneratedCopy.Headline
}

func TestRecordIgnoresNonPreview(t *testing.T) {
	tl := NewTimeline(10)

	tl.Record(appstate.State{Phase: appstate.PhaseInput})
	tl.Record(appstate.State{Phase: appstate.PhaseProcessing})
	tl.Record(appstate.State{Phase: appstate.PhasePreview}) // no images

	if tl.Len() != 0 {
		t.Errorf("len = %d, want 0", tl.Len())
	}
	if tl.CanUndo() || tl.CanRedo() {
		t.Error("empty timeline reports navigable history")
	}
}

func TestUndoRedoWalk(t *testing.T) {
	tl := NewTimeline(10)
	tl.Record(previewState("one"))
	tl.Record(previewState("two"))
	tl.Record(previewState("three"))

	if !tl.CanUndo() || tl.CanRedo() {
		t.Fatalf("at tail: CanUndo=%v CanRedo=%v", tl.CanUndo(), tl.CanRedo())
	}

	s, ok := tl.Undo()
	if !ok || headlineAt(t, s) != "two" {
		t.Fatalf("first undo = %q ok=%v, want two", headlineAt(t, s), ok)
	}
	s, ok = tl.Undo()
	if !ok || headlineAt(t, s) != "one" {
		t.Fatalf("second undo = %q ok=%v, want one", headlineAt(t, s), ok)
	}
	if _, ok := tl.Undo(); ok {
		t.Error("undo past the start succeeded")
	}

	s, ok = tl.Redo()
	if !ok || headlineAt(t, s) != "two" {
		t.Fatalf("redo = %q ok=%v, want two", headlineAt(t, s), ok)
	}
	s, ok = tl.Redo()
	if !ok || headlineAt(t, s) != "three" {
		t.Fatalf("redo = %q ok=%v, want three", headlineAt(t, s), ok)
	}
	if _, ok := tl.Redo(); ok {
		t.Error("redo past the tail succeeded")
	}
}

func TestSuppressionConsumedOnce(t *testing.T) {
	tl := NewTimeline(10)
	tl.Record(previewState("one"))
	tl.Record(previewState("two"))

	// Navigating arms suppression: re-applying the restored snapshot must
	// not register as a fresh edit.
	tl.Undo()
	tl.Record(previewState("one"))
	if tl.Len() != 2 {
		t.Fatalf("len = %d after suppressed record, want 2", tl.Len())
	}
	if !tl.CanRedo() {
		t.Error("suppressed record consumed the redo branch")
	}

	// The next record is a real edit and discards the branch.
	tl.Record(previewState("one-edited"))
	if tl.Len() != 2 {
		t.Errorf("len = %d after branch discard, want 2", tl.Len())
	}
	if tl.CanRedo() {
		t.Error("redo still available after a fresh edit")
	}
	s, _ := tl.Undo()
	if headlineAt(t, s) != "one" {
		t.Errorf("undo after branch discard = %q, want one", headlineAt(t, s))
	}
}

func TestRecordTrimsOldestAtCap(t *testing.T) {
	tl := NewTimeline(3)
	for i := 1; i <= 5; i++ {
		tl.Record(previewState(fmt.Sprintf("s%d", i)))
	}

	if tl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tl.Len())
	}
	// Walk to the oldest surviving entry.
	var last appstate.State
	for {
		s, ok := tl.Undo()
		if !ok {
			break
		}
		last = s
	}
	if headlineAt(t, last) != "s3" {
		t.Errorf("oldest entry = %q, want s3", headlineAt(t, last))
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	tl := NewTimeline(10)
	original := previewState("one")
	tl.Record(original)
	original.GeneratedCopy.Headline = "mutated"
	tl.Record(previewState("two"))

	s, _ := tl.Undo()
	if headlineAt(t, s) != "one" {
		t.Errorf("stored snapshot = %q, caller mutation leaked in", headlineAt(t, s))
	}
	s.GeneratedCopy.Headline = "mutated again"
	s2, _ := tl.Redo()
	_ = s2
	s3, _ := tl.Undo()
	if headlineAt(t, s3) != "one" {
		t.Errorf("returned snapshot shares memory with the timeline")
	}
}

func TestCursorTracksPosition(t *testing.T) {
	tl := NewTimeline(10)
	if tl.Cursor() != -1 {
		t.Errorf("empty cursor = %d, want -1", tl.Cursor())
	}
	tl.Record(previewState("one"))
	tl.Record(previewState("two"))
	if tl.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", tl.Cursor())
	}
	tl.Undo()
	if tl.Cursor() != 0 {
		t.Errorf("cursor after undo = %d, want 0", tl.Cursor())
	}
}
