package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pagegen/appstate"
	"pagegen/db"
	"pagegen/domain"
	"pagegen/logging"
	"pagegen/snapshot"
)

func testService(t *testing.T, cap int) *Service {
	t.Helper()
	database, err := db.NewDatabase(db.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "history.db"),
		MigrationsPath: "file://../db/migrations",
	})
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewService(db.NewRepository(database), cap, logging.NewNop())
}

func savedState(tag string) appstate.State {
	return appstate.State{
		Phase:   appstate.PhasePreview,
		Request: domain.ProductRequest{Name: "mug " + tag, TargetPlatform: "coupang"},
		GeneratedImages: []domain.GeneratedImage{
			{URL: fmt.Sprintf("https://cdn.example.com/%s.png", tag), Prompt: "hero"},
		},
		GeneratedCopy: &domain.GeneratedCopy{
			Headline: "Headline " + tag,
			Features: []domain.Feature{{Title: "f"}},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	svc := testService(t, 10)
	ctx := context.Background()

	id, err := svc.Save(ctx, savedState("rt"), "My Mug Page")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	state, err := svc.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Phase != appstate.PhasePreview {
		t.Errorf("phase = %s", state.Phase)
	}
	if state.Request.Name != "mug rt" {
		t.Errorf("request name = %q", state.Request.Name)
	}
	if len(state.GeneratedImages) != 1 || state.GeneratedImages[0].URL != "https://cdn.example.com/rt.png" {
		t.Errorf("images = %+v", state.GeneratedImages)
	}
	if state.GeneratedCopy == nil || state.GeneratedCopy.Headline != "Headline rt" {
		t.Error("copy did not survive the round trip")
	}
}

func TestSaveRejectsUnhostedSnapshot(t *testing.T) {
	svc := testService(t, 10)

	state := savedState("inline")
	state.GeneratedImages[0].URL = "data:image/png;base64,aGVsbG8="

	_, err := svc.Save(context.Background(), state, "")
	if !errors.Is(err, snapshot.ErrNothingDisplayable) {
		t.Fatalf("err = %v, want ErrNothingDisplayable", err)
	}
}

func TestSaveEvictsOldestAtCap(t *testing.T) {
	svc := testService(t, 2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := svc.Save(ctx, savedState(fmt.Sprintf("s%d", i)), fmt.Sprintf("Item %d", i))
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, id)
		// created_at has second precision in sqlite comparisons; keep the
		// ordering unambiguous.
		time.Sleep(5 * time.Millisecond)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want cap 2", len(items))
	}
	if items[0].DisplayName != "Item 2" || items[1].DisplayName != "Item 1" {
		t.Errorf("items = %+v, want newest first with oldest evicted", items)
	}

	if _, err := svc.Load(ctx, ids[0]); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("evicted item load = %v, want ErrNotFound", err)
	}
}

func TestDefaultDisplayName(t *testing.T) {
	svc := testService(t, 10)
	ctx := context.Background()

	id, err := svc.Save(ctx, savedState("dn"), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("items = %+v", items)
	}
	if items[0].DisplayName == "" {
		t.Error("empty display name was not defaulted")
	}
	if items[0].Thumbnail != "https://cdn.example.com/dn.png" {
		t.Errorf("thumbnail = %s", items[0].Thumbnail)
	}
}

func TestDeleteSavedItem(t *testing.T) {
	svc := testService(t, 10)
	ctx := context.Background()

	id, err := svc.Save(ctx, savedState("del"), "Doomed")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
	if _, err := svc.Load(ctx, id); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("load after delete = %v", err)
	}
}
