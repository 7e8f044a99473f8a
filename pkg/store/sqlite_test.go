package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lexiface/pkg/db"
	"lexiface/pkg/model"
)

// setupTestStore creates a test database and store for each test.
func setupTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}

	store := NewSQLiteStore(d)
	cleanup := func() { d.Close() }
	return store, cleanup
}

func TestUtteranceStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	seed := []*model.Utterance{
		{ID: "u1", Text: "first", Backend: "espeak", Sync: true, Success: true, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "u2", Text: "second", Backend: "sapi", Sync: false, Success: true, CreatedAt: now.Add(-1 * time.Minute)},
		{ID: "u3", Text: "third", Backend: "face", Sync: false, Success: false, CreatedAt: now},
	}
	for _, u := range seed {
		if err := store.SaveUtterance(ctx, u); err != nil {
			t.Fatalf("SaveUtterance failed: %v", err)
		}
	}

	got, err := store.GetRecentUtterances(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentUtterances failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(got))
	}
	if got[0].ID != "u3" || got[1].ID != "u2" {
		t.Errorf("expected newest first (u3, u2), got (%s, %s)", got[0].ID, got[1].ID)
	}
	if got[0].Backend != "face" || got[0].Success {
		t.Errorf("u3 fields mismatch: %+v", got[0])
	}
	if !got[1].Success || got[1].Sync {
		t.Errorf("u2 fields mismatch: %+v", got[1])
	}
}

func TestUtteranceStore_DefaultLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveUtterance(ctx, &model.Utterance{ID: "u1", Text: "hello", Backend: "espeak"}); err != nil {
		t.Fatalf("SaveUtterance failed: %v", err)
	}

	// limit <= 0 falls back to the default
	got, err := store.GetRecentUtterances(ctx, 0)
	if err != nil {
		t.Fatalf("GetRecentUtterances failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 utterance, got %d", len(got))
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be filled on save")
	}
}

func TestEventStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seed := []*model.FaceEvent{
		{Kind: "expression", Detail: "happy", Success: true},
		{Kind: "look", Detail: "x=0.5 y=0.2 z=1.0", Success: true},
		{Kind: "appearance", Detail: "", Success: false},
	}
	for _, e := range seed {
		if err := store.SaveFaceEvent(ctx, e); err != nil {
			t.Fatalf("SaveFaceEvent failed: %v", err)
		}
	}

	got, err := store.GetRecentFaceEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentFaceEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	// Auto-increment ids give newest first
	if got[0].Kind != "appearance" || got[2].Kind != "expression" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	if got[0].ID <= got[1].ID {
		t.Errorf("expected descending ids, got %d then %d", got[0].ID, got[1].ID)
	}
}
