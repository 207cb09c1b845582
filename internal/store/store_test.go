package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

func sampleState() streak.ProgressionState {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	state := streak.DefaultState()
	state.StartInstant = &start
	state.BestStreakSeconds = 7 * 86400
	state.Relapses = []streak.RelapseEvent{
		{ID: "evt-2", Date: start.Add(-24 * time.Hour), Note: "slipped"},
		{ID: "evt-1", Date: start.Add(-72 * time.Hour), Note: "No note"},
	}
	state.UnlockedBadges = map[string]bool{"seed": true, "spark": true}
	return state
}

func checkRoundTrip(t *testing.T, st streak.Store) {
	t.Helper()
	ctx := context.Background()

	// A user with no document loads as defaults.
	fresh, err := st.Load(ctx, "nobody")
	if err != nil {
		t.Fatalf("Load for missing user returned error: %v", err)
	}
	if fresh.StartInstant != nil || len(fresh.Relapses) != 0 || len(fresh.UnlockedBadges) != 0 {
		t.Fatalf("missing user must load as defaults, got %+v", fresh)
	}

	want := sampleState()
	if err := st.Save(ctx, "user-123", want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := st.Load(ctx, "user-123")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.StartInstant == nil || !got.StartInstant.Equal(*want.StartInstant) {
		t.Fatalf("start instant lost: %v", got.StartInstant)
	}
	if got.BestStreakSeconds != want.BestStreakSeconds {
		t.Fatalf("best streak lost: %d", got.BestStreakSeconds)
	}
	if len(got.Relapses) != 2 || got.Relapses[0].ID != "evt-2" || got.Relapses[0].Note != "slipped" {
		t.Fatalf("ledger order or content lost: %+v", got.Relapses)
	}
	if !got.UnlockedBadges["seed"] || !got.UnlockedBadges["spark"] {
		t.Fatalf("unlocked set lost: %v", got.UnlockedBadges)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	checkRoundTrip(t, NewMemoryStore())
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	if err := st.Save(ctx, "user-123", sampleState()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	first, _ := st.Load(ctx, "user-123")
	first.UnlockedBadges["mutated"] = true
	first.Relapses[0].Note = "changed"

	second, _ := st.Load(ctx, "user-123")
	if second.UnlockedBadges["mutated"] || second.Relapses[0].Note == "changed" {
		t.Fatalf("loaded state must be isolated from caller mutation")
	}
}

func TestJSONStore_RoundTrip(t *testing.T) {
	checkRoundTrip(t, NewJSONStore(t.TempDir()))
}

func TestJSONStore_CorruptDocumentLoadsDefaults(t *testing.T) {
	dir := t.TempDir()
	st := NewJSONStore(dir)
	ctx := context.Background()

	path := filepath.Join(dir, "user-123", streak.DocumentKey+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := st.Load(ctx, "user-123")
	if err != nil {
		t.Fatalf("corrupt document must not error: %v", err)
	}
	if got.StartInstant != nil || len(got.Relapses) != 0 {
		t.Fatalf("corrupt document must load as defaults, got %+v", got)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer st.Close()

	checkRoundTrip(t, st)
}

func TestSQLiteStore_OverwriteKeepsLatest(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	first := sampleState()
	if err := st.Save(ctx, "user-123", first); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	second := first.Clone()
	second.BestStreakSeconds = 30 * 86400
	if err := st.Save(ctx, "user-123", second); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	got, err := st.Load(ctx, "user-123")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.BestStreakSeconds != 30*86400 {
		t.Fatalf("expected latest write to win, got %d", got.BestStreakSeconds)
	}
}

func TestNewByEngine_RejectsUnknownEngine(t *testing.T) {
	if _, _, err := NewByEngine(context.Background(), "cassandra", Options{}); err == nil {
		t.Fatalf("expected unsupported engine error")
	}
}

func TestNewByEngine_DefaultsToMemory(t *testing.T) {
	st, closeFn, err := NewByEngine(context.Background(), "", Options{})
	if err != nil {
		t.Fatalf("NewByEngine returned error: %v", err)
	}
	defer closeFn()
	checkRoundTrip(t, st)
}
