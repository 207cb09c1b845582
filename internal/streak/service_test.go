package streak

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeStore struct {
	loadFn func(context.Context, string) (ProgressionState, error)
	saveFn func(context.Context, string, ProgressionState) error
}

func (f *fakeStore) Load(ctx context.Context, userID string) (ProgressionState, error) {
	if f.loadFn != nil {
		return f.loadFn(ctx, userID)
	}
	return DefaultState(), nil
}

func (f *fakeStore) Save(ctx context.Context, userID string, state ProgressionState) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, userID, state)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	return catalog
}

func TestServiceSnapshot_AppliesTickReactions(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(3*24*time.Hour + 2*time.Hour)

	var saved *ProgressionState
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			return state, nil
		},
		saveFn: func(_ context.Context, _ string, state ProgressionState) error {
			saved = &state
			return nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return now }))

	snap, err := svc.Snapshot(context.Background(), "user-123", DefaultLocale)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if snap.Elapsed.Days != 3 || snap.Elapsed.Hours != 2 {
		t.Fatalf("expected 3d2h, got %+v", snap.Elapsed)
	}
	if snap.Rank.ID != "fighter" {
		t.Fatalf("expected fighter at 3 days, got %s", snap.Rank.ID)
	}
	if want := int64(3*86400 + 2*3600); snap.BestStreakSeconds != want {
		t.Fatalf("best streak not raised: %d != %d", snap.BestStreakSeconds, want)
	}
	if len(snap.NewlyUnlocked) != 2 { // seed at 1 day, spark at 3 days
		t.Fatalf("expected seed and spark newly unlocked, got %v", snap.NewlyUnlocked)
	}
	if wantPoints := int64(74 + 1*10 + 3*10); snap.Points != wantPoints {
		t.Fatalf("expected %d points, got %d", wantPoints, snap.Points)
	}
	if saved == nil {
		t.Fatalf("reactions changed the document; it must be persisted")
	}
	if !saved.UnlockedBadges["seed"] || !saved.UnlockedBadges["spark"] {
		t.Fatalf("persisted document missing unlocked badges: %v", saved.UnlockedBadges)
	}
}

func TestServiceSnapshot_NoChangeNoSave(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(3 * time.Hour)

	saves := 0
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			state.BestStreakSeconds = 10 * 3600 // already above current elapsed
			return state, nil
		},
		saveFn: func(context.Context, string, ProgressionState) error {
			saves++
			return nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return now }))
	if _, err := svc.Snapshot(context.Background(), "user-123", DefaultLocale); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if saves != 0 {
		t.Fatalf("no reaction fired, expected no save, got %d", saves)
	}
}

func TestServiceStartStreak_ConflictWhenActive(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			return state, nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return start.Add(time.Hour) }))
	if _, err := svc.StartStreak(context.Background(), "user-123", DefaultLocale); !errors.Is(err, ErrStreakActive) {
		t.Fatalf("expected ErrStreakActive, got %v", err)
	}
}

func TestServiceRecordRelapse_ResetsClockKeepsBest(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(3*24*time.Hour + 2*time.Hour)

	state := DefaultState()
	state.StartInstant = &start
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			return state.Clone(), nil
		},
		saveFn: func(_ context.Context, _ string, s ProgressionState) error {
			state = s
			return nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return now }))

	// A tick before the relapse raises the high-water mark.
	if _, err := svc.Snapshot(context.Background(), "user-123", DefaultLocale); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	event, snap, err := svc.RecordRelapse(context.Background(), "user-123", "stress", DefaultLocale)
	if err != nil {
		t.Fatalf("RecordRelapse returned error: %v", err)
	}

	if event.Note != "stress" || !event.Date.Equal(now) {
		t.Fatalf("unexpected event: %+v", event)
	}
	if snap.Elapsed.Days != 0 || snap.Elapsed.TotalSeconds != 0 {
		t.Fatalf("elapsed must reset after relapse, got %+v", snap.Elapsed)
	}
	if want := int64(3*86400 + 2*3600); snap.BestStreakSeconds < want {
		t.Fatalf("best streak must survive the relapse: %d < %d", snap.BestStreakSeconds, want)
	}
	if len(state.Relapses) != 1 || state.Relapses[0].ID != event.ID {
		t.Fatalf("persisted ledger wrong: %+v", state.Relapses)
	}
	// Badges earned before the relapse stay unlocked at day zero.
	if !state.UnlockedBadges["seed"] || !state.UnlockedBadges["spark"] {
		t.Fatalf("badges lost across relapse: %v", state.UnlockedBadges)
	}
}

func TestServiceRecordRelapse_ObservesClosingStreak(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(3*24*time.Hour + 2*time.Hour)

	var saved *ProgressionState
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			return state, nil
		},
		saveFn: func(_ context.Context, _ string, s ProgressionState) error {
			saved = &s
			return nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return now }))

	// Relapse straight away, without any Snapshot in between. The streak
	// being ended must still be observed.
	event, snap, err := svc.RecordRelapse(context.Background(), "user-123", "stress", DefaultLocale)
	if err != nil {
		t.Fatalf("RecordRelapse returned error: %v", err)
	}
	if event.Note != "stress" {
		t.Fatalf("unexpected event: %+v", event)
	}

	if want := int64(3*86400 + 2*3600); snap.BestStreakSeconds != want {
		t.Fatalf("closing streak not observed: best %d, want %d", snap.BestStreakSeconds, want)
	}
	if saved == nil {
		t.Fatalf("relapse must be persisted")
	}
	if !saved.UnlockedBadges["seed"] || !saved.UnlockedBadges["spark"] {
		t.Fatalf("badges earned by the closing streak lost: %v", saved.UnlockedBadges)
	}
	if saved.BestStreakSeconds != int64(3*86400+2*3600) {
		t.Fatalf("persisted best streak wrong: %d", saved.BestStreakSeconds)
	}
	if snap.Elapsed.Days != 0 || snap.Elapsed.TotalSeconds != 0 {
		t.Fatalf("elapsed must reset after relapse, got %+v", snap.Elapsed)
	}
}

func TestServiceSnapshot_SaveFailureIsNotFatal(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			return state, nil
		},
		saveFn: func(context.Context, string, ProgressionState) error {
			return errors.New("disk full")
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return start.Add(48 * time.Hour) }))
	snap, err := svc.Snapshot(context.Background(), "user-123", DefaultLocale)
	if err != nil {
		t.Fatalf("save failures must not surface: %v", err)
	}
	if snap.Elapsed.Days != 2 {
		t.Fatalf("expected 2 days, got %+v", snap.Elapsed)
	}
}

func TestServiceCalendar_MarksRelapseDays(t *testing.T) {
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.Relapses = []RelapseEvent{
				{ID: "a", Date: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)},
				{ID: "b", Date: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)},
			}
			return state, nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger())
	calendar, err := svc.Calendar(context.Background(), "user-123", 2024, time.March)
	if err != nil {
		t.Fatalf("Calendar returned error: %v", err)
	}

	// March 2024 starts on a Friday: five pad cells then 31 days.
	if len(calendar.Cells) != 5+31 {
		t.Fatalf("expected 36 cells, got %d", len(calendar.Cells))
	}

	marked := 0
	for _, cell := range calendar.Cells {
		if cell.Relapse {
			marked++
			if cell.Day != 5 && cell.Day != 20 {
				t.Fatalf("unexpected relapse mark on day %d", cell.Day)
			}
		}
	}
	if marked != 2 {
		t.Fatalf("expected 2 marked days, got %d", marked)
	}
}

func TestServiceBadgesAndMilestones_Localized(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeStore{
		loadFn: func(context.Context, string) (ProgressionState, error) {
			state := DefaultState()
			state.StartInstant = &start
			state.UnlockedBadges["seed"] = true
			return state, nil
		},
	}

	svc := NewService(repo, mustCatalog(t), testLogger(), WithClock(func() time.Time { return start.Add(7 * 24 * time.Hour) }))

	badges, err := svc.Badges(context.Background(), "user-123", "id")
	if err != nil {
		t.Fatalf("Badges returned error: %v", err)
	}
	var seed *BadgeStatus
	for i := range badges {
		if badges[i].ID == "seed" {
			seed = &badges[i]
		}
	}
	if seed == nil || !seed.Unlocked {
		t.Fatalf("seed badge should report unlocked: %+v", badges)
	}
	if seed.Name != "Benih Pertama" {
		t.Fatalf("expected Indonesian display string, got %q", seed.Name)
	}

	milestones, err := svc.Milestones(context.Background(), "user-123", DefaultLocale)
	if err != nil {
		t.Fatalf("Milestones returned error: %v", err)
	}
	for _, m := range milestones {
		if m.Days <= 7 && !m.Reached {
			t.Fatalf("milestone at %d days should be reached", m.Days)
		}
		if m.Days > 7 && m.Reached {
			t.Fatalf("milestone at %d days should not be reached", m.Days)
		}
	}
}
