package streak

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/wardana28/Nofapers-Tracker/internal/logging"
)

// Store persists one progression document per user. Implementations must
// return a defaulted document (never an error) for missing or corrupt data.
type Store interface {
	Load(ctx context.Context, userID string) (ProgressionState, error)
	Save(ctx context.Context, userID string, state ProgressionState) error
}

// Snapshot is the full derived presentation state for one instant.
type Snapshot struct {
	Started           bool       `json:"started"`
	StartInstant      *time.Time `json:"start_instant,omitempty"`
	Elapsed           Elapsed    `json:"elapsed"`
	Rank              Rank       `json:"rank"`
	Points            int64      `json:"points"`
	BestStreakSeconds int64      `json:"best_streak_seconds"`
	UnlockedBadges    []string   `json:"unlocked_badges"`
	NewlyUnlocked     []string   `json:"newly_unlocked,omitempty"`
	RelapseCount      int        `json:"relapse_count"`
}

// BadgeStatus pairs a catalog badge with its per-user unlocked flag.
type BadgeStatus struct {
	Badge
	Unlocked bool `json:"unlocked"`
}

// RankProgress reports the resolved rank together with the full table.
type RankProgress struct {
	Current Rank   `json:"current"`
	Days    int    `json:"days"`
	Table   []Rank `json:"table"`
}

// MilestoneStatus pairs a benefit milestone with its reached flag.
type MilestoneStatus struct {
	Milestone
	Reached bool `json:"reached"`
}

// CalendarCell is one rendered cell of the month grid. Day 0 is leading padding.
type CalendarCell struct {
	Day     int    `json:"day"`
	Date    string `json:"date,omitempty"`
	Relapse bool   `json:"relapse"`
}

// CalendarMonth is the month grid overlaid with relapse marks.
type CalendarMonth struct {
	Year  int            `json:"year"`
	Month time.Month     `json:"month"`
	Cells []CalendarCell `json:"cells"`
}

// Service exposes every engine operation keyed by user.
type Service interface {
	Snapshot(ctx context.Context, userID, locale string) (*Snapshot, error)
	StartStreak(ctx context.Context, userID, locale string) (*Snapshot, error)
	RecordRelapse(ctx context.Context, userID, note, locale string) (RelapseEvent, *Snapshot, error)
	ListRelapses(ctx context.Context, userID string) ([]RelapseEvent, error)
	AddJournalEntry(ctx context.Context, userID, title, body string) (JournalEntry, error)
	ListJournal(ctx context.Context, userID string) ([]JournalEntry, error)
	Analytics(ctx context.Context, userID string) (*Analytics, error)
	Calendar(ctx context.Context, userID string, year int, month time.Month) (*CalendarMonth, error)
	Badges(ctx context.Context, userID, locale string) ([]BadgeStatus, error)
	Ranks(ctx context.Context, userID, locale string) (*RankProgress, error)
	Milestones(ctx context.Context, userID, locale string) ([]MilestoneStatus, error)
	OpenSession(ctx context.Context, userID, locale string) *Session
}

type service struct {
	store   Store
	catalog *Catalog
	logger  *slog.Logger
	now     func() time.Time
	tick    time.Duration
}

// Option tweaks service construction.
type Option func(*service)

// WithClock injects the time source; tests pass a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithTickInterval overrides the 1 Hz session tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.tick = d
		}
	}
}

// NewService creates the progression service.
func NewService(store Store, catalog *Catalog, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
		tick:    time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Snapshot(ctx context.Context, userID, locale string) (*Snapshot, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap, changed := s.refresh(&state, locale)
	if changed {
		s.saveQuietly(ctx, userID, state)
	}
	return snap, nil
}

func (s *service) StartStreak(ctx context.Context, userID, locale string) (*Snapshot, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := StartStreak(&state, s.now()); err != nil {
		return nil, err
	}

	snap, _ := s.refresh(&state, locale)
	s.saveQuietly(ctx, userID, state)
	return snap, nil
}

func (s *service) RecordRelapse(ctx context.Context, userID, note, locale string) (RelapseEvent, *Snapshot, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return RelapseEvent{}, nil, err
	}

	// The relapse is itself an observation of the streak it ends: apply the
	// reactions to the closing elapsed time before the clock resets, so the
	// high-water mark and earned badges survive even when no tick ran.
	now := s.now()
	closing := ElapsedBetween(state.StartInstant, now)
	badges := s.catalog.Badges(locale)
	MergeUnlocked(&state, UnlockNewly(closing.Days, badges, state.UnlockedBadges))
	ObserveBest(&state, closing.TotalSeconds)

	event := RecordRelapse(&state, note, now)
	snap, _ := s.refresh(&state, locale)
	s.saveQuietly(ctx, userID, state)
	return event, snap, nil
}

func (s *service) ListRelapses(ctx context.Context, userID string) ([]RelapseEvent, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Relapses, nil
}

func (s *service) AddJournalEntry(ctx context.Context, userID, title, body string) (JournalEntry, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return JournalEntry{}, err
	}

	entry := AddJournalEntry(&state, title, body, s.now())
	s.saveQuietly(ctx, userID, state)
	return entry, nil
}

func (s *service) ListJournal(ctx context.Context, userID string) ([]JournalEntry, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Journal, nil
}

func (s *service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	elapsed := ElapsedBetween(state.StartInstant, now)
	analytics := Aggregate(state.Relapses, elapsed, now)
	return &analytics, nil
}

func (s *service) Calendar(ctx context.Context, userID string, year int, month time.Month) (*CalendarMonth, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	marks := relapseDateSet(state.Relapses)
	grid := MonthGrid(year, month)
	cells := make([]CalendarCell, 0, len(grid))
	for _, day := range grid {
		cell := CalendarCell{Day: day}
		if day > 0 {
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateKeyLayout)
			cell.Date = date
			cell.Relapse = marks[date]
		}
		cells = append(cells, cell)
	}

	return &CalendarMonth{Year: year, Month: month, Cells: cells}, nil
}

func (s *service) Badges(ctx context.Context, userID, locale string) ([]BadgeStatus, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog := s.catalog.Badges(locale)
	out := make([]BadgeStatus, 0, len(catalog))
	for _, badge := range catalog {
		out = append(out, BadgeStatus{Badge: badge, Unlocked: state.UnlockedBadges[badge.ID]})
	}
	return out, nil
}

func (s *service) Ranks(ctx context.Context, userID, locale string) (*RankProgress, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	table := s.catalog.Ranks(locale)
	elapsed := ElapsedBetween(state.StartInstant, s.now())
	return &RankProgress{
		Current: ResolveRank(elapsed.Days, table),
		Days:    elapsed.Days,
		Table:   table,
	}, nil
}

func (s *service) Milestones(ctx context.Context, userID, locale string) ([]MilestoneStatus, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	elapsed := ElapsedBetween(state.StartInstant, s.now())
	catalog := s.catalog.Milestones(locale)
	out := make([]MilestoneStatus, 0, len(catalog))
	for _, milestone := range catalog {
		out = append(out, MilestoneStatus{Milestone: milestone, Reached: elapsed.Days >= milestone.Days})
	}
	return out, nil
}

func (s *service) load(ctx context.Context, userID string) (ProgressionState, error) {
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return ProgressionState{}, err
	}
	state.Normalize()
	return state, nil
}

// refresh recomputes the derived snapshot at the current instant and applies
// the tick reactions: best-streak high-water mark and badge unlock merge.
// The returned flag reports whether the document needs persisting.
func (s *service) refresh(state *ProgressionState, locale string) (*Snapshot, bool) {
	now := s.now()
	elapsed := ElapsedBetween(state.StartInstant, now)
	badges := s.catalog.Badges(locale)

	newly := UnlockNewly(elapsed.Days, badges, state.UnlockedBadges)
	MergeUnlocked(state, newly)
	bestMoved := ObserveBest(state, elapsed.TotalSeconds)

	// Persisted only for schema completeness; the source of truth is the formula.
	state.Points = ComputePoints(elapsed.TotalSeconds, elapsed.Days, badges)

	return &Snapshot{
		Started:           elapsed.Started,
		StartInstant:      state.StartInstant,
		Elapsed:           elapsed,
		Rank:              ResolveRank(elapsed.Days, s.catalog.Ranks(locale)),
		Points:            state.Points,
		BestStreakSeconds: state.BestStreakSeconds,
		UnlockedBadges:    s.sortedUnlocked(state),
		NewlyUnlocked:     newly,
		RelapseCount:      len(state.Relapses),
	}, bestMoved || len(newly) > 0
}

// sortedUnlocked orders unlocked ids by catalog threshold so responses are stable.
func (s *service) sortedUnlocked(state *ProgressionState) []string {
	catalog := s.catalog.Badges(DefaultLocale)
	out := make([]string, 0, len(state.UnlockedBadges))
	seen := make(map[string]bool, len(state.UnlockedBadges))
	for _, badge := range catalog {
		if state.UnlockedBadges[badge.ID] {
			out = append(out, badge.ID)
			seen[badge.ID] = true
		}
	}

	// Ids unlocked under an older catalog revision stay valid.
	var stale []string
	for id, ok := range state.UnlockedBadges {
		if ok && !seen[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return append(out, stale...)
}

// saveQuietly persists the document best-effort. Losing the very latest write
// is tolerable; the next snapshot re-derives from the last good save.
func (s *service) saveQuietly(ctx context.Context, userID string, state ProgressionState) {
	if err := s.store.Save(ctx, userID, state); err != nil && s.logger != nil {
		logging.WithUserID(s.logger, userID).Error("progression save failed", "error", err)
	}
}
