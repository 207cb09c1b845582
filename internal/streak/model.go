package streak

import (
	"time"
)

// DocumentKey is the stable identifier the progression document is stored under.
const DocumentKey = "progression_state"

// RelapseEvent is a single logged relapse. Immutable once created.
type RelapseEvent struct {
	ID   string    `json:"id" firestore:"id"`
	Date time.Time `json:"date" firestore:"date"`
	Note string    `json:"note" firestore:"note"`
}

// JournalEntry is a free-form diary record persisted alongside the streak data.
type JournalEntry struct {
	ID    string    `json:"id" firestore:"id"`
	Date  time.Time `json:"date" firestore:"date"`
	Title string    `json:"title" firestore:"title"`
	Body  string    `json:"body" firestore:"body"`
}

// ProgressionState is the durable per-user document owned by the engine.
// Relapses are kept newest first. Points are recomputed from elapsed time,
// the persisted value exists only for schema completeness.
type ProgressionState struct {
	StartInstant      *time.Time      `json:"start_instant" firestore:"start_instant"`
	BestStreakSeconds int64           `json:"best_streak_seconds" firestore:"best_streak_seconds"`
	Relapses          []RelapseEvent  `json:"relapses" firestore:"relapses"`
	Journal           []JournalEntry  `json:"journal" firestore:"journal"`
	Points            int64           `json:"points" firestore:"points"`
	UnlockedBadges    map[string]bool `json:"unlocked_badges" firestore:"unlocked_badges"`
}

// DefaultState returns the document used before a user has any saved progress.
func DefaultState() ProgressionState {
	return ProgressionState{
		Relapses:       []RelapseEvent{},
		Journal:        []JournalEntry{},
		UnlockedBadges: map[string]bool{},
	}
}

// Normalize repairs a partially loaded document field-by-field so a corrupt
// or old snapshot never surfaces as an error.
func (s *ProgressionState) Normalize() {
	if s.BestStreakSeconds < 0 {
		s.BestStreakSeconds = 0
	}
	if s.Points < 0 {
		s.Points = 0
	}
	if s.Relapses == nil {
		s.Relapses = []RelapseEvent{}
	}
	if s.Journal == nil {
		s.Journal = []JournalEntry{}
	}
	if s.UnlockedBadges == nil {
		s.UnlockedBadges = map[string]bool{}
	}
}

// Clone returns a deep copy so callers can hand the state across goroutines.
func (s ProgressionState) Clone() ProgressionState {
	out := s
	if s.StartInstant != nil {
		t := *s.StartInstant
		out.StartInstant = &t
	}
	out.Relapses = append([]RelapseEvent(nil), s.Relapses...)
	out.Journal = append([]JournalEntry(nil), s.Journal...)
	out.UnlockedBadges = make(map[string]bool, len(s.UnlockedBadges))
	for id, v := range s.UnlockedBadges {
		out.UnlockedBadges[id] = v
	}
	return out
}

// UnlockedBadgeIDs returns the unlocked set as a sorted-insensitive slice for responses.
func (s ProgressionState) UnlockedBadgeIDs() []string {
	ids := make([]string, 0, len(s.UnlockedBadges))
	for id, ok := range s.UnlockedBadges {
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}
