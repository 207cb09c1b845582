package streak

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fallbackRelapseNote is recorded when the user logs a relapse without a note.
const fallbackRelapseNote = "No note"

var (
	// ErrStreakActive guards StartStreak: an active streak must end through a
	// relapse, never by silently restarting the clock.
	ErrStreakActive = errors.New("streak already active")
)

// StartStreak begins a new streak at now. It is only valid when no streak is
// active.
func StartStreak(state *ProgressionState, now time.Time) error {
	if state.StartInstant != nil {
		return ErrStreakActive
	}
	start := now
	state.StartInstant = &start
	return nil
}

// RecordRelapse appends an immutable relapse event to the front of the ledger
// and resets the streak clock to now. The best-streak high-water mark is left
// untouched; it only moves through ObserveBest.
func RecordRelapse(state *ProgressionState, note string, now time.Time) RelapseEvent {
	note = strings.TrimSpace(note)
	if note == "" {
		note = fallbackRelapseNote
	}

	event := RelapseEvent{
		ID:   uuid.NewString(),
		Date: now,
		Note: note,
	}

	state.Relapses = append([]RelapseEvent{event}, state.Relapses...)
	start := now
	state.StartInstant = &start
	return event
}

// ObserveBest raises the best-streak high-water mark when the observed elapsed
// seconds exceed it. Runs on every tick while a streak is live; monotonic.
func ObserveBest(state *ProgressionState, elapsedSeconds int64) bool {
	if elapsedSeconds > state.BestStreakSeconds {
		state.BestStreakSeconds = elapsedSeconds
		return true
	}
	return false
}

// AddJournalEntry appends a diary record. The journal is persisted in the same
// document but has no effect on any derived value.
func AddJournalEntry(state *ProgressionState, title, body string, now time.Time) JournalEntry {
	entry := JournalEntry{
		ID:    uuid.NewString(),
		Date:  now,
		Title: strings.TrimSpace(title),
		Body:  body,
	}
	state.Journal = append([]JournalEntry{entry}, state.Journal...)
	return entry
}
