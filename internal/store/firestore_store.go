package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

const (
	statesCollection   = "progression_states"
	relapsesCollection = "relapses"
)

// firestoreStore persists the document scalars in one doc per user and the
// append-only relapse ledger in a subcollection, so a relapse write never
// rewrites the full history.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed progression store.
func NewFirestoreStore(client *firestore.Client) streak.Store {
	return &firestoreStore{client: client}
}

// stateDoc mirrors ProgressionState minus the relapse ledger.
type stateDoc struct {
	StartInstant      *time.Time            `firestore:"start_instant"`
	BestStreakSeconds int64                 `firestore:"best_streak_seconds"`
	Journal           []streak.JournalEntry `firestore:"journal"`
	Points            int64                 `firestore:"points"`
	UnlockedBadges    map[string]bool       `firestore:"unlocked_badges"`
	UpdatedAt         time.Time             `firestore:"updated_at"`
}

func (s *firestoreStore) Load(ctx context.Context, userID string) (streak.ProgressionState, error) {
	ref := s.client.Collection(statesCollection).Doc(userID)

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return streak.DefaultState(), nil
	}
	if err != nil {
		return streak.DefaultState(), fmt.Errorf("load progression state: %w", err)
	}

	var doc stateDoc
	if err := snap.DataTo(&doc); err != nil {
		// Field-by-field recovery: a malformed document loads as defaults.
		return streak.DefaultState(), nil
	}

	state := streak.ProgressionState{
		StartInstant:      doc.StartInstant,
		BestStreakSeconds: doc.BestStreakSeconds,
		Journal:           doc.Journal,
		Points:            doc.Points,
		UnlockedBadges:    doc.UnlockedBadges,
	}

	iter := ref.Collection(relapsesCollection).
		OrderBy("date", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	for {
		eventSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return streak.DefaultState(), fmt.Errorf("load relapses: %w", err)
		}

		var event streak.RelapseEvent
		if err := eventSnap.DataTo(&event); err != nil {
			continue // Skip invalid entries
		}
		if event.ID == "" {
			event.ID = eventSnap.Ref.ID
		}
		state.Relapses = append(state.Relapses, event)
	}

	state.Normalize()
	return state, nil
}

func (s *firestoreStore) Save(ctx context.Context, userID string, state streak.ProgressionState) error {
	ref := s.client.Collection(statesCollection).Doc(userID)

	doc := stateDoc{
		StartInstant:      state.StartInstant,
		BestStreakSeconds: state.BestStreakSeconds,
		Journal:           state.Journal,
		Points:            state.Points,
		UnlockedBadges:    state.UnlockedBadges,
		UpdatedAt:         time.Now().UTC(),
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return fmt.Errorf("save progression state: %w", err)
	}

	// Events are immutable and keyed by id, so re-writing them is idempotent.
	for _, event := range state.Relapses {
		if _, err := ref.Collection(relapsesCollection).Doc(event.ID).Set(ctx, event); err != nil {
			return fmt.Errorf("save relapse %s: %w", event.ID, err)
		}
	}

	return nil
}
