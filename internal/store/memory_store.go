package store

import (
	"context"
	"sync"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]streak.ProgressionState
}

// NewMemoryStore returns an in-memory store intended for local development and tests.
func NewMemoryStore() streak.Store {
	return &memoryStore{docs: make(map[string]streak.ProgressionState)}
}

func (s *memoryStore) Load(_ context.Context, userID string) (streak.ProgressionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.docs[userID]
	if !ok {
		return streak.DefaultState(), nil
	}
	return state.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, userID string, state streak.ProgressionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = state.Clone()
	return nil
}
