package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

// jsonStore keeps one document file per user under a base directory. Writes go
// through a temp file and rename so a crash never leaves a truncated document.
type jsonStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONStore returns a file-backed store rooted at dir.
func NewJSONStore(dir string) streak.Store {
	return &jsonStore{dir: dir}
}

func (s *jsonStore) path(userID string) string {
	return filepath.Join(s.dir, userID, streak.DocumentKey+".json")
}

func (s *jsonStore) Load(_ context.Context, userID string) (streak.ProgressionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return streak.DefaultState(), nil
		}
		return streak.DefaultState(), err
	}

	var state streak.ProgressionState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt snapshot recovers as defaults rather than failing the session.
		return streak.DefaultState(), nil
	}
	state.Normalize()
	return state, nil
}

func (s *jsonStore) Save(_ context.Context, userID string, state streak.ProgressionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(userID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
