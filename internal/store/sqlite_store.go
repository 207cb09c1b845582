package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

// SQLiteStore keeps the serialized progression document in a single table,
// one row per user.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at filePath.
func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS progression_states (
			user_id    TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (streak.ProgressionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc FROM progression_states WHERE user_id = ?`, userID)

	var doc string
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return streak.DefaultState(), nil
	}
	if err != nil {
		return streak.DefaultState(), err
	}

	var state streak.ProgressionState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return streak.DefaultState(), nil
	}
	state.Normalize()
	return state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, state streak.ProgressionState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progression_states (user_id, doc, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userID, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
