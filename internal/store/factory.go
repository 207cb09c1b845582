package store

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

// Supported persistence engines for the progression document.
const (
	EngineMemory    = "memory"
	EngineJSON      = "json"
	EngineSQLite    = "sqlite"
	EngineFirestore = "firestore"
)

// Options carries the per-engine settings consumed by NewByEngine.
type Options struct {
	// JSONDir is the directory JSON documents are written to.
	JSONDir string
	// SQLitePath is the database file path.
	SQLitePath string
	// FirestoreProjectID and FirestoreDatabase select the Firestore backend.
	FirestoreProjectID string
	FirestoreDatabase  string
}

// NewByEngine constructs the progression store for the configured engine.
func NewByEngine(ctx context.Context, engine string, opts Options) (streak.Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineMemory:
		return NewMemoryStore(), noopClose, nil
	case EngineJSON:
		return NewJSONStore(opts.JSONDir), noopClose, nil
	case EngineSQLite:
		st, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case EngineFirestore:
		client, err := firestore.NewClientWithDatabase(ctx, opts.FirestoreProjectID, opts.FirestoreDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		return NewFirestoreStore(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store engine: %s", engine)
	}
}

func noopClose() error { return nil }
