package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/wardana28/Nofapers-Tracker/internal/auth"
	"github.com/wardana28/Nofapers-Tracker/internal/envconfig"
	"github.com/wardana28/Nofapers-Tracker/internal/store"
)

// Config encapsulates the runtime configuration for the streak tracker.
type Config struct {
	Port         string `validate:"required"`
	DataStore    string `validate:"required"`
	Auth         AuthConfig
	Store        StoreConfig
	FeedBaseURL  string
	CatalogPath  string
	TickInterval time.Duration
}

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// StoreConfig tailors the persistence backend.
type StoreConfig struct {
	JSONDir           string
	SQLitePath        string
	GCPProjectID      string
	FirestoreDatabase string
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	tick, err := envconfig.GetDuration("TICK_INTERVAL", time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:      envconfig.Get("PORT", "8080"),
		DataStore: strings.ToLower(envconfig.Get("DATASTORE", store.EngineMemory)),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("JWKS_URL", ""),
			Audience: envconfig.Get("AUTH_AUDIENCE", ""),
			Issuer:   envconfig.Get("AUTH_ISSUER", ""),
		},
		Store: StoreConfig{
			JSONDir:           envconfig.Get("JSON_DIR", "data"),
			SQLitePath:        envconfig.Get("SQLITE_PATH", "data/tracker.db"),
			GCPProjectID:      envconfig.Get("GCP_PROJECT_ID", ""),
			FirestoreDatabase: envconfig.Get("FIRESTORE_DATABASE", "(default)"),
		},
		FeedBaseURL:  envconfig.Get("FEED_BASE_URL", ""),
		CatalogPath:  envconfig.Get("CATALOG_PATH", ""),
		TickInterval: tick,
	}

	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.DataStore {
	case store.EngineMemory, store.EngineJSON, store.EngineSQLite:
		// no-op
	case store.EngineFirestore:
		if cfg.Store.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case auth.ModeJWKS:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("JWKS_URL is required when AUTH_MODE=jwks")
		}
	case auth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	return nil
}
