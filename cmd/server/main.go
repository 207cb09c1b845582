package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wardana28/Nofapers-Tracker/internal/auth"
	"github.com/wardana28/Nofapers-Tracker/internal/config"
	"github.com/wardana28/Nofapers-Tracker/internal/feed"
	"github.com/wardana28/Nofapers-Tracker/internal/httpapi"
	"github.com/wardana28/Nofapers-Tracker/internal/logging"
	"github.com/wardana28/Nofapers-Tracker/internal/server"
	"github.com/wardana28/Nofapers-Tracker/internal/store"
	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("streak-tracker")

	catalog, err := loadCatalog(cfg)
	if err != nil {
		panic(fmt.Errorf("catalog error: %w", err))
	}
	logger.Info("catalog loaded", "locales", catalog.Locales())

	progressionStore, closeStore, err := store.NewByEngine(ctx, cfg.DataStore, store.Options{
		JSONDir:            cfg.Store.JSONDir,
		SQLitePath:         cfg.Store.SQLitePath,
		FirestoreProjectID: cfg.Store.GCPProjectID,
		FirestoreDatabase:  cfg.Store.FirestoreDatabase,
	})
	if err != nil {
		panic(fmt.Errorf("store error: %w", err))
	}
	defer closeStore()

	service := streak.NewService(progressionStore, catalog, logger,
		streak.WithTickInterval(cfg.TickInterval))

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	feedTarget, err := feedURL(cfg.FeedBaseURL)
	if err != nil {
		panic(fmt.Errorf("feed url error: %w", err))
	}
	var feedClient *feed.Client
	if cfg.FeedBaseURL != "" {
		feedClient, err = feed.NewClient(cfg.FeedBaseURL)
		if err != nil {
			panic(fmt.Errorf("feed client error: %w", err))
		}
	}

	router := server.NewRouter("streak-tracker", func(r chi.Router) {
		// Feed operations go through the typed client; the OAuth callback is
		// relayed to the backend, which owns the cookie session.
		httpapi.RegisterFeedRoutes(r, feedClient)
		r.Mount("/auth", httpapi.NewFeedProxy(feedTarget, logger))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))
			httpapi.RegisterRoutes(r, service)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func loadCatalog(cfg config.Config) (*streak.Catalog, error) {
	if cfg.CatalogPath != "" {
		return streak.LoadCatalogFromFile(cfg.CatalogPath)
	}
	return streak.LoadCatalog()
}

func feedURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	return url.Parse(raw)
}
