package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/wordgrove/wordgrove-api/internal/api"
	"github.com/wordgrove/wordgrove-api/internal/config"
	"github.com/wordgrove/wordgrove-api/internal/platform/postgres"
	"github.com/wordgrove/wordgrove-api/internal/platform/sqlitedict"
	"github.com/wordgrove/wordgrove-api/internal/platform/wordbank"
	"github.com/wordgrove/wordgrove-api/internal/service/auth"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// dictionary is nil when no frequency dictionary is configured.
	dictionary *sqlitedict.Dictionary
	wordbanks  *wordbank.Library

	engine       api.EngineService
	tokenService auth.TokenService
	keyVerifier  auth.KeyVerifier
}

// newApplication creates an application instance with all dependencies
// initialized. It accepts the core dependencies that must be established
// before application wiring.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokenService, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token service initialized",
		"token_expiry_minutes", cfg.Auth.TokenExpiryMinutes)

	app.keyVerifier = auth.NewBcryptVerifier()

	stores := engine.Stores{
		Encounters: postgres.NewPostgresEncounterStore(db, logger),
		LemmaStats: postgres.NewPostgresLemmaStatStore(db, logger),
		Vocabulary: postgres.NewPostgresVocabularyStore(db, logger),
		Settings:   postgres.NewPostgresSettingsStore(db, logger),
	}
	txRunner := postgres.NewTxRunner(db, logger)

	var dict engine.Dictionary
	if cfg.Dictionary.Path != "" {
		app.dictionary, err = sqlitedict.Open(cfg.Dictionary.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open frequency dictionary: %w", err)
		}
		dict = app.dictionary
		logger.Info("Frequency dictionary opened", "path", cfg.Dictionary.Path)
	} else {
		logger.Warn("No frequency dictionary configured; rank lookups disabled")
	}

	app.wordbanks, err = wordbank.Load(cfg.Wordbanks.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load wordbanks: %w", err)
	}
	logger.Info("Wordbanks loaded", "count", app.wordbanks.Len())

	app.engine, err = engine.NewService(stores, txRunner, dict, app.wordbanks, cfg.Engine, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.dictionary != nil {
		if err := app.dictionary.Close(); err != nil {
			app.logger.Error("Error closing dictionary database", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
