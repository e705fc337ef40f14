// Package main implements the entry point for the wordgrove API server,
// which tracks vocabulary encounters, scores word familiarity and schedules
// review sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/wordgrove/wordgrove-api/internal/config"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up, down, status, version) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if err := run(cfg, logg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run wires the application together and blocks until shutdown.
func run(cfg *config.Config, logg *slog.Logger) error {
	ctx := context.Background()

	db, err := setupDatabase(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	app, err := newApplication(cfg, logg, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
