package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// PostgresSettingsStore implements the store.SettingsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSettingsStore creates a new PostgreSQL implementation of the
// SettingsStore interface. If logger is nil, a default logger is used.
func NewPostgresSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "settings_store")),
	}
}

// Ensure PostgresSettingsStore implements store.SettingsStore interface
var _ store.SettingsStore = (*PostgresSettingsStore)(nil)

// WithTx implements store.SettingsStore.WithTx
func (s *PostgresSettingsStore) WithTx(tx *sql.Tx) store.SettingsStore {
	return &PostgresSettingsStore{db: tx, logger: s.logger}
}

// Get implements store.SettingsStore.Get
func (s *PostgresSettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

// Set implements store.SettingsStore.Set
func (s *PostgresSettingsStore) Set(ctx context.Context, key, value string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	if err != nil {
		log.Error("failed to set setting",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return err
	}

	log.Debug("setting stored", slog.String("key", key))
	return nil
}

// GetAll implements store.SettingsStore.GetAll
func (s *PostgresSettingsStore) GetAll(ctx context.Context) (map[string]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		log.Error("failed to query settings", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	settings := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// Delete implements store.SettingsStore.Delete
func (s *PostgresSettingsStore) Delete(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Deleting an absent key is a no-op success.
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		log.Error("failed to delete setting",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return err
	}
	return nil
}
