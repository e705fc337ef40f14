// Package sqlitedict provides frequency-rank lookups over a read-only SQLite
// dictionary database. The database ships as a build artifact with a single
// ranks table: (lemma TEXT, language TEXT, rank INTEGER).
package sqlitedict

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

// Dictionary answers "how common is this word" queries against a local
// SQLite frequency list.
type Dictionary struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the dictionary database at path in read-only mode.
func Open(path string, logger *slog.Logger) (*Dictionary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_query_only=true", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary database: %w", err)
	}

	// A single connection avoids SQLite lock contention on shared files.
	db.SetMaxOpenConns(1)

	return &Dictionary{
		db:     db,
		logger: logger.With(slog.String("component", "dictionary")),
	}, nil
}

// Rank returns the frequency rank for a normalized lemma, where rank 1 is the
// most common word. The second return is false for words outside the list.
func (d *Dictionary) Rank(ctx context.Context, lemma, language string) (int, bool, error) {
	var rank int
	err := d.db.QueryRowContext(ctx,
		`SELECT rank FROM ranks WHERE lemma = ? AND language = ?`,
		lemma, language).Scan(&rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		d.logger.Error("dictionary rank lookup failed",
			slog.String("error", err.Error()),
			slog.String("lemma", lemma))
		return 0, false, err
	}
	return rank, true, nil
}

// Close releases the underlying database handle.
func (d *Dictionary) Close() error {
	return d.db.Close()
}
