package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/wordgrove/wordgrove-api/internal/store"
)

// TxRunner runs functions inside PostgreSQL transactions. It satisfies the
// engine's transaction-runner dependency without exposing *sql.DB to callers.
type TxRunner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTxRunner creates a transaction runner over the given database handle.
func NewTxRunner(db *sql.DB, logger *slog.Logger) *TxRunner {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TxRunner{
		db:     db,
		logger: logger.With(slog.String("component", "tx_runner")),
	}
}

// RunInTx executes fn inside a transaction with commit/rollback handling.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return store.RunInTransaction(ctx, r.db, fn)
}
