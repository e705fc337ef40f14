package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// PostgresLemmaStatStore implements the store.LemmaStatStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLemmaStatStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLemmaStatStore creates a new PostgreSQL implementation of the
// LemmaStatStore interface. If logger is nil, a default logger is used.
func NewPostgresLemmaStatStore(db store.DBTX, logger *slog.Logger) *PostgresLemmaStatStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLemmaStatStore{
		db:     db,
		logger: logger.With(slog.String("component", "lemma_stat_store")),
	}
}

// Ensure PostgresLemmaStatStore implements store.LemmaStatStore interface
var _ store.LemmaStatStore = (*PostgresLemmaStatStore)(nil)

// WithTx implements store.LemmaStatStore.WithTx
func (s *PostgresLemmaStatStore) WithTx(tx *sql.Tx) store.LemmaStatStore {
	return &PostgresLemmaStatStore{db: tx, logger: s.logger}
}

const lemmaStatColumns = `lemma, language, total_count, page_count, first_seen_at,
	last_seen_at, last_page_url, in_active_wordbank, dict_rank,
	promoted_vocab_id, promotion_reason, promotion_cooldown_until,
	created_at, updated_at`

// Get implements store.LemmaStatStore.Get
func (s *PostgresLemmaStatStore) Get(ctx context.Context, lemma, language string) (*domain.LemmaStat, error) {
	query := `SELECT ` + lemmaStatColumns + `
		FROM lemma_stats
		WHERE lemma = $1 AND language = $2`

	stat, err := scanLemmaStat(s.db.QueryRowContext(ctx, query, lemma, language))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLemmaStatNotFound
		}
		return nil, err
	}
	return stat, nil
}

// Create implements store.LemmaStatStore.Create
func (s *PostgresLemmaStatStore) Create(ctx context.Context, stat *domain.LemmaStat) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stat.Validate(); err != nil {
		log.Warn("lemma stat validation failed during create",
			slog.String("error", err.Error()),
			slog.String("lemma", stat.Lemma))
		return err
	}

	query := `
		INSERT INTO lemma_stats (` + lemmaStatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		stat.Lemma,
		stat.Language,
		stat.TotalCount,
		stat.PageCount,
		stat.FirstSeenAt,
		stat.LastSeenAt,
		stat.LastPageURL,
		stat.InActiveWordbank,
		stat.DictRank,
		stat.PromotedVocabID,
		nullablePromotionReason(stat.PromotionReason),
		stat.PromotionCooldownUntil,
		stat.CreatedAt,
		stat.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lemma stat %s/%s",
				store.ErrDuplicate, stat.Lemma, stat.Language)
		}

		log.Error("failed to create lemma stat",
			slog.String("error", err.Error()),
			slog.String("lemma", stat.Lemma),
			slog.String("language", stat.Language))
		return err
	}

	log.Debug("lemma stat created",
		slog.String("lemma", stat.Lemma),
		slog.String("language", stat.Language))
	return nil
}

// Update implements store.LemmaStatStore.Update
// Promotion fields are deliberately excluded; MarkPromoted is the only
// writer of the promotion link.
func (s *PostgresLemmaStatStore) Update(ctx context.Context, stat *domain.LemmaStat) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stat.Validate(); err != nil {
		log.Warn("lemma stat validation failed during update",
			slog.String("error", err.Error()),
			slog.String("lemma", stat.Lemma))
		return err
	}

	query := `
		UPDATE lemma_stats
		SET total_count = $1,
			page_count = $2,
			last_seen_at = $3,
			last_page_url = $4,
			in_active_wordbank = $5,
			dict_rank = $6,
			promotion_cooldown_until = $7,
			updated_at = $8
		WHERE lemma = $9 AND language = $10
	`
	result, err := s.db.ExecContext(ctx, query,
		stat.TotalCount,
		stat.PageCount,
		stat.LastSeenAt,
		stat.LastPageURL,
		stat.InActiveWordbank,
		stat.DictRank,
		stat.PromotionCooldownUntil,
		stat.UpdatedAt,
		stat.Lemma,
		stat.Language,
	)
	if err != nil {
		log.Error("failed to update lemma stat",
			slog.String("error", err.Error()),
			slog.String("lemma", stat.Lemma),
			slog.String("language", stat.Language))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrLemmaStatNotFound
	}
	return nil
}

// MarkPromoted implements store.LemmaStatStore.MarkPromoted
// The WHERE clause on a null promoted_vocab_id makes the update a
// compare-and-set; a zero row count means another writer already linked the
// lemma, which distinguishes the race loser from a missing row.
func (s *PostgresLemmaStatStore) MarkPromoted(
	ctx context.Context,
	lemma, language string,
	vocabID uuid.UUID,
	reason domain.PromotionReason,
	at time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE lemma_stats
		SET promoted_vocab_id = $1,
			promotion_reason = $2,
			updated_at = $3
		WHERE lemma = $4 AND language = $5 AND promoted_vocab_id IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, vocabID, string(reason), at, lemma, language)
	if err != nil {
		log.Error("failed to mark lemma promoted",
			slog.String("error", err.Error()),
			slog.String("lemma", lemma),
			slog.String("language", language))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// Either the row does not exist, or the promotion already happened.
		if _, getErr := s.Get(ctx, lemma, language); getErr != nil {
			return false, getErr
		}
		log.Debug("lemma promotion lost compare-and-set",
			slog.String("lemma", lemma),
			slog.String("language", language))
		return false, nil
	}

	log.Info("lemma promoted",
		slog.String("lemma", lemma),
		slog.String("language", language),
		slog.String("vocab_id", vocabID.String()),
		slog.String("reason", string(reason)))
	return true, nil
}

// ClearPromotion implements store.LemmaStatStore.ClearPromotion
func (s *PostgresLemmaStatStore) ClearPromotion(ctx context.Context, lemma, language string, cooldownUntil time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE lemma_stats
		SET promoted_vocab_id = NULL,
			promotion_reason = NULL,
			promotion_cooldown_until = $1,
			updated_at = $1
		WHERE lemma = $2 AND language = $3 AND promoted_vocab_id IS NOT NULL
	`
	_, err := s.db.ExecContext(ctx, query, cooldownUntil, lemma, language)
	if err != nil {
		log.Error("failed to clear lemma promotion",
			slog.String("error", err.Error()),
			slog.String("lemma", lemma),
			slog.String("language", language))
		return err
	}

	log.Debug("lemma promotion cleared",
		slog.String("lemma", lemma),
		slog.String("language", language))
	return nil
}

// ListStale implements store.LemmaStatStore.ListStale
func (s *PostgresLemmaStatStore) ListStale(
	ctx context.Context,
	lastSeenBefore time.Time,
	maxTotal int,
) ([]*domain.LemmaStat, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + lemmaStatColumns + `
		FROM lemma_stats
		WHERE promoted_vocab_id IS NULL
			AND last_seen_at < $1
			AND total_count <= $2
		ORDER BY last_seen_at ASC`

	rows, err := s.db.QueryContext(ctx, query, lastSeenBefore, maxTotal)
	if err != nil {
		log.Error("failed to list stale lemma stats",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	stats := []*domain.LemmaStat{}
	for rows.Next() {
		stat, err := scanLemmaStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// Delete implements store.LemmaStatStore.Delete
func (s *PostgresLemmaStatStore) Delete(ctx context.Context, lemma, language string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lemma_stats WHERE lemma = $1 AND language = $2`, lemma, language)
	if err != nil {
		log.Error("failed to delete lemma stat",
			slog.String("error", err.Error()),
			slog.String("lemma", lemma),
			slog.String("language", language))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrLemmaStatNotFound
	}

	log.Debug("lemma stat deleted",
		slog.String("lemma", lemma),
		slog.String("language", language))
	return nil
}

// rowScanner lets scanLemmaStat serve both QueryRowContext and rows iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLemmaStat(row rowScanner) (*domain.LemmaStat, error) {
	var stat domain.LemmaStat
	var reason sql.NullString

	err := row.Scan(
		&stat.Lemma,
		&stat.Language,
		&stat.TotalCount,
		&stat.PageCount,
		&stat.FirstSeenAt,
		&stat.LastSeenAt,
		&stat.LastPageURL,
		&stat.InActiveWordbank,
		&stat.DictRank,
		&stat.PromotedVocabID,
		&reason,
		&stat.PromotionCooldownUntil,
		&stat.CreatedAt,
		&stat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reason.Valid {
		stat.PromotionReason = domain.PromotionReason(reason.String)
	}
	return &stat, nil
}

func nullablePromotionReason(reason domain.PromotionReason) any {
	if reason == "" {
		return nil
	}
	return string(reason)
}
