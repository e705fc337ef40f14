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

// PostgresEncounterStore implements the store.EncounterStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEncounterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEncounterStore creates a new PostgreSQL implementation of the
// EncounterStore interface. If logger is nil, a default logger is used.
func NewPostgresEncounterStore(db store.DBTX, logger *slog.Logger) *PostgresEncounterStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEncounterStore{
		db:     db,
		logger: logger.With(slog.String("component", "encounter_store")),
	}
}

// Ensure PostgresEncounterStore implements store.EncounterStore interface
var _ store.EncounterStore = (*PostgresEncounterStore)(nil)

// WithTx implements store.EncounterStore.WithTx
func (s *PostgresEncounterStore) WithTx(tx *sql.Tx) store.EncounterStore {
	return &PostgresEncounterStore{db: tx, logger: s.logger}
}

// Create implements store.EncounterStore.Create
// Returns store.ErrInvalidEntity when the owning vocabulary entry does not
// exist (foreign key violation).
func (s *PostgresEncounterStore) Create(ctx context.Context, enc *domain.Encounter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := enc.Validate(); err != nil {
		log.Warn("encounter validation failed during create",
			slog.String("error", err.Error()),
			slog.String("encounter_id", enc.ID.String()))
		return err
	}

	query := `
		INSERT INTO encounters
			(id, vocab_id, lemma, source, page_url, page_host, page_title, sentence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		enc.ID,
		enc.VocabID,
		enc.Lemma,
		enc.Source,
		enc.Page.URL,
		enc.Page.Host,
		enc.Page.Title,
		enc.Page.Sentence,
		enc.CreatedAt,
		enc.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during encounter creation",
				slog.String("encounter_id", enc.ID.String()),
				slog.String("vocab_id", enc.VocabID.String()))
			return fmt.Errorf("%w: vocabulary entry %s not found",
				store.ErrInvalidEntity, enc.VocabID)
		}

		log.Error("failed to create encounter",
			slog.String("error", err.Error()),
			slog.String("encounter_id", enc.ID.String()))
		return err
	}

	log.Debug("encounter created",
		slog.String("encounter_id", enc.ID.String()),
		slog.String("vocab_id", enc.VocabID.String()),
		slog.String("source", string(enc.Source)))
	return nil
}

// GetByID implements store.EncounterStore.GetByID
func (s *PostgresEncounterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Encounter, error) {
	query := `
		SELECT id, vocab_id, lemma, source, page_url, page_host, page_title, sentence, created_at, updated_at
		FROM encounters
		WHERE id = $1
	`
	return s.scanOne(ctx, query, id)
}

// Touch implements store.EncounterStore.Touch
func (s *PostgresEncounterStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE encounters SET updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		log.Error("failed to touch encounter",
			slog.String("error", err.Error()),
			slog.String("encounter_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrEncounterNotFound
	}
	return nil
}

// FindRecent implements store.EncounterStore.FindRecent
func (s *PostgresEncounterStore) FindRecent(
	ctx context.Context,
	vocabID uuid.UUID,
	source domain.SourceTag,
	since time.Time,
) (*domain.Encounter, error) {
	query := `
		SELECT id, vocab_id, lemma, source, page_url, page_host, page_title, sentence, created_at, updated_at
		FROM encounters
		WHERE vocab_id = $1 AND source = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(ctx, query, vocabID, source, since)
}

// SourceTags implements store.EncounterStore.SourceTags
func (s *PostgresEncounterStore) SourceTags(ctx context.Context, vocabID uuid.UUID) ([]domain.SourceTag, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT source FROM encounters WHERE vocab_id = $1`, vocabID)
	if err != nil {
		log.Error("failed to query encounter source tags",
			slog.String("error", err.Error()),
			slog.String("vocab_id", vocabID.String()))
		return nil, err
	}
	defer closeRows(rows, log)

	tags := []domain.SourceTag{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, domain.SourceTag(tag))
	}
	return tags, rows.Err()
}

// LatestContext implements store.EncounterStore.LatestContext
func (s *PostgresEncounterStore) LatestContext(ctx context.Context, vocabID uuid.UUID) (*domain.Encounter, error) {
	query := `
		SELECT id, vocab_id, lemma, source, page_url, page_host, page_title, sentence, created_at, updated_at
		FROM encounters
		WHERE vocab_id = $1 AND (sentence <> '' OR page_title <> '')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(ctx, query, vocabID)
}

// CountByVocab implements store.EncounterStore.CountByVocab
func (s *PostgresEncounterStore) CountByVocab(ctx context.Context, vocabID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM encounters WHERE vocab_id = $1`, vocabID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete implements store.EncounterStore.Delete
func (s *PostgresEncounterStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM encounters WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete encounter",
			slog.String("error", err.Error()),
			slog.String("encounter_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrEncounterNotFound
	}

	log.Debug("encounter deleted", slog.String("encounter_id", id.String()))
	return nil
}

// DeleteByVocab implements store.EncounterStore.DeleteByVocab
func (s *PostgresEncounterStore) DeleteByVocab(ctx context.Context, vocabID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM encounters WHERE vocab_id = $1`, vocabID)
	if err != nil {
		log.Error("failed to delete encounters for entry",
			slog.String("error", err.Error()),
			slog.String("vocab_id", vocabID.String()))
		return 0, err
	}
	return result.RowsAffected()
}

// ListDeletable implements store.EncounterStore.ListDeletable
func (s *PostgresEncounterStore) ListDeletable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT e.id
		FROM encounters e
		JOIN vocabulary_entries v ON v.id = e.vocab_id
		WHERE e.created_at < $1 AND v.deleted_at IS NOT NULL
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		log.Error("failed to list deletable encounters",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanOne runs a single-row encounter query, mapping sql.ErrNoRows onto
// store.ErrEncounterNotFound.
func (s *PostgresEncounterStore) scanOne(ctx context.Context, query string, args ...any) (*domain.Encounter, error) {
	var enc domain.Encounter
	var source string

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&enc.ID,
		&enc.VocabID,
		&enc.Lemma,
		&source,
		&enc.Page.URL,
		&enc.Page.Host,
		&enc.Page.Title,
		&enc.Page.Sentence,
		&enc.CreatedAt,
		&enc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEncounterNotFound
		}
		return nil, err
	}

	enc.Source = domain.SourceTag(source)
	return &enc, nil
}

// closeRows closes rows and logs the error, keeping defer sites terse.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
