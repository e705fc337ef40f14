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

// PostgresVocabularyStore implements the store.VocabularyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresVocabularyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVocabularyStore creates a new PostgreSQL implementation of the
// VocabularyStore interface. If logger is nil, a default logger is used.
func NewPostgresVocabularyStore(db store.DBTX, logger *slog.Logger) *PostgresVocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVocabularyStore{
		db:     db,
		logger: logger.With(slog.String("component", "vocabulary_store")),
	}
}

// Ensure PostgresVocabularyStore implements store.VocabularyStore interface
var _ store.VocabularyStore = (*PostgresVocabularyStore)(nil)

// WithTx implements store.VocabularyStore.WithTx
func (s *PostgresVocabularyStore) WithTx(tx *sql.Tx) store.VocabularyStore {
	return &PostgresVocabularyStore{db: tx, logger: s.logger}
}

const vocabColumns = `id, lemma, language, surface, meaning, familiarity_score,
	is_known, score_locked, is_traced, noise_managed, source, wordbank_id,
	next_review_at, last_seen_at, created_at, updated_at, deleted_at`

// Create implements store.VocabularyStore.Create
// Uniqueness of (lemma, language) among non-deleted rows is enforced by a
// partial unique index; violations map onto store.ErrVocabExists.
func (s *PostgresVocabularyStore) Create(ctx context.Context, entry *domain.VocabularyEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("vocabulary entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("vocab_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO vocabulary_entries (` + vocabColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Lemma,
		entry.Language,
		entry.Surface,
		entry.Meaning,
		entry.FamiliarityScore,
		entry.IsKnown,
		entry.ScoreLocked,
		entry.IsTraced,
		entry.NoiseManaged,
		entry.Source,
		entry.WordbankID,
		entry.NextReviewAt,
		entry.LastSeenAt,
		entry.CreatedAt,
		entry.UpdatedAt,
		entry.DeletedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate vocabulary entry",
				slog.String("lemma", entry.Lemma),
				slog.String("language", entry.Language))
			return fmt.Errorf("%w: %s/%s", store.ErrVocabExists, entry.Lemma, entry.Language)
		}

		log.Error("failed to create vocabulary entry",
			slog.String("error", err.Error()),
			slog.String("vocab_id", entry.ID.String()))
		return err
	}

	log.Debug("vocabulary entry created",
		slog.String("vocab_id", entry.ID.String()),
		slog.String("lemma", entry.Lemma),
		slog.String("source", string(entry.Source)))
	return nil
}

// GetByID implements store.VocabularyStore.GetByID
func (s *PostgresVocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + ` FROM vocabulary_entries WHERE id = $1`

	entry, err := scanVocabularyEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVocabNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetByLemma implements store.VocabularyStore.GetByLemma
func (s *PostgresVocabularyStore) GetByLemma(ctx context.Context, lemma, language string) (*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries
		WHERE lemma = $1 AND language = $2 AND deleted_at IS NULL`

	entry, err := scanVocabularyEntry(s.db.QueryRowContext(ctx, query, lemma, language))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVocabNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Update implements store.VocabularyStore.Update
func (s *PostgresVocabularyStore) Update(ctx context.Context, entry *domain.VocabularyEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("vocabulary entry validation failed during update",
			slog.String("error", err.Error()),
			slog.String("vocab_id", entry.ID.String()))
		return err
	}

	query := `
		UPDATE vocabulary_entries
		SET surface = $1,
			meaning = $2,
			familiarity_score = $3,
			is_known = $4,
			score_locked = $5,
			is_traced = $6,
			noise_managed = $7,
			wordbank_id = $8,
			next_review_at = $9,
			last_seen_at = $10,
			updated_at = $11,
			deleted_at = $12
		WHERE id = $13
	`
	result, err := s.db.ExecContext(ctx, query,
		entry.Surface,
		entry.Meaning,
		entry.FamiliarityScore,
		entry.IsKnown,
		entry.ScoreLocked,
		entry.IsTraced,
		entry.NoiseManaged,
		entry.WordbankID,
		entry.NextReviewAt,
		entry.LastSeenAt,
		entry.UpdatedAt,
		entry.DeletedAt,
		entry.ID,
	)
	if err != nil {
		log.Error("failed to update vocabulary entry",
			slog.String("error", err.Error()),
			slog.String("vocab_id", entry.ID.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrVocabNotFound
	}
	return nil
}

// List implements store.VocabularyStore.List
func (s *PostgresVocabularyStore) List(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries
		WHERE deleted_at IS NULL`
	args := []any{}

	if filter.Known != nil {
		args = append(args, *filter.Known)
		query += fmt.Sprintf(" AND is_known = $%d", len(args))
	}
	if filter.Traced != nil {
		args = append(args, *filter.Traced)
		query += fmt.Sprintf(" AND is_traced = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.queryEntries(ctx, query, args...)
}

// ListByLemmas implements store.VocabularyStore.ListByLemmas
func (s *PostgresVocabularyStore) ListByLemmas(ctx context.Context, language string, lemmas []string) ([]*domain.VocabularyEntry, error) {
	if len(lemmas) == 0 {
		return []*domain.VocabularyEntry{}, nil
	}

	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries
		WHERE language = $1 AND lemma = ANY($2) AND deleted_at IS NULL`

	return s.queryEntries(ctx, query, language, lemmas)
}

// ListReviewCandidates implements store.VocabularyStore.ListReviewCandidates
func (s *PostgresVocabularyStore) ListReviewCandidates(ctx context.Context, tracedOnly bool) ([]*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries
		WHERE deleted_at IS NULL AND score_locked = FALSE AND is_known = FALSE`
	if tracedOnly {
		query += " AND is_traced = TRUE"
	}
	query += " ORDER BY created_at ASC"

	return s.queryEntries(ctx, query)
}

// ListNoiseManaged implements store.VocabularyStore.ListNoiseManaged
func (s *PostgresVocabularyStore) ListNoiseManaged(ctx context.Context) ([]*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries
		WHERE deleted_at IS NULL AND noise_managed = TRUE
		ORDER BY lemma ASC`

	return s.queryEntries(ctx, query)
}

// CountActiveTraced implements store.VocabularyStore.CountActiveTraced
func (s *PostgresVocabularyStore) CountActiveTraced(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM vocabulary_entries
		WHERE deleted_at IS NULL AND is_traced = TRUE AND is_known = FALSE
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListAutoTraceCandidates implements store.VocabularyStore.ListAutoTraceCandidates
func (s *PostgresVocabularyStore) ListAutoTraceCandidates(ctx context.Context, minEncounters int) ([]*store.AutoTraceCandidate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT v.id, v.lemma, v.language, v.surface, v.meaning, v.familiarity_score,
			v.is_known, v.score_locked, v.is_traced, v.noise_managed, v.source,
			v.wordbank_id, v.next_review_at, v.last_seen_at, v.created_at,
			v.updated_at, v.deleted_at,
			COUNT(e.id) AS encounter_count,
			MAX(e.created_at) AS last_encounter_at
		FROM vocabulary_entries v
		JOIN encounters e ON e.vocab_id = v.id
		WHERE v.deleted_at IS NULL
			AND v.is_traced = FALSE
			AND v.is_known = FALSE
			AND v.score_locked = FALSE
		GROUP BY v.id
		HAVING COUNT(e.id) >= $1
	`
	rows, err := s.db.QueryContext(ctx, query, minEncounters)
	if err != nil {
		log.Error("failed to list auto-trace candidates",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	candidates := []*store.AutoTraceCandidate{}
	for rows.Next() {
		var entry domain.VocabularyEntry
		var source string
		var count int
		var lastAt time.Time

		err := rows.Scan(
			&entry.ID,
			&entry.Lemma,
			&entry.Language,
			&entry.Surface,
			&entry.Meaning,
			&entry.FamiliarityScore,
			&entry.IsKnown,
			&entry.ScoreLocked,
			&entry.IsTraced,
			&entry.NoiseManaged,
			&source,
			&entry.WordbankID,
			&entry.NextReviewAt,
			&entry.LastSeenAt,
			&entry.CreatedAt,
			&entry.UpdatedAt,
			&entry.DeletedAt,
			&count,
			&lastAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Source = domain.EntrySource(source)

		candidates = append(candidates, &store.AutoTraceCandidate{
			Entry:           &entry,
			EncounterCount:  count,
			LastEncounterAt: lastAt,
		})
	}
	return candidates, rows.Err()
}

// ListOrphans implements store.VocabularyStore.ListOrphans
func (s *PostgresVocabularyStore) ListOrphans(ctx context.Context) ([]*domain.VocabularyEntry, error) {
	query := `SELECT ` + vocabColumns + `
		FROM vocabulary_entries v
		WHERE v.source <> 'manual'
			AND v.is_traced = FALSE
			AND v.score_locked = FALSE
			AND NOT EXISTS (SELECT 1 FROM encounters e WHERE e.vocab_id = v.id)`

	return s.queryEntries(ctx, query)
}

// SoftDelete implements store.VocabularyStore.SoftDelete
func (s *PostgresVocabularyStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Idempotent: an already-deleted or missing entry is a success.
	_, err := s.db.ExecContext(ctx, `
		UPDATE vocabulary_entries
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, at, id)
	if err != nil {
		log.Error("failed to soft-delete vocabulary entry",
			slog.String("error", err.Error()),
			slog.String("vocab_id", id.String()))
		return err
	}

	log.Debug("vocabulary entry soft-deleted", slog.String("vocab_id", id.String()))
	return nil
}

// HardDelete implements store.VocabularyStore.HardDelete
func (s *PostgresVocabularyStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM vocabulary_entries WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to hard-delete vocabulary entry",
			slog.String("error", err.Error()),
			slog.String("vocab_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrVocabNotFound
	}

	log.Info("vocabulary entry hard-deleted", slog.String("vocab_id", id.String()))
	return nil
}

func (s *PostgresVocabularyStore) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.VocabularyEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query vocabulary entries",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	entries := []*domain.VocabularyEntry{}
	for rows.Next() {
		entry, err := scanVocabularyEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanVocabularyEntry(row rowScanner) (*domain.VocabularyEntry, error) {
	var entry domain.VocabularyEntry
	var source string

	err := row.Scan(
		&entry.ID,
		&entry.Lemma,
		&entry.Language,
		&entry.Surface,
		&entry.Meaning,
		&entry.FamiliarityScore,
		&entry.IsKnown,
		&entry.ScoreLocked,
		&entry.IsTraced,
		&entry.NoiseManaged,
		&source,
		&entry.WordbankID,
		&entry.NextReviewAt,
		&entry.LastSeenAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&entry.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Source = domain.EntrySource(source)
	return &entry, nil
}
