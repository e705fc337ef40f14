package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
)

// ListVocabularyFilter narrows List results. Nil pointer fields mean
// "no filter".
type ListVocabularyFilter struct {
	Known  *bool
	Traced *bool
	Limit  int
	Offset int
}

// AutoTraceCandidate pairs an entry with the encounter aggregates the
// replenisher ranks by.
type AutoTraceCandidate struct {
	Entry           *domain.VocabularyEntry
	EncounterCount  int
	LastEncounterAt time.Time
}

// VocabularyStore defines the interface for vocabulary entry persistence.
// (Lemma, Language) is unique among non-deleted entries.
type VocabularyStore interface {
	// Create saves a new entry. Returns ErrVocabExists when a non-deleted
	// entry already exists for the lemma+language pair.
	Create(ctx context.Context, entry *domain.VocabularyEntry) error

	// GetByID retrieves an entry by ID, including soft-deleted ones.
	// Returns ErrVocabNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error)

	// GetByLemma retrieves the non-deleted entry for a lemma+language pair.
	// Returns ErrVocabNotFound if none exists.
	GetByLemma(ctx context.Context, lemma, language string) (*domain.VocabularyEntry, error)

	// Update saves the full row for an existing entry.
	// Returns ErrVocabNotFound if it does not exist.
	Update(ctx context.Context, entry *domain.VocabularyEntry) error

	// List returns non-deleted entries matching the filter, newest first.
	List(ctx context.Context, filter ListVocabularyFilter) ([]*domain.VocabularyEntry, error)

	// ListByLemmas returns the non-deleted entries among the given
	// normalized lemmas for one language.
	ListByLemmas(ctx context.Context, language string, lemmas []string) ([]*domain.VocabularyEntry, error)

	// ListReviewCandidates returns every entry eligible for review:
	// not deleted, not score-locked, not known. With tracedOnly set the
	// result is restricted to traced entries.
	ListReviewCandidates(ctx context.Context, tracedOnly bool) ([]*domain.VocabularyEntry, error)

	// ListNoiseManaged returns non-deleted entries currently locked under
	// reconciler ownership.
	ListNoiseManaged(ctx context.Context) ([]*domain.VocabularyEntry, error)

	// CountActiveTraced returns the size of the active trace pool: traced,
	// not known, not deleted.
	CountActiveTraced(ctx context.Context) (int, error)

	// ListAutoTraceCandidates returns entries eligible for auto-tracing
	// (not traced, not known, not locked, not deleted) with at least
	// minEncounters encounters, joined with their encounter aggregates.
	ListAutoTraceCandidates(ctx context.Context, minEncounters int) ([]*AutoTraceCandidate, error)

	// ListOrphans returns entries with no remaining encounters that are
	// neither manual, traced, nor locked. These are the hard-delete set.
	ListOrphans(ctx context.Context) ([]*domain.VocabularyEntry, error)

	// SoftDelete stamps DeletedAt on an entry. Deleting an entry that does
	// not exist or is already deleted is a no-op success.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error

	// HardDelete removes the row entirely. Owned encounters go with it via
	// the schema's cascade.
	// Returns ErrVocabNotFound if it does not exist.
	HardDelete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a VocabularyStore bound to the given transaction.
	WithTx(tx *sql.Tx) VocabularyStore
}
