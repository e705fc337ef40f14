package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
)

// EncounterStore defines the interface for encounter persistence.
type EncounterStore interface {
	// Create saves a new encounter. The encounter must be valid per domain
	// validation rules.
	Create(ctx context.Context, enc *domain.Encounter) error

	// GetByID retrieves an encounter by its unique ID.
	// Returns ErrEncounterNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Encounter, error)

	// Touch bumps UpdatedAt on an existing encounter. Used when a duplicate
	// sighting inside the dedup window folds into the existing row.
	// Returns ErrEncounterNotFound if it does not exist.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// FindRecent returns the most recent encounter for the entry with the
	// given source created at or after since, for dedup probing.
	// Returns ErrEncounterNotFound when no such encounter exists.
	FindRecent(ctx context.Context, vocabID uuid.UUID, source domain.SourceTag, since time.Time) (*domain.Encounter, error)

	// SourceTags returns the source tags of every encounter owned by the
	// entry, one element per encounter. This is the multiset the scoring
	// function consumes.
	SourceTags(ctx context.Context, vocabID uuid.UUID) ([]domain.SourceTag, error)

	// LatestContext returns the most recent encounter for the entry that
	// carries a context sentence or page title, for card enrichment.
	// Returns ErrEncounterNotFound when the entry has no such encounter.
	LatestContext(ctx context.Context, vocabID uuid.UUID) (*domain.Encounter, error)

	// CountByVocab returns the number of encounters owned by the entry.
	CountByVocab(ctx context.Context, vocabID uuid.UUID) (int, error)

	// Delete removes an encounter by ID.
	// Returns ErrEncounterNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByVocab removes every encounter owned by the entry and reports
	// how many were removed.
	DeleteByVocab(ctx context.Context, vocabID uuid.UUID) (int64, error)

	// ListDeletable returns the IDs of encounters eligible for stale
	// cleanup: older than the cutoff and owned by a soft-deleted entry.
	ListDeletable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// WithTx returns an EncounterStore bound to the given transaction.
	WithTx(tx *sql.Tx) EncounterStore
}
