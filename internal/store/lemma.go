package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
)

// LemmaStatStore defines the interface for per-lemma frequency counters.
// Rows are keyed by (lemma, language).
type LemmaStatStore interface {
	// Get retrieves the counter for a lemma+language pair.
	// Returns ErrLemmaStatNotFound if none exists.
	Get(ctx context.Context, lemma, language string) (*domain.LemmaStat, error)

	// Create inserts a fresh counter. Returns ErrDuplicate if one already
	// exists for the key.
	Create(ctx context.Context, stat *domain.LemmaStat) error

	// Update saves the full row for an existing counter.
	// Returns ErrLemmaStatNotFound if none exists.
	Update(ctx context.Context, stat *domain.LemmaStat) error

	// MarkPromoted links the counter to a vocabulary entry with a
	// compare-and-set: the link is written only while promoted_vocab_id is
	// still null. It reports whether this call won the race; false means
	// another writer promoted the lemma first and the caller must treat the
	// promotion as already done.
	MarkPromoted(ctx context.Context, lemma, language string, vocabID uuid.UUID,
		reason domain.PromotionReason, at time.Time) (bool, error)

	// ClearPromotion drops the promotion link and starts a cooldown, making
	// the lemma eligible for re-promotion only after cooldownUntil. Called
	// when the promoted entry is deleted by the user. Clearing a counter
	// that does not exist or holds no link is a no-op success.
	ClearPromotion(ctx context.Context, lemma, language string, cooldownUntil time.Time) error

	// ListStale returns unpromoted counters last seen before the cutoff
	// with a total count at or below maxTotal, for scheduled cleanup.
	ListStale(ctx context.Context, lastSeenBefore time.Time, maxTotal int) ([]*domain.LemmaStat, error)

	// Delete removes the counter for a lemma+language pair.
	// Returns ErrLemmaStatNotFound if none exists.
	Delete(ctx context.Context, lemma, language string) error

	// WithTx returns a LemmaStatStore bound to the given transaction.
	WithTx(tx *sql.Tx) LemmaStatStore
}
