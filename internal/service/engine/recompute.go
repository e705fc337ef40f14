package engine

import (
	"context"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/scoring"
)

// recompute rescores an entry from its full encounter history and persists
// the result. The caller supplies the stores so the recompute joins an
// enclosing transaction. Locked entries keep their ceiling; ApplyScore
// no-ops on them.
//
// Triggered on every encounter insert/delete, every rating, and every trace
// toggle: toggling tracing rescales the multiplier over the entire existing
// history, not just new encounters.
func (s *Service) recompute(ctx context.Context, stores Stores, entry *domain.VocabularyEntry, now time.Time) error {
	tags, err := stores.Encounters.SourceTags(ctx, entry.ID)
	if err != nil {
		return err
	}

	score := scoring.Score(tags, scoring.Context{Traced: entry.IsTraced})
	entry.ApplyScore(score, scoring.KnownThreshold, now)

	return stores.Vocabulary.Update(ctx, entry)
}
