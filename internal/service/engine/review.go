package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/review"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// DrawInput configures one card draw.
type DrawInput struct {
	Count      int
	Mode       review.Mode
	ExcludeIDs []uuid.UUID
	TracedOnly bool

	// Seed makes shuffle draws reproducible when set.
	Seed *int64
}

// Card is one entry picked for review, enriched with its most recent
// contextual encounter for display.
type Card struct {
	Entry    *domain.VocabularyEntry `json:"entry"`
	Priority float64                 `json:"priority"`
	Context  *domain.Encounter       `json:"context,omitempty"`
}

// DrawReviewCards picks a batch of entries for a review session. The
// eligible set is every live, unlocked, unmastered entry minus the explicit
// exclusions; selection is either deterministic top-N by priority or seeded
// weighted sampling, per the mode.
func (s *Service) DrawReviewCards(ctx context.Context, in DrawInput) ([]Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entries, err := s.stores.Vocabulary.ListReviewCandidates(ctx, in.TracedOnly)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]struct{}, len(in.ExcludeIDs))
	for _, id := range in.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	byID := make(map[uuid.UUID]*domain.VocabularyEntry, len(entries))
	candidates := make([]review.Candidate, 0, len(entries))
	for _, entry := range entries {
		if _, skip := excluded[entry.ID]; skip {
			continue
		}
		byID[entry.ID] = entry
		candidates = append(candidates, review.Candidate{
			ID:           entry.ID,
			Score:        entry.FamiliarityScore,
			Traced:       entry.IsTraced,
			NextReviewAt: entry.NextReviewAt,
			LastSeenAt:   entry.LastSeenAt,
		})
	}

	now := s.now()
	picked, err := review.Select(candidates, in.Count, in.Mode, review.Options{Now: now, Seed: in.Seed})
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(picked))
	for _, c := range picked {
		card := Card{Entry: byID[c.ID], Priority: review.Priority(c, now)}

		enc, err := s.stores.Encounters.LatestContext(ctx, c.ID)
		if err == nil {
			card.Context = enc
		} else if !errors.Is(err, store.ErrEncounterNotFound) {
			return nil, err
		}

		cards = append(cards, card)
	}

	log.Debug("review cards drawn",
		slog.Int("requested", in.Count),
		slog.Int("eligible", len(candidates)),
		slog.Int("returned", len(cards)),
		slog.String("mode", string(in.Mode)))
	return cards, nil
}
