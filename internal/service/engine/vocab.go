package engine

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

// Rating is a user's self-assessment of a word during review.
type Rating string

// Possible ratings.
const (
	RatingKnown    Rating = "known"
	RatingFamiliar Rating = "familiar"
	RatingUnknown  Rating = "unknown"
)

// ratingPlan maps each rating to its encounter channel and the delay before
// the word is due for review again.
var ratingPlan = map[Rating]struct {
	source domain.SourceTag
	delay  time.Duration
}{
	RatingKnown:    {domain.SourceRatingKnown, 7 * 24 * time.Hour},
	RatingFamiliar: {domain.SourceRatingFamiliar, 3 * 24 * time.Hour},
	RatingUnknown:  {domain.SourceRatingUnknown, 24 * time.Hour},
}

// RateResult is the post-rating entry state.
type RateResult struct {
	NewScore float64 `json:"new_score"`
	IsKnown  bool    `json:"is_known"`
}

// RateWord injects a rating-* encounter for the entry, recomputes its score
// and schedules the next review.
func (s *Service) RateWord(ctx context.Context, vocabID uuid.UUID, rating Rating) (*RateResult, error) {
	plan, ok := ratingPlan[rating]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	now := s.now()
	var result RateResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := stores.Vocabulary.GetByID(ctx, vocabID)
		if err != nil {
			return err
		}
		if entry.Deleted() {
			return ErrEntryDeleted
		}

		enc, err := s.newEncounter(entry.ID, entry.Lemma, plan.source, domain.PageContext{}, now)
		if err != nil {
			return err
		}
		if err := stores.Encounters.Create(ctx, enc); err != nil {
			return err
		}

		next := now.Add(plan.delay)
		entry.NextReviewAt = &next
		entry.LastSeenAt = &now
		if err := s.recompute(ctx, stores, entry, now); err != nil {
			return err
		}

		result = RateResult{NewScore: entry.FamiliarityScore, IsKnown: entry.IsKnown}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("word rated",
		slog.String("vocab_id", vocabID.String()),
		slog.String("rating", string(rating)),
		slog.Float64("new_score", result.NewScore),
		slog.Bool("is_known", result.IsKnown))
	return &result, nil
}

// ToggleTraceResult is the post-toggle trace state.
type ToggleTraceResult struct {
	IsTraced         bool `json:"is_traced"`
	ActiveTraceCount int  `json:"active_trace_count"`
}

// ToggleTrace flips an entry's actively-tracked flag. The trace multiplier
// applies to the entry's whole encounter history, so the toggle always
// recomputes. Tracing a noise-locked entry releases the lock first.
func (s *Service) ToggleTrace(ctx context.Context, vocabID uuid.UUID, traced bool) (*ToggleTraceResult, error) {
	now := s.now()
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := stores.Vocabulary.GetByID(ctx, vocabID)
		if err != nil {
			return err
		}
		if entry.Deleted() {
			return ErrEntryDeleted
		}

		if traced {
			enc, err := s.newEncounter(entry.ID, entry.Lemma, domain.SourceExplicitTrace, domain.PageContext{}, now)
			if err != nil {
				return err
			}
			if err := stores.Encounters.Create(ctx, enc); err != nil {
				return err
			}
		}

		entry.SetTraced(traced, now)
		return s.recompute(ctx, stores, entry, now)
	})
	if err != nil {
		return nil, err
	}

	entry, err := s.stores.Vocabulary.GetByID(ctx, vocabID)
	if err != nil {
		return nil, err
	}
	active, err := s.stores.Vocabulary.CountActiveTraced(ctx)
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("trace toggled",
		slog.String("vocab_id", vocabID.String()),
		slog.Bool("is_traced", entry.IsTraced),
		slog.Int("active_trace_count", active))
	return &ToggleTraceResult{IsTraced: entry.IsTraced, ActiveTraceCount: active}, nil
}

// UnlockNoiseWord releases the noise lock on one entry and adds its lemma
// to the manual remove list so the next reconciliation does not re-lock it.
func (s *Service) UnlockNoiseWord(ctx context.Context, vocabID uuid.UUID) (*domain.VocabularyEntry, error) {
	now := s.now()
	var unlocked *domain.VocabularyEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := stores.Vocabulary.GetByID(ctx, vocabID)
		if err != nil {
			return err
		}
		if entry.Deleted() {
			return ErrEntryDeleted
		}
		if !entry.ScoreLocked {
			return ErrNotNoiseLocked
		}

		// A locked entry is never traced, so the score stays at the zero
		// Unlock left behind rather than recomputing from history.
		entry.Unlock(now)
		if err := stores.Vocabulary.Update(ctx, entry); err != nil {
			return err
		}

		if err := s.appendNoiseRemoval(ctx, stores, entry.Lemma); err != nil {
			return err
		}

		unlocked = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("noise word unlocked",
		slog.String("vocab_id", vocabID.String()),
		slog.String("lemma", unlocked.Lemma))
	return unlocked, nil
}

// AddVocabularyInput is the explicit user-add path.
type AddVocabularyInput struct {
	Word     string
	Language string
	Surface  string
	Meaning  string
	Page     domain.PageContext
}

// AddVocabulary creates a manual entry with a manual-entry encounter, or
// returns store.ErrVocabExists when a live entry already holds the lemma.
func (s *Service) AddVocabulary(ctx context.Context, in AddVocabularyInput) (*domain.VocabularyEntry, error) {
	lemma := domain.NormalizeLemma(in.Word)
	if lemma == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, ErrWordEmpty)
	}
	if in.Language == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, ErrLanguageEmpty)
	}
	language := domain.NormalizeLanguage(in.Language)

	now := s.now()
	var created *domain.VocabularyEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		if _, err := stores.Vocabulary.GetByLemma(ctx, lemma, language); err == nil {
			return fmt.Errorf("%w: %s/%s", store.ErrVocabExists, lemma, language)
		} else if !errors.Is(err, store.ErrVocabNotFound) {
			return err
		}

		entry, err := domain.NewVocabularyEntry(lemma, language, in.Surface, domain.EntrySourceManual)
		if err != nil {
			return err
		}
		entry.Meaning = in.Meaning
		if err := stores.Vocabulary.Create(ctx, entry); err != nil {
			return err
		}

		enc, err := s.newEncounter(entry.ID, lemma, domain.SourceManualEntry, in.Page, now)
		if err != nil {
			return err
		}
		if err := stores.Encounters.Create(ctx, enc); err != nil {
			return err
		}

		entry.LastSeenAt = &now
		if err := s.recompute(ctx, stores, entry, now); err != nil {
			return err
		}

		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("vocabulary entry added",
		slog.String("vocab_id", created.ID.String()),
		slog.String("lemma", created.Lemma))
	return created, nil
}

// GetVocabulary fetches one entry by ID.
func (s *Service) GetVocabulary(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error) {
	return s.stores.Vocabulary.GetByID(ctx, id)
}

// ListVocabulary lists non-deleted entries, newest first.
func (s *Service) ListVocabulary(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error) {
	return s.stores.Vocabulary.List(ctx, filter)
}

// DeleteVocabulary soft-deletes an entry. Deleting an absent or already
// deleted entry is a no-op success. The entry's lemma counter loses its
// promotion link and enters a cooldown so the word does not immediately
// re-promote against the user's wishes.
func (s *Service) DeleteVocabulary(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now()
	cooldown := time.Duration(s.defaults.PromotionCooldownHours) * time.Hour

	return s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := stores.Vocabulary.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrVocabNotFound) {
				return nil
			}
			return err
		}
		if entry.Deleted() {
			return nil
		}

		if err := stores.Vocabulary.SoftDelete(ctx, id, now); err != nil {
			return err
		}

		if err := stores.LemmaStats.ClearPromotion(ctx, entry.Lemma, entry.Language, now.Add(cooldown)); err != nil {
			return err
		}

		log.Info("vocabulary entry deleted",
			slog.String("vocab_id", id.String()),
			slog.String("lemma", entry.Lemma))
		return nil
	})
}

// appendNoiseRemoval adds a lemma to the persisted manual remove list,
// keeping it out of future noise target sets.
func (s *Service) appendNoiseRemoval(ctx context.Context, stores Stores, lemma string) error {
	removed, err := s.readLemmaList(ctx, stores, store.SettingNoiseManualRemove)
	if err != nil {
		return err
	}
	for _, l := range removed {
		if l == lemma {
			return nil
		}
	}
	return s.writeLemmaList(ctx, stores, store.SettingNoiseManualRemove, append(removed, lemma))
}
