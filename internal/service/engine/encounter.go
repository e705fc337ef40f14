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

// RecordEncounterInput names either an existing entry (VocabID) or a new
// word (Word + Language). Surface optionally overrides the display form on
// the new-word path.
type RecordEncounterInput struct {
	VocabID  *uuid.UUID
	Word     string
	Language string
	Surface  string
	Source   domain.SourceTag
	Page     domain.PageContext
}

// Validate rejects structurally unusable input before any store access.
func (in RecordEncounterInput) Validate() error {
	if !domain.ValidSourceTag(in.Source) {
		return domain.ErrInvalidSourceTag
	}
	if in.VocabID != nil {
		return nil
	}
	if in.Word == "" {
		return fmt.Errorf("%w: %v", domain.ErrValidation, ErrVocabRefMissing)
	}
	if in.Language == "" {
		return fmt.Errorf("%w: %v", domain.ErrValidation, ErrLanguageEmpty)
	}
	return nil
}

// RecordEncounterResult carries the stored (or refreshed) encounter and
// whether it folded into an existing row inside the dedup window.
type RecordEncounterResult struct {
	Encounter *domain.Encounter
	Deduped   bool
}

// RecordEncounter creates an encounter for an entry, or folds it into an
// existing one when the same entry saw the same source channel inside the
// dedup window. On the new-word path a manual vocabulary entry is created
// first. Every stored encounter triggers a score recompute.
func (s *Service) RecordEncounter(ctx context.Context, in RecordEncounterInput) (*RecordEncounterResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	window := time.Duration(s.defaults.DedupWindowHours) * time.Hour

	var result RecordEncounterResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := s.resolveEntry(ctx, stores, in)
		if err != nil {
			return err
		}

		// Dedup probe: same entry, same source channel, inside the window.
		recent, err := stores.Encounters.FindRecent(ctx, entry.ID, in.Source, now.Add(-window))
		if err == nil {
			if err := stores.Encounters.Touch(ctx, recent.ID, now); err != nil {
				return err
			}
			recent.UpdatedAt = now
			result = RecordEncounterResult{Encounter: recent, Deduped: true}
			log.Debug("encounter deduplicated",
				slog.String("vocab_id", entry.ID.String()),
				slog.String("source", string(in.Source)))
			return nil
		}
		if !errors.Is(err, store.ErrEncounterNotFound) {
			return err
		}

		enc, err := s.newEncounter(entry.ID, entry.Lemma, in.Source, in.Page, now)
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

		result = RecordEncounterResult{Encounter: enc}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// resolveEntry finds the entry an encounter belongs to, creating one on the
// new-word path. New words enter as manual entries except wordbank seeds.
func (s *Service) resolveEntry(ctx context.Context, stores Stores, in RecordEncounterInput) (*domain.VocabularyEntry, error) {
	if in.VocabID != nil {
		entry, err := stores.Vocabulary.GetByID(ctx, *in.VocabID)
		if err != nil {
			return nil, err
		}
		if entry.Deleted() {
			return nil, ErrEntryDeleted
		}
		return entry, nil
	}

	lemma := domain.NormalizeLemma(in.Word)
	if lemma == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, ErrWordEmpty)
	}
	language := domain.NormalizeLanguage(in.Language)

	entry, err := stores.Vocabulary.GetByLemma(ctx, lemma, language)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, store.ErrVocabNotFound) {
		return nil, err
	}

	source := domain.EntrySourceManual
	if in.Source == domain.SourceWordbankSeed || in.Source == domain.SourceBulkImport {
		source = domain.EntrySourceWordbank
	}

	entry, err = domain.NewVocabularyEntry(lemma, language, in.Surface, source)
	if err != nil {
		return nil, err
	}
	if err := stores.Vocabulary.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// newEncounter builds an encounter stamped with the service clock instead of
// wall time, keeping dedup-window math consistent across the engine.
func (s *Service) newEncounter(vocabID uuid.UUID, lemma string, source domain.SourceTag, page domain.PageContext, now time.Time) (*domain.Encounter, error) {
	enc, err := domain.NewEncounter(vocabID, lemma, source, page)
	if err != nil {
		return nil, err
	}
	enc.CreatedAt = now
	enc.UpdatedAt = now
	return enc, nil
}

// DeleteEncounter removes one encounter and rescores its entry. When the
// deleted encounter was the entry's last and the entry is neither manual,
// traced, nor locked, the orphaned entry is hard-deleted with it.
func (s *Service) DeleteEncounter(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now()
	return s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		enc, err := stores.Encounters.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := stores.Encounters.Delete(ctx, id); err != nil {
			return err
		}

		entry, err := stores.Vocabulary.GetByID(ctx, enc.VocabID)
		if err != nil {
			return err
		}

		remaining, err := stores.Encounters.CountByVocab(ctx, entry.ID)
		if err != nil {
			return err
		}

		if remaining == 0 && entry.Source != domain.EntrySourceManual && !entry.IsTraced && !entry.ScoreLocked {
			log.Info("hard-deleting orphaned vocabulary entry",
				slog.String("vocab_id", entry.ID.String()),
				slog.String("lemma", entry.Lemma))
			return stores.Vocabulary.HardDelete(ctx, entry.ID)
		}

		return s.recompute(ctx, stores, entry, now)
	})
}
