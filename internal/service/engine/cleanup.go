package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
)

// CleanupInput bounds one stale-data sweep. AgeDays is how old evidence
// must be before it is deletable; MinCount is the total-count ceiling below
// which an unpromoted lemma counter is considered noise-level.
type CleanupInput struct {
	AgeDays  int
	MinCount int
	DryRun   bool
}

// Validate rejects unusable bounds.
func (in CleanupInput) Validate() error {
	if in.AgeDays <= 0 {
		return fmt.Errorf("%w: age days must be positive", domain.ErrValidation)
	}
	if in.MinCount < 0 {
		return fmt.Errorf("%w: min count cannot be negative", domain.ErrValidation)
	}
	return nil
}

// CleanupResult reports what a sweep removed, or would remove in dry-run
// mode.
type CleanupResult struct {
	DeletedEncounters int  `json:"deleted_encounters"`
	DeletedLemmaStats int  `json:"deleted_lemma_stats"`
	DeletedVocabulary int  `json:"deleted_vocabulary"`
	Skipped           int  `json:"skipped"`
	DryRun            bool `json:"dry_run"`
}

// CleanupStale removes old evidence: encounters owned by soft-deleted
// entries past the age cutoff, stale low-count unpromoted lemma counters,
// and orphaned entries with no encounters left. A failure on one row is
// logged and skipped; the sweep continues. This is the deletion contract an
// external scheduler calls into; the engine runs no timers of its own.
func (s *Service) CleanupStale(ctx context.Context, in CleanupInput) (*CleanupResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-time.Duration(in.AgeDays) * 24 * time.Hour)
	result := &CleanupResult{DryRun: in.DryRun}

	encounterIDs, err := s.stores.Encounters.ListDeletable(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, id := range encounterIDs {
		if in.DryRun {
			result.DeletedEncounters++
			continue
		}
		if err := s.stores.Encounters.Delete(ctx, id); err != nil {
			result.Skipped++
			log.Warn("skipping undeletable encounter",
				slog.String("encounter_id", id.String()),
				slog.String("error", err.Error()))
			continue
		}
		result.DeletedEncounters++
	}

	stats, err := s.stores.LemmaStats.ListStale(ctx, cutoff, in.MinCount)
	if err != nil {
		return nil, err
	}
	for _, stat := range stats {
		if in.DryRun {
			result.DeletedLemmaStats++
			continue
		}
		if err := s.stores.LemmaStats.Delete(ctx, stat.Lemma, stat.Language); err != nil {
			result.Skipped++
			log.Warn("skipping undeletable lemma stat",
				slog.String("lemma", stat.Lemma),
				slog.String("error", err.Error()))
			continue
		}
		result.DeletedLemmaStats++
	}

	orphans, err := s.stores.Vocabulary.ListOrphans(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range orphans {
		if in.DryRun {
			result.DeletedVocabulary++
			continue
		}
		if err := s.stores.Vocabulary.HardDelete(ctx, entry.ID); err != nil {
			result.Skipped++
			log.Warn("skipping undeletable vocabulary entry",
				slog.String("vocab_id", entry.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		result.DeletedVocabulary++
	}

	log.Info("stale cleanup complete",
		slog.Int("deleted_encounters", result.DeletedEncounters),
		slog.Int("deleted_lemma_stats", result.DeletedLemmaStats),
		slog.Int("deleted_vocabulary", result.DeletedVocabulary),
		slog.Int("skipped", result.Skipped),
		slog.Bool("dry_run", in.DryRun))
	return result, nil
}
