package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// recencyFloor keeps a long-unseen candidate from dropping to zero weight.
const recencyFloor = 0.1

// recencyHorizonDays is the window over which a candidate's weight fades
// toward the floor.
const recencyHorizonDays = 30.0

// replenishAutoTrace tops the active trace pool back up to the configured
// size. It only ever adds entries; the pool shrinks solely through mastery
// or an explicit un-trace. Candidates are ranked by
// encounterCount * recencyFactor so recently-seen frequent words win slots.
func (s *Service) replenishAutoTrace(ctx context.Context, language string, st settings) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if st.AutoTracePoolSize <= 0 {
		return 0, nil
	}

	active, err := s.stores.Vocabulary.CountActiveTraced(ctx)
	if err != nil {
		return 0, err
	}
	slots := st.AutoTracePoolSize - active
	if slots <= 0 {
		return 0, nil
	}

	candidates, err := s.stores.Vocabulary.ListAutoTraceCandidates(ctx, st.AutoTraceMinEncounters)
	if err != nil {
		return 0, err
	}

	now := s.now()
	type ranked struct {
		cand   *store.AutoTraceCandidate
		weight float64
	}

	eligible := make([]ranked, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Entry.Language != language {
			continue
		}
		valid, err := s.validWord(ctx, cand.Entry.Lemma, cand.Entry.Language)
		if err != nil {
			return 0, err
		}
		if !valid {
			continue
		}

		days := now.Sub(cand.LastEncounterAt).Hours() / 24
		factor := 1 - days/recencyHorizonDays
		if factor < recencyFloor {
			factor = recencyFloor
		}
		eligible = append(eligible, ranked{cand: cand, weight: float64(cand.EncounterCount) * factor})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].weight != eligible[j].weight {
			return eligible[i].weight > eligible[j].weight
		}
		return eligible[i].cand.Entry.ID.String() < eligible[j].cand.Entry.ID.String()
	})

	if slots > len(eligible) {
		slots = len(eligible)
	}

	traced := 0
	for _, r := range eligible[:slots] {
		entry := r.cand.Entry
		err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			stores := s.stores.withTx(tx)
			entry.SetTraced(true, now)
			return s.recompute(ctx, stores, entry, now)
		})
		if err != nil {
			// Skip and keep filling the remaining slots.
			log.Warn("failed to auto-trace entry",
				slog.String("vocab_id", entry.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		traced++
		log.Debug("entry auto-traced",
			slog.String("vocab_id", entry.ID.String()),
			slog.String("lemma", entry.Lemma),
			slog.Float64("weight", r.weight))
	}

	return traced, nil
}

// validWord reports whether a lemma is a real word by dictionary or
// wordbank membership.
func (s *Service) validWord(ctx context.Context, lemma, language string) (bool, error) {
	if _, ok := s.wordbanks.Lookup(language, lemma); ok {
		return true, nil
	}
	if s.dict == nil {
		return false, nil
	}
	_, ok, err := s.dict.Rank(ctx, lemma, language)
	return ok, err
}
