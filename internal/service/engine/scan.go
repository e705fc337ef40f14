package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/scoring"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// errPromotionLost aborts a promotion transaction when the compare-and-set
// on the lemma counter found another writer's link. The rollback discards
// any entry created in the losing transaction; the caller treats the
// promotion as already done.
var errPromotionLost = errors.New("promotion compare-and-set lost")

// ScanInput is one page's worth of extracted tokens plus the page they came
// from. The three pointer fields override the stored promotion thresholds
// for this scan only.
type ScanInput struct {
	Tokens   []string
	Language string
	Page     domain.PageContext

	PromotionMinCount        *int
	PromotionMinPages        *int
	EnvironmentRankThreshold *int
}

// Validate rejects structurally unusable input.
func (in ScanInput) Validate() error {
	if in.Language == "" {
		return fmt.Errorf("%w: %v", domain.ErrValidation, ErrLanguageEmpty)
	}
	if in.Page.URL == "" {
		return fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrEncounterPageEmpty)
	}
	return nil
}

// PageMiss is a wordbank word present on the page that the user has not yet
// mastered, ranked by how often it appeared.
type PageMiss struct {
	Lemma string `json:"lemma"`
	Count int    `json:"count"`
}

// PageStats summarizes one page against the loaded wordbanks.
type PageStats struct {
	WordbankWordsOnPage int        `json:"wordbank_words_on_page"`
	MasteredOnPage      int        `json:"mastered_on_page"`
	Coverage            float64    `json:"coverage"`
	TopMisses           []PageMiss `json:"top_misses"`
}

// ScanResult is what a page scan returns to the reader client.
type ScanResult struct {
	// Matches are the entries for scanned tokens that the client should
	// surface: live, not noise-locked, not yet mastered.
	Matches []*domain.VocabularyEntry `json:"matches"`

	// PromotedLemmas are the lemmas promoted into the vocabulary by this
	// scan.
	PromotedLemmas []string `json:"promoted_lemmas"`

	PageStats PageStats `json:"page_stats"`

	// AutoTraced is how many entries the replenisher traced as a side
	// effect of this scan.
	AutoTraced int `json:"auto_traced"`
}

// ScanTokens feeds one page's normalized tokens through the frequency
// aggregator and promotion pipeline, then replenishes the auto-trace pool
// when enabled. Multiple concurrent scans of the same lemma serialize on a
// per-lemma mutex; the promotion itself is additionally guarded by a
// compare-and-set so promotion is exactly-once even across processes.
func (s *Service) ScanTokens(ctx context.Context, in ScanInput) (*ScanResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	language := domain.NormalizeLanguage(in.Language)
	st := s.resolveSettings(ctx)
	if in.PromotionMinCount != nil {
		st.PromotionMinCount = *in.PromotionMinCount
	}
	if in.PromotionMinPages != nil {
		st.PromotionMinPages = *in.PromotionMinPages
	}
	if in.EnvironmentRankThreshold != nil {
		st.EnvironmentRankThreshold = *in.EnvironmentRankThreshold
	}

	lemmas, counts := normalizeTokens(in.Tokens)
	now := s.now()

	noiseCfg, err := s.activeNoiseConfig(ctx, s.stores, language)
	if err != nil {
		return nil, err
	}
	noiseTarget, err := s.noiseTargetSet(noiseCfg)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Matches: []*domain.VocabularyEntry{}, PromotedLemmas: []string{}}

	for _, lemma := range lemmas {
		promoted, err := s.aggregateOne(ctx, lemma, language, in.Page.URL, counts[lemma], st, noiseTarget, now)
		if err != nil {
			// One bad lemma must not abort the whole page.
			log.Warn("skipping lemma during scan",
				slog.String("lemma", lemma),
				slog.String("error", err.Error()))
			continue
		}
		if promoted {
			result.PromotedLemmas = append(result.PromotedLemmas, lemma)
		}
	}

	entries, err := s.stores.Vocabulary.ListByLemmas(ctx, language, lemmas)
	if err != nil {
		return nil, err
	}
	byLemma := make(map[string]*domain.VocabularyEntry, len(entries))
	for _, entry := range entries {
		byLemma[entry.Lemma] = entry
		if entry.ReviewEligible() {
			result.Matches = append(result.Matches, entry)
		}
	}

	result.PageStats = buildPageStats(lemmas, counts, language, s.wordbanks, byLemma)

	if st.AutoTraceEnabled {
		traced, err := s.replenishAutoTrace(ctx, language, st)
		if err != nil {
			log.Warn("auto-trace replenishment failed",
				slog.String("error", err.Error()))
		} else {
			result.AutoTraced = traced
		}
	}

	log.Info("page scanned",
		slog.String("page_url", in.Page.URL),
		slog.Int("tokens", len(in.Tokens)),
		slog.Int("lemmas", len(lemmas)),
		slog.Int("matches", len(result.Matches)),
		slog.Int("promoted", len(result.PromotedLemmas)),
		slog.Int("auto_traced", result.AutoTraced))
	return result, nil
}

// normalizeTokens reduces raw tokens to unique normalized lemmas, keeping
// first-appearance order and per-lemma counts.
func normalizeTokens(tokens []string) ([]string, map[string]int) {
	lemmas := make([]string, 0, len(tokens))
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		lemma := domain.NormalizeLemma(tok)
		if lemma == "" {
			continue
		}
		if counts[lemma] == 0 {
			lemmas = append(lemmas, lemma)
		}
		counts[lemma]++
	}
	return lemmas, counts
}

// aggregateOne runs the discovery gate, counter update and promotion check
// for a single lemma, serialized on the lemma key. occurrences is the
// lemma's on-page frequency; every occurrence counts toward the total. It
// reports whether the lemma was promoted by this call.
func (s *Service) aggregateOne(
	ctx context.Context,
	lemma, language, pageURL string,
	occurrences int,
	st settings,
	noiseTarget map[string]struct{},
	now time.Time,
) (bool, error) {
	key := lemmaKey(lemma, language)
	s.lemmaMu.Lock(key)
	defer s.lemmaMu.Unlock(key)

	inWordbank, rank, hasRank, err := s.gate(ctx, lemma, language, st)
	if err != nil {
		return false, err
	}
	// Environment-discovery filter: wordbank members always pass; everything
	// else needs a dictionary match whose rank clears the threshold, which
	// keeps ultra-common function words out of aggregation.
	if !inWordbank && (!hasRank || rank < st.EnvironmentRankThreshold) {
		return false, nil
	}

	stat, err := s.stores.LemmaStats.Get(ctx, lemma, language)
	switch {
	case errors.Is(err, store.ErrLemmaStatNotFound):
		stat, err = domain.NewLemmaStat(lemma, language, pageURL, occurrences, now)
		if err != nil {
			return false, err
		}
		stat.InActiveWordbank = inWordbank
		if hasRank {
			stat.DictRank = &rank
		}
		if err := s.stores.LemmaStats.Create(ctx, stat); err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	default:
		stat.RecordSighting(pageURL, occurrences, now)
		stat.InActiveWordbank = inWordbank
		if hasRank {
			stat.DictRank = &rank
		}
		if err := s.stores.LemmaStats.Update(ctx, stat); err != nil {
			return false, err
		}
	}

	if stat.Promoted() || stat.CoolingDown(now) {
		return false, nil
	}

	// Wordbank-listed words promote unconditionally on first sighting;
	// everything else must cross the frequency thresholds.
	if !inWordbank && !stat.ThresholdsMet(st.PromotionMinCount, st.PromotionMinPages) {
		return false, nil
	}

	reason := domain.PromotionReasonFrequency
	if inWordbank {
		reason = domain.PromotionReasonWordbank
	}
	return s.promote(ctx, lemma, language, reason, noiseTarget, now)
}

// gate evaluates the environment-discovery filter inputs for a lemma.
func (s *Service) gate(ctx context.Context, lemma, language string, st settings) (inWordbank bool, rank int, hasRank bool, err error) {
	if _, ok := s.wordbanks.Lookup(language, lemma); ok {
		inWordbank = true
	}
	if s.dict != nil {
		rank, hasRank, err = s.dict.Rank(ctx, lemma, language)
		if err != nil {
			return false, 0, false, err
		}
	}
	return inWordbank, rank, hasRank, nil
}

// promote links a lemma counter to a vocabulary entry, creating the entry
// when none exists. The link and the entry write share one transaction so a
// crash cannot leave the counter pointing at nothing. Entries for lemmas in
// the current noise target set are created pre-locked.
func (s *Service) promote(
	ctx context.Context,
	lemma, language string,
	reason domain.PromotionReason,
	noiseTarget map[string]struct{},
	now time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		entry, err := stores.Vocabulary.GetByLemma(ctx, lemma, language)
		if errors.Is(err, store.ErrVocabNotFound) {
			entry, err = domain.NewVocabularyEntry(lemma, language, "", promotionEntrySource(reason))
			if err != nil {
				return err
			}
			if _, noisy := noiseTarget[lemma]; noisy {
				if lockErr := entry.Lock(scoring.MasteredCeiling, now); lockErr != nil {
					return lockErr
				}
			}
			if err := stores.Vocabulary.Create(ctx, entry); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		won, err := stores.LemmaStats.MarkPromoted(ctx, lemma, language, entry.ID, reason, now)
		if err != nil {
			return err
		}
		if !won {
			return errPromotionLost
		}
		return nil
	})
	if errors.Is(err, errPromotionLost) {
		log.Debug("promotion already done by a concurrent writer",
			slog.String("lemma", lemma),
			slog.String("language", language))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	log.Info("lemma promoted into vocabulary",
		slog.String("lemma", lemma),
		slog.String("language", language),
		slog.String("reason", string(reason)))
	return true, nil
}

func promotionEntrySource(reason domain.PromotionReason) domain.EntrySource {
	if reason == domain.PromotionReasonWordbank {
		return domain.EntrySourceWordbank
	}
	return domain.EntrySourcePromotion
}

// buildPageStats computes wordbank coverage for the scanned page: how many
// of the wordbank-listed words on the page are already mastered, plus the
// most frequent unmastered misses.
func buildPageStats(
	lemmas []string,
	counts map[string]int,
	language string,
	wordbanks Wordbanks,
	byLemma map[string]*domain.VocabularyEntry,
) PageStats {
	stats := PageStats{TopMisses: []PageMiss{}}

	misses := []PageMiss{}
	for _, lemma := range lemmas {
		if _, ok := wordbanks.Lookup(language, lemma); !ok {
			continue
		}
		stats.WordbankWordsOnPage++

		if entry, ok := byLemma[lemma]; ok && entry.IsKnown {
			stats.MasteredOnPage++
			continue
		}
		misses = append(misses, PageMiss{Lemma: lemma, Count: counts[lemma]})
	}

	if stats.WordbankWordsOnPage > 0 {
		stats.Coverage = float64(stats.MasteredOnPage) / float64(stats.WordbankWordsOnPage)
	}

	sort.SliceStable(misses, func(i, j int) bool {
		if misses[i].Count != misses[j].Count {
			return misses[i].Count > misses[j].Count
		}
		return misses[i].Lemma < misses[j].Lemma
	})
	if len(misses) > 3 {
		misses = misses[:3]
	}
	stats.TopMisses = misses

	return stats
}
