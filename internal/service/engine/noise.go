package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/scoring"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// noiseConfigVersion is bumped whenever the snapshot shape changes, so an
// old persisted snapshot can never satisfy the memo check against a new
// layout.
const noiseConfigVersion = 1

// NoiseConfig describes the noise target set: every word in the designated
// wordbank, plus the manual add list, minus the manual remove list. The
// reconciler memoizes the last applied configuration as a structural
// snapshot, not an opaque hash.
type NoiseConfig struct {
	Version      int      `json:"version"`
	WordbankID   string   `json:"wordbank_id"`
	Language     string   `json:"language"`
	ManualAdd    []string `json:"manual_add"`
	ManualRemove []string `json:"manual_remove"`
}

// normalized returns a canonical copy: version stamped, lemmas normalized,
// deduplicated and sorted, language canonicalized. Structural comparison is
// only meaningful between normalized values.
func (c NoiseConfig) normalized() NoiseConfig {
	out := NoiseConfig{
		Version:      noiseConfigVersion,
		WordbankID:   c.WordbankID,
		Language:     domain.NormalizeLanguage(c.Language),
		ManualAdd:    normalizeLemmaList(c.ManualAdd),
		ManualRemove: normalizeLemmaList(c.ManualRemove),
	}
	return out
}

// Equal compares two configs structurally.
func (c NoiseConfig) Equal(other NoiseConfig) bool {
	if c.Version != other.Version ||
		c.WordbankID != other.WordbankID ||
		c.Language != other.Language ||
		len(c.ManualAdd) != len(other.ManualAdd) ||
		len(c.ManualRemove) != len(other.ManualRemove) {
		return false
	}
	for i := range c.ManualAdd {
		if c.ManualAdd[i] != other.ManualAdd[i] {
			return false
		}
	}
	for i := range c.ManualRemove {
		if c.ManualRemove[i] != other.ManualRemove[i] {
			return false
		}
	}
	return true
}

func normalizeLemmaList(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		lemma := domain.NormalizeLemma(w)
		if lemma == "" {
			continue
		}
		if _, ok := seen[lemma]; ok {
			continue
		}
		seen[lemma] = struct{}{}
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out
}

// NoiseSyncResult reports what a reconciliation did (or, in dry-run mode,
// would have done).
type NoiseSyncResult struct {
	Skipped  bool `json:"skipped"`
	DryRun   bool `json:"dry_run"`
	Locked   int  `json:"locked"`
	Created  int  `json:"created"`
	Unlocked int  `json:"unlocked"`
}

// SyncNoiseWords reconciles the vocabulary against the noise target set.
//
// Entries locked under reconciler ownership that left the target set, or
// that became traced, are unlocked. Every lemma in the target set gets a
// locked entry, created pre-locked when missing. Traced entries are never
// locked regardless of membership.
//
// The call is idempotent: when the normalized config matches the last
// applied snapshot and force is false, it returns without a single write.
func (s *Service) SyncNoiseWords(ctx context.Context, cfg NoiseConfig, force, dryRun bool) (*NoiseSyncResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cfg = cfg.normalized()

	applied, hasApplied, err := s.appliedNoiseSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if hasApplied && !force && cfg.Equal(applied) {
		log.Debug("noise sync skipped, configuration unchanged")
		return &NoiseSyncResult{Skipped: true, DryRun: dryRun}, nil
	}

	target, err := s.noiseTargetSet(cfg)
	if err != nil {
		return nil, err
	}

	result := &NoiseSyncResult{DryRun: dryRun}
	now := s.now()

	unlocked, err := s.unlockDeparted(ctx, target, dryRun, now)
	if err != nil {
		return nil, err
	}
	result.Unlocked = unlocked

	locked, created, err := s.lockTargets(ctx, cfg.Language, target, dryRun, now)
	if err != nil {
		return nil, err
	}
	result.Locked = locked
	result.Created = created

	if !dryRun {
		if err := s.persistNoiseConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	log.Info("noise sync complete",
		slog.Int("target_size", len(target)),
		slog.Int("locked", result.Locked),
		slog.Int("created", result.Created),
		slog.Int("unlocked", result.Unlocked),
		slog.Bool("dry_run", dryRun))
	return result, nil
}

// noiseTargetSet materializes the config into the set of lemmas to keep
// locked.
func (s *Service) noiseTargetSet(cfg NoiseConfig) (map[string]struct{}, error) {
	target := make(map[string]struct{})

	if cfg.WordbankID != "" {
		wb, err := s.wordbanks.Get(cfg.WordbankID)
		if err != nil {
			return nil, fmt.Errorf("noise wordbank: %w", err)
		}
		for _, w := range wb.Words {
			target[w] = struct{}{}
		}
	}

	for _, lemma := range cfg.ManualAdd {
		target[lemma] = struct{}{}
	}
	for _, lemma := range cfg.ManualRemove {
		delete(target, lemma)
	}

	return target, nil
}

// unlockDeparted releases reconciler-owned locks on entries that left the
// target set or became traced. Batches are chunked through a bounded worker
// pool so a large reconciliation cannot monopolize the store.
func (s *Service) unlockDeparted(ctx context.Context, target map[string]struct{}, dryRun bool, now time.Time) (int, error) {
	managed, err := s.stores.Vocabulary.ListNoiseManaged(ctx)
	if err != nil {
		return 0, err
	}

	departed := make([]*domain.VocabularyEntry, 0)
	for _, entry := range managed {
		if _, keep := target[entry.Lemma]; keep && !entry.IsTraced {
			continue
		}
		departed = append(departed, entry)
	}

	if dryRun || len(departed) == 0 {
		return len(departed), nil
	}

	var count int
	var mu sync.Mutex

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.defaults.ReconcileWorkers)
	for _, chunk := range chunkEntries(departed, s.defaults.ReconcileChunkSize) {
		p.Go(func(ctx context.Context) error {
			for _, entry := range chunk {
				err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
					stores := s.stores.withTx(tx)
					entry.Unlock(now)
					// Only a traced entry keeps a computed score; recompute
					// restores it after the unlock zeroed the fields.
					// Everything else stays at zero.
					if entry.IsTraced {
						return s.recompute(ctx, stores, entry, now)
					}
					return stores.Vocabulary.Update(ctx, entry)
				})
				if err != nil {
					return err
				}
				mu.Lock()
				count++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return count, err
	}
	return count, nil
}

// lockTargets ensures every target lemma holds a locked entry, creating
// pre-locked entries for lemmas without one. Traced entries are skipped.
func (s *Service) lockTargets(ctx context.Context, language string, target map[string]struct{}, dryRun bool, now time.Time) (locked, created int, err error) {
	lemmas := make([]string, 0, len(target))
	for lemma := range target {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)

	var mu sync.Mutex

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.defaults.ReconcileWorkers)
	for _, chunk := range chunkStrings(lemmas, s.defaults.ReconcileChunkSize) {
		p.Go(func(ctx context.Context) error {
			for _, lemma := range chunk {
				didLock, didCreate, lockErr := s.lockOne(ctx, lemma, language, dryRun, now)
				if lockErr != nil {
					return lockErr
				}
				mu.Lock()
				if didLock {
					locked++
				}
				if didCreate {
					created++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return locked, created, err
	}
	return locked, created, nil
}

// lockOne brings a single target lemma into the locked state. Already
// locked-and-managed entries produce zero writes.
func (s *Service) lockOne(ctx context.Context, lemma, language string, dryRun bool, now time.Time) (didLock, didCreate bool, err error) {
	key := lemmaKey(lemma, language)
	s.lemmaMu.Lock(key)
	defer s.lemmaMu.Unlock(key)

	entry, err := s.stores.Vocabulary.GetByLemma(ctx, lemma, language)
	if err != nil && !errors.Is(err, store.ErrVocabNotFound) {
		return false, false, err
	}

	if entry != nil {
		if entry.IsTraced {
			return false, false, nil
		}
		if entry.ScoreLocked && entry.NoiseManaged {
			return false, false, nil
		}
		if dryRun {
			return true, false, nil
		}
		err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			stores := s.stores.withTx(tx)
			if lockErr := entry.Lock(scoring.MasteredCeiling, now); lockErr != nil {
				return lockErr
			}
			return stores.Vocabulary.Update(ctx, entry)
		})
		return err == nil, false, err
	}

	if dryRun {
		return true, true, nil
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)
		fresh, newErr := domain.NewVocabularyEntry(lemma, language, "", domain.EntrySourceNoise)
		if newErr != nil {
			return newErr
		}
		if lockErr := fresh.Lock(scoring.MasteredCeiling, now); lockErr != nil {
			return lockErr
		}
		return stores.Vocabulary.Create(ctx, fresh)
	})
	return err == nil, err == nil, err
}

// appliedNoiseSnapshot loads the last applied configuration snapshot.
func (s *Service) appliedNoiseSnapshot(ctx context.Context) (NoiseConfig, bool, error) {
	raw, err := s.stores.Settings.Get(ctx, store.SettingNoiseAppliedSnapshot)
	if err != nil {
		if errors.Is(err, store.ErrSettingNotFound) {
			return NoiseConfig{}, false, nil
		}
		return NoiseConfig{}, false, err
	}

	var snapshot NoiseConfig
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		// A corrupt snapshot forces a full reconciliation rather than an
		// error.
		logger.FromContextOrDefault(ctx, s.logger).Warn(
			"discarding malformed noise snapshot",
			slog.String("error", err.Error()))
		return NoiseConfig{}, false, nil
	}
	if snapshot.Version != noiseConfigVersion {
		return NoiseConfig{}, false, nil
	}
	return snapshot, true, nil
}

// persistNoiseConfig stores the active configuration keys and the applied
// snapshot for the next memo check.
func (s *Service) persistNoiseConfig(ctx context.Context, cfg NoiseConfig) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stores := s.stores.withTx(tx)

		if err := stores.Settings.Set(ctx, store.SettingNoiseWordbankID, cfg.WordbankID); err != nil {
			return err
		}
		if err := s.writeLemmaList(ctx, stores, store.SettingNoiseManualAdd, cfg.ManualAdd); err != nil {
			return err
		}
		if err := s.writeLemmaList(ctx, stores, store.SettingNoiseManualRemove, cfg.ManualRemove); err != nil {
			return err
		}

		raw, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		return stores.Settings.Set(ctx, store.SettingNoiseAppliedSnapshot, string(raw))
	})
}

// activeNoiseConfig rebuilds the configured (not necessarily applied) noise
// config from the settings table, for promotion-time pre-locking.
func (s *Service) activeNoiseConfig(ctx context.Context, stores Stores, language string) (NoiseConfig, error) {
	cfg := NoiseConfig{Language: language}

	id, err := stores.Settings.Get(ctx, store.SettingNoiseWordbankID)
	if err != nil && !errors.Is(err, store.ErrSettingNotFound) {
		return cfg, err
	}
	cfg.WordbankID = id

	cfg.ManualAdd, err = s.readLemmaList(ctx, stores, store.SettingNoiseManualAdd)
	if err != nil {
		return cfg, err
	}
	cfg.ManualRemove, err = s.readLemmaList(ctx, stores, store.SettingNoiseManualRemove)
	if err != nil {
		return cfg, err
	}

	return cfg.normalized(), nil
}

func (s *Service) readLemmaList(ctx context.Context, stores Stores, key string) ([]string, error) {
	raw, err := stores.Settings.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrSettingNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn(
			"discarding malformed lemma list setting",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return []string{}, nil
	}
	return list, nil
}

func (s *Service) writeLemmaList(ctx context.Context, stores Stores, key string, list []string) error {
	raw, err := json.Marshal(normalizeLemmaList(list))
	if err != nil {
		return err
	}
	return stores.Settings.Set(ctx, key, string(raw))
}

func chunkEntries(entries []*domain.VocabularyEntry, size int) [][]*domain.VocabularyEntry {
	if size <= 0 {
		size = len(entries)
	}
	var chunks [][]*domain.VocabularyEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}

func chunkStrings(items []string, size int) [][]string {
	if size <= 0 {
		size = len(items)
	}
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
