package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// memDB is a shared in-memory backing for the store fakes. It counts every
// mutation so tests can assert zero-write properties.
type memDB struct {
	mu         sync.Mutex
	encounters map[uuid.UUID]*domain.Encounter
	lemmaStats map[string]*domain.LemmaStat
	vocab      map[uuid.UUID]*domain.VocabularyEntry
	settings   map[string]string
	writes     int
}

func newMemDB() *memDB {
	return &memDB{
		encounters: make(map[uuid.UUID]*domain.Encounter),
		lemmaStats: make(map[string]*domain.LemmaStat),
		vocab:      make(map[uuid.UUID]*domain.VocabularyEntry),
		settings:   make(map[string]string),
	}
}

func (db *memDB) stores() Stores {
	return Stores{
		Encounters: &memEncounterStore{db: db},
		LemmaStats: &memLemmaStatStore{db: db},
		Vocabulary: &memVocabStore{db: db},
		Settings:   &memSettingsStore{db: db},
	}
}

// writeCount returns how many mutations the backing has absorbed.
func (db *memDB) writeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.writes
}

func statKey(lemma, language string) string {
	return lemma + "|" + language
}

func cloneEncounter(e *domain.Encounter) *domain.Encounter {
	c := *e
	return &c
}

func cloneStat(s *domain.LemmaStat) *domain.LemmaStat {
	c := *s
	if s.DictRank != nil {
		r := *s.DictRank
		c.DictRank = &r
	}
	if s.PromotedVocabID != nil {
		id := *s.PromotedVocabID
		c.PromotedVocabID = &id
	}
	if s.PromotionCooldownUntil != nil {
		t := *s.PromotionCooldownUntil
		c.PromotionCooldownUntil = &t
	}
	return &c
}

func cloneEntry(e *domain.VocabularyEntry) *domain.VocabularyEntry {
	c := *e
	if e.WordbankID != nil {
		id := *e.WordbankID
		c.WordbankID = &id
	}
	if e.NextReviewAt != nil {
		t := *e.NextReviewAt
		c.NextReviewAt = &t
	}
	if e.LastSeenAt != nil {
		t := *e.LastSeenAt
		c.LastSeenAt = &t
	}
	if e.DeletedAt != nil {
		t := *e.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// memTxRunner funnels the transaction API through without a database; the
// fakes apply writes immediately.
type memTxRunner struct{}

func (memTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return fn(ctx, nil)
}

// --- EncounterStore ---

type memEncounterStore struct{ db *memDB }

var _ store.EncounterStore = (*memEncounterStore)(nil)

func (s *memEncounterStore) WithTx(tx *sql.Tx) store.EncounterStore { return s }

func (s *memEncounterStore) Create(ctx context.Context, enc *domain.Encounter) error {
	if err := enc.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.vocab[enc.VocabID]; !ok {
		return fmt.Errorf("%w: vocabulary entry %s not found", store.ErrInvalidEntity, enc.VocabID)
	}
	s.db.encounters[enc.ID] = cloneEncounter(enc)
	s.db.writes++
	return nil
}

func (s *memEncounterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Encounter, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	enc, ok := s.db.encounters[id]
	if !ok {
		return nil, store.ErrEncounterNotFound
	}
	return cloneEncounter(enc), nil
}

func (s *memEncounterStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	enc, ok := s.db.encounters[id]
	if !ok {
		return store.ErrEncounterNotFound
	}
	enc.UpdatedAt = at
	s.db.writes++
	return nil
}

func (s *memEncounterStore) FindRecent(ctx context.Context, vocabID uuid.UUID, source domain.SourceTag, since time.Time) (*domain.Encounter, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var best *domain.Encounter
	for _, enc := range s.db.encounters {
		if enc.VocabID != vocabID || enc.Source != source || enc.CreatedAt.Before(since) {
			continue
		}
		if best == nil || enc.CreatedAt.After(best.CreatedAt) {
			best = enc
		}
	}
	if best == nil {
		return nil, store.ErrEncounterNotFound
	}
	return cloneEncounter(best), nil
}

func (s *memEncounterStore) SourceTags(ctx context.Context, vocabID uuid.UUID) ([]domain.SourceTag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	tags := []domain.SourceTag{}
	for _, enc := range s.db.encounters {
		if enc.VocabID == vocabID {
			tags = append(tags, enc.Source)
		}
	}
	return tags, nil
}

func (s *memEncounterStore) LatestContext(ctx context.Context, vocabID uuid.UUID) (*domain.Encounter, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var best *domain.Encounter
	for _, enc := range s.db.encounters {
		if enc.VocabID != vocabID {
			continue
		}
		if enc.Page.Sentence == "" && enc.Page.Title == "" {
			continue
		}
		if best == nil || enc.CreatedAt.After(best.CreatedAt) {
			best = enc
		}
	}
	if best == nil {
		return nil, store.ErrEncounterNotFound
	}
	return cloneEncounter(best), nil
}

func (s *memEncounterStore) CountByVocab(ctx context.Context, vocabID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	count := 0
	for _, enc := range s.db.encounters {
		if enc.VocabID == vocabID {
			count++
		}
	}
	return count, nil
}

func (s *memEncounterStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.encounters[id]; !ok {
		return store.ErrEncounterNotFound
	}
	delete(s.db.encounters, id)
	s.db.writes++
	return nil
}

func (s *memEncounterStore) DeleteByVocab(ctx context.Context, vocabID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, enc := range s.db.encounters {
		if enc.VocabID == vocabID {
			delete(s.db.encounters, id)
			n++
		}
	}
	if n > 0 {
		s.db.writes++
	}
	return n, nil
}

func (s *memEncounterStore) ListDeletable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ids := []uuid.UUID{}
	for id, enc := range s.db.encounters {
		entry, ok := s.db.vocab[enc.VocabID]
		if !ok || entry.DeletedAt == nil {
			continue
		}
		if enc.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// --- LemmaStatStore ---

type memLemmaStatStore struct{ db *memDB }

var _ store.LemmaStatStore = (*memLemmaStatStore)(nil)

func (s *memLemmaStatStore) WithTx(tx *sql.Tx) store.LemmaStatStore { return s }

func (s *memLemmaStatStore) Get(ctx context.Context, lemma, language string) (*domain.LemmaStat, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stat, ok := s.db.lemmaStats[statKey(lemma, language)]
	if !ok {
		return nil, store.ErrLemmaStatNotFound
	}
	return cloneStat(stat), nil
}

func (s *memLemmaStatStore) Create(ctx context.Context, stat *domain.LemmaStat) error {
	if err := stat.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := statKey(stat.Lemma, stat.Language)
	if _, ok := s.db.lemmaStats[key]; ok {
		return fmt.Errorf("%w: lemma stat", store.ErrDuplicate)
	}
	s.db.lemmaStats[key] = cloneStat(stat)
	s.db.writes++
	return nil
}

func (s *memLemmaStatStore) Update(ctx context.Context, stat *domain.LemmaStat) error {
	if err := stat.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := statKey(stat.Lemma, stat.Language)
	existing, ok := s.db.lemmaStats[key]
	if !ok {
		return store.ErrLemmaStatNotFound
	}
	updated := cloneStat(stat)
	// Promotion fields stay with MarkPromoted/ClearPromotion.
	updated.PromotedVocabID = existing.PromotedVocabID
	updated.PromotionReason = existing.PromotionReason
	s.db.lemmaStats[key] = updated
	s.db.writes++
	return nil
}

func (s *memLemmaStatStore) MarkPromoted(ctx context.Context, lemma, language string, vocabID uuid.UUID, reason domain.PromotionReason, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stat, ok := s.db.lemmaStats[statKey(lemma, language)]
	if !ok {
		return false, store.ErrLemmaStatNotFound
	}
	if stat.PromotedVocabID != nil {
		return false, nil
	}
	id := vocabID
	stat.PromotedVocabID = &id
	stat.PromotionReason = reason
	stat.UpdatedAt = at
	s.db.writes++
	return true, nil
}

func (s *memLemmaStatStore) ClearPromotion(ctx context.Context, lemma, language string, cooldownUntil time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stat, ok := s.db.lemmaStats[statKey(lemma, language)]
	if !ok || stat.PromotedVocabID == nil {
		return nil
	}
	stat.PromotedVocabID = nil
	stat.PromotionReason = ""
	until := cooldownUntil
	stat.PromotionCooldownUntil = &until
	stat.UpdatedAt = cooldownUntil
	s.db.writes++
	return nil
}

func (s *memLemmaStatStore) ListStale(ctx context.Context, lastSeenBefore time.Time, maxTotal int) ([]*domain.LemmaStat, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stats := []*domain.LemmaStat{}
	for _, stat := range s.db.lemmaStats {
		if stat.PromotedVocabID != nil {
			continue
		}
		if stat.LastSeenAt.Before(lastSeenBefore) && stat.TotalCount <= maxTotal {
			stats = append(stats, cloneStat(stat))
		}
	}
	return stats, nil
}

func (s *memLemmaStatStore) Delete(ctx context.Context, lemma, language string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := statKey(lemma, language)
	if _, ok := s.db.lemmaStats[key]; !ok {
		return store.ErrLemmaStatNotFound
	}
	delete(s.db.lemmaStats, key)
	s.db.writes++
	return nil
}

// --- VocabularyStore ---

type memVocabStore struct{ db *memDB }

var _ store.VocabularyStore = (*memVocabStore)(nil)

func (s *memVocabStore) WithTx(tx *sql.Tx) store.VocabularyStore { return s }

func (s *memVocabStore) Create(ctx context.Context, entry *domain.VocabularyEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.vocab {
		if existing.Lemma == entry.Lemma && existing.Language == entry.Language && existing.DeletedAt == nil {
			return fmt.Errorf("%w: %s/%s", store.ErrVocabExists, entry.Lemma, entry.Language)
		}
	}
	s.db.vocab[entry.ID] = cloneEntry(entry)
	s.db.writes++
	return nil
}

func (s *memVocabStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entry, ok := s.db.vocab[id]
	if !ok {
		return nil, store.ErrVocabNotFound
	}
	return cloneEntry(entry), nil
}

func (s *memVocabStore) GetByLemma(ctx context.Context, lemma, language string) (*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, entry := range s.db.vocab {
		if entry.Lemma == lemma && entry.Language == language && entry.DeletedAt == nil {
			return cloneEntry(entry), nil
		}
	}
	return nil, store.ErrVocabNotFound
}

func (s *memVocabStore) Update(ctx context.Context, entry *domain.VocabularyEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.vocab[entry.ID]; !ok {
		return store.ErrVocabNotFound
	}
	s.db.vocab[entry.ID] = cloneEntry(entry)
	s.db.writes++
	return nil
}

func (s *memVocabStore) List(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entries := []*domain.VocabularyEntry{}
	for _, entry := range s.db.vocab {
		if entry.DeletedAt != nil {
			continue
		}
		if filter.Known != nil && entry.IsKnown != *filter.Known {
			continue
		}
		if filter.Traced != nil && entry.IsTraced != *filter.Traced {
			continue
		}
		entries = append(entries, cloneEntry(entry))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(entries) {
			return []*domain.VocabularyEntry{}, nil
		}
		entries = entries[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(entries) {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (s *memVocabStore) ListByLemmas(ctx context.Context, language string, lemmas []string) ([]*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	want := make(map[string]struct{}, len(lemmas))
	for _, l := range lemmas {
		want[l] = struct{}{}
	}
	entries := []*domain.VocabularyEntry{}
	for _, entry := range s.db.vocab {
		if entry.DeletedAt != nil || entry.Language != language {
			continue
		}
		if _, ok := want[entry.Lemma]; ok {
			entries = append(entries, cloneEntry(entry))
		}
	}
	return entries, nil
}

func (s *memVocabStore) ListReviewCandidates(ctx context.Context, tracedOnly bool) ([]*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entries := []*domain.VocabularyEntry{}
	for _, entry := range s.db.vocab {
		if entry.DeletedAt != nil || entry.ScoreLocked || entry.IsKnown {
			continue
		}
		if tracedOnly && !entry.IsTraced {
			continue
		}
		entries = append(entries, cloneEntry(entry))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *memVocabStore) ListNoiseManaged(ctx context.Context) ([]*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entries := []*domain.VocabularyEntry{}
	for _, entry := range s.db.vocab {
		if entry.DeletedAt == nil && entry.NoiseManaged {
			entries = append(entries, cloneEntry(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Lemma < entries[j].Lemma })
	return entries, nil
}

func (s *memVocabStore) CountActiveTraced(ctx context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	count := 0
	for _, entry := range s.db.vocab {
		if entry.DeletedAt == nil && entry.IsTraced && !entry.IsKnown {
			count++
		}
	}
	return count, nil
}

func (s *memVocabStore) ListAutoTraceCandidates(ctx context.Context, minEncounters int) ([]*store.AutoTraceCandidate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	candidates := []*store.AutoTraceCandidate{}
	for _, entry := range s.db.vocab {
		if entry.DeletedAt != nil || entry.IsTraced || entry.IsKnown || entry.ScoreLocked {
			continue
		}
		count := 0
		var last time.Time
		for _, enc := range s.db.encounters {
			if enc.VocabID != entry.ID {
				continue
			}
			count++
			if enc.CreatedAt.After(last) {
				last = enc.CreatedAt
			}
		}
		if count < minEncounters || count == 0 {
			continue
		}
		candidates = append(candidates, &store.AutoTraceCandidate{
			Entry:           cloneEntry(entry),
			EncounterCount:  count,
			LastEncounterAt: last,
		})
	}
	return candidates, nil
}

func (s *memVocabStore) ListOrphans(ctx context.Context) ([]*domain.VocabularyEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entries := []*domain.VocabularyEntry{}
	for _, entry := range s.db.vocab {
		if entry.Source == domain.EntrySourceManual || entry.IsTraced || entry.ScoreLocked {
			continue
		}
		orphan := true
		for _, enc := range s.db.encounters {
			if enc.VocabID == entry.ID {
				orphan = false
				break
			}
		}
		if orphan {
			entries = append(entries, cloneEntry(entry))
		}
	}
	return entries, nil
}

func (s *memVocabStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entry, ok := s.db.vocab[id]
	if !ok || entry.DeletedAt != nil {
		return nil
	}
	stamp := at
	entry.DeletedAt = &stamp
	entry.UpdatedAt = at
	s.db.writes++
	return nil
}

func (s *memVocabStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.vocab[id]; !ok {
		return store.ErrVocabNotFound
	}
	delete(s.db.vocab, id)
	for encID, enc := range s.db.encounters {
		if enc.VocabID == id {
			delete(s.db.encounters, encID)
		}
	}
	s.db.writes++
	return nil
}

// --- SettingsStore ---

type memSettingsStore struct{ db *memDB }

var _ store.SettingsStore = (*memSettingsStore)(nil)

func (s *memSettingsStore) WithTx(tx *sql.Tx) store.SettingsStore { return s }

func (s *memSettingsStore) Get(ctx context.Context, key string) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	value, ok := s.db.settings[key]
	if !ok {
		return "", store.ErrSettingNotFound
	}
	return value, nil
}

func (s *memSettingsStore) Set(ctx context.Context, key, value string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.db.settings[key]; ok && existing == value {
		// Idempotent rewrites do not count as writes, matching the
		// zero-write contract of an unchanged reconciliation.
		return nil
	}
	s.db.settings[key] = value
	s.db.writes++
	return nil
}

func (s *memSettingsStore) GetAll(ctx context.Context) (map[string]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[string]string, len(s.db.settings))
	for k, v := range s.db.settings {
		out[k] = v
	}
	return out, nil
}

func (s *memSettingsStore) Delete(ctx context.Context, key string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.settings, key)
	return nil
}
