package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wordgrove/wordgrove-api/internal/config"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/wordbank"
)

// fakeDict serves ranks from a map keyed language:lemma.
type fakeDict struct {
	ranks map[string]int
}

func (d *fakeDict) Rank(ctx context.Context, lemma, language string) (int, bool, error) {
	rank, ok := d.ranks[language+":"+lemma]
	return rank, ok, nil
}

// fakeWordbanks serves wordbanks from a map.
type fakeWordbanks struct {
	banks map[string]*domain.Wordbank
}

func (w *fakeWordbanks) Get(id string) (*domain.Wordbank, error) {
	wb, ok := w.banks[id]
	if !ok {
		return nil, wordbank.ErrWordbankNotFound
	}
	return wb, nil
}

func (w *fakeWordbanks) Lookup(language, lemma string) (string, bool) {
	for id, wb := range w.banks {
		if wb.Language == language && wb.Contains(lemma) {
			return id, true
		}
	}
	return "", false
}

func testDefaults() config.EngineConfig {
	return config.EngineConfig{
		PromotionMinCount:        6,
		PromotionMinPages:        3,
		EnvironmentRankThreshold: 2000,
		AutoTracePoolSize:        3,
		AutoTraceMinEncounters:   2,
		AutoTraceEnabled:         false,
		DedupWindowHours:         24,
		ReconcileChunkSize:       10,
		ReconcileWorkers:         2,
		PromotionCooldownHours:   24,
	}
}

// testEngine bundles a service wired to in-memory fakes with a controllable
// clock.
type testEngine struct {
	svc  *Service
	db   *memDB
	dict *fakeDict
	wbs  *fakeWordbanks

	// clock is the time the service's now() returns; tests advance it
	// directly.
	clock time.Time
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db := newMemDB()
	dict := &fakeDict{ranks: map[string]int{
		"en:the":        1,
		"en:of":         2,
		"en:house":      950,
		"en:garden":     2400,
		"en:ubiquitous": 14982,
		"en:lattice":    18421,
		"en:meander":    21033,
	}}
	wbs := &fakeWordbanks{banks: map[string]*domain.Wordbank{}}

	svc, err := NewService(db.stores(), memTxRunner{}, dict, wbs, testDefaults(), nil)
	require.NoError(t, err)

	e := &testEngine{
		svc:   svc,
		db:    db,
		dict:  dict,
		wbs:   wbs,
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return e.clock }
	return e
}

func (e *testEngine) addWordbank(t *testing.T, id, language string, words ...string) {
	t.Helper()
	wb, err := domain.NewWordbank(id, id, language, words)
	require.NoError(t, err)
	e.wbs.banks[id] = wb
}

func (e *testEngine) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func TestNewService(t *testing.T) {
	t.Parallel()

	db := newMemDB()

	t.Run("rejects missing stores", func(t *testing.T) {
		t.Parallel()
		stores := db.stores()
		stores.Vocabulary = nil
		_, err := NewService(stores, memTxRunner{}, nil, &fakeWordbanks{}, testDefaults(), nil)
		require.ErrorIs(t, err, ErrNilStore)
	})

	t.Run("rejects missing tx runner", func(t *testing.T) {
		t.Parallel()
		_, err := NewService(db.stores(), nil, nil, &fakeWordbanks{}, testDefaults(), nil)
		require.ErrorIs(t, err, ErrNilTxRunner)
	})

	t.Run("nil dictionary is allowed", func(t *testing.T) {
		t.Parallel()
		svc, err := NewService(db.stores(), memTxRunner{}, nil, &fakeWordbanks{}, testDefaults(), nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestResolveSettings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("defaults without overrides", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		st := e.svc.resolveSettings(ctx)
		require.Equal(t, 6, st.PromotionMinCount)
		require.Equal(t, 3, st.PromotionMinPages)
		require.Equal(t, 2000, st.EnvironmentRankThreshold)
		require.False(t, st.AutoTraceEnabled)
	})

	t.Run("stored overrides win", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		require.NoError(t, e.db.stores().Settings.Set(ctx, "promotion_min_count", "2"))
		require.NoError(t, e.db.stores().Settings.Set(ctx, "auto_trace_enabled", "true"))
		st := e.svc.resolveSettings(ctx)
		require.Equal(t, 2, st.PromotionMinCount)
		require.True(t, st.AutoTraceEnabled)
	})

	t.Run("malformed overrides are ignored", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		require.NoError(t, e.db.stores().Settings.Set(ctx, "promotion_min_count", "banana"))
		st := e.svc.resolveSettings(ctx)
		require.Equal(t, 6, st.PromotionMinCount)
	})
}
