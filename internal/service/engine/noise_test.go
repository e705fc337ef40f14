package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordgrove/wordgrove-api/internal/domain"
)

func TestSyncNoiseWordsLocksAndUnlocks(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the", "of")
	ctx := context.Background()

	cfg := NoiseConfig{WordbankID: "en-noise", Language: "en"}

	result, err := e.svc.SyncNoiseWords(ctx, cfg, false, false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Locked)
	assert.Equal(t, 0, result.Unlocked)

	the, err := e.db.stores().Vocabulary.GetByLemma(ctx, "the", "en")
	require.NoError(t, err)
	assert.Equal(t, 100.0, the.FamiliarityScore)
	assert.True(t, the.IsKnown)
	assert.True(t, the.ScoreLocked)
	assert.True(t, the.NoiseManaged)
	assert.Equal(t, domain.EntrySourceNoise, the.Source)

	// Removing "the" via the manual remove list unlocks it on re-sync.
	cfg.ManualRemove = []string{"the"}
	result, err = e.svc.SyncNoiseWords(ctx, cfg, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unlocked)

	the, err = e.db.stores().Vocabulary.GetByLemma(ctx, "the", "en")
	require.NoError(t, err)
	assert.Equal(t, float64(0), the.FamiliarityScore)
	assert.False(t, the.IsKnown)
	assert.False(t, the.ScoreLocked)
	assert.False(t, the.NoiseManaged)
}

func TestSyncNoiseWordsUnlockLeavesUntracedScoreAtZero(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the")
	ctx := context.Background()

	// A manual entry with encounter history scores above zero before the
	// reconciler takes it over.
	entry, err := e.svc.AddVocabulary(ctx, AddVocabularyInput{Word: "the", Language: "en"})
	require.NoError(t, err)
	require.Greater(t, entry.FamiliarityScore, float64(0))

	_, err = e.svc.SyncNoiseWords(ctx, NoiseConfig{WordbankID: "en-noise", Language: "en"}, false, false)
	require.NoError(t, err)

	// Dropping the word from the target set unlocks it, and the untraced
	// entry must not get its historical score back.
	result, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{
		WordbankID:   "en-noise",
		Language:     "en",
		ManualRemove: []string{"the"},
	}, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unlocked)

	entry, err = e.db.stores().Vocabulary.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, entry.ScoreLocked)
	assert.Equal(t, float64(0), entry.FamiliarityScore)
	assert.False(t, entry.IsKnown)
}

func TestSyncNoiseWordsUnchangedConfigIsZeroWrites(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the", "of", "and")
	ctx := context.Background()

	cfg := NoiseConfig{WordbankID: "en-noise", Language: "en", ManualAdd: []string{"very"}}

	_, err := e.svc.SyncNoiseWords(ctx, cfg, false, false)
	require.NoError(t, err)

	before := e.db.writeCount()
	result, err := e.svc.SyncNoiseWords(ctx, cfg, false, false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, before, e.db.writeCount(), "second sync with unchanged config must not write")
}

func TestSyncNoiseWordsMemoComparesStructurally(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the")
	ctx := context.Background()

	_, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{
		WordbankID: "en-noise",
		Language:   "en",
		ManualAdd:  []string{"Very", "quite"},
	}, false, false)
	require.NoError(t, err)

	// Same set, different order and casing: structurally equal after
	// normalization, so the memo short-circuits.
	before := e.db.writeCount()
	result, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{
		WordbankID: "en-noise",
		Language:   "EN",
		ManualAdd:  []string{"quite", "very"},
	}, false, false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, before, e.db.writeCount())
}

func TestSyncNoiseWordsForceBypassesMemo(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the")
	ctx := context.Background()

	cfg := NoiseConfig{WordbankID: "en-noise", Language: "en"}
	_, err := e.svc.SyncNoiseWords(ctx, cfg, false, false)
	require.NoError(t, err)

	result, err := e.svc.SyncNoiseWords(ctx, cfg, true, false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	// Everything is already locked, so a forced pass still changes nothing.
	assert.Equal(t, 0, result.Locked)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Unlocked)
}

func TestSyncNoiseWordsNeverLocksTraced(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the")
	ctx := context.Background()

	// A traced entry for "the" exists before the sync.
	entry, err := e.svc.AddVocabulary(ctx, AddVocabularyInput{Word: "the", Language: "en"})
	require.NoError(t, err)
	_, err = e.svc.ToggleTrace(ctx, entry.ID, true)
	require.NoError(t, err)

	result, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{WordbankID: "en-noise", Language: "en"}, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Locked)
	assert.Equal(t, 0, result.Created)

	entry, err = e.db.stores().Vocabulary.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, entry.IsTraced)
	assert.False(t, entry.ScoreLocked)
}

func TestSyncNoiseWordsTracingReleasesLock(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the")
	ctx := context.Background()

	_, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{WordbankID: "en-noise", Language: "en"}, false, false)
	require.NoError(t, err)

	entry, err := e.db.stores().Vocabulary.GetByLemma(ctx, "the", "en")
	require.NoError(t, err)
	require.True(t, entry.ScoreLocked)

	// Tracing wins over the lock: the entry is released immediately and
	// drops out of reconciler ownership.
	_, err = e.svc.ToggleTrace(ctx, entry.ID, true)
	require.NoError(t, err)

	entry, err = e.db.stores().Vocabulary.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, entry.IsTraced)
	assert.False(t, entry.ScoreLocked)
	assert.False(t, entry.NoiseManaged)
	assert.Greater(t, entry.FamiliarityScore, float64(0))

	// A later forced sync must not re-lock it.
	result, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{WordbankID: "en-noise", Language: "en"}, true, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Locked)

	entry, err = e.db.stores().Vocabulary.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, entry.IsTraced)
	assert.False(t, entry.ScoreLocked)
}

func TestSyncNoiseWordsDryRun(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-noise", "en", "the", "of")
	ctx := context.Background()

	before := e.db.writeCount()
	result, err := e.svc.SyncNoiseWords(ctx, NoiseConfig{WordbankID: "en-noise", Language: "en"}, false, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Locked)
	assert.Equal(t, before, e.db.writeCount(), "dry run must not write")

	// Nothing was created.
	_, err = e.db.stores().Vocabulary.GetByLemma(ctx, "the", "en")
	assert.Error(t, err)
}
