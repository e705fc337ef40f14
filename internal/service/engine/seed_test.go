package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/wordbank"
)

func TestSeedWordbank(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-core", "en", "house", "garden", "lattice")
	ctx := context.Background()

	result, err := e.svc.SeedWordbank(ctx, "en-core")
	require.NoError(t, err)
	assert.Equal(t, "en-core", result.WordbankID)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Existing)

	entry, err := e.db.stores().Vocabulary.GetByLemma(ctx, "house", "en")
	require.NoError(t, err)
	assert.Equal(t, domain.EntrySourceWordbank, entry.Source)
	require.NotNil(t, entry.WordbankID)
	assert.Equal(t, "en-core", *entry.WordbankID)
	assert.Equal(t, 0.1, entry.FamiliarityScore)
}

func TestSeedWordbankExistingEntries(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.addWordbank(t, "en-core", "en", "house", "garden")
	ctx := context.Background()

	manual, err := e.svc.AddVocabulary(ctx, AddVocabularyInput{Word: "house", Language: "en"})
	require.NoError(t, err)

	result, err := e.svc.SeedWordbank(ctx, "en-core")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Existing)

	// The existing entry keeps its identity and source; the seed encounter
	// just joins its history.
	entry, err := e.db.stores().Vocabulary.GetByID(ctx, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntrySourceManual, entry.Source)
	assert.Equal(t, 2.1, entry.FamiliarityScore)
}

func TestSeedWordbankUnknownID(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	_, err := e.svc.SeedWordbank(context.Background(), "missing")
	assert.ErrorIs(t, err, wordbank.ErrWordbankNotFound)
}
