package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordgrove/wordgrove-api/internal/domain"
)

func TestScoreWeightTable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		tags     []domain.SourceTag
		ctx      Context
		expected float64
	}{
		{
			name:     "empty history scores zero",
			tags:     nil,
			ctx:      Context{},
			expected: 0,
		},
		{
			name:     "single page scan",
			tags:     []domain.SourceTag{domain.SourcePageScan},
			ctx:      Context{},
			expected: 0.1,
		},
		{
			name:     "manual entry is heavy",
			tags:     []domain.SourceTag{domain.SourceManualEntry},
			ctx:      Context{},
			expected: 2.0,
		},
		{
			name: "ratings dominate",
			tags: []domain.SourceTag{
				domain.SourceRatingKnown,
				domain.SourceRatingFamiliar,
				domain.SourceRatingUnknown,
			},
			ctx:      Context{},
			expected: 9.0,
		},
		{
			name:     "unknown tag falls back to page-scan weight",
			tags:     []domain.SourceTag{domain.SourceTag("mystery-channel")},
			ctx:      Context{},
			expected: 0.1,
		},
		{
			name: "traced doubles the whole history",
			tags: []domain.SourceTag{
				domain.SourceExplicitTrace,
				domain.SourceExplicitTrace,
				domain.SourceExplicitTrace,
				domain.SourceExplicitTrace,
				domain.SourceExplicitTrace,
				domain.SourcePageScan,
			},
			ctx:      Context{Traced: true},
			expected: 10.2, // (1.0*5 + 0.1*1) * 2
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tc.tags, tc.ctx)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestScoreMonotoneNonDecreasing(t *testing.T) {
	t.Parallel()

	// With traced held constant, appending any encounter never lowers the
	// score.
	sequence := []domain.SourceTag{
		domain.SourcePageScan,
		domain.SourceWordbankSeed,
		domain.SourceBulkImport,
		domain.SourceDictionary,
		domain.SourceRatingUnknown,
		domain.SourceTag("unrecognized"),
		domain.SourceRatingKnown,
		domain.SourceManualEntry,
	}

	for _, ctx := range []Context{{Traced: false}, {Traced: true}} {
		prev := 0.0
		for i := range sequence {
			got := Score(sequence[:i+1], ctx)
			require.GreaterOrEqual(t, got, prev,
				"score must not decrease when appending encounters")
			prev = got
		}
	}
}

func TestScoreHasNoTimeDecay(t *testing.T) {
	t.Parallel()

	// The scoring function is intentionally decay-free: the same multiset
	// of tags yields the same score no matter how old the encounters are.
	// Cleanup is the only mechanism that reduces historical influence, and
	// only by deleting evidence.
	tags := []domain.SourceTag{domain.SourceDictionary, domain.SourcePageScan}
	assert.Equal(t, Score(tags, Context{}), Score(tags, Context{}))
}

func TestIsKnownThreshold(t *testing.T) {
	t.Parallel()

	assert.False(t, IsKnown(99.999))
	assert.True(t, IsKnown(KnownThreshold))
	assert.True(t, IsKnown(250))
}

func TestWeightNonNegative(t *testing.T) {
	t.Parallel()

	for _, tag := range []domain.SourceTag{
		domain.SourcePageScan,
		domain.SourceDictionary,
		domain.SourceExplicitTrace,
		domain.SourceManualEntry,
		domain.SourceBulkImport,
		domain.SourceWordbankSeed,
		domain.SourceRatingKnown,
		domain.SourceRatingFamiliar,
		domain.SourceRatingUnknown,
		domain.SourceTag(""),
	} {
		assert.GreaterOrEqual(t, Weight(tag), 0.0, "tag %q", tag)
	}
}
