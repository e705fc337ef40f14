package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLemmaStat(t *testing.T) {
	t.Parallel()
	seen := time.Now().UTC()

	stat, err := NewLemmaStat("ubiquitous", "en", "https://example.org/a", 2, seen)
	require.NoError(t, err)

	assert.Equal(t, 2, stat.TotalCount)
	assert.Equal(t, 1, stat.PageCount)
	assert.Equal(t, seen, stat.FirstSeenAt)
	assert.False(t, stat.Promoted())
}

func TestRecordSightingPageCountAdvancesOnNewPageOnly(t *testing.T) {
	t.Parallel()
	seen := time.Now().UTC()

	stat, err := NewLemmaStat("ubiquitous", "en", "https://example.org/a", 1, seen)
	require.NoError(t, err)

	stat.RecordSighting("https://example.org/a", 1, seen.Add(time.Minute))
	assert.Equal(t, 2, stat.TotalCount)
	assert.Equal(t, 1, stat.PageCount, "same page must not bump page count")

	stat.RecordSighting("https://example.org/b", 2, seen.Add(2*time.Minute))
	assert.Equal(t, 4, stat.TotalCount, "every occurrence on the page counts")
	assert.Equal(t, 2, stat.PageCount)
	assert.Equal(t, "https://example.org/b", stat.LastPageURL)
}

func TestThresholdsMet(t *testing.T) {
	t.Parallel()

	stat := &LemmaStat{Lemma: "ubiquitous", Language: "en", TotalCount: 6, PageCount: 3}
	assert.True(t, stat.ThresholdsMet(6, 3))
	assert.False(t, stat.ThresholdsMet(7, 3))
	assert.False(t, stat.ThresholdsMet(6, 4))
}

func TestCoolingDown(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	stat := &LemmaStat{Lemma: "x", Language: "en"}
	assert.False(t, stat.CoolingDown(now))

	until := now.Add(time.Hour)
	stat.PromotionCooldownUntil = &until
	assert.True(t, stat.CoolingDown(now))
	assert.False(t, stat.CoolingDown(now.Add(2*time.Hour)))
}

func TestLemmaStatValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		stat     LemmaStat
		expected error
	}{
		{"empty lemma", LemmaStat{Language: "en"}, ErrLemmaStatLemmaEmpty},
		{"empty language", LemmaStat{Lemma: "x"}, ErrLemmaStatLanguageEmpty},
		{"negative count", LemmaStat{Lemma: "x", Language: "en", TotalCount: -1}, ErrLemmaStatNegativeCount},
		{"valid", LemmaStat{Lemma: "x", Language: "en"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.stat.Validate()
			if tc.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expected)
			}
		})
	}
}
