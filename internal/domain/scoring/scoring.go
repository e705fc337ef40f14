package scoring

import "github.com/wordgrove/wordgrove-api/internal/domain"

// KnownThreshold is the familiarity score at or above which a word is
// considered mastered.
const KnownThreshold = 100.0

// MasteredCeiling is the score assigned to noise-locked entries.
const MasteredCeiling = 100.0

// TracedMultiplier is applied to every encounter weight while the entry is
// actively traced. Toggling tracing therefore rescales the entire existing
// history, not just new encounters.
const TracedMultiplier = 2.0

// defaultWeight is used for source tags outside the fixed table.
const defaultWeight = 0.1

// weights is the fixed per-channel base weight table.
var weights = map[domain.SourceTag]float64{
	domain.SourcePageScan:       0.1,
	domain.SourceDictionary:     1.0,
	domain.SourceExplicitTrace:  1.0,
	domain.SourceManualEntry:    2.0,
	domain.SourceBulkImport:     0.5,
	domain.SourceWordbankSeed:   0.1,
	domain.SourceRatingKnown:    5.0,
	domain.SourceRatingFamiliar: 3.0,
	domain.SourceRatingUnknown:  1.0,
}

// Context carries the per-entry state that modulates scoring. Modeled as an
// explicit value rather than a boolean threaded through call sites.
type Context struct {
	Traced bool
}

// Weight returns the base weight for a source tag. Unknown tags fall back
// to the page-scan weight.
func Weight(tag domain.SourceTag) float64 {
	if w, ok := weights[tag]; ok {
		return w
	}
	return defaultWeight
}

// Score maps a multiset of encounter tags plus the scoring context to a
// non-negative familiarity score. The function is decay-free: older
// encounters never lose weight. Each term is clamped to >= 0 so no single
// term can drive the running total negative.
func Score(tags []domain.SourceTag, ctx Context) float64 {
	multiplier := 1.0
	if ctx.Traced {
		multiplier = TracedMultiplier
	}

	total := 0.0
	for _, tag := range tags {
		term := Weight(tag) * multiplier
		if term < 0 {
			term = 0
		}
		total += term
	}

	return total
}

// IsKnown reports whether a score crosses the mastery threshold.
func IsKnown(score float64) bool {
	return score >= KnownThreshold
}
