package review

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wordgrove/wordgrove-api/internal/domain/scoring"
)

// Mode selects the card-draw strategy.
type Mode string

// Possible selection modes.
const (
	// ModeAuto sorts deterministically by priority and takes the top N.
	ModeAuto Mode = "auto"

	// ModeShuffle performs weighted sampling without replacement, biased by
	// priority. This is the default.
	ModeShuffle Mode = "shuffle"
)

// ErrInvalidMode is returned for a mode outside the closed set.
var ErrInvalidMode = errors.New("invalid review selection mode")

// priorityEpsilon floors the priority used as a sampling exponent so
// zero-priority candidates keep a vanishing but defined draw weight.
const priorityEpsilon = 1e-6

// Priority weights for the composite.
const (
	weightSRSDue     = 0.45
	weightDifficulty = 0.25
	weightUrgency    = 0.20
	weightRecency    = 0.10
)

// Candidate is the read-only projection of a vocabulary entry the selector
// ranks. Nil NextReviewAt means the word has never been scheduled; nil
// LastSeenAt means it has never been encountered on a page.
type Candidate struct {
	ID           uuid.UUID
	Score        float64
	Traced       bool
	NextReviewAt *time.Time
	LastSeenAt   *time.Time
}

// Priority computes the composite review priority of a candidate at the
// given time:
//
//	0.45*srsDue + 0.25*difficulty + 0.20*urgency + 0.10*recency
func Priority(c Candidate, now time.Time) float64 {
	return weightSRSDue*srsDue(c.NextReviewAt, now) +
		weightDifficulty*difficulty(c.Score) +
		weightUrgency*urgency(c.Traced) +
		weightRecency*recency(c.LastSeenAt, now)
}

// srsDue is 0.5 for a never-scheduled word, 0 before the due date, and
// ramps to 1 over a week of overdue time.
func srsDue(next *time.Time, now time.Time) float64 {
	if next == nil {
		return 0.5
	}
	if now.Before(*next) {
		return 0
	}
	overdueDays := now.Sub(*next).Hours() / 24
	return math.Min(1, overdueDays/7)
}

// difficulty is the inverse of mastery progress, clamped to [0, 1].
func difficulty(score float64) float64 {
	d := 1 - score/scoring.KnownThreshold
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

func urgency(traced bool) float64 {
	if traced {
		return 1.0
	}
	return 0.3
}

// recency ramps to 1 over two weeks since the last sighting. A word that was
// never sighted is maximally stale.
func recency(lastSeen *time.Time, now time.Time) float64 {
	if lastSeen == nil {
		return 1
	}
	days := now.Sub(*lastSeen).Hours() / 24
	if days < 0 {
		return 0
	}
	return math.Min(1, days/14)
}

// Options configures a selection. A nil Seed draws a fresh seed from the
// clock; supplying one makes shuffle selection reproducible.
type Options struct {
	Now  time.Time
	Seed *int64
}

// Select draws up to n distinct candidates using the given mode. It returns
// exactly min(n, len(candidates)) entries and never repeats an ID.
func Select(candidates []Candidate, n int, mode Mode, opts Options) ([]Candidate, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if n <= 0 || len(candidates) == 0 {
		return []Candidate{}, nil
	}

	switch mode {
	case ModeAuto:
		return selectAuto(candidates, n, now), nil
	case ModeShuffle, "":
		return selectShuffle(candidates, n, now, opts.Seed), nil
	default:
		return nil, ErrInvalidMode
	}
}

// selectAuto sorts descending by priority with a stable tie-break on entry
// ID and takes the top n.
func selectAuto(candidates []Candidate, n int, now time.Time) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	priorities := make(map[uuid.UUID]float64, len(ranked))
	for _, c := range ranked {
		priorities[c.ID] = Priority(c, now)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := priorities[ranked[i].ID], priorities[ranked[j].ID]
		if pi != pj {
			return pi > pj
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// selectShuffle implements Efraimidis–Spirakis weighted sampling without
// replacement: each candidate draws u ~ Uniform(0,1) and is ranked by
// key = u^(1/max(priority, epsilon)); the top n keys win.
func selectShuffle(candidates []Candidate, n int, now time.Time, seed *int64) []Candidate {
	var rng *lcg
	if seed != nil {
		rng = newLCG(uint64(*seed))
	} else {
		rng = newLCG(uint64(time.Now().UnixNano()))
	}

	type keyed struct {
		c   Candidate
		key float64
	}

	ranked := make([]keyed, 0, len(candidates))
	for _, c := range candidates {
		p := Priority(c, now)
		if p < priorityEpsilon {
			p = priorityEpsilon
		}
		u := rng.Float64()
		ranked = append(ranked, keyed{c: c, key: math.Pow(u, 1/p)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].key != ranked[j].key {
			return ranked[i].key > ranked[j].key
		}
		return ranked[i].c.ID.String() < ranked[j].c.ID.String()
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]Candidate, 0, n)
	for _, k := range ranked[:n] {
		out = append(out, k.c)
	}
	return out
}
