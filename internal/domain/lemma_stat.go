package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PromotionReason records why a lemma was promoted into the vocabulary.
type PromotionReason string

// Possible promotion reasons.
const (
	// PromotionReasonFrequency marks a lemma promoted by crossing the
	// count/page thresholds.
	PromotionReasonFrequency PromotionReason = "frequency"

	// PromotionReasonWordbank marks a wordbank-listed lemma promoted
	// unconditionally on first sighting.
	PromotionReasonWordbank PromotionReason = "wordbank"
)

// LemmaStat-specific validation errors
var (
	// ErrLemmaStatLemmaEmpty is returned when a lemma stat has no lemma.
	ErrLemmaStatLemmaEmpty = errors.New("lemma stat lemma cannot be empty")

	// ErrLemmaStatLanguageEmpty is returned when a lemma stat has no language.
	ErrLemmaStatLanguageEmpty = errors.New("lemma stat language cannot be empty")

	// ErrLemmaStatNegativeCount is returned when a counter is negative.
	ErrLemmaStatNegativeCount = errors.New("lemma stat counts cannot be negative")

	// ErrAlreadyPromoted is returned when a promotion is attempted on a lemma
	// stat that already links to a vocabulary entry. Promotion is set exactly
	// once; re-promotion attempts must no-op.
	ErrAlreadyPromoted = errors.New("lemma stat is already promoted")
)

// LemmaStat is the per-normalized-word rolling frequency counter, tracked
// independently of whether the word has become a vocabulary entry yet.
// At most one non-nil PromotedVocabID is set at a time, exactly once per
// promotion lifecycle; deleting the promoted entry clears the link and
// starts a cooldown before the lemma may promote again.
type LemmaStat struct {
	Lemma                  string          `json:"lemma"`
	Language               string          `json:"language"`
	TotalCount             int             `json:"total_count"`
	PageCount              int             `json:"page_count"`
	FirstSeenAt            time.Time       `json:"first_seen_at"`
	LastSeenAt             time.Time       `json:"last_seen_at"`
	LastPageURL            string          `json:"last_page_url"`
	InActiveWordbank       bool            `json:"in_active_wordbank"`
	DictRank               *int            `json:"dict_rank,omitempty"`
	PromotedVocabID        *uuid.UUID      `json:"promoted_vocab_id,omitempty"`
	PromotionReason        PromotionReason `json:"promotion_reason,omitempty"`
	PromotionCooldownUntil *time.Time      `json:"promotion_cooldown_until,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// NewLemmaStat creates a fresh frequency counter for a lemma first sighted
// on the given page at the given time. occurrences is how many times the
// lemma appeared on that page; every occurrence counts toward the total.
func NewLemmaStat(lemma, language, pageURL string, occurrences int, seenAt time.Time) (*LemmaStat, error) {
	stat := &LemmaStat{
		Lemma:       lemma,
		Language:    language,
		TotalCount:  occurrences,
		PageCount:   1,
		FirstSeenAt: seenAt,
		LastSeenAt:  seenAt,
		LastPageURL: pageURL,
		CreatedAt:   seenAt,
		UpdatedAt:   seenAt,
	}

	if err := stat.Validate(); err != nil {
		return nil, err
	}

	return stat, nil
}

// Validate checks if the LemmaStat has valid data.
func (s *LemmaStat) Validate() error {
	if s.Lemma == "" {
		return ErrLemmaStatLemmaEmpty
	}

	if s.Language == "" {
		return ErrLemmaStatLanguageEmpty
	}

	if s.TotalCount < 0 || s.PageCount < 0 {
		return ErrLemmaStatNegativeCount
	}

	return nil
}

// RecordSighting folds one page's observations into the counters. Each
// occurrence advances TotalCount; PageCount only advances when the page
// differs from the last recorded one.
func (s *LemmaStat) RecordSighting(pageURL string, occurrences int, seenAt time.Time) {
	s.TotalCount += occurrences
	if s.LastPageURL != pageURL {
		s.PageCount++
		s.LastPageURL = pageURL
	}
	s.LastSeenAt = seenAt
	s.UpdatedAt = seenAt
}

// Promoted reports whether the lemma has already been linked to a
// vocabulary entry.
func (s *LemmaStat) Promoted() bool {
	return s.PromotedVocabID != nil
}

// CoolingDown reports whether a promotion cooldown is active at the given time.
func (s *LemmaStat) CoolingDown(now time.Time) bool {
	return s.PromotionCooldownUntil != nil && now.Before(*s.PromotionCooldownUntil)
}

// ThresholdsMet reports whether the frequency gate for promotion is satisfied.
func (s *LemmaStat) ThresholdsMet(minCount, minPages int) bool {
	return s.TotalCount >= minCount && s.PageCount >= minPages
}
