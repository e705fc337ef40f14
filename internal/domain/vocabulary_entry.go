package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntrySource identifies how a vocabulary entry came to exist.
type EntrySource string

// Possible entry sources.
const (
	EntrySourcePromotion EntrySource = "promotion"
	EntrySourceManual    EntrySource = "manual"
	EntrySourceNoise     EntrySource = "noise"
	EntrySourceWordbank  EntrySource = "wordbank"
)

// VocabularyEntry-specific validation errors
var (
	// ErrVocabIDEmpty is returned when a vocabulary entry ID is empty or nil.
	ErrVocabIDEmpty = errors.New("vocabulary entry ID cannot be empty")

	// ErrVocabLemmaEmpty is returned when a vocabulary entry has no lemma.
	ErrVocabLemmaEmpty = errors.New("vocabulary entry lemma cannot be empty")

	// ErrVocabLanguageEmpty is returned when a vocabulary entry has no language.
	ErrVocabLanguageEmpty = errors.New("vocabulary entry language cannot be empty")

	// ErrVocabNegativeScore is returned when a familiarity score is negative.
	ErrVocabNegativeScore = errors.New("familiarity score cannot be negative")

	// ErrVocabInvalidSource is returned when the entry source is not recognized.
	ErrVocabInvalidSource = errors.New("invalid vocabulary entry source")

	// ErrVocabLockedWhileTraced is returned when an entry would end up both
	// noise-locked and actively traced. Tracing always wins over the lock.
	ErrVocabLockedWhileTraced = errors.New("traced entry cannot be noise-locked")
)

// VocabularyEntry is the unit the user learns. The pair (Lemma, Language) is
// unique among non-deleted entries.
//
// Invariants, enforced by every mutating method:
//   - IsKnown == (FamiliarityScore >= the known threshold), except while
//     ScoreLocked holds the entry at the mastered ceiling;
//   - a ScoreLocked entry is never IsTraced and vice versa.
type VocabularyEntry struct {
	ID               uuid.UUID   `json:"id"`
	Lemma            string      `json:"lemma"`
	Language         string      `json:"language"`
	Surface          string      `json:"surface"`
	Meaning          string      `json:"meaning,omitempty"`
	FamiliarityScore float64     `json:"familiarity_score"`
	IsKnown          bool        `json:"is_known"`
	ScoreLocked      bool        `json:"score_locked"`
	IsTraced         bool        `json:"is_traced"`
	NoiseManaged     bool        `json:"noise_managed"`
	Source           EntrySource `json:"source"`
	WordbankID       *string     `json:"wordbank_id,omitempty"`
	NextReviewAt     *time.Time  `json:"next_review_at,omitempty"`
	LastSeenAt       *time.Time  `json:"last_seen_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	DeletedAt        *time.Time  `json:"deleted_at,omitempty"`
}

// NewVocabularyEntry creates a new entry at score zero for the given
// normalized lemma. The surface form defaults to the lemma when empty.
// Returns an error if validation fails.
func NewVocabularyEntry(lemma, language, surface string, source EntrySource) (*VocabularyEntry, error) {
	if surface == "" {
		surface = lemma
	}

	now := time.Now().UTC()
	entry := &VocabularyEntry{
		ID:        uuid.New(),
		Lemma:     lemma,
		Language:  language,
		Surface:   surface,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the VocabularyEntry has valid data and that the
// cross-field invariants hold.
func (e *VocabularyEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrVocabIDEmpty
	}

	if e.Lemma == "" {
		return ErrVocabLemmaEmpty
	}

	if e.Language == "" {
		return ErrVocabLanguageEmpty
	}

	if e.FamiliarityScore < 0 {
		return ErrVocabNegativeScore
	}

	switch e.Source {
	case EntrySourcePromotion, EntrySourceManual, EntrySourceNoise, EntrySourceWordbank:
	default:
		return ErrVocabInvalidSource
	}

	if e.ScoreLocked && e.IsTraced {
		return ErrVocabLockedWhileTraced
	}

	return nil
}

// ApplyScore sets the familiarity score and rederives IsKnown against the
// given known threshold. A locked entry ignores computed scores and stays at
// the ceiling.
func (e *VocabularyEntry) ApplyScore(score, knownThreshold float64, now time.Time) {
	if e.ScoreLocked {
		return
	}
	if score < 0 {
		score = 0
	}
	e.FamiliarityScore = score
	e.IsKnown = score >= knownThreshold
	e.UpdatedAt = now
}

// Lock forces the entry to the mastered ceiling under reconciler ownership.
// Returns ErrVocabLockedWhileTraced for traced entries: tracing always wins.
func (e *VocabularyEntry) Lock(ceiling float64, now time.Time) error {
	if e.IsTraced {
		return ErrVocabLockedWhileTraced
	}
	e.FamiliarityScore = ceiling
	e.IsKnown = true
	e.ScoreLocked = true
	e.NoiseManaged = true
	e.UpdatedAt = now
	return nil
}

// Unlock releases a noise lock. The score resets to zero; callers that keep a
// computed score for traced entries apply it afterwards via ApplyScore.
func (e *VocabularyEntry) Unlock(now time.Time) {
	e.FamiliarityScore = 0
	e.IsKnown = false
	e.ScoreLocked = false
	e.NoiseManaged = false
	e.UpdatedAt = now
}

// SetTraced flips the actively-tracked flag. Tracing a locked entry releases
// the lock first so the entry is never locked and traced at once.
func (e *VocabularyEntry) SetTraced(traced bool, now time.Time) {
	if traced && e.ScoreLocked {
		e.Unlock(now)
	}
	e.IsTraced = traced
	e.UpdatedAt = now
}

// Deleted reports whether the entry is soft-deleted.
func (e *VocabularyEntry) Deleted() bool {
	return e.DeletedAt != nil
}

// ReviewEligible reports whether the entry may appear in a review batch.
func (e *VocabularyEntry) ReviewEligible() bool {
	return !e.Deleted() && !e.ScoreLocked && !e.IsKnown
}
