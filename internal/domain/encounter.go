package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Encounter-specific validation errors
var (
	// ErrEncounterIDEmpty is returned when an encounter ID is empty or nil.
	ErrEncounterIDEmpty = errors.New("encounter ID cannot be empty")

	// ErrEncounterVocabIDEmpty is returned when an encounter's vocabulary entry ID is empty or nil.
	ErrEncounterVocabIDEmpty = errors.New("encounter vocabulary ID cannot be empty")

	// ErrEncounterLemmaEmpty is returned when an encounter carries no word text.
	ErrEncounterLemmaEmpty = errors.New("encounter lemma cannot be empty")

	// ErrEncounterPageEmpty is returned when a page-originated encounter carries
	// no page reference.
	ErrEncounterPageEmpty = errors.New("encounter page URL cannot be empty")
)

// PageContext describes where on the web a word was observed.
// Sentence is optional and used only for display enrichment.
type PageContext struct {
	URL      string `json:"url"`
	Host     string `json:"host"`
	Title    string `json:"title"`
	Sentence string `json:"sentence,omitempty"`
}

// Encounter is one timestamped observation of a word, tagged with the
// channel that produced it. Encounters are immutable once created except
// for an UpdatedAt touch when a duplicate within the dedup window is folded
// into an existing row. An Encounter is owned exclusively by its
// VocabularyEntry.
type Encounter struct {
	ID        uuid.UUID   `json:"id"`
	VocabID   uuid.UUID   `json:"vocab_id"`
	Lemma     string      `json:"lemma"`
	Source    SourceTag   `json:"source"`
	Page      PageContext `json:"page"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// pageRequired reports whether the source channel must carry a page reference.
func pageRequired(source SourceTag) bool {
	return source == SourcePageScan || source == SourceDictionary
}

// NewEncounter creates a new Encounter owned by the given vocabulary entry.
// It generates a new UUID for the encounter ID and sets both timestamps.
// Returns an error if validation fails.
func NewEncounter(vocabID uuid.UUID, lemma string, source SourceTag, page PageContext) (*Encounter, error) {
	now := time.Now().UTC()
	enc := &Encounter{
		ID:        uuid.New(),
		VocabID:   vocabID,
		Lemma:     lemma,
		Source:    source,
		Page:      page,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := enc.Validate(); err != nil {
		return nil, err
	}

	return enc, nil
}

// Validate checks if the Encounter has valid data.
// Returns an error if any field fails validation.
func (e *Encounter) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEncounterIDEmpty
	}

	if e.VocabID == uuid.Nil {
		return ErrEncounterVocabIDEmpty
	}

	if e.Lemma == "" {
		return ErrEncounterLemmaEmpty
	}

	if !ValidSourceTag(e.Source) {
		return ErrInvalidSourceTag
	}

	if pageRequired(e.Source) && e.Page.URL == "" {
		return ErrEncounterPageEmpty
	}

	return nil
}
