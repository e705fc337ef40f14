package domain

import "errors"

// Wordbank-specific validation errors
var (
	// ErrWordbankIDEmpty is returned when a wordbank has no ID.
	ErrWordbankIDEmpty = errors.New("wordbank ID cannot be empty")

	// ErrWordbankLanguageEmpty is returned when a wordbank has no language.
	ErrWordbankLanguageEmpty = errors.New("wordbank language cannot be empty")
)

// Wordbank is a curated word list (a frequency list, a course list, or the
// designated noise list). Its words are stored normalized.
type Wordbank struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Language string   `json:"language"`
	Words    []string `json:"words"`

	set map[string]struct{}
}

// NewWordbank creates a wordbank, normalizing each word and dropping
// duplicates and empties.
func NewWordbank(id, name, language string, words []string) (*Wordbank, error) {
	wb := &Wordbank{
		ID:       id,
		Name:     name,
		Language: language,
		set:      make(map[string]struct{}, len(words)),
	}

	if err := wb.Validate(); err != nil {
		return nil, err
	}

	for _, w := range words {
		lemma := NormalizeLemma(w)
		if lemma == "" {
			continue
		}
		if _, ok := wb.set[lemma]; ok {
			continue
		}
		wb.set[lemma] = struct{}{}
		wb.Words = append(wb.Words, lemma)
	}

	return wb, nil
}

// Validate checks if the Wordbank has valid data.
func (w *Wordbank) Validate() error {
	if w.ID == "" {
		return ErrWordbankIDEmpty
	}

	if w.Language == "" {
		return ErrWordbankLanguageEmpty
	}

	return nil
}

// Contains reports whether the normalized lemma is listed.
func (w *Wordbank) Contains(lemma string) bool {
	_, ok := w.set[lemma]
	return ok
}

// Len returns the number of distinct words.
func (w *Wordbank) Len() int {
	return len(w.Words)
}
