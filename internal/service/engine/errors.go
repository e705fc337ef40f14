package engine

import "errors"

// Engine-level errors.
var (
	// ErrNilStore is returned by NewService when a required store is missing.
	ErrNilStore = errors.New("engine requires a non-nil store")

	// ErrNilTxRunner is returned by NewService when no transaction runner
	// is supplied.
	ErrNilTxRunner = errors.New("engine requires a non-nil transaction runner")

	// ErrWordEmpty is returned when an operation needs a word and got none.
	ErrWordEmpty = errors.New("word cannot be empty")

	// ErrLanguageEmpty is returned when an operation needs a language and
	// got none.
	ErrLanguageEmpty = errors.New("language cannot be empty")

	// ErrVocabRefMissing is returned when an encounter names neither an
	// existing entry nor a new word.
	ErrVocabRefMissing = errors.New("encounter must reference a vocabulary entry or carry a new word")

	// ErrEntryDeleted is returned when a mutating operation targets a
	// soft-deleted entry.
	ErrEntryDeleted = errors.New("vocabulary entry is deleted")

	// ErrNotNoiseLocked is returned when unlock targets an entry that is not
	// noise-locked.
	ErrNotNoiseLocked = errors.New("vocabulary entry is not noise-locked")

	// ErrUnknownCommand is returned by Dispatch for a Command type outside
	// the closed union. The union is sealed, so hitting this means a new
	// command was added without a Dispatch arm.
	ErrUnknownCommand = errors.New("unknown engine command")
)
