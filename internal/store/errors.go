package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity (e.g. a second live entry for a lemma+language pair).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specifics.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConflict is returned when an optimistic concurrent update loses the
	// race (e.g. a compare-and-set on the promotion link matched no row).
	// Callers retry the per-key serialized update; the conflict is not
	// surfaced to API clients.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrTransactionFailed is returned when a transaction fails to commit or
	// an operation inside it fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrEncounterNotFound indicates the requested encounter does not exist.
	ErrEncounterNotFound = fmt.Errorf("%w: encounter", ErrNotFound)

	// ErrLemmaStatNotFound indicates no frequency counter exists for the lemma.
	ErrLemmaStatNotFound = fmt.Errorf("%w: lemma stat", ErrNotFound)

	// ErrVocabNotFound indicates the requested vocabulary entry does not exist.
	ErrVocabNotFound = fmt.Errorf("%w: vocabulary entry", ErrNotFound)

	// ErrSettingNotFound indicates the settings key has no stored value.
	ErrSettingNotFound = fmt.Errorf("%w: setting", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrVocabExists indicates a non-deleted entry already exists for the
	// lemma+language pair.
	ErrVocabExists = fmt.Errorf("%w: vocabulary entry", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError carries entity and operation context for store failures.
type StoreError struct {
	Entity    string // e.g. "encounter", "vocabulary entry"
	Operation string // e.g. "create", "update"
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v",
			e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
