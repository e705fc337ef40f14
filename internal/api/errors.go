package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/review"
	"github.com/wordgrove/wordgrove-api/internal/platform/wordbank"
	"github.com/wordgrove/wordgrove-api/internal/service/auth"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidAPIKey):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrVocabNotFound),
		errors.Is(err, store.ErrEncounterNotFound),
		errors.Is(err, store.ErrLemmaStatNotFound),
		errors.Is(err, store.ErrSettingNotFound),
		errors.Is(err, wordbank.ErrWordbankNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrVocabExists),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, engine.ErrNotNoiseLocked):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidSourceTag),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review.ErrInvalidMode),
		errors.Is(err, engine.ErrUnknownCommand):
		return http.StatusBadRequest

	// Gone: the entry existed but has been soft-deleted
	case errors.Is(err, engine.ErrEntryDeleted):
		return http.StatusGone

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidAPIKey):
		return "Invalid API key"

	// Not found errors
	case errors.Is(err, store.ErrVocabNotFound):
		return "Vocabulary entry not found"

	case errors.Is(err, store.ErrEncounterNotFound):
		return "Encounter not found"

	case errors.Is(err, store.ErrLemmaStatNotFound):
		return "Lemma statistics not found"

	case errors.Is(err, wordbank.ErrWordbankNotFound):
		return "Wordbank not found"

	case errors.Is(err, store.ErrSettingNotFound), errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrVocabExists):
		return "Vocabulary entry already exists"

	case errors.Is(err, engine.ErrNotNoiseLocked):
		return "Vocabulary entry is not noise-locked"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, domain.ErrInvalidSourceTag):
		return "Invalid encounter source"

	case errors.Is(err, review.ErrInvalidMode):
		return "Invalid review selection mode"

	case errors.Is(err, engine.ErrUnknownCommand):
		return "Unknown command"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	// Gone
	case errors.Is(err, engine.ErrEntryDeleted):
		return "Vocabulary entry has been deleted"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err onto a status code and safe message, then writes
// the error response while logging the full (redacted) error server-side.
// When fallbackMsg is non-empty it replaces the safe message for errors that
// map to 500, giving handlers a way to name the failed operation without
// exposing internals.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		message = fallbackMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'RateRequest.Rating' Error:Field validation for 'Rating' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	case "url":
		return "invalid URL"
	default:
		return "validation failed"
	}
}
