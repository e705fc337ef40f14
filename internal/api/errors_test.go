package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/review"
	"github.com/wordgrove/wordgrove-api/internal/platform/wordbank"
	"github.com/wordgrove/wordgrove-api/internal/service/auth"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid api key", auth.ErrInvalidAPIKey, http.StatusUnauthorized},
		{"vocab not found", store.ErrVocabNotFound, http.StatusNotFound},
		{"encounter not found", store.ErrEncounterNotFound, http.StatusNotFound},
		{"wordbank not found", wordbank.ErrWordbankNotFound, http.StatusNotFound},
		{"vocab exists", store.ErrVocabExists, http.StatusConflict},
		{"not noise locked", engine.ErrNotNoiseLocked, http.StatusConflict},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"invalid rating", domain.ErrInvalidRating, http.StatusBadRequest},
		{"invalid source tag", domain.ErrInvalidSourceTag, http.StatusBadRequest},
		{"invalid review mode", review.ErrInvalidMode, http.StatusBadRequest},
		{"unknown command", engine.ErrUnknownCommand, http.StatusBadRequest},
		{"entry deleted", engine.ErrEntryDeleted, http.StatusGone},
		{"wrapped not found", fmt.Errorf("loading entry: %w", store.ErrVocabNotFound), http.StatusNotFound},
		{"unknown error", errors.New("pg connection refused"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessageNeverLeaksInternals(t *testing.T) {
	internal := fmt.Errorf("dial tcp 10.0.0.5:5432: connect: connection refused")
	msg := GetSafeErrorMessage(internal)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "10.0.0.5")
}

func TestGetSafeErrorMessageKnownErrors(t *testing.T) {
	assert.Equal(t, "Vocabulary entry not found", GetSafeErrorMessage(store.ErrVocabNotFound))
	assert.Equal(t, "Vocabulary entry already exists", GetSafeErrorMessage(store.ErrVocabExists))
	assert.Equal(t, "Invalid rating", GetSafeErrorMessage(domain.ErrInvalidRating))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	raw := errors.New(
		"Key: 'RateRequest.Rating' Error:Field validation for 'Rating' failed on the 'required' tag")
	assert.Equal(t, "Invalid Rating: required field", SanitizeValidationError(raw))

	plain := errors.New("unexpected EOF")
	assert.Equal(t, "Validation error", SanitizeValidationError(plain))
}
