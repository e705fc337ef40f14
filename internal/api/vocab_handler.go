package api

import (
	"net/http"
	"strconv"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// defaultListLimit caps unbounded vocabulary listings.
const defaultListLimit = 50

// VocabHandler handles vocabulary CRUD and the per-entry operations.
type VocabHandler struct {
	engine EngineService
}

// NewVocabHandler creates a new VocabHandler.
func NewVocabHandler(engine EngineService) *VocabHandler {
	return &VocabHandler{engine: engine}
}

// Create handles POST /vocabulary.
func (h *VocabHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AddVocabularyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.engine.AddVocabulary(r.Context(), engine.AddVocabularyInput{
		Word:     req.Word,
		Language: req.Language,
		Surface:  req.Surface,
		Meaning:  req.Meaning,
		Page:     pageFromPayload(req.Page),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create vocabulary entry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, entry)
}

// Get handles GET /vocabulary/{id}.
func (h *VocabHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entry, err := h.engine.GetVocabulary(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load vocabulary entry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// List handles GET /vocabulary with optional known, traced, limit and
// offset query parameters.
func (h *VocabHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ListVocabularyFilter{Limit: defaultListLimit}

	q := r.URL.Query()
	if v := q.Get("known"); v != "" {
		known, err := strconv.ParseBool(v)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid known parameter")
			return
		}
		filter.Known = &known
	}
	if v := q.Get("traced"); v != "" {
		traced, err := strconv.ParseBool(v)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid traced parameter")
			return
		}
		filter.Traced = &traced
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		filter.Offset = offset
	}

	entries, err := h.engine.ListVocabulary(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list vocabulary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// Delete handles DELETE /vocabulary/{id}. Soft delete; idempotent.
func (h *VocabHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.engine.DeleteVocabulary(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete vocabulary entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rate handles POST /vocabulary/{id}/rate.
func (h *VocabHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req RateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.RateWord(r.Context(), id, engine.Rating(req.Rating))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to rate vocabulary entry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Trace handles POST /vocabulary/{id}/trace.
func (h *VocabHandler) Trace(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req TraceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.ToggleTrace(r.Context(), id, req.Traced)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to toggle trace")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Unlock handles POST /vocabulary/{id}/unlock: it releases a noise lock and
// pins the lemma onto the manual-remove list so the next reconciliation
// does not re-lock it.
func (h *VocabHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entry, err := h.engine.UnlockNoiseWord(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unlock vocabulary entry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}
