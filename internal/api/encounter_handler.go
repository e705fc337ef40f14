package api

import (
	"net/http"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// EncounterHandler handles encounter recording and deletion.
type EncounterHandler struct {
	engine EngineService
}

// NewEncounterHandler creates a new EncounterHandler.
func NewEncounterHandler(engine EngineService) *EncounterHandler {
	return &EncounterHandler{engine: engine}
}

// Record handles POST /encounters.
func (h *EncounterHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordEncounterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.RecordEncounter(r.Context(), engine.RecordEncounterInput{
		VocabID:  req.VocabID,
		Word:     req.Word,
		Language: req.Language,
		Surface:  req.Surface,
		Source:   domain.SourceTag(req.Source),
		Page:     pageFromPayload(req.Page),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record encounter")
		return
	}

	status := http.StatusCreated
	if result.Deduped {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, EncounterResponse{
		EncounterID: result.Encounter.ID,
		VocabID:     result.Encounter.VocabID,
		Lemma:       result.Encounter.Lemma,
		Source:      string(result.Encounter.Source),
		Deduped:     result.Deduped,
	})
}

// Delete handles DELETE /encounters/{id}. The owning entry is rescored and
// hard-deleted when the encounter was its last evidence.
func (h *EncounterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.engine.DeleteEncounter(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete encounter")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
