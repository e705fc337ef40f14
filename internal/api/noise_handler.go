package api

import (
	"net/http"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// NoiseHandler handles noise-word reconciliation.
type NoiseHandler struct {
	engine EngineService
}

// NewNoiseHandler creates a new NoiseHandler.
func NewNoiseHandler(engine EngineService) *NoiseHandler {
	return &NoiseHandler{engine: engine}
}

// Sync handles POST /noise/sync. Unchanged configs short-circuit to a
// skipped result unless force is set.
func (h *NoiseHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req NoiseSyncRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.SyncNoiseWords(r.Context(), engine.NoiseConfig{
		WordbankID:   req.WordbankID,
		Language:     req.Language,
		ManualAdd:    req.ManualAdd,
		ManualRemove: req.ManualRemove,
	}, req.Force, req.DryRun)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sync noise words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
