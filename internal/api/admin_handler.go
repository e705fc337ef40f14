package api

import (
	"net/http"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// AdminHandler handles maintenance operations: the stale-evidence sweep and
// wordbank seeding. Both are driven by an external scheduler or operator;
// the server runs no timers of its own.
type AdminHandler struct {
	engine EngineService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(engine EngineService) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// Cleanup handles POST /admin/cleanup.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.CleanupStale(r.Context(), engine.CleanupInput{
		AgeDays:  req.AgeDays,
		MinCount: req.MinCount,
		DryRun:   req.DryRun,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to run cleanup")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Seed handles POST /admin/seed.
func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.SeedWordbank(r.Context(), req.WordbankID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to seed wordbank")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
