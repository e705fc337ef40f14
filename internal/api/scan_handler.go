package api

import (
	"net/http"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// ScanHandler handles page-scan requests from reader clients.
type ScanHandler struct {
	engine EngineService
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(engine EngineService) *ScanHandler {
	return &ScanHandler{engine: engine}
}

// Scan handles POST /scan: one page's tokens run through frequency
// aggregation, threshold promotion and auto-trace replenishment.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.ScanTokens(r.Context(), engine.ScanInput{
		Tokens:                   req.Tokens,
		Language:                 req.Language,
		Page:                     pageFromPayload(req.Page),
		PromotionMinCount:        req.PromotionMinCount,
		PromotionMinPages:        req.PromotionMinPages,
		EnvironmentRankThreshold: req.EnvironmentRankThreshold,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to scan page")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
