package api

import (
	"net/http"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/domain/review"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// ReviewHandler handles review card draws.
type ReviewHandler struct {
	engine EngineService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(engine EngineService) *ReviewHandler {
	return &ReviewHandler{engine: engine}
}

// Draw handles POST /review/cards.
func (h *ReviewHandler) Draw(w http.ResponseWriter, r *http.Request) {
	var req DrawCardsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	mode := review.Mode(req.Mode)
	if req.Mode == "" {
		mode = review.ModeShuffle
	}

	cards, err := h.engine.DrawReviewCards(r.Context(), engine.DrawInput{
		Count:      req.Count,
		Mode:       mode,
		ExcludeIDs: req.ExcludeIDs,
		TracedOnly: req.TracedOnly,
		Seed:       req.Seed,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to draw review cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}
