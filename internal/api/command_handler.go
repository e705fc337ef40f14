package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/domain/review"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

// CommandHandler exposes the engine's command union over a single endpoint:
// an envelope names the command and carries its payload. Batch clients use
// this instead of the per-operation routes.
type CommandHandler struct {
	engine EngineService
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(engine EngineService) *CommandHandler {
	return &CommandHandler{engine: engine}
}

// vocabTargetPayload identifies one entry for entry-scoped commands.
type vocabTargetPayload struct {
	VocabID uuid.UUID `json:"vocab_id" validate:"required"`
	Rating  string    `json:"rating"`
	Traced  bool      `json:"traced"`
}

// Execute handles POST /commands.
func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cmd, err := h.buildCommand(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.engine.Dispatch(r.Context(), cmd)
	if err != nil {
		HandleAPIError(w, r, err, "Command failed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// buildCommand decodes the envelope payload into the named engine command.
func (h *CommandHandler) buildCommand(req CommandRequest) (engine.Command, error) {
	switch req.Command {
	case "record_encounter":
		var p RecordEncounterRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.RecordEncounterCommand{RecordEncounterInput: engine.RecordEncounterInput{
			VocabID:  p.VocabID,
			Word:     p.Word,
			Language: p.Language,
			Surface:  p.Surface,
			Source:   domain.SourceTag(p.Source),
			Page:     pageFromPayload(p.Page),
		}}, nil

	case "scan_tokens":
		var p ScanRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.ScanTokensCommand{ScanInput: engine.ScanInput{
			Tokens:                   p.Tokens,
			Language:                 p.Language,
			Page:                     pageFromPayload(p.Page),
			PromotionMinCount:        p.PromotionMinCount,
			PromotionMinPages:        p.PromotionMinPages,
			EnvironmentRankThreshold: p.EnvironmentRankThreshold,
		}}, nil

	case "rate_word":
		var p vocabTargetPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.RateWordCommand{VocabID: p.VocabID, Rating: engine.Rating(p.Rating)}, nil

	case "toggle_trace":
		var p vocabTargetPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.ToggleTraceCommand{VocabID: p.VocabID, Traced: p.Traced}, nil

	case "unlock_noise_word":
		var p vocabTargetPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.UnlockNoiseWordCommand{VocabID: p.VocabID}, nil

	case "sync_noise_words":
		var p NoiseSyncRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.SyncNoiseWordsCommand{
			Config: engine.NoiseConfig{
				WordbankID:   p.WordbankID,
				Language:     p.Language,
				ManualAdd:    p.ManualAdd,
				ManualRemove: p.ManualRemove,
			},
			Force:  p.Force,
			DryRun: p.DryRun,
		}, nil

	case "draw_review_cards":
		var p DrawCardsRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		mode := review.Mode(p.Mode)
		if p.Mode == "" {
			mode = review.ModeShuffle
		}
		return engine.DrawReviewCardsCommand{DrawInput: engine.DrawInput{
			Count:      p.Count,
			Mode:       mode,
			ExcludeIDs: p.ExcludeIDs,
			TracedOnly: p.TracedOnly,
			Seed:       p.Seed,
		}}, nil

	case "cleanup_stale":
		var p CleanupRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return engine.CleanupStaleCommand{CleanupInput: engine.CleanupInput{
			AgeDays:  p.AgeDays,
			MinCount: p.MinCount,
			DryRun:   p.DryRun,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownCommand, req.Command)
	}
}

// decodePayload unmarshals and validates a command payload, mapping
// failures onto a validation error.
func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: payload is required", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := shared.ValidateRequest(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
