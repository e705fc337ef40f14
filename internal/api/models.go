package api

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Common request/response structures

// TokenRequest defines the payload for the token issuance endpoint.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// TokenResponse defines the successful response for the token issuance
// endpoint.
type TokenResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// PageContextPayload carries where on the web a word was seen.
type PageContextPayload struct {
	URL      string `json:"url"`
	Host     string `json:"host"`
	Title    string `json:"title"`
	Sentence string `json:"sentence"`
}

// RecordEncounterRequest defines the payload for recording one encounter.
// Either vocab_id or word+language identifies the entry; word without a
// matching entry creates one.
type RecordEncounterRequest struct {
	VocabID  *uuid.UUID         `json:"vocab_id,omitempty"`
	Word     string             `json:"word"`
	Language string             `json:"language"`
	Surface  string             `json:"surface"`
	Source   string             `json:"source" validate:"required"`
	Page     PageContextPayload `json:"page"`
}

// ScanRequest defines the payload for the page-scan endpoint.
type ScanRequest struct {
	Tokens   []string           `json:"tokens"   validate:"required,min=1"`
	Language string             `json:"language" validate:"required"`
	Page     PageContextPayload `json:"page"`

	// Optional per-request overrides for the promotion gate.
	PromotionMinCount        *int `json:"promotion_min_count,omitempty"`
	PromotionMinPages        *int `json:"promotion_min_pages,omitempty"`
	EnvironmentRankThreshold *int `json:"environment_rank_threshold,omitempty"`
}

// AddVocabularyRequest defines the payload for manual vocabulary creation.
type AddVocabularyRequest struct {
	Word     string             `json:"word"     validate:"required"`
	Language string             `json:"language" validate:"required"`
	Surface  string             `json:"surface"`
	Meaning  string             `json:"meaning"`
	Page     PageContextPayload `json:"page"`
}

// RateRequest defines the payload for rating a vocabulary entry.
type RateRequest struct {
	Rating string `json:"rating" validate:"required,oneof=known familiar unknown"`
}

// TraceRequest defines the payload for toggling an entry's trace flag.
type TraceRequest struct {
	Traced bool `json:"traced"`
}

// NoiseSyncRequest defines the payload for the noise reconciliation
// endpoint.
type NoiseSyncRequest struct {
	WordbankID   string   `json:"wordbank_id"`
	Language     string   `json:"language" validate:"required"`
	ManualAdd    []string `json:"manual_add"`
	ManualRemove []string `json:"manual_remove"`
	Force        bool     `json:"force"`
	DryRun       bool     `json:"dry_run"`
}

// DrawCardsRequest defines the payload for drawing a review batch.
type DrawCardsRequest struct {
	Count      int         `json:"count" validate:"required,min=1,max=100"`
	Mode       string      `json:"mode"  validate:"omitempty,oneof=auto shuffle"`
	ExcludeIDs []uuid.UUID `json:"exclude_ids"`
	TracedOnly bool        `json:"traced_only"`
	Seed       *int64      `json:"seed,omitempty"`
}

// CleanupRequest defines the payload for the stale-evidence sweep.
type CleanupRequest struct {
	AgeDays  int  `json:"age_days"  validate:"required,min=1"`
	MinCount int  `json:"min_count" validate:"min=0"`
	DryRun   bool `json:"dry_run"`
}

// SeedRequest defines the payload for importing a loaded wordbank.
type SeedRequest struct {
	WordbankID string `json:"wordbank_id" validate:"required"`
}

// CommandRequest is the generic command envelope: a command name plus its
// raw payload, decoded per-command by the handler.
type CommandRequest struct {
	Command string          `json:"command" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// EncounterResponse defines the response for a recorded encounter.
type EncounterResponse struct {
	EncounterID uuid.UUID `json:"encounter_id"`
	VocabID     uuid.UUID `json:"vocab_id"`
	Lemma       string    `json:"lemma"`
	Source      string    `json:"source"`
	Deduped     bool      `json:"deduped"`
}
