package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	tokenService auth.TokenService
	keyVerifier  auth.KeyVerifier
	apiKeyHash   string
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(tokenService auth.TokenService, keyVerifier auth.KeyVerifier, apiKeyHash string) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		keyVerifier:  keyVerifier,
		apiKeyHash:   apiKeyHash,
	}
}

// Token handles the /auth/token endpoint: it exchanges the configured API
// key for a short-lived bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	var req TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.keyVerifier.Compare(h.apiKeyHash, req.APIKey); err != nil {
		log.Warn("API key verification failed",
			slog.String("trace_id", shared.GetTraceID(r.Context())),
			slog.String("remote_addr", r.RemoteAddr))
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid API key",
			auth.ErrInvalidAPIKey, shared.WithElevatedLogLevel())
		return
	}

	token, expiresAt, err := h.tokenService.IssueToken(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to issue token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
}
