package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wordgrove/wordgrove-api/internal/api/shared"
	"github.com/wordgrove/wordgrove-api/internal/service/auth"
)

// AuthMiddleware authenticates requests using bearer tokens.
type AuthMiddleware struct {
	tokenService auth.TokenService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given token service.
func NewAuthMiddleware(tokenService auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// Authenticate validates the bearer token on the request and rejects the
// request with 401 when the token is missing, malformed, or invalid.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := m.tokenService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			message := "Invalid or expired token"
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				message = "Token has expired, please log in again"
			case errors.Is(err, auth.ErrTokenNotYetValid):
				message = "Token is not yet valid"
			}

			slog.DebugContext(r.Context(), "token validation failed",
				slog.String("trace_id", shared.GetTraceID(r.Context())),
				slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusUnauthorized, message)
			return
		}

		slog.DebugContext(r.Context(), "request authenticated",
			slog.String("trace_id", shared.GetTraceID(r.Context())),
			slog.String("token_id", claims.ID))
		next.ServeHTTP(w, r)
	})
}
