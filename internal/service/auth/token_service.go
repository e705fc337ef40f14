package auth

import (
	"context"
	"time"
)

// TokenService defines operations for managing the API's bearer tokens. The
// deployment is single-tenant: a token carries no user identity, only proof
// that the holder presented the API key at issue time.
type TokenService interface {
	// IssueToken creates a signed access token.
	// Returns the token string and its expiry, or an error if signing fails.
	IssueToken(ctx context.Context) (string, time.Time, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
