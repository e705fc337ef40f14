package auth

import "golang.org/x/crypto/bcrypt"

// KeyVerifier defines the interface for checking a presented API key against
// the configured hash.
type KeyVerifier interface {
	// Compare compares a hashed key with its possible plaintext equivalent.
	// Returns nil on success, or an error on failure (e.g., mismatch).
	Compare(hashedKey, key string) error
}

// BcryptVerifier implements KeyVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the KeyVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}
