package auth

import "filehaven/internal/domain/models"

// JWTVerifier validates bearer tokens for the auth middleware. It is an
// interface so tests can swap in a stub instead of a live JWKS fetch.
type JWTVerifier interface {
	// VerifyToken parses a raw token string and returns its claims, or an
	// error if the signature, expiry, or claim shape is invalid.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases verifier resources. Call it on shutdown.
	Close() error
}
