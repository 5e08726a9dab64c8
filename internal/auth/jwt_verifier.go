package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgs guards against algorithm confusion attacks. Supabase signs
// access tokens with RS256 (legacy) or ES256 (current).
var allowedAlgs = []string{"RS256", "ES256"}

type supabaseVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier builds a verifier backed by Supabase's JWKS endpoint.
// keyfunc caches the key set and refreshes it per HTTP cache headers, so
// key rotation needs no restart.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &supabaseVerifier{jwks: jwks, logger: logger}, nil
}

// VerifyToken parses and validates a bearer token. Every failure mode maps
// to domain.ErrUnauthorized; the distinction only matters in debug logs.
func (v *supabaseVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if !algAllowed(token.Method.Alg()) {
		v.logger.Warn("token uses unexpected algorithm",
			"algorithm", token.Method.Alg(), "allowed", allowedAlgs)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}
	if err := checkClaims(claims); err != nil {
		v.logger.Debug("token claims rejected", "reason", err.Error(), "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close satisfies JWTVerifier. keyfunc v3 manages its own refresh
// lifecycle, so there is nothing to tear down.
func (v *supabaseVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}

func algAllowed(alg string) bool {
	for _, a := range allowedAlgs {
		if alg == a {
			return true
		}
	}
	return false
}

// checkClaims enforces the claim shape beyond signature validity: a subject
// must be present and anonymous sessions are rejected.
func checkClaims(claims *models.AccessClaims) error {
	if claims.Subject == "" {
		return errors.New("missing subject claim")
	}
	if claims.Role != "authenticated" {
		return fmt.Errorf("role %q is not authenticated", claims.Role)
	}
	return nil
}
