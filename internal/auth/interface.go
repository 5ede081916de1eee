package auth

import "guidepost/internal/domain/models"

// JWTVerifier validates bearer tokens for the authoring endpoints. The
// abstraction keeps the middleware agnostic to where public keys come from.
type JWTVerifier interface {
	// VerifyToken validates a JWT string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid
	// signature.
	VerifyToken(tokenString string) (*models.EditorClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP
	// connections for JWKS refresh).
	Close() error
}
