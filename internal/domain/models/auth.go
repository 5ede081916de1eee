package models

import "github.com/golang-jwt/jwt/v5"

// EditorClaims are the claims carried by an authoring token. The identity
// provider is whatever serves the configured JWKS endpoint; only the subject
// is required.
type EditorClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GetUserID returns the stable identity of the token holder, taken from the
// subject claim.
func (c *EditorClaims) GetUserID() string {
	return c.Subject
}
