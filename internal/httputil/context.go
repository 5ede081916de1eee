package httputil

import (
	"context"
	"net/http"
)

type userIDKey struct{}

// WithUserID returns a request whose context carries the authenticated
// subject.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID))
}

// GetUserID retrieves the authenticated subject, or "" for anonymous
// requests.
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey{}).(string)
	return userID
}
