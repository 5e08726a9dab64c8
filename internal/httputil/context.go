package httputil

import (
	"context"
	"net/http"
)

// contextKey keeps request-scoped values from colliding with other packages
type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a request whose context carries the authenticated
// user's ID. Set once by the auth middleware.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user ID, or "" on unauthenticated
// requests.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
