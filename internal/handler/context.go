package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"filehaven/internal/httputil"
)

// requireUserID pulls the authenticated user from the request context and
// writes a 401 when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "user not authenticated")
		return "", false
	}
	return userID, true
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// isRootSentinel reports whether the value is one of the client spellings
// for the root level.
func isRootSentinel(s string) bool {
	return s == "" || s == "null" || s == "root"
}

// requireID pulls a path parameter and rejects anything that is not a
// UUID, so malformed identifiers never reach the store's UUID columns.
func requireID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	if _, err := uuid.Parse(raw); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, name+" must be a valid UUID")
		return "", false
	}
	return raw, true
}

// nullableID validates a folder reference that may mean "the root level":
// root sentinels map to nil, anything else must be a UUID.
func nullableID(w http.ResponseWriter, raw string) (*string, bool) {
	if isRootSentinel(raw) {
		return nil, true
	}
	if _, err := uuid.Parse(raw); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "folder id must be a valid UUID")
		return nil, false
	}
	return &raw, true
}
