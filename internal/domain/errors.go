package domain

import (
	"errors"
)

// Sentinel errors for the tree manager's taxonomy - use with errors.Is()
var (
	// ErrNotFound indicates a folder, file, or share link is absent or
	// filtered out by owner/trash scope.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the requester is not the owner and holds no
	// delegated permission.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a uniqueness violation (duplicate sibling name).
	// Recoverable during path resolution by re-querying.
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates malformed input (non-UUID identifiers,
	// invalid names, bad pagination).
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or invalid authentication token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreFailure wraps unclassified metadata or blob store errors.
	ErrStoreFailure = errors.New("store failure")
)

// ConflictError represents a uniqueness conflict with details about the
// existing resource, so callers can recover by reusing it.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (folder, file)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
