package repositories

import (
	"context"

	"filehaven/internal/domain/models"
)

// TrashScope selects rows by their soft-delete flag.
type TrashScope int

const (
	// ScopeActive matches rows with is_deleted = false.
	ScopeActive TrashScope = iota
	// ScopeTrashed matches rows with is_deleted = true.
	ScopeTrashed
	// ScopeAny matches rows regardless of the flag.
	ScopeAny
)

// Page is an offset/limit window over a descending updated_at ordering.
type Page struct {
	Offset int
	Limit  int
}

// FolderRepository provides metadata-store access to folder records.
type FolderRepository interface {
	// Create inserts a new folder, filling ID and timestamps.
	// Returns ErrConflict when an active sibling with the same
	// (owner_id, name, parent_id) already exists.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder regardless of owner or trash state.
	// Callers perform their own ownership checks.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// FindChild looks up a non-deleted folder by owner, name, and parent
	// (nil parent = root). Returns (nil, nil) when absent.
	FindChild(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error)

	// ListChildren returns one page of immediate child folders for an owner,
	// scoped by trash state, ordered by updated_at descending.
	ListChildren(ctx context.Context, ownerID string, parentID *string, scope TrashScope, page Page) ([]models.Folder, error)

	// ListSubfolders returns all immediate child folders under a parent
	// (nil = root), unpaginated, for cascade and trash walks.
	ListSubfolders(ctx context.Context, ownerID string, parentID *string, scope TrashScope) ([]models.Folder, error)

	// SetDeleted flips the soft-delete flag and bumps updated_at.
	// Idempotent: re-flagging an already-flagged row is not an error.
	SetDeleted(ctx context.Context, id string, deleted bool) error

	// Rename updates the folder's name and bumps updated_at.
	// Returns ErrConflict when the new name collides with an active sibling.
	Rename(ctx context.Context, id, name string) error

	// Delete removes the folder row permanently.
	Delete(ctx context.Context, id string) error
}
