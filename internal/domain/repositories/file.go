package repositories

import (
	"context"

	"filehaven/internal/domain/models"
)

// FileRepository provides metadata-store access to file records.
type FileRepository interface {
	// Create inserts a new file record, filling ID and timestamps.
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves a file regardless of owner or trash state.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// FindByName looks up a non-deleted file by owner, name, and folder
	// (nil = root). Returns (nil, nil) when absent.
	FindByName(ctx context.Context, ownerID, name string, folderID *string) (*models.File, error)

	// ListByFolder returns one page of files for an owner in a folder
	// (nil = root), scoped by trash state, updated_at descending.
	ListByFolder(ctx context.Context, ownerID string, folderID *string, scope TrashScope, page Page) ([]models.File, error)

	// ListFolderFiles returns all files directly inside a folder
	// (nil = root), unpaginated, for cascade and trash walks.
	ListFolderFiles(ctx context.Context, ownerID string, folderID *string, scope TrashScope) ([]models.File, error)

	// ListByIDs returns the non-deleted files among the given IDs.
	ListByIDs(ctx context.Context, ids []string) ([]models.File, error)

	// SetDeleted flips the soft-delete flag on one file and bumps updated_at.
	SetDeleted(ctx context.Context, id string, deleted bool) error

	// SetDeletedByFolder flips the flag on every file directly inside a
	// folder in one statement. Idempotent.
	SetDeletedByFolder(ctx context.Context, folderID string, deleted bool) error

	// SetStarred updates the star flag.
	SetStarred(ctx context.Context, id string, starred bool) error

	// SetFolder moves the file to another folder (nil = root).
	SetFolder(ctx context.Context, id string, folderID *string) error

	// SetCurrentVersion points the file record at a version's blob.
	SetCurrentVersion(ctx context.Context, id, storageKey, checksum string, sizeBytes int64) error

	// Delete removes the file row permanently.
	Delete(ctx context.Context, id string) error

	// SumActiveSize totals size_bytes over the owner's non-deleted files.
	SumActiveSize(ctx context.Context, ownerID string) (int64, error)
}

// VersionRepository provides access to immutable file version records.
type VersionRepository interface {
	// Create inserts a version row, assigning the next version number
	// for the file (starting at 1).
	Create(ctx context.Context, version *models.FileVersion) error

	// GetByID retrieves a single version.
	GetByID(ctx context.Context, id string) (*models.FileVersion, error)

	// ListByFile returns all versions of a file, newest first.
	ListByFile(ctx context.Context, fileID string) ([]models.FileVersion, error)

	// DeleteByFile removes all version rows for a file.
	DeleteByFile(ctx context.Context, fileID string) error
}
