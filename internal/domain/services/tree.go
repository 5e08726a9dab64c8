// Package services defines the service-layer interfaces and their
// request/response types. Implementations live under internal/service.
package services

import (
	"context"

	"filehaven/internal/domain/models"
)

// PathResolver resolves slash-separated folder paths to folder IDs,
// creating any missing segments along the way.
type PathResolver interface {
	// ResolveFolderPath resolves a folder path to a folder ID, creating
	// folders as needed. Resolution starts at startFolderID; nil or a
	// root sentinel starts at the root level, which is also what an
	// empty path resolves to.
	ResolveFolderPath(ctx context.Context, ownerID, folderPath string, startFolderID *string) (*string, error)

	// ValidateFolderPath validates a folder path without touching the store
	ValidateFolderPath(path string) error
}

// CreateFolderRequest creates a single folder under a parent
type CreateFolderRequest struct {
	OwnerID  string
	ParentID *string
	Name     string
}

// TreeMutator changes the shape and trash state of a user's tree.
// Folder operations cascade to everything beneath the folder.
type TreeMutator interface {
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)
	RenameFolder(ctx context.Context, ownerID, folderID, name string) (*models.Folder, error)

	// SoftDeleteFolder moves a folder and its entire subtree to the trash
	SoftDeleteFolder(ctx context.Context, ownerID, folderID string) error

	// RestoreFolder brings a trashed folder and its entire subtree back
	RestoreFolder(ctx context.Context, ownerID, folderID string) error

	// PurgeFolder permanently deletes a trashed folder, its subtree, and
	// every version, permission, share link, and blob beneath it.
	PurgeFolder(ctx context.Context, ownerID, folderID string) error

	SoftDeleteFile(ctx context.Context, ownerID, fileID string) error
	RestoreFile(ctx context.Context, ownerID, fileID string) error
	PurgeFile(ctx context.Context, ownerID, fileID string) error
}

// FolderContents is one page of a folder listing
type FolderContents struct {
	Folder  *models.Folder // nil at the root level
	Folders []models.Folder
	Files   []models.File
}

// TrashContents is the flattened view of everything in a user's trash
type TrashContents struct {
	Folders []models.Folder
	Files   []models.File
}

// TreeReader provides read-only views over a user's tree
type TreeReader interface {
	// ListChildren returns one page of the immediate children of a folder.
	// A nil folderID lists the root level.
	ListChildren(ctx context.Context, ownerID string, folderID *string, offset, limit int) (*FolderContents, error)

	// ListTrash returns the trashed items under a folder context (nil =
	// root), descending into every trashed subfolder and flattening the
	// result. Not paginated: the trash view shows whole subtrees at once.
	ListTrash(ctx context.Context, ownerID string, folderID *string) (*TrashContents, error)

	// GetBreadcrumbs walks parent pointers from the folder to the root and
	// returns the chain top-down, starting with the synthetic root crumb.
	GetBreadcrumbs(ctx context.Context, ownerID, folderID string) ([]models.Crumb, error)
}
