package services

import (
	"context"

	"filehaven/internal/domain/models"
)

// GrantPermissionRequest shares a file with another user
type GrantPermissionRequest struct {
	OwnerID        string
	FileID         string
	SharedWith     string
	PermissionType models.PermissionType
}

// CreateShareLinkRequest creates a tokenized link to a file
type CreateShareLinkRequest struct {
	OwnerID        string
	FileID         string
	PermissionType models.PermissionType
	ExpiresInHours int // 0 means the link never expires
}

// SharedFile pairs a file with the permission that grants access to it
type SharedFile struct {
	File       models.File       `json:"file"`
	Permission models.Permission `json:"permission"`
}

// ShareService manages the sharing overlay: per-user permissions and
// tokenized share links. Only a file's owner can grant or revoke.
type ShareService interface {
	GrantPermission(ctx context.Context, req *GrantPermissionRequest) (*models.Permission, error)
	RevokePermission(ctx context.Context, ownerID, fileID, sharedWith string) error

	// ListSharedWithMe returns the non-deleted files shared with a user
	ListSharedWithMe(ctx context.Context, userID string) ([]SharedFile, error)

	CreateShareLink(ctx context.Context, req *CreateShareLinkRequest) (*models.ShareLink, error)
	RevokeShareLink(ctx context.Context, ownerID, fileID, token string) error

	// ResolveShareLink validates a link token and returns the target file.
	// Expired, revoked, unknown, and trashed targets all surface as not found.
	ResolveShareLink(ctx context.Context, token string) (*models.File, *models.ShareLink, error)

	// CanAccess reports whether a user may read a file, through ownership
	// or a granted permission.
	CanAccess(ctx context.Context, userID, fileID string) (bool, error)
}
