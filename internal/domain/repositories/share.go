package repositories

import (
	"context"

	"filehaven/internal/domain/models"
)

// ShareRepository provides access to permission and share-link records.
type ShareRepository interface {
	// UpsertPermission inserts or updates the permission keyed by
	// (file_id, shared_with). Last write wins on permission_type.
	UpsertPermission(ctx context.Context, perm *models.Permission) error

	// GetPermission returns the permission for (fileID, userID),
	// or (nil, nil) when absent.
	GetPermission(ctx context.Context, fileID, userID string) (*models.Permission, error)

	// ListPermissionsFor returns every permission granted to a user.
	ListPermissionsFor(ctx context.Context, userID string) ([]models.Permission, error)

	// DeletePermission removes the grant for (fileID, userID).
	DeletePermission(ctx context.Context, fileID, userID string) error

	// DeletePermissionsByFile removes all grants on a file.
	DeletePermissionsByFile(ctx context.Context, fileID string) error

	// CreateShareLink inserts an active share link.
	CreateShareLink(ctx context.Context, link *models.ShareLink) error

	// GetShareLinkByToken looks a link up by its opaque token.
	// Returns ErrNotFound for unknown tokens.
	GetShareLinkByToken(ctx context.Context, token string) (*models.ShareLink, error)

	// DeactivateShareLink marks the link inactive.
	DeactivateShareLink(ctx context.Context, fileID, token string) error

	// DeleteShareLinksByFile removes all links on a file.
	DeleteShareLinksByFile(ctx context.Context, fileID string) error
}
