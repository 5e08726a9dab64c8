package services

import (
	"context"
	"io"

	"filehaven/internal/domain/models"
)

// UploadRequest uploads file content into a folder. FolderPath is resolved
// with find-or-create semantics; empty means the root level. Uploading a
// name that already exists in the folder creates a new version.
type UploadRequest struct {
	OwnerID    string
	FolderPath string
	Name       string
	MimeType   string
	SizeBytes  int64
	PlanID     string
	Content    io.Reader
}

// MoveFileRequest moves a file to another folder. A nil FolderID moves it
// to the root level.
type MoveFileRequest struct {
	OwnerID  string
	FileID   string
	FolderID *string
}

// StorageUsage reports an owner's consumption against their plan
type StorageUsage struct {
	UsedBytes  int64  `json:"used_bytes"`
	QuotaBytes int64  `json:"quota_bytes"`
	PlanID     string `json:"plan_id"`
}

// FileService manages file content: uploads, versions, downloads, and
// per-file flags. Tree placement is delegated to the path resolver.
type FileService interface {
	Upload(ctx context.Context, req *UploadRequest) (*models.File, error)

	GetFile(ctx context.Context, ownerID, fileID string) (*models.File, error)
	MoveFile(ctx context.Context, req *MoveFileRequest) (*models.File, error)
	SetStarred(ctx context.Context, ownerID, fileID string, starred bool) error

	ListVersions(ctx context.Context, ownerID, fileID string) ([]models.FileVersion, error)

	// RestoreVersion makes an older version the file's current content by
	// recording it as a new version on top of the history.
	RestoreVersion(ctx context.Context, ownerID, fileID, versionID string) (*models.File, error)

	// DownloadURL returns a signed, time-limited URL for the file's current
	// content. The caller must own the file or hold a permission on it.
	DownloadURL(ctx context.Context, userID, fileID string) (string, error)

	// LinkDownloadURL resolves a share-link token and returns the target
	// file together with a signed download URL. No authentication needed:
	// the token is the credential.
	LinkDownloadURL(ctx context.Context, token string) (*models.File, string, error)

	Usage(ctx context.Context, ownerID, planID string) (*StorageUsage, error)
}
