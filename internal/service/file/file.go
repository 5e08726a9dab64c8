// Package file implements file content management: uploads, versions,
// downloads, and per-file flags. Folder placement is delegated to the
// path resolver.
package file

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"filehaven/internal/config"
	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
	"filehaven/internal/quota"
	"filehaven/internal/storage"
)

const defaultMimeType = "application/octet-stream"

var fileNamePattern = regexp.MustCompile(`^[^/]+$`)

type fileService struct {
	fileRepo    repositories.FileRepository
	folderRepo  repositories.FolderRepository
	versionRepo repositories.VersionRepository
	resolver    services.PathResolver
	shares      services.ShareService
	blobs       storage.BlobStore
	plans       *quota.Registry
	logger      *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	versionRepo repositories.VersionRepository,
	resolver services.PathResolver,
	shares services.ShareService,
	blobs storage.BlobStore,
	plans *quota.Registry,
	logger *slog.Logger,
) services.FileService {
	return &fileService{
		fileRepo:    fileRepo,
		folderRepo:  folderRepo,
		versionRepo: versionRepo,
		resolver:    resolver,
		shares:      shares,
		blobs:       blobs,
		plans:       plans,
		logger:      logger,
	}
}

// Upload stores the content and records it in the tree. Uploading a name
// that already exists in the target folder stacks a new version on the
// existing file instead of creating a sibling.
func (s *fileService) Upload(ctx context.Context, req *services.UploadRequest) (*models.File, error) {
	if err := s.validateUploadRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	plan := s.plans.PlanOrDefault(req.PlanID)
	if plan.MaxFileBytes > 0 && req.SizeBytes > plan.MaxFileBytes {
		return nil, fmt.Errorf("%w: file exceeds the %d byte limit of plan %s", domain.ErrValidation, plan.MaxFileBytes, plan.ID)
	}

	used, err := s.fileRepo.SumActiveSize(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if plan.StorageBytes > 0 && used+req.SizeBytes > plan.StorageBytes {
		return nil, fmt.Errorf("%w: storage quota exceeded", domain.ErrConflict)
	}

	folderID, err := s.resolver.ResolveFolderPath(ctx, req.OwnerID, req.FolderPath, nil)
	if err != nil {
		return nil, err
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	// The checksum is computed while the bytes stream to the blob store,
	// so large uploads are never buffered in memory.
	storageKey := fmt.Sprintf("uploads/%s/%s_%s", req.OwnerID, uuid.NewString(), req.Name)
	hasher := md5.New()
	body := io.TeeReader(req.Content, hasher)

	if err := s.blobs.Put(ctx, storageKey, body, req.SizeBytes, mimeType); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))

	existing, err := s.fileRepo.FindByName(ctx, req.OwnerID, req.Name, folderID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return s.addVersion(ctx, existing, plan, storageKey, checksum, req.SizeBytes)
	}

	now := time.Now()
	file := &models.File{
		OwnerID:    req.OwnerID,
		FolderID:   folderID,
		Name:       req.Name,
		MimeType:   mimeType,
		SizeBytes:  req.SizeBytes,
		StorageKey: storageKey,
		Checksum:   checksum,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, err
	}

	version := &models.FileVersion{
		FileID:     file.ID,
		StorageKey: storageKey,
		SizeBytes:  req.SizeBytes,
		Checksum:   checksum,
		CreatedAt:  now,
	}
	if err := s.versionRepo.Create(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", file.Name,
		"owner_id", req.OwnerID,
		"folder_id", folderID,
		"size_bytes", req.SizeBytes,
	)

	return file, nil
}

// addVersion stacks new content on an existing file
func (s *fileService) addVersion(ctx context.Context, file *models.File, plan *quota.Plan, storageKey, checksum string, sizeBytes int64) (*models.File, error) {
	if plan.MaxVersions > 0 {
		versions, err := s.versionRepo.ListByFile(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		if len(versions) >= plan.MaxVersions {
			return nil, fmt.Errorf("%w: version limit of plan %s reached", domain.ErrConflict, plan.ID)
		}
	}

	version := &models.FileVersion{
		FileID:     file.ID,
		StorageKey: storageKey,
		SizeBytes:  sizeBytes,
		Checksum:   checksum,
		CreatedAt:  time.Now(),
	}
	if err := s.versionRepo.Create(ctx, version); err != nil {
		return nil, err
	}

	if err := s.fileRepo.SetCurrentVersion(ctx, file.ID, storageKey, checksum, sizeBytes); err != nil {
		return nil, err
	}

	file.StorageKey = storageKey
	file.Checksum = checksum
	file.SizeBytes = sizeBytes
	file.UpdatedAt = time.Now()

	s.logger.Info("file version added",
		"id", file.ID,
		"version_number", version.VersionNumber,
		"size_bytes", sizeBytes,
	)

	return file, nil
}

// GetFile retrieves a file owned by the caller
func (s *fileService) GetFile(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	return s.ownedFile(ctx, ownerID, fileID)
}

// MoveFile moves a file to another folder, or to the root when FolderID
// is nil.
func (s *fileService) MoveFile(ctx context.Context, req *services.MoveFileRequest) (*models.File, error) {
	file, err := s.ownedFile(ctx, req.OwnerID, req.FileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted {
		return nil, fmt.Errorf("%w: file is in the trash", domain.ErrConflict)
	}

	folderID := req.FolderID
	if folderID != nil {
		target, err := s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, fmt.Errorf("target folder: %w", err)
		}
		if target.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("target folder: %w", domain.ErrForbidden)
		}
		if target.IsDeleted {
			return nil, fmt.Errorf("%w: target folder is in the trash", domain.ErrConflict)
		}
	}

	if err := s.fileRepo.SetFolder(ctx, file.ID, folderID); err != nil {
		return nil, err
	}

	file.FolderID = folderID
	file.UpdatedAt = time.Now()

	s.logger.Info("file moved", "id", file.ID, "folder_id", folderID, "owner_id", req.OwnerID)

	return file, nil
}

// SetStarred flags or unflags a file as starred
func (s *fileService) SetStarred(ctx context.Context, ownerID, fileID string, starred bool) error {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	return s.fileRepo.SetStarred(ctx, file.ID, starred)
}

// ListVersions returns a file's version history, newest first
func (s *fileService) ListVersions(ctx context.Context, ownerID, fileID string) ([]models.FileVersion, error) {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	return s.versionRepo.ListByFile(ctx, file.ID)
}

// RestoreVersion makes an older version the file's current content. The
// old content is recorded as a new version on top of the history, so the
// restore itself is undoable.
func (s *fileService) RestoreVersion(ctx context.Context, ownerID, fileID, versionID string) (*models.File, error) {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.FileID != file.ID {
		return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}

	restored := &models.FileVersion{
		FileID:     file.ID,
		StorageKey: version.StorageKey,
		SizeBytes:  version.SizeBytes,
		Checksum:   version.Checksum,
		CreatedAt:  time.Now(),
	}
	if err := s.versionRepo.Create(ctx, restored); err != nil {
		return nil, err
	}

	if err := s.fileRepo.SetCurrentVersion(ctx, file.ID, version.StorageKey, version.Checksum, version.SizeBytes); err != nil {
		return nil, err
	}

	file.StorageKey = version.StorageKey
	file.Checksum = version.Checksum
	file.SizeBytes = version.SizeBytes
	file.UpdatedAt = time.Now()

	s.logger.Info("file version restored",
		"id", file.ID,
		"version_id", versionID,
		"version_number", version.VersionNumber,
	)

	return file, nil
}

// DownloadURL returns a signed, time-limited URL for the file's current
// content. Owners and users holding a permission may download.
func (s *fileService) DownloadURL(ctx context.Context, userID, fileID string) (string, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if file.IsDeleted {
		return "", fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}

	ok, err := s.shares.CanAccess(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("file %s: %w", fileID, domain.ErrForbidden)
	}

	url, err := s.blobs.SignedURL(ctx, file.StorageKey, file.Name, config.SignedURLTTLSeconds*time.Second)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	return url, nil
}

// LinkDownloadURL resolves a share-link token and signs a download URL for
// the target file. The token itself is the credential.
func (s *fileService) LinkDownloadURL(ctx context.Context, token string) (*models.File, string, error) {
	file, _, err := s.shares.ResolveShareLink(ctx, token)
	if err != nil {
		return nil, "", err
	}

	url, err := s.blobs.SignedURL(ctx, file.StorageKey, file.Name, config.SignedURLTTLSeconds*time.Second)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	return file, url, nil
}

// Usage reports an owner's storage consumption against their plan
func (s *fileService) Usage(ctx context.Context, ownerID, planID string) (*services.StorageUsage, error) {
	used, err := s.fileRepo.SumActiveSize(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	plan := s.plans.PlanOrDefault(planID)

	return &services.StorageUsage{
		UsedBytes:  used,
		QuotaBytes: plan.StorageBytes,
		PlanID:     plan.ID,
	}, nil
}

// ownedFile loads a file and verifies ownership
func (s *fileService) ownedFile(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrForbidden)
	}
	return file, nil
}

func (s *fileService) validateUploadRequest(req *services.UploadRequest) error {
	if req.Content == nil {
		return fmt.Errorf("content is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFileNameLength),
			validation.Match(fileNamePattern).Error("file name cannot contain slashes"),
		),
		validation.Field(&req.SizeBytes, validation.Required, validation.Min(int64(1))),
	)
}
