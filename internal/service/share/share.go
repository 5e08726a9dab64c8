// Package share implements the sharing overlay: per-user permissions and
// tokenized share links that grant cross-owner read access to files.
package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
)

// tokenBytes sizes the share-link token. 32 random bytes gives 256 bits of
// entropy, well past the point where guessing is feasible.
const tokenBytes = 32

type shareService struct {
	fileRepo  repositories.FileRepository
	shareRepo repositories.ShareRepository
	logger    *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(
	fileRepo repositories.FileRepository,
	shareRepo repositories.ShareRepository,
	logger *slog.Logger,
) services.ShareService {
	return &shareService{
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		logger:    logger,
	}
}

// GrantPermission shares a file with another user. Granting again for the
// same user overwrites the permission type: last write wins.
func (s *shareService) GrantPermission(ctx context.Context, req *services.GrantPermissionRequest) (*models.Permission, error) {
	if err := s.validateGrantRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.SharedWith == req.OwnerID {
		return nil, fmt.Errorf("%w: cannot share a file with yourself", domain.ErrValidation)
	}

	if _, err := s.ownedLiveFile(ctx, req.OwnerID, req.FileID); err != nil {
		return nil, err
	}

	perm := &models.Permission{
		FileID:         req.FileID,
		SharedWith:     req.SharedWith,
		PermissionType: req.PermissionType,
		CreatedAt:      time.Now(),
	}

	if err := s.shareRepo.UpsertPermission(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted",
		"file_id", req.FileID,
		"shared_with", req.SharedWith,
		"permission_type", req.PermissionType,
	)

	return perm, nil
}

// RevokePermission removes a user's access to a file
func (s *shareService) RevokePermission(ctx context.Context, ownerID, fileID, sharedWith string) error {
	if _, err := s.ownedLiveFile(ctx, ownerID, fileID); err != nil {
		return err
	}

	if err := s.shareRepo.DeletePermission(ctx, fileID, sharedWith); err != nil {
		return err
	}

	s.logger.Info("permission revoked", "file_id", fileID, "shared_with", sharedWith)

	return nil
}

// ListSharedWithMe returns the live files shared with a user, paired with
// the permissions that grant access.
func (s *shareService) ListSharedWithMe(ctx context.Context, userID string) ([]services.SharedFile, error) {
	perms, err := s.shareRepo.ListPermissionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, nil
	}

	ids := make([]string, len(perms))
	permsByFile := make(map[string]models.Permission, len(perms))
	for i := range perms {
		ids[i] = perms[i].FileID
		permsByFile[perms[i].FileID] = perms[i]
	}

	// Trashed and purged files drop out here: the permission row may
	// outlive a soft delete, but the share must not.
	files, err := s.fileRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	shared := make([]services.SharedFile, 0, len(files))
	for i := range files {
		shared = append(shared, services.SharedFile{
			File:       files[i],
			Permission: permsByFile[files[i].ID],
		})
	}

	return shared, nil
}

// CreateShareLink creates an active tokenized link to a file
func (s *shareService) CreateShareLink(ctx context.Context, req *services.CreateShareLinkRequest) (*models.ShareLink, error) {
	if err := s.validateLinkRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.ownedLiveFile(ctx, req.OwnerID, req.FileID); err != nil {
		return nil, err
	}

	token, err := newLinkToken()
	if err != nil {
		return nil, err
	}

	link := &models.ShareLink{
		FileID:         req.FileID,
		LinkToken:      token,
		CreatedBy:      req.OwnerID,
		PermissionType: req.PermissionType,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	if req.ExpiresInHours > 0 {
		expires := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expires
	}

	if err := s.shareRepo.CreateShareLink(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("share link created",
		"file_id", req.FileID,
		"created_by", req.OwnerID,
		"expires_at", link.ExpiresAt,
	)

	return link, nil
}

// RevokeShareLink deactivates a link. The row is kept so the token can
// never be reissued to a different file.
func (s *shareService) RevokeShareLink(ctx context.Context, ownerID, fileID, token string) error {
	if _, err := s.ownedLiveFile(ctx, ownerID, fileID); err != nil {
		return err
	}

	if err := s.shareRepo.DeactivateShareLink(ctx, fileID, token); err != nil {
		return err
	}

	s.logger.Info("share link revoked", "file_id", fileID)

	return nil
}

// ResolveShareLink validates a token and returns the target file. Unknown,
// inactive, and expired tokens all look identical to the caller: not found.
func (s *shareService) ResolveShareLink(ctx context.Context, token string) (*models.File, *models.ShareLink, error) {
	if token == "" {
		return nil, nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}

	link, err := s.shareRepo.GetShareLinkByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !link.IsActive {
		return nil, nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return nil, nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}

	file, err := s.fileRepo.GetByID(ctx, link.FileID)
	if err != nil {
		return nil, nil, err
	}
	if file.IsDeleted {
		return nil, nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}

	return file, link, nil
}

// CanAccess reports whether a user may read a file: owners always can,
// anyone else needs a permission row.
func (s *shareService) CanAccess(ctx context.Context, userID, fileID string) (bool, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return false, err
	}
	if file.OwnerID == userID {
		return true, nil
	}

	perm, err := s.shareRepo.GetPermission(ctx, fileID, userID)
	if err != nil {
		return false, err
	}

	return perm != nil, nil
}

// ownedLiveFile loads a file, requiring ownership and a non-trashed state
func (s *shareService) ownedLiveFile(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrForbidden)
	}
	if file.IsDeleted {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	return file, nil
}

func newLinkToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate link token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *shareService) validateGrantRequest(req *services.GrantPermissionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.FileID, validation.Required),
		validation.Field(&req.SharedWith, validation.Required),
		validation.Field(&req.PermissionType, validation.By(validPermissionType)),
	)
}

func (s *shareService) validateLinkRequest(req *services.CreateShareLinkRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.FileID, validation.Required),
		validation.Field(&req.PermissionType, validation.By(validPermissionType)),
		validation.Field(&req.ExpiresInHours, validation.Min(0)),
	)
}

func validPermissionType(value interface{}) error {
	pt, ok := value.(models.PermissionType)
	if !ok || !pt.Valid() {
		return fmt.Errorf("must be one of: view, edit")
	}
	return nil
}
