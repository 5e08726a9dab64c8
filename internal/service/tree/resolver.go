// Package tree implements the folder tree: path resolution, trash
// cascades, and read views.
package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"filehaven/internal/config"
	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
)

// rootSentinels are the client spellings that all mean "the root level".
// Folder IDs are normalized through NormalizeFolderID before any lookup.
var rootSentinels = map[string]bool{
	"":     true,
	"null": true,
	"root": true,
}

// NormalizeFolderID maps the root sentinels to nil and returns any other
// ID unchanged.
func NormalizeFolderID(id *string) *string {
	if id == nil || rootSentinels[*id] {
		return nil
	}
	return id
}

type pathResolver struct {
	folderRepo repositories.FolderRepository
	txManager  repositories.TransactionManager
}

// NewPathResolver creates a new path resolver service
func NewPathResolver(
	folderRepo repositories.FolderRepository,
	txManager repositories.TransactionManager,
) services.PathResolver {
	return &pathResolver{
		folderRepo: folderRepo,
		txManager:  txManager,
	}
}

// ResolveFolderPath resolves a folder path to a folder ID, creating folders
// if needed. Resolution starts at startFolderID (nil or a root sentinel
// means the root level). The whole walk runs in one transaction so a failed
// segment leaves no partial chain behind.
func (s *pathResolver) ResolveFolderPath(ctx context.Context, ownerID, folderPath string, startFolderID *string) (*string, error) {
	// Trim slashes first so an all-slash path reduces to the root case
	// instead of tripping the consecutive-slash check.
	folderPath = strings.Trim(folderPath, "/")

	if err := s.ValidateFolderPath(folderPath); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	startID := NormalizeFolderID(startFolderID)
	if startID != nil {
		start, err := s.folderRepo.GetByID(ctx, *startID)
		if err != nil {
			return nil, fmt.Errorf("start folder: %w", err)
		}
		if start.OwnerID != ownerID {
			return nil, fmt.Errorf("start folder: %w", domain.ErrForbidden)
		}
		if start.IsDeleted {
			return nil, fmt.Errorf("%w: start folder is in the trash", domain.ErrConflict)
		}
	}

	// Empty path resolves to the start cursor itself
	if folderPath == "" {
		return startID, nil
	}

	segments := strings.Split(folderPath, "/")
	if len(segments) > config.MaxTreeDepth {
		return nil, fmt.Errorf("%w: path exceeds maximum depth of %d", domain.ErrValidation, config.MaxTreeDepth)
	}

	var resultFolderID *string
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		currentParentID := startID

		for _, segment := range segments {
			if len(segment) > config.MaxFolderNameLength {
				return fmt.Errorf("%w: folder name '%s' exceeds maximum length of %d", domain.ErrValidation, segment, config.MaxFolderNameLength)
			}

			folder, err := s.findOrCreate(txCtx, ownerID, segment, currentParentID)
			if err != nil {
				return fmt.Errorf("failed to create/get folder '%s': %w", segment, err)
			}

			currentParentID = &folder.ID
		}

		resultFolderID = currentParentID
		return nil
	})

	if err != nil {
		return nil, err
	}

	return resultFolderID, nil
}

// findOrCreate returns the live folder with the given name under the parent,
// creating it when absent. A conflict means another request created the
// folder between our lookup and insert, so the row is re-read instead of
// surfacing the conflict. The repository reports conflicts without failing
// a statement, so the re-read stays valid inside the enclosing transaction.
func (s *pathResolver) findOrCreate(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	folder, err := s.folderRepo.FindChild(ctx, ownerID, name, parentID)
	if err != nil {
		return nil, err
	}
	if folder != nil {
		return folder, nil
	}

	now := time.Now()
	created := &models.Folder{
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.folderRepo.Create(ctx, created)
	if err == nil {
		return created, nil
	}

	if errors.Is(err, domain.ErrConflict) {
		folder, findErr := s.folderRepo.FindChild(ctx, ownerID, name, parentID)
		if findErr != nil {
			return nil, findErr
		}
		if folder != nil {
			return folder, nil
		}
	}

	return nil, err
}

// ValidateFolderPath validates a folder path
func (s *pathResolver) ValidateFolderPath(path string) error {
	// Empty string is valid (root level)
	if path == "" {
		return nil
	}

	// Check length
	if len(path) > config.MaxPathLength {
		return fmt.Errorf("folder_path exceeds maximum length of %d", config.MaxPathLength)
	}

	// No consecutive slashes
	if strings.Contains(path, "//") {
		return fmt.Errorf("folder_path cannot contain consecutive slashes")
	}

	// Only alphanumeric, spaces, dots, hyphens, underscores, slashes
	for _, char := range path {
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) &&
			char != ' ' && char != '.' && char != '-' && char != '_' && char != '/' {
			return fmt.Errorf("folder_path contains invalid character: %c", char)
		}
	}

	return nil
}
