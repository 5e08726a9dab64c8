package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"filehaven/internal/config"
	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
	"filehaven/internal/storage"
)

var folderNamePattern = regexp.MustCompile(`^[^/]+$`)

type treeMutator struct {
	folderRepo  repositories.FolderRepository
	fileRepo    repositories.FileRepository
	versionRepo repositories.VersionRepository
	shareRepo   repositories.ShareRepository
	blobs       storage.BlobStore
	logger      *slog.Logger
}

// NewTreeMutator creates a new tree mutator service
func NewTreeMutator(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	versionRepo repositories.VersionRepository,
	shareRepo repositories.ShareRepository,
	blobs storage.BlobStore,
	logger *slog.Logger,
) services.TreeMutator {
	return &treeMutator{
		folderRepo:  folderRepo,
		fileRepo:    fileRepo,
		versionRepo: versionRepo,
		shareRepo:   shareRepo,
		blobs:       blobs,
		logger:      logger,
	}
}

// CreateFolder creates a folder under a parent. Creating a name that
// already exists in the parent returns the existing folder, so the
// operation is idempotent.
func (s *treeMutator) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	req.ParentID = NormalizeFolderID(req.ParentID)

	if req.ParentID != nil {
		parent, err := s.ownedFolder(ctx, req.OwnerID, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		if parent.IsDeleted {
			return nil, fmt.Errorf("%w: parent folder is in the trash", domain.ErrConflict)
		}
	}

	now := time.Now()
	folder := &models.Folder{
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.folderRepo.Create(ctx, folder)
	if errors.Is(err, domain.ErrConflict) {
		// Lost a race or the folder already existed; hand back the live row
		existing, findErr := s.folderRepo.FindChild(ctx, req.OwnerID, req.Name, req.ParentID)
		if findErr != nil {
			return nil, findErr
		}
		if existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", req.OwnerID,
		"parent_id", req.ParentID,
	)

	return folder, nil
}

// RenameFolder renames a folder in place
func (s *treeMutator) RenameFolder(ctx context.Context, ownerID, folderID, name string) (*models.Folder, error) {
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	folder, err := s.ownedFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}

	if err := s.folderRepo.Rename(ctx, folder.ID, name); err != nil {
		return nil, err
	}

	folder.Name = name
	folder.UpdatedAt = time.Now()

	s.logger.Info("folder renamed", "id", folder.ID, "name", name, "owner_id", ownerID)

	return folder, nil
}

// SoftDeleteFolder moves a folder and its subtree to the trash. The folder
// itself is flagged first so the subtree is already unreachable from normal
// listings while the cascade runs; a crash mid-walk leaves stragglers that
// a retry of the same call cleans up.
func (s *treeMutator) SoftDeleteFolder(ctx context.Context, ownerID, folderID string) error {
	folder, err := s.ownedFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	if err := s.folderRepo.SetDeleted(ctx, folder.ID, true); err != nil {
		return err
	}

	err = s.walkSubtree(ctx, ownerID, folder.ID, repositories.ScopeActive, func(walkCtx context.Context, id string) error {
		if err := s.fileRepo.SetDeletedByFolder(walkCtx, id, true); err != nil {
			return err
		}
		if id != folder.ID {
			return s.folderRepo.SetDeleted(walkCtx, id, true)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder trashed", "id", folder.ID, "owner_id", ownerID)

	return nil
}

// RestoreFolder brings a trashed folder back along with its entire subtree,
// including descendants that were trashed separately before the folder was.
func (s *treeMutator) RestoreFolder(ctx context.Context, ownerID, folderID string) error {
	folder, err := s.ownedFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	if err := s.folderRepo.SetDeleted(ctx, folder.ID, false); err != nil {
		return err
	}

	err = s.walkSubtree(ctx, ownerID, folder.ID, repositories.ScopeAny, func(walkCtx context.Context, id string) error {
		if err := s.fileRepo.SetDeletedByFolder(walkCtx, id, false); err != nil {
			return err
		}
		if id != folder.ID {
			return s.folderRepo.SetDeleted(walkCtx, id, false)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder restored", "id", folder.ID, "owner_id", ownerID)

	return nil
}

// PurgeFolder permanently deletes a trashed folder and everything beneath
// it, whatever each descendant's own trash flag says. The entry node must
// already be in the trash: hard deletion always goes through the two-step
// trash flow so a single misdirected request cannot destroy live data.
// Children go first so folder rows never orphan their parents' foreign
// keys; file rows take their versions, permissions, share links, and blobs
// with them.
func (s *treeMutator) PurgeFolder(ctx context.Context, ownerID, folderID string) error {
	folder, err := s.ownedFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}
	if !folder.IsDeleted {
		return fmt.Errorf("%w: folder is not in the trash", domain.ErrConflict)
	}

	// Collect the subtree top-down, then delete bottom-up
	var ordered []string
	err = s.walkSubtree(ctx, ownerID, folder.ID, repositories.ScopeAny, func(_ context.Context, id string) error {
		ordered = append(ordered, id)
		return nil
	})
	if err != nil {
		return err
	}

	for i := len(ordered) - 1; i >= 0; i-- {
		id := ordered[i]

		files, err := s.fileRepo.ListFolderFiles(ctx, ownerID, &id, repositories.ScopeAny)
		if err != nil {
			return err
		}
		for j := range files {
			if err := s.purgeFileRow(ctx, &files[j]); err != nil {
				return err
			}
		}

		if err := s.folderRepo.Delete(ctx, id); err != nil {
			return err
		}
	}

	s.logger.Info("folder purged", "id", folder.ID, "owner_id", ownerID, "folders_deleted", len(ordered))

	return nil
}

// SoftDeleteFile moves a single file to the trash. Idempotent.
func (s *treeMutator) SoftDeleteFile(ctx context.Context, ownerID, fileID string) error {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.fileRepo.SetDeleted(ctx, file.ID, true); err != nil {
		return err
	}

	s.logger.Info("file trashed", "id", file.ID, "owner_id", ownerID)

	return nil
}

// RestoreFile brings a trashed file back. Idempotent.
func (s *treeMutator) RestoreFile(ctx context.Context, ownerID, fileID string) error {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.fileRepo.SetDeleted(ctx, file.ID, false); err != nil {
		return err
	}

	s.logger.Info("file restored", "id", file.ID, "owner_id", ownerID)

	return nil
}

// PurgeFile permanently deletes a trashed file and its cascade. Like
// PurgeFolder, it only accepts targets already in the trash.
func (s *treeMutator) PurgeFile(ctx context.Context, ownerID, fileID string) error {
	file, err := s.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if !file.IsDeleted {
		return fmt.Errorf("%w: file is not in the trash", domain.ErrConflict)
	}

	if err := s.purgeFileRow(ctx, file); err != nil {
		return err
	}

	s.logger.Info("file purged", "id", file.ID, "owner_id", ownerID)

	return nil
}

// purgeFileRow deletes a file's versions, permissions, share links, blobs,
// and finally the row itself. Blob deletion is best effort: a dangling
// object costs storage, a dangling row costs correctness.
func (s *treeMutator) purgeFileRow(ctx context.Context, file *models.File) error {
	versions, err := s.versionRepo.ListByFile(ctx, file.ID)
	if err != nil {
		return err
	}

	if err := s.versionRepo.DeleteByFile(ctx, file.ID); err != nil {
		return err
	}
	if err := s.shareRepo.DeletePermissionsByFile(ctx, file.ID); err != nil {
		return err
	}
	if err := s.shareRepo.DeleteShareLinksByFile(ctx, file.ID); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
		return err
	}

	for i := range versions {
		if err := s.blobs.Delete(ctx, versions[i].StorageKey); err != nil {
			s.logger.Warn("failed to delete blob",
				"file_id", file.ID,
				"storage_key", versions[i].StorageKey,
				"error", err,
			)
		}
	}

	return nil
}

// walkSubtree visits the folder and every descendant top-down, bounded by
// MaxTreeDepth so corrupted parent pointers cannot loop forever.
func (s *treeMutator) walkSubtree(ctx context.Context, ownerID, rootID string, scope repositories.TrashScope, visit func(context.Context, string) error) error {
	type frame struct {
		id    string
		depth int
	}

	stack := []frame{{id: rootID, depth: 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth > config.MaxTreeDepth {
			return fmt.Errorf("%w: folder tree exceeds maximum depth of %d", domain.ErrStoreFailure, config.MaxTreeDepth)
		}

		if err := visit(ctx, cur.id); err != nil {
			return err
		}

		id := cur.id
		children, err := s.folderRepo.ListSubfolders(ctx, ownerID, &id, scope)
		if err != nil {
			return err
		}
		for i := range children {
			stack = append(stack, frame{id: children[i].ID, depth: cur.depth + 1})
		}
	}

	return nil
}

// ownedFolder loads a folder and verifies ownership
func (s *treeMutator) ownedFolder(ctx context.Context, ownerID, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != ownerID {
		return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrForbidden)
	}
	return folder, nil
}

// ownedFile loads a file and verifies ownership
func (s *treeMutator) ownedFile(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrForbidden)
	}
	return file, nil
}

func (s *treeMutator) validateCreateRequest(req *services.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
	)
}
