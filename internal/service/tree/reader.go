package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filehaven/internal/config"
	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
)

// RootCrumbName labels the synthetic root entry in breadcrumb chains.
const RootCrumbName = "My Files"

type treeReader struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.FileRepository
	logger     *slog.Logger
}

// NewTreeReader creates a new tree reader service
func NewTreeReader(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	logger *slog.Logger,
) services.TreeReader {
	return &treeReader{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		logger:     logger,
	}
}

// ListChildren returns one page of the direct, non-deleted children of a
// folder, folders and files together, ordered by updated_at descending.
func (s *treeReader) ListChildren(ctx context.Context, ownerID string, folderID *string, offset, limit int) (*services.FolderContents, error) {
	folderID = NormalizeFolderID(folderID)

	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	page := repositories.Page{Offset: offset, Limit: limit}

	var folder *models.Folder
	if folderID != nil {
		var err error
		folder, err = s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if folder.OwnerID != ownerID {
			return nil, fmt.Errorf("folder %s: %w", *folderID, domain.ErrForbidden)
		}
	}

	folders, err := s.folderRepo.ListChildren(ctx, ownerID, folderID, repositories.ScopeActive, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list child folders: %w", err)
	}

	files, err := s.fileRepo.ListByFolder(ctx, ownerID, folderID, repositories.ScopeActive, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return &services.FolderContents{
		Folder:  folder,
		Folders: folders,
		Files:   files,
	}, nil
}

// ListTrash flattens everything trashed under a folder context into one
// combined list. It collects the trashed items at the context level, then
// descends into each trashed folder and gathers its whole subtree.
func (s *treeReader) ListTrash(ctx context.Context, ownerID string, folderID *string) (*services.TrashContents, error) {
	folderID = NormalizeFolderID(folderID)

	out := &services.TrashContents{}

	files, err := s.fileRepo.ListFolderFiles(ctx, ownerID, folderID, repositories.ScopeTrashed)
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, files...)

	roots, err := s.folderRepo.ListSubfolders(ctx, ownerID, folderID, repositories.ScopeTrashed)
	if err != nil {
		return nil, err
	}

	type frame struct {
		folder models.Folder
		depth  int
	}
	var stack []frame
	for i := range roots {
		stack = append(stack, frame{folder: roots[i], depth: 1})
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth > config.MaxTreeDepth {
			return nil, fmt.Errorf("%w: folder tree exceeds maximum depth of %d", domain.ErrStoreFailure, config.MaxTreeDepth)
		}

		out.Folders = append(out.Folders, cur.folder)

		id := cur.folder.ID
		files, err := s.fileRepo.ListFolderFiles(ctx, ownerID, &id, repositories.ScopeTrashed)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, files...)

		children, err := s.folderRepo.ListSubfolders(ctx, ownerID, &id, repositories.ScopeTrashed)
		if err != nil {
			return nil, err
		}
		for i := range children {
			stack = append(stack, frame{folder: children[i], depth: cur.depth + 1})
		}
	}

	return out, nil
}

// GetBreadcrumbs walks parent pointers from the folder up to the root and
// returns the chain outermost-to-innermost, starting with a synthetic root
// crumb. A missing or foreign folder ends the walk with a partial chain
// rather than an error, and the walk is bounded so a corrupted parent
// pointer cycle cannot spin forever.
func (s *treeReader) GetBreadcrumbs(ctx context.Context, ownerID, folderID string) ([]models.Crumb, error) {
	var chain []models.Crumb

	currentID := &folderID
	for depth := 0; currentID != nil && depth <= config.MaxTreeDepth; depth++ {
		folder, err := s.folderRepo.GetByID(ctx, *currentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Debug("breadcrumb walk hit missing folder", "folder_id", *currentID)
				break
			}
			return nil, err
		}
		if folder.OwnerID != ownerID {
			s.logger.Debug("breadcrumb walk hit foreign folder", "folder_id", folder.ID)
			break
		}

		id := folder.ID
		chain = append(chain, models.Crumb{ID: &id, Name: folder.Name})
		currentID = folder.ParentID
	}

	// Reverse into outermost-to-innermost order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	crumbs := make([]models.Crumb, 0, len(chain)+1)
	crumbs = append(crumbs, models.Crumb{ID: nil, Name: RootCrumbName})
	crumbs = append(crumbs, chain...)

	return crumbs, nil
}
