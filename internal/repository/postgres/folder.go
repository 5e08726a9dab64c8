package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const folderColumns = "id, owner_id, parent_id, name, is_deleted, is_starred, created_at, updated_at"

func scanFolder(row interface{ Scan(...interface{}) error }, f *models.Folder) error {
	return row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.ParentID,
		&f.Name,
		&f.IsDeleted,
		&f.IsStarred,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
}

// Create inserts a new folder. ON CONFLICT DO NOTHING means a duplicate
// sibling never fails the statement, which keeps an enclosing transaction
// usable; the missing RETURNING row becomes a ConflictError carrying the
// winning row's ID so callers can adopt it.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.OwnerID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err == nil {
		return nil
	}
	if !IsPgNoRowsError(err) {
		return storeErr("create folder", err)
	}

	existing, findErr := r.FindChild(ctx, folder.OwnerID, folder.Name, folder.ParentID)
	if findErr != nil || existing == nil {
		return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
	}

	return &domain.ConflictError{
		Message:      fmt.Sprintf("folder '%s' already exists", folder.Name),
		ResourceType: "folder",
		ResourceID:   existing.ID,
	}
}

// GetByID retrieves a folder by ID regardless of owner or trash state
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	var folder models.Folder
	executor := GetExecutor(ctx, r.pool)
	if err := scanFolder(executor.QueryRow(ctx, query, id), &folder); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get folder", err)
	}

	return &folder, nil
}

// FindChild looks up a non-deleted folder by owner, name, and parent.
// Returns (nil, nil) when absent: a missing child is a normal outcome
// during path resolution, not an error.
func (r *PostgresFolderRepository) FindChild(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		Eq("name", name),
		NullableEq("parent_id", parentID),
		Eq("is_deleted", false),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM %s%s LIMIT 1`, folderColumns, r.tables.Folders, where)

	var folder models.Folder
	executor := GetExecutor(ctx, r.pool)
	if err := scanFolder(executor.QueryRow(ctx, query, args...), &folder); err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, storeErr("find child folder", err)
	}

	return &folder, nil
}

// ListChildren returns one page of immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, ownerID string, parentID *string, scope repositories.TrashScope, page repositories.Page) ([]models.Folder, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		NullableEq("parent_id", parentID),
		TrashEq(scope),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`
		SELECT %s FROM %s%s
		ORDER BY updated_at DESC
		OFFSET %d LIMIT %d
	`, folderColumns, r.tables.Folders, where, page.Offset, page.Limit)

	return r.queryFolders(ctx, "list folder children", query, args...)
}

// ListSubfolders returns all immediate child folders under a parent, unpaginated
func (r *PostgresFolderRepository) ListSubfolders(ctx context.Context, ownerID string, parentID *string, scope repositories.TrashScope) ([]models.Folder, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		NullableEq("parent_id", parentID),
		TrashEq(scope),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY updated_at DESC`, folderColumns, r.tables.Folders, where)

	return r.queryFolders(ctx, "list subfolders", query, args...)
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, op, query string, args ...interface{}) ([]models.Folder, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		if err := scanFolder(rows, &folder); err != nil {
			return nil, storeErr("scan folder", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate folders", err)
	}

	return folders, nil
}

// SetDeleted flips the soft-delete flag and bumps updated_at. Idempotent.
func (r *PostgresFolderRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, deleted, id)
	if err != nil {
		return storeErr("set folder deleted", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Rename updates the folder's name
func (r *PostgresFolderRepository) Rename(ctx context.Context, id, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, name, id)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", name, domain.ErrConflict)
		}
		return storeErr("rename folder", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the folder row permanently
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s still has children: %w", id, domain.ErrConflict)
		}
		return storeErr("delete folder", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
