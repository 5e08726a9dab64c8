package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const fileColumns = "id, owner_id, folder_id, name, mime_type, size_bytes, storage_key, checksum, is_deleted, is_starred, created_at, updated_at"

func scanFile(row interface{ Scan(...interface{}) error }, f *models.File) error {
	return row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.FolderID,
		&f.Name,
		&f.MimeType,
		&f.SizeBytes,
		&f.StorageKey,
		&f.Checksum,
		&f.IsDeleted,
		&f.IsStarred,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
}

// Create inserts a new file record
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, folder_id, name, mime_type, size_bytes, storage_key, checksum, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.OwnerID,
		file.FolderID,
		file.Name,
		file.MimeType,
		file.SizeBytes,
		file.StorageKey,
		file.Checksum,
		file.CreatedAt,
		file.UpdatedAt,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("file '%s': %w", file.Name, domain.ErrConflict)
		}
		return storeErr("create file", err)
	}

	return nil
}

// GetByID retrieves a file by ID regardless of owner or trash state
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	var file models.File
	executor := GetExecutor(ctx, r.pool)
	if err := scanFile(executor.QueryRow(ctx, query, id), &file); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get file", err)
	}

	return &file, nil
}

// FindByName looks up a non-deleted file by owner, name, and folder.
// Returns (nil, nil) when absent: uploads use this to decide between
// creating a file and adding a version.
func (r *PostgresFileRepository) FindByName(ctx context.Context, ownerID, name string, folderID *string) (*models.File, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		Eq("name", name),
		NullableEq("folder_id", folderID),
		Eq("is_deleted", false),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM %s%s LIMIT 1`, fileColumns, r.tables.Files, where)

	var file models.File
	executor := GetExecutor(ctx, r.pool)
	if err := scanFile(executor.QueryRow(ctx, query, args...), &file); err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, storeErr("find file by name", err)
	}

	return &file, nil
}

// ListByFolder returns one page of files for an owner in a folder
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, ownerID string, folderID *string, scope repositories.TrashScope, page repositories.Page) ([]models.File, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		NullableEq("folder_id", folderID),
		TrashEq(scope),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`
		SELECT %s FROM %s%s
		ORDER BY updated_at DESC
		OFFSET %d LIMIT %d
	`, fileColumns, r.tables.Files, where, page.Offset, page.Limit)

	return r.queryFiles(ctx, "list files by folder", query, args...)
}

// ListFolderFiles returns all files directly inside a folder, unpaginated
func (r *PostgresFileRepository) ListFolderFiles(ctx context.Context, ownerID string, folderID *string, scope repositories.TrashScope) ([]models.File, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		NullableEq("folder_id", folderID),
		TrashEq(scope),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY updated_at DESC`, fileColumns, r.tables.Files, where)

	return r.queryFiles(ctx, "list folder files", query, args...)
}

// ListByIDs returns the non-deleted files among the given IDs
func (r *PostgresFileRepository) ListByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := NewFilter(
		In("id", ids),
		Eq("is_deleted", false),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY updated_at DESC`, fileColumns, r.tables.Files, where)

	return r.queryFiles(ctx, "list files by ids", query, args...)
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, op, query string, args ...interface{}) ([]models.File, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		if err := scanFile(rows, &file); err != nil {
			return nil, storeErr("scan file", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate files", err)
	}

	return files, nil
}

// SetDeleted flips the soft-delete flag on one file. Idempotent.
func (r *PostgresFileRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, deleted, id)
	if err != nil {
		return storeErr("set file deleted", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetDeletedByFolder flips the flag on every file directly inside a folder.
// Zero affected rows is fine: an empty folder cascades to nothing.
func (r *PostgresFileRepository) SetDeletedByFolder(ctx context.Context, folderID string, deleted bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = $1, updated_at = NOW()
		WHERE folder_id = $2
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deleted, folderID); err != nil {
		return storeErr("set folder files deleted", err)
	}

	return nil
}

// SetStarred updates the star flag
func (r *PostgresFileRepository) SetStarred(ctx context.Context, id string, starred bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_starred = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, starred, id)
	if err != nil {
		return storeErr("set file starred", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetFolder moves the file to another folder (nil = root)
func (r *PostgresFileRepository) SetFolder(ctx context.Context, id string, folderID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, folderID, id)
	if err != nil {
		return storeErr("set file folder", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetCurrentVersion points the file record at a version's blob
func (r *PostgresFileRepository) SetCurrentVersion(ctx context.Context, id, storageKey, checksum string, sizeBytes int64) error {
	query := fmt.Sprintf(`
		UPDATE %s SET storage_key = $1, checksum = $2, size_bytes = $3, updated_at = NOW()
		WHERE id = $4
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, storageKey, checksum, sizeBytes, id)
	if err != nil {
		return storeErr("set file current version", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the file row permanently
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return storeErr("delete file", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SumActiveSize totals size_bytes over the owner's non-deleted files
func (r *PostgresFileRepository) SumActiveSize(ctx context.Context, ownerID string) (int64, error) {
	filter := NewFilter(
		Eq("owner_id", ownerID),
		Eq("is_deleted", false),
	)
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT COALESCE(SUM(size_bytes), 0) FROM %s%s`, r.tables.Files, where)

	var total int64
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, storeErr("sum active size", err)
	}

	return total, nil
}
