package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewShareRepository creates a new share repository
func NewShareRepository(config *RepositoryConfig) repositories.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// UpsertPermission inserts or updates the permission keyed by
// (file_id, shared_with). Last write wins on permission_type.
func (r *PostgresShareRepository) UpsertPermission(ctx context.Context, perm *models.Permission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, shared_with, permission_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id, shared_with)
		DO UPDATE SET permission_type = EXCLUDED.permission_type
		RETURNING id, created_at
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		perm.FileID,
		perm.SharedWith,
		perm.PermissionType,
		perm.CreatedAt,
	).Scan(&perm.ID, &perm.CreatedAt)

	if err != nil {
		return storeErr("upsert permission", err)
	}

	return nil
}

// GetPermission returns the permission for (fileID, userID), or (nil, nil)
// when absent.
func (r *PostgresShareRepository) GetPermission(ctx context.Context, fileID, userID string) (*models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT id, file_id, shared_with, permission_type, created_at
		FROM %s
		WHERE file_id = $1 AND shared_with = $2
	`, r.tables.Permissions)

	var perm models.Permission
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, fileID, userID).Scan(
		&perm.ID,
		&perm.FileID,
		&perm.SharedWith,
		&perm.PermissionType,
		&perm.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, storeErr("get permission", err)
	}

	return &perm, nil
}

// ListPermissionsFor returns every permission granted to a user
func (r *PostgresShareRepository) ListPermissionsFor(ctx context.Context, userID string) ([]models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT id, file_id, shared_with, permission_type, created_at
		FROM %s
		WHERE shared_with = $1
		ORDER BY created_at DESC
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("list permissions", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var perm models.Permission
		err := rows.Scan(
			&perm.ID,
			&perm.FileID,
			&perm.SharedWith,
			&perm.PermissionType,
			&perm.CreatedAt,
		)
		if err != nil {
			return nil, storeErr("scan permission", err)
		}
		perms = append(perms, perm)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate permissions", err)
	}

	return perms, nil
}

// DeletePermission removes the grant for (fileID, userID)
func (r *PostgresShareRepository) DeletePermission(ctx context.Context, fileID, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1 AND shared_with = $2`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, fileID, userID)
	if err != nil {
		return storeErr("delete permission", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission on file %s: %w", fileID, domain.ErrNotFound)
	}

	return nil
}

// DeletePermissionsByFile removes all grants on a file
func (r *PostgresShareRepository) DeletePermissionsByFile(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID); err != nil {
		return storeErr("delete file permissions", err)
	}

	return nil
}

// CreateShareLink inserts an active share link
func (r *PostgresShareRepository) CreateShareLink(ctx context.Context, link *models.ShareLink) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, link_token, created_by, permission_type, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.ShareLinks)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		link.FileID,
		link.LinkToken,
		link.CreatedBy,
		link.PermissionType,
		link.ExpiresAt,
		link.IsActive,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("share link token: %w", domain.ErrConflict)
		}
		return storeErr("create share link", err)
	}

	return nil
}

// GetShareLinkByToken looks a link up by its opaque token
func (r *PostgresShareRepository) GetShareLinkByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query := fmt.Sprintf(`
		SELECT id, file_id, link_token, created_by, permission_type, expires_at, is_active, created_at
		FROM %s
		WHERE link_token = $1
	`, r.tables.ShareLinks)

	var link models.ShareLink
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, token).Scan(
		&link.ID,
		&link.FileID,
		&link.LinkToken,
		&link.CreatedBy,
		&link.PermissionType,
		&link.ExpiresAt,
		&link.IsActive,
		&link.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
		}
		return nil, storeErr("get share link", err)
	}

	return &link, nil
}

// DeactivateShareLink marks the link inactive
func (r *PostgresShareRepository) DeactivateShareLink(ctx context.Context, fileID, token string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_active = false
		WHERE file_id = $1 AND link_token = $2
	`, r.tables.ShareLinks)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, fileID, token)
	if err != nil {
		return storeErr("deactivate share link", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("share link: %w", domain.ErrNotFound)
	}

	return nil
}

// DeleteShareLinksByFile removes all links on a file
func (r *PostgresShareRepository) DeleteShareLinksByFile(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.tables.ShareLinks)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID); err != nil {
		return storeErr("delete file share links", err)
	}

	return nil
}
