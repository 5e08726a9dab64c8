package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewVersionRepository creates a new file version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const versionColumns = "id, file_id, storage_key, version_number, size_bytes, checksum, created_at"

func scanVersion(row interface{ Scan(...interface{}) error }, v *models.FileVersion) error {
	return row.Scan(
		&v.ID,
		&v.FileID,
		&v.StorageKey,
		&v.VersionNumber,
		&v.SizeBytes,
		&v.Checksum,
		&v.CreatedAt,
	)
}

// Create inserts a version row, assigning the next strictly increasing
// version number for the file in the same statement.
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.FileVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, storage_key, version_number, size_bytes, checksum, created_at)
		SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5
		FROM %s WHERE file_id = $1
		RETURNING id, version_number, created_at
	`, r.tables.FileVersions, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		version.FileID,
		version.StorageKey,
		version.SizeBytes,
		version.Checksum,
		version.CreatedAt,
	).Scan(&version.ID, &version.VersionNumber, &version.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			// Two uploads raced on the same version number; the caller
			// may retry, version assignment is idempotent per attempt.
			return fmt.Errorf("file %s version: %w", version.FileID, domain.ErrConflict)
		}
		return storeErr("create file version", err)
	}

	return nil
}

// GetByID retrieves a single version
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.FileVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, versionColumns, r.tables.FileVersions)

	var version models.FileVersion
	executor := GetExecutor(ctx, r.pool)
	if err := scanVersion(executor.QueryRow(ctx, query, id), &version); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file version %s: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get file version", err)
	}

	return &version, nil
}

// ListByFile returns all versions of a file, newest first
func (r *PostgresVersionRepository) ListByFile(ctx context.Context, fileID string) ([]models.FileVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE file_id = $1
		ORDER BY version_number DESC
	`, versionColumns, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, fileID)
	if err != nil {
		return nil, storeErr("list file versions", err)
	}
	defer rows.Close()

	var versions []models.FileVersion
	for rows.Next() {
		var version models.FileVersion
		if err := scanVersion(rows, &version); err != nil {
			return nil, storeErr("scan file version", err)
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate file versions", err)
	}

	return versions, nil
}

// DeleteByFile removes all version rows for a file
func (r *PostgresVersionRepository) DeleteByFile(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID); err != nil {
		return storeErr("delete file versions", err)
	}

	return nil
}
