// Package migrations manages the database schema through embedded SQL files.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// prefixToken is replaced with the configured table prefix before the
// migration SQL is handed to the runner.
const prefixToken = "__PREFIX__"

// Up runs all pending migrations against the database at dsn. A non-empty
// tablePrefix is applied to every table the migrations create, including
// the schema_migrations bookkeeping table, so multiple environments can
// share one database.
func Up(dsn, tablePrefix string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer db.Close()

	m, err := newMigrate(db, tablePrefix)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func newMigrate(db *sql.DB, tablePrefix string) (*migrate.Migrate, error) {
	rendered, err := renderFiles(tablePrefix)
	if err != nil {
		return nil, fmt.Errorf("render migration files: %w", err)
	}

	sourceDriver, err := iofs.New(rendered, ".")
	if err != nil {
		return nil, fmt.Errorf("create source driver: %w", err)
	}

	dbDriver, err := migratepgx.WithInstance(db, &migratepgx.Config{
		MigrationsTable: tablePrefix + "schema_migrations",
	})
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "pgx", dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, nil
}

// renderFiles substitutes the table prefix into every embedded SQL file
// and returns the result as an in-memory filesystem.
func renderFiles(tablePrefix string) (fs.FS, error) {
	out := fstest.MapFS{}

	entries, err := fs.ReadDir(migrationFiles, "files")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		raw, err := fs.ReadFile(migrationFiles, "files/"+entry.Name())
		if err != nil {
			return nil, err
		}
		out[entry.Name()] = &fstest.MapFile{
			Data: []byte(strings.ReplaceAll(string(raw), prefixToken, tablePrefix)),
		}
	}

	return out, nil
}
