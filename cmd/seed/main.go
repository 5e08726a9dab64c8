// Command seed populates a development database with a demo user and a
// small folder tree so the API has something to serve out of the box.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"filehaven/internal/auth"
	"filehaven/internal/config"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
	"filehaven/internal/repository/postgres"
	"filehaven/internal/repository/postgres/migrations"
	"filehaven/internal/service/tree"

	"github.com/joho/godotenv"
)

const (
	demoEmail    = "demo@filehaven.dev"
	demoPassword = "demo-password-123"
)

func main() {
	clearData := flag.Bool("clear-data", false, "Delete all folders and files before seeding")
	schemaOnly := flag.Bool("schema-only", false, "Run migrations only, seed nothing")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" {
		log.Fatal("refusing to seed a production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := migrations.Up(cfg.SupabaseDBURL, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("schema ready", "table_prefix", cfg.TablePrefix)

	if *schemaOnly {
		return
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *clearData {
		for _, table := range []string{tables.ShareLinks, tables.Permissions, tables.FileVersions, tables.Files, tables.Folders} {
			if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
				log.Fatalf("Failed to clear %s: %v", table, err)
			}
		}
		logger.Info("existing data cleared")
	}

	ownerID, err := ensureDemoUser(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	resolver := tree.NewPathResolver(folderRepo, txManager)

	paths := []string{
		"Documents/Reports",
		"Documents/Invoices",
		"Photos/2026",
		"Archive",
	}
	for _, path := range paths {
		if _, err := resolver.ResolveFolderPath(ctx, ownerID, path, nil); err != nil {
			log.Fatalf("Failed to create folder path %q: %v", path, err)
		}
	}
	logger.Info("folders seeded", "paths", len(paths))

	files := []struct {
		path string
		name string
		mime string
		size int64
	}{
		{path: "Documents/Reports", name: "q2-summary.pdf", mime: "application/pdf", size: 48_203},
		{path: "Documents/Invoices", name: "2026-07.pdf", mime: "application/pdf", size: 12_998},
		{path: "Photos/2026", name: "lake.jpg", mime: "image/jpeg", size: 2_310_441},
		{path: "", name: "readme.txt", mime: "text/plain", size: 412},
	}
	for _, f := range files {
		if err := seedFile(ctx, ownerID, f.path, f.name, f.mime, f.size, resolver, fileRepo, versionRepo); err != nil {
			log.Fatalf("Failed to seed file %q: %v", f.name, err)
		}
	}
	logger.Info("files seeded", "count", len(files))

	fmt.Printf("Seeded demo data for %s (user %s)\n", demoEmail, ownerID)
}

// ensureDemoUser recreates the demo login through the Supabase admin API.
// Without a service key the seeder falls back to a fixed local owner ID,
// which is enough for poking at the database directly.
func ensureDemoUser(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.SupabaseKey == "" {
		logger.Warn("SUPABASE_KEY not set, seeding under a local owner id")
		return "00000000-0000-0000-0000-000000000001", nil
	}

	admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err := admin.DeleteUserByEmail(demoEmail); err != nil {
		return "", err
	}
	return admin.CreateUser(demoEmail, demoPassword)
}

// seedFile records file metadata and an initial version. No blob is
// uploaded: seeded files exist to exercise listings, not downloads.
func seedFile(
	ctx context.Context,
	ownerID, folderPath, name, mimeType string,
	sizeBytes int64,
	resolver services.PathResolver,
	fileRepo repositories.FileRepository,
	versionRepo repositories.VersionRepository,
) error {
	folderID, err := resolver.ResolveFolderPath(ctx, ownerID, folderPath, nil)
	if err != nil {
		return err
	}

	existing, err := fileRepo.FindByName(ctx, ownerID, name, folderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := time.Now()
	storageKey := fmt.Sprintf("seed/%s/%s", ownerID, name)
	file := &models.File{
		OwnerID:    ownerID,
		FolderID:   folderID,
		Name:       name,
		MimeType:   mimeType,
		SizeBytes:  sizeBytes,
		StorageKey: storageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := fileRepo.Create(ctx, file); err != nil {
		return err
	}

	return versionRepo.Create(ctx, &models.FileVersion{
		FileID:     file.ID,
		StorageKey: storageKey,
		SizeBytes:  sizeBytes,
		CreatedAt:  now,
	})
}
