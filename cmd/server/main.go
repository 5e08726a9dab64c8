package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"filehaven/internal/auth"
	"filehaven/internal/config"
	"filehaven/internal/handler"
	"filehaven/internal/middleware"
	"filehaven/internal/quota"
	"filehaven/internal/repository/postgres"
	"filehaven/internal/repository/postgres/migrations"
	serviceFile "filehaven/internal/service/file"
	serviceShare "filehaven/internal/service/share"
	serviceTree "filehaven/internal/service/tree"
	"filehaven/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.OpenLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Run schema migrations before opening the pool
	if err := migrations.Up(cfg.SupabaseDBURL, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("migrations up to date")

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	shareRepo := postgres.NewShareRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create blob store
	blobs, err := storage.NewS3BlobStore(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	logger.Info("blob store initialized", "bucket", cfg.S3Bucket, "region", cfg.S3Region)

	// Initialize plan registry
	plans, err := quota.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize plan registry: %v", err)
	}

	// Create services
	pathResolver := serviceTree.NewPathResolver(folderRepo, txManager)
	treeMutator := serviceTree.NewTreeMutator(folderRepo, fileRepo, versionRepo, shareRepo, blobs, logger)
	treeReader := serviceTree.NewTreeReader(folderRepo, fileRepo, logger)
	shareService := serviceShare.NewShareService(fileRepo, shareRepo, logger)
	fileService := serviceFile.NewFileService(fileRepo, folderRepo, versionRepo, pathResolver, shareService, blobs, plans, logger)

	// Create handlers
	folderHandler := handler.NewFolderHandler(treeMutator, treeReader, pathResolver, logger)
	fileHandler := handler.NewFileHandler(fileService, treeMutator, logger)
	shareHandler := handler.NewShareHandler(shareService, fileService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", folderHandler.HealthCheck)

	// Folder routes
	mux.HandleFunc("GET /api/folders", folderHandler.ListRootChildren)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("POST /api/folders/resolve", folderHandler.ResolvePath)
	mux.HandleFunc("GET /api/folders/{id}/children", folderHandler.ListChildren)
	mux.HandleFunc("GET /api/folders/{id}/breadcrumbs", folderHandler.Breadcrumbs)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.RenameFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.SoftDeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/restore", folderHandler.RestoreFolder)
	mux.HandleFunc("DELETE /api/folders/{id}/purge", folderHandler.PurgeFolder)

	// Trash view
	mux.HandleFunc("GET /api/trash", folderHandler.ListTrash)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.SoftDeleteFile)
	mux.HandleFunc("POST /api/files/{id}/restore", fileHandler.RestoreFile)
	mux.HandleFunc("DELETE /api/files/{id}/purge", fileHandler.PurgeFile)
	mux.HandleFunc("GET /api/files/{id}/versions", fileHandler.ListVersions)
	mux.HandleFunc("POST /api/files/{id}/versions/{versionId}/restore", fileHandler.RestoreVersion)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)

	// Storage usage
	mux.HandleFunc("GET /api/usage", fileHandler.Usage)

	// Sharing routes
	mux.HandleFunc("POST /api/files/{id}/permissions", shareHandler.GrantPermission)
	mux.HandleFunc("DELETE /api/files/{id}/permissions/{userId}", shareHandler.RevokePermission)
	mux.HandleFunc("GET /api/shared-with-me", shareHandler.ListSharedWithMe)
	mux.HandleFunc("POST /api/files/{id}/links", shareHandler.CreateShareLink)
	mux.HandleFunc("DELETE /api/files/{id}/links/{token}", shareHandler.RevokeShareLink)

	// Public share-link resolution (no auth; the token is the credential)
	mux.HandleFunc("GET /api/public/links/{token}", shareHandler.ResolveShareLink)

	// Build middleware chain
	var rootHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	rootHandler = middleware.AuthMiddleware(jwtVerifier)(rootHandler)
	rootHandler = middleware.Recovery(logger)(rootHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	rootHandler = corsHandler.Handler(rootHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
