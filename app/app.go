package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"goes-decal-sync/config"
	"goes-decal-sync/db"
	"goes-decal-sync/repository"
	"goes-decal-sync/service"
)

// App holds the wired components for one process
type App struct {
	Config   *config.Config
	Pipeline *service.PipelineService
	Ledger   *service.RotationLedger
}

// Initialize initializes the application from cfg
func Initialize(ctx context.Context, cfg *config.Config) (*App, error) {
	client := service.NewRetryClient(&http.Client{}, cfg.RetryBackoff, cfg.MaxAttempts)

	store, err := newLedgerStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher := service.NewAssetPublisher(client, cfg)
	ledger := service.NewRotationLedger(store, publisher)

	sources := []service.ImageSource{
		service.NewHTTPImageSource(client, cfg.SourceURL, cfg.DownloadTimeout, cfg.MaxAttempts),
	}
	if cfg.FallbackURL != "" {
		sources = append(sources, service.NewHTTPImageSource(client, cfg.FallbackURL, cfg.DownloadTimeout, cfg.MaxAttempts))
	}

	pipeline := service.NewPipelineService(
		service.NewFallbackImageSource(sources...),
		service.NewTextureTransformer(cfg.MaxImageSize),
		publisher,
		ledger,
		cfg.TargetAssetID,
	)

	if cfg.DriveFolderID != "" && cfg.DriveCredentialsPath != "" {
		driveService, err := service.NewDriveService(ctx, cfg.DriveCredentialsPath)
		if err != nil {
			log.Printf("⚠️  Drive archive disabled: %v", err)
		} else {
			pipeline.WithArchive(driveService, cfg.DriveFolderID)
		}
	}

	return &App{Config: cfg, Pipeline: pipeline, Ledger: ledger}, nil
}

// Close releases resources opened by Initialize
func (a *App) Close() error {
	return db.CloseDB()
}

func newLedgerStore(ctx context.Context, cfg *config.Config) (repository.LedgerStoreInterface, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("💾 Using ledger file %s", cfg.LedgerPath)
		return repository.NewFileLedgerStore(cfg.LedgerPath), nil
	}

	conn, err := db.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store, err := preparePostgresLedger(ctx, conn)
	if err != nil {
		db.CloseDB()
		return nil, err
	}
	log.Printf("💾 Using Postgres ledger")
	return store, nil
}

// preparePostgresLedger ensures the ledger table exists. conn is closed when that fails.
func preparePostgresLedger(ctx context.Context, conn *sql.DB) (*repository.PostgresLedgerStore, error) {
	store := repository.NewPostgresLedgerStore(conn, "")
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}
