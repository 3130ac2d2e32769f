package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const defaultLedgerKey = "goes19_decal"

// PostgresLedgerStore keeps the rotation record as a single row in Postgres
// Implements LedgerStoreInterface
type PostgresLedgerStore struct {
	db  *sql.DB
	key string
}

// NewPostgresLedgerStore creates a new PostgresLedgerStore. An empty key uses the default row.
func NewPostgresLedgerStore(db *sql.DB, key string) *PostgresLedgerStore {
	if key == "" {
		key = defaultLedgerKey
	}
	return &PostgresLedgerStore{db: db, key: key}
}

// Ensure PostgresLedgerStore implements LedgerStoreInterface
var _ LedgerStoreInterface = (*PostgresLedgerStore)(nil)

// EnsureSchema creates the asset_rotation table when missing
func (s *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS asset_rotation (
			ledger_key TEXT PRIMARY KEY,
			asset_id   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create asset_rotation table: %w", err)
	}
	return nil
}

// Read returns the recorded asset id for this ledger key
func (s *PostgresLedgerStore) Read(ctx context.Context) (string, bool, error) {
	var assetID string
	query := `SELECT asset_id FROM asset_rotation WHERE ledger_key = $1`
	err := s.db.QueryRowContext(ctx, query, s.key).Scan(&assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		log.Printf("❌ Error reading ledger row %s: %v", s.key, err)
		return "", false, fmt.Errorf("failed to read ledger: %w", err)
	}

	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return "", false, nil
	}
	return assetID, true, nil
}

// Write upserts the ledger row in one statement
func (s *PostgresLedgerStore) Write(ctx context.Context, assetID string) error {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return errors.New("refusing to write empty asset id to ledger")
	}

	query := `
		INSERT INTO asset_rotation (ledger_key, asset_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (ledger_key) DO UPDATE
		SET asset_id = EXCLUDED.asset_id, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.key, assetID, time.Now()); err != nil {
		log.Printf("❌ Error writing ledger row %s: %v", s.key, err)
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	log.Printf("💾 Ledger row %s now points at asset %s", s.key, assetID)
	return nil
}
