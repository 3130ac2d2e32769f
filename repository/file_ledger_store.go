package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FileLedgerStore keeps the last confirmed asset id in a plain text file
// Implements LedgerStoreInterface
type FileLedgerStore struct {
	path string
}

// NewFileLedgerStore creates a new FileLedgerStore
func NewFileLedgerStore(path string) *FileLedgerStore {
	return &FileLedgerStore{path: path}
}

// Ensure FileLedgerStore implements LedgerStoreInterface
var _ LedgerStoreInterface = (*FileLedgerStore)(nil)

// Read returns the trimmed asset id, or ok=false when the file is missing or empty
func (s *FileLedgerStore) Read(ctx context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read ledger: %w", err)
	}

	assetID := strings.TrimSpace(string(data))
	if assetID == "" {
		return "", false, nil
	}
	return assetID, true, nil
}

// Write replaces the ledger file through a temp file and rename, so readers never see a partial id
func (s *FileLedgerStore) Write(ctx context.Context, assetID string) error {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return errors.New("refusing to write empty asset id to ledger")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(assetID + "\n"); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set ledger permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	log.Printf("💾 Ledger %s now points at asset %s", s.path, assetID)
	return nil
}
