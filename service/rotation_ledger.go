package service

import (
	"context"
	"fmt"
	"log"

	"goes-decal-sync/repository"
)

// AssetDeleter removes a superseded asset from the platform
type AssetDeleter interface {
	DeleteAsset(ctx context.Context, assetID string) error
}

// RotationResult records what happened to the superseded asset. It is logged, never returned as an error.
type RotationResult struct {
	PreviousID string
	NewID      string
	Attempted  bool
	Deleted    bool
	Err        error
}

// RotationLedger persists the latest confirmed asset id and retires the one it replaces
type RotationLedger struct {
	store   repository.LedgerStoreInterface
	deleter AssetDeleter
}

// NewRotationLedger creates a new RotationLedger
func NewRotationLedger(store repository.LedgerStoreInterface, deleter AssetDeleter) *RotationLedger {
	return &RotationLedger{store: store, deleter: deleter}
}

// Read returns the previously published asset id, if any
func (l *RotationLedger) Read(ctx context.Context) (string, bool, error) {
	return l.store.Read(ctx)
}

// Write records newID as the live asset
func (l *RotationLedger) Write(ctx context.Context, newID string) error {
	return l.store.Write(ctx, newID)
}

// Rotate deletes previousID when it differs from newID. Deletion is best-effort.
func (l *RotationLedger) Rotate(ctx context.Context, previousID, newID string) RotationResult {
	result := RotationResult{PreviousID: previousID, NewID: newID}
	if previousID == "" || newID == "" || previousID == newID {
		return result
	}

	result.Attempted = true
	log.Printf("🗑️  Deleting superseded asset %s", previousID)
	if err := l.deleter.DeleteAsset(ctx, previousID); err != nil {
		result.Err = err
		log.Printf("⚠️  Could not delete old asset %s (ignored): %v", previousID, err)
		return result
	}

	result.Deleted = true
	log.Printf("🗑️  Old asset %s deleted", previousID)
	return result
}

// Commit writes newID and only then rotates out previousID.
// If the write fails nothing is deleted and the error is returned.
func (l *RotationLedger) Commit(ctx context.Context, previousID, newID string) (RotationResult, error) {
	if err := l.Write(ctx, newID); err != nil {
		return RotationResult{PreviousID: previousID, NewID: newID}, fmt.Errorf("failed to persist asset id %s: %w", newID, err)
	}
	return l.Rotate(ctx, previousID, newID), nil
}
