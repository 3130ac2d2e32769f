package repository

import "context"

// LedgerStoreInterface defines the contract for the persisted rotation record.
// Read returns ok=false when nothing has been recorded yet. Write replaces the record atomically.
type LedgerStoreInterface interface {
	Read(ctx context.Context) (assetID string, ok bool, err error)
	Write(ctx context.Context, assetID string) error
}
