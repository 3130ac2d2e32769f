package service

import (
	"context"

	"goes-decal-sync/models"
)

// AssetPublisherInterface defines the contract for publishing textures on the platform
type AssetPublisherInterface interface {
	PublishNew(ctx context.Context, payload *models.ImagePayload) (string, error)
	// TryOverwrite returns ok=false when the platform refuses the overwrite; err is only set
	// for failures that must not fall back to PublishNew.
	TryOverwrite(ctx context.Context, targetAssetID string, payload *models.ImagePayload) (assetID string, ok bool, err error)
	DeleteAsset(ctx context.Context, assetID string) error
}
