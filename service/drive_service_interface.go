package service

import (
	"context"

	"goes-decal-sync/models"
)

// DriveServiceInterface defines the contract for archiving published textures to Google Drive
type DriveServiceInterface interface {
	UploadImage(ctx context.Context, folderID, name string, payload *models.ImagePayload) (string, error)
}
