package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"goes-decal-sync/models"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveService handles Google Drive API operations
// Implements DriveServiceInterface
type DriveService struct {
	client *drive.Service
}

// Ensure DriveService implements DriveServiceInterface
var _ DriveServiceInterface = (*DriveService)(nil)

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string) (*DriveService, error) {
	driveService, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
	}, nil
}

// UploadImage stores payload as a new file named name inside folderID and returns the Drive file id
func (ds *DriveService) UploadImage(ctx context.Context, folderID, name string, payload *models.ImagePayload) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: payload.MIMEType,
		Parents:  []string{folderID},
	}

	created, err := ds.client.Files.Create(file).
		Media(bytes.NewReader(payload.Data)).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to drive: %w", name, err)
	}

	log.Printf("📁 Archived %s to Drive (file id %s)", created.Name, created.Id)
	return created.Id, nil
}
