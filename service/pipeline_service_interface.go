package service

import (
	"context"

	"goes-decal-sync/models"
)

// TextureTransformerInterface defines the contract for turning raw image bytes into a texture payload
type TextureTransformerInterface interface {
	Transform(imageData []byte) (*models.ImagePayload, error)
}

// PipelineServiceInterface defines the contract for one acquisition-to-rotation run
type PipelineServiceInterface interface {
	Run(ctx context.Context) (*RunResult, error)
}
