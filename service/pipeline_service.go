package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"goes-decal-sync/models"
	"goes-decal-sync/utils"
)

const (
	StrategyOverwrite = "overwrite"
	StrategyCreate    = "create"
)

// RunResult summarizes a finished run
type RunResult struct {
	AssetID    string
	PreviousID string
	Strategy   string
	Rotation   RotationResult
}

// PipelineService sequences acquisition, transform, publish and rotation
// Implements PipelineServiceInterface
type PipelineService struct {
	source        ImageSource
	transformer   TextureTransformerInterface
	publisher     AssetPublisherInterface
	ledger        *RotationLedger
	targetAssetID string

	archive         DriveServiceInterface
	archiveFolderID string
	now             func() time.Time
}

// Ensure PipelineService implements PipelineServiceInterface
var _ PipelineServiceInterface = (*PipelineService)(nil)

// NewPipelineService creates a new PipelineService. targetAssetID may be empty to always create.
func NewPipelineService(
	source ImageSource,
	transformer TextureTransformerInterface,
	publisher AssetPublisherInterface,
	ledger *RotationLedger,
	targetAssetID string,
) *PipelineService {
	return &PipelineService{
		source:        source,
		transformer:   transformer,
		publisher:     publisher,
		ledger:        ledger,
		targetAssetID: targetAssetID,
		now:           time.Now,
	}
}

// WithArchive enables the best-effort Drive archive of every published texture
func (s *PipelineService) WithArchive(archive DriveServiceInterface, folderID string) *PipelineService {
	s.archive = archive
	s.archiveFolderID = folderID
	return s
}

// Run executes one pipeline pass. The ledger is only touched after the new asset is confirmed.
func (s *PipelineService) Run(ctx context.Context) (*RunResult, error) {
	log.Printf("🚀 Starting GOES-19 -> Decal run")

	previousID, hasPrevious, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if hasPrevious {
		log.Printf("💾 Previous asset id: %s", previousID)
	}

	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire image: %w", err)
	}

	payload, err := s.transformer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transform image: %w", err)
	}

	result := &RunResult{PreviousID: previousID}

	if s.targetAssetID != "" {
		assetID, ok, err := s.publisher.TryOverwrite(ctx, s.targetAssetID, payload)
		if err != nil {
			return nil, err
		}
		if ok {
			result.AssetID = assetID
			result.Strategy = StrategyOverwrite
		} else {
			log.Printf("♻️  Falling back to creating a new decal")
		}
	}

	if result.AssetID == "" {
		assetID, err := s.publisher.PublishNew(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to publish decal: %w", err)
		}
		result.AssetID = assetID
		result.Strategy = StrategyCreate
	}

	log.Printf("✅ Asset %s is live (%s)", result.AssetID, result.Strategy)

	rotation, err := s.ledger.Commit(ctx, previousID, result.AssetID)
	if err != nil {
		return nil, err
	}
	result.Rotation = rotation

	s.archiveTexture(ctx, result.AssetID, payload)

	log.Printf("🎉 Run finished: asset %s", result.AssetID)
	return result, nil
}

// archiveTexture uploads the texture to Drive. Failures are logged only.
func (s *PipelineService) archiveTexture(ctx context.Context, assetID string, payload *models.ImagePayload) {
	if s.archive == nil || s.archiveFolderID == "" {
		return
	}
	name := fmt.Sprintf("%s_%s.png", utils.DisplayName(displayNamePrefix, s.now()), assetID)
	if _, err := s.archive.UploadImage(ctx, s.archiveFolderID, name, payload); err != nil {
		log.Printf("⚠️  Drive archive failed (ignored): %v", err)
	}
}
