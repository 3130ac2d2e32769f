package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"goes-decal-sync/config"
	"goes-decal-sync/models"
	"goes-decal-sync/utils"
)

const (
	displayNamePrefix    = "GOES19"
	overwriteNamePrefix  = "GOES19_UPDATED"
	createDescription    = "Imagem GOES-19 (automática) recortada em círculo"
	overwriteDescription = "Atualização automática GOES-19 (overwrite)"
)

// AssetPublisher uploads textures as decals and resolves the resulting asset id
// Implements AssetPublisherInterface
type AssetPublisher struct {
	client HTTPExecutor
	cfg    *config.Config
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Ensure AssetPublisher implements AssetPublisherInterface
var _ AssetPublisherInterface = (*AssetPublisher)(nil)

// NewAssetPublisher creates a new AssetPublisher
func NewAssetPublisher(client HTTPExecutor, cfg *config.Config) *AssetPublisher {
	return &AssetPublisher{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// PublishNew creates a new decal for the configured creator and returns its confirmed asset id
func (p *AssetPublisher) PublishNew(ctx context.Context, payload *models.ImagePayload) (string, error) {
	req := models.PublishRequest{
		AssetType:   models.AssetTypeDecal,
		DisplayName: utils.DisplayName(displayNamePrefix, p.now()),
		Description: createDescription,
		CreationContext: &models.CreationContext{
			Creator: p.cfg.Creator,
		},
	}

	log.Printf("☁️  Uploading new decal %s", req.DisplayName)

	resp, err := p.send(ctx, http.MethodPost, p.cfg.AssetsURL, req, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create asset: %w", err)
	}

	log.Printf("☁️  Upload accepted (status %d)", resp.StatusCode)
	return p.resolve(ctx, resp.Body, "")
}

// TryOverwrite attempts an in-place update of targetAssetID.
// A refused or unreachable overwrite is reported as ok=false so the caller can fall back.
func (p *AssetPublisher) TryOverwrite(ctx context.Context, targetAssetID string, payload *models.ImagePayload) (string, bool, error) {
	req := models.PublishRequest{
		AssetType:   models.AssetTypeDecal,
		DisplayName: utils.DisplayName(overwriteNamePrefix, p.now()),
		Description: overwriteDescription,
	}

	log.Printf("♻️  Trying to overwrite decal %s", targetAssetID)

	resp, err := p.send(ctx, http.MethodPatch, p.cfg.AssetsURL+"/"+targetAssetID, req, payload)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, err
		}
		if IsStatusFailure(err) {
			log.Printf("♻️  Overwrite not available for %s: %v", targetAssetID, err)
		} else {
			log.Printf("⚠️  Overwrite of %s failed on transport: %v", targetAssetID, err)
		}
		return "", false, nil
	}

	log.Printf("♻️  Overwrite accepted (status %d)", resp.StatusCode)
	id, err := p.resolve(ctx, resp.Body, targetAssetID)
	if err != nil {
		return "", false, fmt.Errorf("overwrite of %s: %w", targetAssetID, err)
	}
	return id, true, nil
}

// DeleteAsset requests deletion of assetID with the reduced delete retry budget
func (p *AssetPublisher) DeleteAsset(ctx context.Context, assetID string) error {
	_, err := p.client.Execute(ctx, HTTPRequest{
		Method:      http.MethodDelete,
		URL:         p.cfg.AssetsURL + "/" + assetID,
		Header:      p.headers(),
		Timeout:     p.cfg.RequestTimeout,
		MaxAttempts: p.cfg.DeleteMaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", assetID, err)
	}
	return nil
}

// ValidateAssetID confirms that the metadata endpoint knows assetID under assets/<assetID>
func (p *AssetPublisher) ValidateAssetID(ctx context.Context, assetID string) (bool, error) {
	resp, err := p.client.Execute(ctx, HTTPRequest{
		Method:  http.MethodGet,
		URL:     p.cfg.AssetsURL + "/" + assetID,
		Header:  p.headers(),
		Timeout: p.cfg.RequestTimeout,
	})
	if err != nil {
		return false, fmt.Errorf("failed to fetch asset metadata for %s: %w", assetID, err)
	}

	var meta models.AssetMetadata
	if err := json.Unmarshal(resp.Body, &meta); err != nil {
		return false, fmt.Errorf("failed to decode asset metadata for %s: %w", assetID, err)
	}
	return utils.PathMatchesAsset(meta.Path, assetID), nil
}

// validate is ValidateAssetID folded to a boolean for the polling loop
func (p *AssetPublisher) validate(ctx context.Context, assetID string) bool {
	ok, err := p.ValidateAssetID(ctx, assetID)
	if err != nil {
		log.Printf("🔍 Asset %s not confirmed yet: %v", assetID, err)
		return false
	}
	if !ok {
		log.Printf("🔍 Asset %s metadata path does not match", assetID)
		return false
	}
	log.Printf("🔍 Asset %s confirmed", assetID)
	return true
}

// resolve turns a create/overwrite response into a confirmed asset id.
// implicitID is used when the response carries neither an id nor an operation.
func (p *AssetPublisher) resolve(ctx context.Context, body []byte, implicitID string) (string, error) {
	obj := utils.DecodeObject(body)
	assetID, hasID := utils.ExtractAssetIDFromObject(obj)
	operationID, hasOperation := utils.ExtractOperationID(obj)

	log.Printf("☁️  Response: assetId=%q operationId=%q", assetID, operationID)

	if hasID && p.validate(ctx, assetID) {
		return assetID, nil
	}
	if hasOperation {
		return p.poller(operationID).run(ctx)
	}
	if !hasID && implicitID != "" {
		assetID, hasID = implicitID, true
	}
	if hasID {
		return p.poller("").awaitAsset(ctx, assetID)
	}
	return "", ErrUploadRejected
}

func (p *AssetPublisher) poller(operationID string) *operationPoller {
	return &operationPoller{
		operationID: operationID,
		interval:    p.cfg.PollInterval,
		timeout:     p.cfg.OperationTimeout,
		fetch: func(ctx context.Context) ([]byte, error) {
			resp, err := p.client.Execute(ctx, HTTPRequest{
				Method:  http.MethodGet,
				URL:     p.cfg.OperationsURL + "/" + operationID,
				Header:  p.headers(),
				Timeout: p.cfg.RequestTimeout,
			})
			if err != nil {
				return nil, err
			}
			return resp.Body, nil
		},
		validate: p.validate,
		now:      p.now,
		sleep:    p.sleep,
	}
}

func (p *AssetPublisher) send(ctx context.Context, method, url string, req models.PublishRequest, payload *models.ImagePayload) (*HTTPResponse, error) {
	body, contentType, err := buildMultipart(req, payload)
	if err != nil {
		return nil, err
	}
	header := p.headers()
	header.Set("Content-Type", contentType)

	return p.client.Execute(ctx, HTTPRequest{
		Method:  method,
		URL:     url,
		Header:  header,
		Body:    body,
		Timeout: p.cfg.RequestTimeout,
	})
}

func (p *AssetPublisher) headers() http.Header {
	h := http.Header{}
	h.Set("x-api-key", p.cfg.APIKey)
	return h
}

// buildMultipart encodes the JSON "request" part and the binary "fileContent" part
func buildMultipart(req models.PublishRequest, payload *models.ImagePayload) ([]byte, string, error) {
	if payload == nil || len(payload.Data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}

	requestJSON, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode publish request: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	requestHeader := textproto.MIMEHeader{}
	requestHeader.Set("Content-Disposition", `form-data; name="request"`)
	requestHeader.Set("Content-Type", "application/json")
	part, err := w.CreatePart(requestHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request part: %w", err)
	}
	if _, err := part.Write(requestJSON); err != nil {
		return nil, "", fmt.Errorf("failed to write request part: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="fileContent"; filename=%q`, payload.Filename))
	fileHeader.Set("Content-Type", payload.MIMEType)
	part, err = w.CreatePart(fileHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
