package models

// AssetTypeDecal is the only asset kind the pipeline publishes
const AssetTypeDecal = "Decal"

// ImagePayload represents the processed texture produced once per run
type ImagePayload struct {
	Data     []byte
	MIMEType string
	Filename string
}

// PublishRequest is the JSON "request" part of a create or overwrite call
type PublishRequest struct {
	AssetType       string           `json:"assetType"`
	DisplayName     string           `json:"displayName"`
	Description     string           `json:"description"`
	CreationContext *CreationContext `json:"creationContext,omitempty"`
}

// CreationContext wraps the creator for create requests. Overwrites omit it.
type CreationContext struct {
	Creator Creator `json:"creator"`
}

// AssetMetadata represents the fields read from the asset metadata endpoint
type AssetMetadata struct {
	Path string `json:"path"`
}
