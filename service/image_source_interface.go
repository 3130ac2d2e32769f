package service

import "context"

// ImageSource defines the contract for acquiring the raw satellite image
type ImageSource interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}
