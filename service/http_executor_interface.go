package service

import "context"

// HTTPExecutor defines the contract for the retrying HTTP layer
type HTTPExecutor interface {
	Execute(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}
