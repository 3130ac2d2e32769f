package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// HTTPImageSource downloads the image with a plain GET through the retry layer
// Implements ImageSource
type HTTPImageSource struct {
	client      HTTPExecutor
	url         string
	timeout     time.Duration
	maxAttempts int
}

// Ensure HTTPImageSource implements ImageSource
var _ ImageSource = (*HTTPImageSource)(nil)

// NewHTTPImageSource creates a new HTTPImageSource
func NewHTTPImageSource(client HTTPExecutor, url string, timeout time.Duration, maxAttempts int) *HTTPImageSource {
	return &HTTPImageSource{
		client:      client,
		url:         url,
		timeout:     timeout,
		maxAttempts: maxAttempts,
	}
}

func (s *HTTPImageSource) Name() string { return s.url }

// Fetch downloads the image bytes
func (s *HTTPImageSource) Fetch(ctx context.Context) ([]byte, error) {
	log.Printf("📡 Downloading image from %s", s.url)

	resp, err := s.client.Execute(ctx, HTTPRequest{
		Method:      http.MethodGet,
		URL:         s.url,
		Timeout:     s.timeout,
		MaxAttempts: s.maxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("failed to download image: empty body from %s", s.url)
	}

	log.Printf("✓ Downloaded %d bytes", len(resp.Body))
	return resp.Body, nil
}

// FallbackImageSource tries each source in order and returns the first success
// Implements ImageSource
type FallbackImageSource struct {
	sources []ImageSource
}

// Ensure FallbackImageSource implements ImageSource
var _ ImageSource = (*FallbackImageSource)(nil)

// NewFallbackImageSource creates a FallbackImageSource, skipping nil sources
func NewFallbackImageSource(sources ...ImageSource) *FallbackImageSource {
	var kept []ImageSource
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &FallbackImageSource{sources: kept}
}

func (s *FallbackImageSource) Name() string { return "fallback" }

// Fetch returns the first source that succeeds, or all failures joined
func (s *FallbackImageSource) Fetch(ctx context.Context) ([]byte, error) {
	if len(s.sources) == 0 {
		return nil, errors.New("no image sources configured")
	}

	var errs []error
	for i, source := range s.sources {
		data, err := source.Fetch(ctx)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
		if ctx.Err() != nil {
			break
		}
		if i < len(s.sources)-1 {
			log.Printf("⚠️  Image source %s failed, trying fallback: %v", source.Name(), err)
		}
	}
	return nil, errors.Join(errs...)
}
