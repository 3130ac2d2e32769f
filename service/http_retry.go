package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 120 * time.Second
	maxErrorBodyLength    = 512
)

// HTTPRequest describes one logical call. Body is replayed on every attempt.
type HTTPRequest struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	Timeout     time.Duration
	MaxAttempts int
}

// HTTPResponse is a fully read response
type HTTPResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RetryClient executes calls with bounded attempts and linear backoff.
// It keeps no state between calls.
// Implements HTTPExecutor
type RetryClient struct {
	httpClient  *http.Client
	backoff     time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// Ensure RetryClient implements HTTPExecutor
var _ HTTPExecutor = (*RetryClient)(nil)

// NewRetryClient creates a RetryClient. maxAttempts is used when a request does not set its own.
func NewRetryClient(httpClient *http.Client, backoff time.Duration, maxAttempts int) *RetryClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &RetryClient{
		httpClient:  httpClient,
		backoff:     backoff,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
}

// Execute performs req, retrying transport errors and statuses >= 400.
// After attempt n fails it waits backoff*n. When every attempt fails a single *RetryError
// carrying the last cause is returned.
func (c *RetryClient) Execute(ctx context.Context, req HTTPRequest) (*HTTPResponse, error) {
	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = c.maxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.do(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Printf("⚠️  Request failed (attempt %d/%d) %s %s: %v", attempt, attempts, req.Method, req.URL, err)

		if ctx.Err() != nil {
			return nil, &RetryError{Method: req.Method, URL: req.URL, Attempts: attempt, Err: lastErr}
		}
		if attempt < attempts {
			if err := c.sleep(ctx, c.backoff*time.Duration(attempt)); err != nil {
				return nil, &RetryError{Method: req.Method, URL: req.URL, Attempts: attempt, Err: lastErr}
			}
		}
	}

	return nil, &RetryError{Method: req.Method, URL: req.URL, Attempts: attempts, Err: lastErr}
}

func (c *RetryClient) do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		snippet := string(data)
		if len(snippet) > maxErrorBodyLength {
			snippet = snippet[:maxErrorBodyLength]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
