package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrIndexerUnavailable = errors.New("indexing service unavailable")

type HTTPIndexerConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// HTTPIndexer calls the external indexing service over REST. Index requests
// carry the job id so the service can deduplicate re-deliveries.
type HTTPIndexer struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func NewHTTPIndexer(config HTTPIndexerConfig) *HTTPIndexer {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &HTTPIndexer{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(config.BaseURL), "/"),
		apiKey:     strings.TrimSpace(config.APIKey),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		httpClient: config.HTTPClient,
	}
}

func (c *HTTPIndexer) Available() bool {
	return c.baseURL != ""
}

func (c *HTTPIndexer) Index(ctx context.Context, request IndexRequest) error {
	if !c.Available() {
		return ErrIndexerUnavailable
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal index payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		callErr := c.call(ctx, http.MethodPost, "/v1/index", payload)
		if callErr == nil {
			return nil
		}
		lastErr = callErr

		if !isRetryable(callErr) || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(350*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func (c *HTTPIndexer) DeleteProjectFragments(ctx context.Context, projectID string) error {
	if !c.Available() {
		return ErrIndexerUnavailable
	}
	return c.call(ctx, http.MethodDelete, "/v1/projects/"+projectID+"/fragments", nil)
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("indexing service returned %d: %s", e.status, e.body)
}

func (c *HTTPIndexer) call(ctx context.Context, method, path string, payload []byte) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpRequest, err := http.NewRequestWithContext(timeoutCtx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create indexer request: %w", err)
	}
	if payload != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	httpRequest.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("call indexing service: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, 2048))
	return &statusError{status: response.StatusCode, body: strings.TrimSpace(string(raw))}
}

func isRetryable(err error) bool {
	var status *statusError
	if errors.As(err, &status) {
		return status.status == http.StatusTooManyRequests || status.status >= 500
	}
	// Transport-level failures are worth another attempt.
	return !errors.Is(err, context.Canceled)
}
