// Package httpclient provides the HTTP transport used to talk to the key backend
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of extra attempts made for failed GET requests
	DefaultRetries = 2

	// MaxResponseSize is the maximum allowed response size (16MB)
	MaxResponseSize = 16 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "keyconsole/1.0"

	// RequestIDHeader carries a per-request identifier for correlating backend logs
	RequestIDHeader = "X-Request-ID"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body.
	// Transport failures and 5xx responses are retried.
	Get(ctx context.Context, url string) ([]byte, error)

	// Post sends body encoded as JSON and returns the response body. A nil body sends no payload.
	Post(ctx context.Context, url string, body any) ([]byte, error)

	// Delete performs an HTTP DELETE request and returns the response body
	Delete(ctx context.Context, url string) ([]byte, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client        *http.Client
	timeout       time.Duration
	retries       uint
	retryInterval time.Duration
	propagator    propagation.TextMapPropagator
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithRetries sets how many times a failed GET is retried. Zero disables retries.
func WithRetries(n uint) Option {
	return func(c *DefaultClient) {
		c.retries = n
	}
}

// WithRetryInterval sets the initial backoff between GET retries
func WithRetryInterval(d time.Duration) Option {
	return func(c *DefaultClient) {
		c.retryInterval = d
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// WithPropagator sets how the span in a request's context is written into its
// headers. By default the global propagator is used.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *DefaultClient) {
		c.propagator = p
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout:       timeout,
		retries:       DefaultRetries,
		retryInterval: backoff.DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	return backoff.Retry(ctx, func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, url, nil)
		if err == nil {
			return body, nil
		}
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		slog.Debug("Retrying request", "method", http.MethodGet, "url", url, "error", err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.retries+1))
}

// Post performs an HTTP POST request with a JSON body
func (c *DefaultClient) Post(ctx context.Context, url string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}
	return c.do(ctx, http.MethodPost, url, payload)
}

// Delete performs an HTTP DELETE request
func (c *DefaultClient) Delete(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *DefaultClient) textMapPropagator() propagation.TextMapPropagator {
	if c.propagator != nil {
		return c.propagator
	}
	return otel.GetTextMapPropagator()
}

func (c *DefaultClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.textMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	// Execute request
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Check Content-Length header if available
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// Read response body with size limit
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1) // +1 to detect if limit exceeded
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPError(resp.StatusCode, url, errorMessage(resp, body))
	}

	return body, nil
}

// errorMessage prefers the backend's {"error": "..."} payload over the status line
func errorMessage(resp *http.Response, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return resp.Status
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
