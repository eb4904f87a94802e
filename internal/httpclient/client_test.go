package httpclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowsilicon/keyconsole/internal/httpclient"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func newClient(opts ...httpclient.Option) httpclient.Client {
	opts = append([]httpclient.Option{httpclient.WithRetryInterval(time.Millisecond)}, opts...)
	return httpclient.NewDefaultClient(5*time.Second, opts...)
}

func TestNewDefaultClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{
			name:    "create client with custom timeout",
			timeout: 5 * time.Second,
		},
		{
			name:    "create client with zero timeout uses default",
			timeout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := httpclient.NewDefaultClient(tt.timeout)

			require.NotNil(t, client, "client should not be nil")
		})
	}
}

func TestDefaultClient_Headers(t *testing.T) {
	t.Parallel()

	var (
		userAgent   string
		accept      string
		contentType string
		requestID   string
	)
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get(httpclient.RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newClient().Post(context.Background(), server.URL, map[string]string{"key": "v"})
	require.NoError(t, err)

	assert.Equal(t, httpclient.UserAgent, userAgent)
	assert.Equal(t, "application/json", accept)
	assert.Equal(t, "application/json", contentType)
	_, err = uuid.Parse(requestID)
	assert.NoError(t, err, "request id should be a UUID")
}

func TestDefaultClient_TraceContext(t *testing.T) {
	t.Parallel()

	var traceparent atomic.Value
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("Traceparent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(time.Second, httpclient.WithPropagator(propagation.TraceContext{}))

	t.Run("span in context", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))

		_, err := client.Get(ctx, server.URL)
		require.NoError(t, err)
		assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", traceparent.Load())
	})

	t.Run("no span", func(t *testing.T) {
		_, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Empty(t, traceparent.Load())
	})
}

func TestDefaultClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		call       func(c httpclient.Client, url string) ([]byte, error)
		wantMethod string
		wantBody   string
	}{
		{
			name: "get",
			call: func(c httpclient.Client, url string) ([]byte, error) {
				return c.Get(context.Background(), url)
			},
			wantMethod: http.MethodGet,
		},
		{
			name: "post with body",
			call: func(c httpclient.Client, url string) ([]byte, error) {
				return c.Post(context.Background(), url, map[string]any{"key": "abc", "balance": 1.5})
			},
			wantMethod: http.MethodPost,
			wantBody:   `{"balance":1.5,"key":"abc"}`,
		},
		{
			name: "post without body",
			call: func(c httpclient.Client, url string) ([]byte, error) {
				return c.Post(context.Background(), url, nil)
			},
			wantMethod: http.MethodPost,
		},
		{
			name: "delete",
			call: func(c httpclient.Client, url string) ([]byte, error) {
				return c.Delete(context.Background(), url)
			},
			wantMethod: http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotMethod, gotBody string
			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				data, _ := io.ReadAll(r.Body)
				gotBody = string(data)
				_, _ = w.Write([]byte(`{"message":"ok"}`))
			}))
			defer server.Close()

			data, err := tt.call(newClient(), server.URL)
			require.NoError(t, err)
			assert.JSONEq(t, `{"message":"ok"}`, string(data))
			assert.Equal(t, tt.wantMethod, gotMethod)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, gotBody)
			} else {
				assert.Empty(t, gotBody)
			}
		})
	}
}

func TestDefaultClient_HTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		responseBody  string
		errorContains string
	}{
		{
			name:          "backend error payload",
			statusCode:    http.StatusBadRequest,
			responseBody:  `{"error":"key already exists"}`,
			errorContains: "HTTP 400 for URL",
		},
		{
			name:          "plain text body",
			statusCode:    http.StatusNotFound,
			responseBody:  "Not Found",
			errorContains: "Not Found",
		},
		{
			name:          "empty body falls back to status",
			statusCode:    http.StatusConflict,
			errorContains: "409 Conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			_, err := newClient().Delete(context.Background(), server.URL)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Equal(t, tt.statusCode, httpclient.StatusCode(err))

			var httpErr *httpclient.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, server.URL, httpErr.URL)
		})
	}
}

func TestDefaultClient_BackendErrorMessage(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "negative balance"})
	}))
	defer server.Close()

	_, err := newClient().Post(context.Background(), server.URL, nil)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "negative balance", httpErr.Message)
}

func TestDefaultClient_Get_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		failures     int32
		failStatus   int
		retries      uint
		wantErr      bool
		wantAttempts int32
	}{
		{
			name:         "recovers after server errors",
			failures:     2,
			failStatus:   http.StatusBadGateway,
			retries:      2,
			wantAttempts: 3,
		},
		{
			name:         "gives up after retries",
			failures:     10,
			failStatus:   http.StatusServiceUnavailable,
			retries:      1,
			wantErr:      true,
			wantAttempts: 2,
		},
		{
			name:         "client errors are not retried",
			failures:     10,
			failStatus:   http.StatusNotFound,
			retries:      3,
			wantErr:      true,
			wantAttempts: 1,
		},
		{
			name:         "retries disabled",
			failures:     10,
			failStatus:   http.StatusInternalServerError,
			retries:      0,
			wantErr:      true,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if attempts.Add(1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				_, _ = w.Write([]byte("ok"))
			}))
			defer server.Close()

			data, err := newClient(httpclient.WithRetries(tt.retries)).Get(context.Background(), server.URL)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.failStatus, httpclient.StatusCode(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, []byte("ok"), data)
			}
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestDefaultClient_PostIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newClient(httpclient.WithRetries(3)).Post(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDefaultClient_NetworkErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		url           string
		errorContains string
	}{
		{
			name:          "invalid URL scheme",
			url:           "://invalid-url",
			errorContains: "failed to create request",
		},
		{
			name:          "invalid URL format",
			url:           "not-a-valid-url",
			errorContains: "failed to execute request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newClient(httpclient.WithRetries(0)).Get(context.Background(), tt.url)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestDefaultClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newClient(httpclient.WithRetries(5)).Get(ctx, server.URL)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "cancelled requests should not be retried")
}

func TestDefaultClient_SizeLimitExceeded(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", httpclient.MaxResponseSize+1))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newClient(httpclient.WithRetries(0)).Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum allowed size")
}
