package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"k8s.io/utils/ptr"
)

// collector accepts OTLP/HTTP exports and remembers which signals arrived
type collector struct {
	mu    sync.Mutex
	paths map[string]int
}

func newCollector(t *testing.T) (*collector, string) {
	t.Helper()

	c := &collector{paths: map[string]int{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.paths[r.URL.Path]++
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return c, strings.TrimPrefix(server.URL, "http://")
}

func (c *collector) received(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths[path]
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "no configuration"},
		{name: "nil configuration", opts: []Option{WithConfig(nil)}},
		{
			name: "telemetry switched off",
			opts: []Option{WithConfig(func() *Config {
				cfg := parseConfig(t, consoleTelemetry)
				cfg.Enabled = false
				return cfg
			}())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tel, err := New(context.Background(), tt.opts...)
			require.NoError(t, err)

			_, isNoop := tel.tracerProvider.(noop.TracerProvider)
			assert.True(t, isNoop)
			assert.NotNil(t, tel.Tracer("keyconsole/test"))
			handler, address := tel.MetricsHandler()
			assert.Nil(t, handler)
			assert.Empty(t, address)

			metrics, err := NewConsoleMetrics(tel.MeterProvider())
			require.NoError(t, err)
			metrics.RecordKeys(context.Background(), 2, 1)

			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := parseConfig(t, consoleTelemetry)
	cfg.Endpoint = "https://collector:4318"

	tel, err := New(context.Background(), WithConfig(cfg))
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNew_ConsoleSession(t *testing.T) {
	t.Parallel()

	otlp, endpoint := newCollector(t)
	cfg := parseConfig(t, consoleTelemetry)
	cfg.Endpoint = endpoint
	cfg.Tracing.Sampling = ptr.To(1.0)
	cfg.Metrics.PrometheusAddress = "127.0.0.1:0"

	ctx := context.Background()
	tel, err := New(ctx, WithConfig(cfg), WithBackendEndpoint("http://localhost:3016"))
	require.NoError(t, err)

	_, isSDK := tel.tracerProvider.(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	_, isSDK = tel.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, isSDK)

	_, span := tel.Tracer("keyconsole/test").Start(ctx, "remote.ListKeys")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	metrics, err := NewConsoleMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordKeys(ctx, 3, 1)

	handler, address := tel.MetricsHandler()
	require.NotNil(t, handler)
	assert.Equal(t, "127.0.0.1:0", address)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "keyconsole_keys")
	assert.Contains(t, rec.Body.String(), `service_name="keyconsole"`)

	require.NoError(t, tel.Shutdown(ctx))
	assert.Equal(t, 1, otlp.received("/v1/traces"))
	assert.GreaterOrEqual(t, otlp.received("/v1/metrics"), 1)

	// a second shutdown has nothing left to flush
	assert.NoError(t, tel.Shutdown(ctx))
	assert.Equal(t, 1, otlp.received("/v1/traces"))
}

func TestNew_TracingOnly(t *testing.T) {
	t.Parallel()

	_, endpoint := newCollector(t)
	cfg := parseConfig(t, consoleTelemetry)
	cfg.Endpoint = endpoint
	cfg.Metrics.Enabled = false

	tel, err := New(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	_, isSDK := tel.tracerProvider.(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	handler, _ := tel.MetricsHandler()
	assert.Nil(t, handler, "no scrape endpoint without metrics")
	assert.Len(t, tel.shutdowns, 1)
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	cfg := parseConfig(t, consoleTelemetry)
	cfg.ServiceVersion = "2.1.0"

	res, err := newResource(context.Background(), cfg, "http://localhost:3016")
	require.NoError(t, err)

	attrs := res.Set()
	name, ok := attrs.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "keyconsole", name.AsString())

	version, ok := attrs.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "2.1.0", version.AsString())

	backend, ok := attrs.Value(AttrBackendEndpoint)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:3016", backend.AsString())

	instance, ok := attrs.Value(semconv.ServiceInstanceIDKey)
	require.True(t, ok)
	_, err = uuid.Parse(instance.AsString())
	assert.NoError(t, err)

	// every session is told apart
	other, err := newResource(context.Background(), cfg, "")
	require.NoError(t, err)
	otherInstance, _ := other.Set().Value(semconv.ServiceInstanceIDKey)
	assert.NotEqual(t, instance.AsString(), otherInstance.AsString())
	_, ok = other.Set().Value(AttrBackendEndpoint)
	assert.False(t, ok)
}
