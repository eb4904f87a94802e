package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// AttrBackendEndpoint names the key service a console session talks to
const AttrBackendEndpoint = attribute.Key("keyconsole.backend.endpoint")

// Telemetry owns the providers of one console session
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
	metricsAddress string
	shutdowns      []func(context.Context) error
}

// Option configures New
type Option func(*options)

type options struct {
	config  *Config
	backend string
}

// WithConfig sets the telemetry section of the console configuration
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithBackendEndpoint records the backend URL on the session resource
func WithBackendEndpoint(endpoint string) Option {
	return func(o *options) {
		o.backend = endpoint
	}
}

// New sets up tracing and metrics for a console session. Without an enabled
// configuration both providers are no-ops and Shutdown does nothing.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	t := &Telemetry{}
	if !cfg.Enabled {
		slog.DebugContext(ctx, "Telemetry disabled")
		t.tracerProvider, _, _ = newTracerProvider(ctx, cfg, nil)
		t.meterProvider, _, _ = newMeterProvider(ctx, cfg, nil, nil)
		return t, nil
	}

	res, err := newResource(ctx, cfg, o.backend)
	if err != nil {
		return nil, err
	}

	tp, stopTracing, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	t.tracerProvider = tp
	t.track(stopTracing)

	var registry *prometheus.Registry
	if addr := cfg.prometheusAddress(); addr != "" {
		registry = prometheus.NewRegistry()
		t.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		t.metricsAddress = addr
	}

	var registerer prometheus.Registerer
	if registry != nil {
		registerer = registry
	}
	mp, stopMetrics, err := newMeterProvider(ctx, cfg, res, registerer)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}
	t.meterProvider = mp
	t.track(stopMetrics)

	slog.InfoContext(ctx, "Telemetry initialized",
		"service_name", cfg.serviceName(),
		"service_version", cfg.serviceVersion(),
	)
	return t, nil
}

// newResource describes one console session. Each session gets its own
// instance id so concurrent consoles against the same backend stay apart.
func newResource(ctx context.Context, cfg *Config, backend string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.serviceName()),
		semconv.ServiceVersion(cfg.serviceVersion()),
		semconv.ServiceInstanceID(uuid.NewString()),
	}
	if backend != "" {
		attrs = append(attrs, AttrBackendEndpoint.String(backend))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func (t *Telemetry) track(shutdown func(context.Context) error) {
	if shutdown != nil {
		t.shutdowns = append(t.shutdowns, shutdown)
	}
}

// Tracer returns a named tracer for backend request spans
func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.tracerProvider.Tracer(name)
}

// MeterProvider is handed to NewConsoleMetrics
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the scrape handler and the address it should be
// served on. The handler is nil when no scrape address is configured.
func (t *Telemetry) MetricsHandler() (http.Handler, string) {
	return t.metricsHandler, t.metricsAddress
}

// Shutdown flushes pending spans and metrics. Calling it again does nothing.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	shutdowns := t.shutdowns
	t.shutdowns = nil
	if len(shutdowns) == 0 {
		return nil
	}

	var errs []error
	for _, shutdown := range shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shutdown telemetry: %w", err)
	}
	slog.DebugContext(ctx, "Telemetry flushed")
	return nil
}
