package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// newTracerProvider exports backend request spans over OTLP/HTTP. It returns
// a no-op provider and a nil shutdown when tracing is off.
func newTracerProvider(
	ctx context.Context,
	cfg *Config,
	res *resource.Resource,
) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.tracingEnabled() {
		slog.DebugContext(ctx, "Tracing disabled")
		return noop.NewTracerProvider(), nil, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.endpoint())}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// a console request is always a root span, so the ratio decides alone
	sampling := cfg.Tracing.sampling()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)

	// outgoing backend requests carry traceparent through httpclient
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.InfoContext(ctx, "Tracing enabled",
		"endpoint", cfg.endpoint(),
		"sampling", sampling,
		"insecure", cfg.Insecure,
	)
	return tp, tp.Shutdown, nil
}
