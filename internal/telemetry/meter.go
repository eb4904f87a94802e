package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// exportInterval matches the slowest refresh cadence so every key refresh
// lands in its own export
const exportInterval = 30 * time.Second

// newMeterProvider pushes the console instruments over OTLP/HTTP and, when
// registry is non-nil, also exposes them for scraping. It returns a no-op
// provider and a nil shutdown when metrics are off.
func newMeterProvider(
	ctx context.Context,
	cfg *Config,
	res *resource.Resource,
	registry prometheus.Registerer,
) (metric.MeterProvider, func(context.Context) error, error) {
	if !cfg.metricsEnabled() {
		slog.DebugContext(ctx, "Metrics disabled")
		return noop.NewMeterProvider(), nil, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.endpoint())}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	readers := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	}
	if registry != nil {
		scrape, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create prometheus reader: %w", err)
		}
		readers = append(readers, sdkmetric.WithReader(scrape))
	}

	mp := sdkmetric.NewMeterProvider(readers...)
	otel.SetMeterProvider(mp)

	slog.InfoContext(ctx, "Metrics enabled",
		"endpoint", cfg.endpoint(),
		"insecure", cfg.Insecure,
		"scrape", registry != nil,
	)
	return mp, mp.Shutdown, nil
}
