package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConsoleMetricsMeterName is the name used for the console metrics meter
const ConsoleMetricsMeterName = "github.com/flowsilicon/keyconsole/console"

// ConsoleMetrics holds the OpenTelemetry instruments for the key console.
// A nil *ConsoleMetrics is valid and records nothing.
type ConsoleMetrics struct {
	refreshDuration metric.Float64Histogram
	mutations       metric.Int64Counter
	staleResponses  metric.Int64Counter
	keysTotal       metric.Int64Gauge
}

// NewConsoleMetrics creates a new ConsoleMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewConsoleMetrics(provider metric.MeterProvider) (*ConsoleMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ConsoleMetricsMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"keyconsole_refresh_duration_seconds",
		metric.WithDescription("Duration of backend refreshes per cadence in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	mutations, err := meter.Int64Counter(
		"keyconsole_mutations_total",
		metric.WithDescription("Number of key mutations issued"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	staleResponses, err := meter.Int64Counter(
		"keyconsole_stale_responses_total",
		metric.WithDescription("Number of refresh responses discarded because a newer one was applied"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	keysTotal, err := meter.Int64Gauge(
		"keyconsole_keys_total",
		metric.WithDescription("Number of keys in the local cache by state"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	return &ConsoleMetrics{
		refreshDuration: refreshDuration,
		mutations:       mutations,
		staleResponses:  staleResponses,
		keysTotal:       keysTotal,
	}, nil
}

// RecordRefresh records how long a refresh of the named cadence took
func (m *ConsoleMetrics) RecordRefresh(ctx context.Context, cadence string, duration time.Duration, success bool) {
	if m == nil || m.refreshDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("cadence", cadence),
		attribute.Bool("success", success),
	}

	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMutation counts one mutation attempt
func (m *ConsoleMetrics) RecordMutation(ctx context.Context, operation string, success bool) {
	if m == nil || m.mutations == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	}

	m.mutations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStaleResponse counts a discarded out-of-order response
func (m *ConsoleMetrics) RecordStaleResponse(ctx context.Context, cadence string) {
	if m == nil || m.staleResponses == nil {
		return
	}

	m.staleResponses.Add(ctx, 1, metric.WithAttributes(attribute.String("cadence", cadence)))
}

// RecordKeys records the cached key counts
func (m *ConsoleMetrics) RecordKeys(ctx context.Context, enabled, disabled int) {
	if m == nil || m.keysTotal == nil {
		return
	}

	m.keysTotal.Record(ctx, int64(enabled), metric.WithAttributes(attribute.String("state", "enabled")))
	m.keysTotal.Record(ctx, int64(disabled), metric.WithAttributes(attribute.String("state", "disabled")))
}
