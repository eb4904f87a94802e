// Package telemetry wires OpenTelemetry into the key console. A console
// session can export traces and metrics to an OTLP collector and, while the
// interactive console is open, serve its metrics for Prometheus to scrape.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/flowsilicon/keyconsole/internal/versions"
)

const (
	// DefaultServiceName identifies console sessions in the collector
	DefaultServiceName = "keyconsole"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling keeps one trace in ten. A console session issues few
	// requests, so a higher ratio than a server would use is affordable.
	DefaultSampling = 0.1
)

// Config is the telemetry section of the console configuration
type Config struct {
	// Enabled turns on the OTLP exporters. When false nothing is exported
	// and no scrape endpoint is served.
	Enabled bool `yaml:"enabled"`

	// ServiceName defaults to DefaultServiceName
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the version the binary was built with
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector as host:port, without a scheme
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends telemetry over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls the spans opened around backend requests
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept, in (0, 1]
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls the console instruments
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// PrometheusAddress, when set, is the host:port the interactive console
	// serves /metrics on
	PrometheusAddress string `yaml:"prometheusAddress,omitempty"`
}

func (c *Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

func (c *Config) serviceVersion() string {
	if c.ServiceVersion == "" {
		return versions.GetVersionInfo().Version
	}
	return c.ServiceVersion
}

func (c *Config) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Config) tracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

func (c *Config) metricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// prometheusAddress is empty unless metrics are exported and a scrape
// address is configured
func (c *Config) prometheusAddress() string {
	if !c.metricsEnabled() {
		return ""
	}
	return c.Metrics.PrometheusAddress
}

func (c *TracingConfig) sampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// Validate checks an enabled configuration. A nil or disabled configuration
// is always valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if c.Endpoint != "" {
		if strings.Contains(c.Endpoint, "://") {
			errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
		} else if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("endpoint must be host:port: %w", err))
		}
	}
	if c.tracingEnabled() && c.Tracing.Sampling != nil {
		if s := *c.Tracing.Sampling; s <= 0 || s > 1 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be in (0, 1], got %g", s))
		}
	}
	if addr := c.prometheusAddress(); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics: prometheusAddress must be host:port: %w", err))
		}
	}
	return errors.Join(errs...)
}
