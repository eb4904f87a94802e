// Package config provides configuration loading and management for the key console.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read through viper
const EnvPrefix = "KEYCONSOLE"

const (
	// DefaultEndpoint is the backend address used when none is configured
	DefaultEndpoint = "http://localhost:3016"

	// DefaultBackendTimeout bounds every backend request
	DefaultBackendTimeout = "10s"

	// DefaultRetries is the number of extra attempts for failed reads
	DefaultRetries = 2

	// DefaultKeysInterval is the key list refresh cadence
	DefaultKeysInterval = "30s"

	// DefaultStatsInterval is the dashboard totals refresh cadence
	DefaultStatsInterval = "30s"

	// DefaultRatesInterval is the live rates refresh cadence
	DefaultRatesInterval = "5s"

	// DefaultModeDebounce is the quiet period before a mode fetch is issued
	DefaultModeDebounce = "300ms"

	// DefaultSettleDelay keeps a finished batch progress visible before the refresh
	DefaultSettleDelay = "1500ms"

	// DefaultErrorSettleDelay is the settle delay after a failed batch
	DefaultErrorSettleDelay = "2s"

	// DefaultNotifyDuration is how long a toast stays on screen
	DefaultNotifyDuration = "3s"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path     string
	endpoint string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithEndpoint overrides the backend endpoint read from the file
func WithEndpoint(endpoint string) Option {
	return func(cfg *loaderConfig) error {
		cfg.endpoint = endpoint
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Backend   BackendConfig     `yaml:"backend"`
	Refresh   RefreshConfig     `yaml:"refresh"`
	UI        UIConfig          `yaml:"ui"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// BackendConfig defines how the console reaches the key backend
type BackendConfig struct {
	// Endpoint is the base URL of the backend API, e.g. "http://localhost:3016"
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single request (e.g., "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// Retries is how many times a failed read is retried.
	// A nil value means the default; zero disables retries.
	Retries *int `yaml:"retries,omitempty"`
}

// RefreshConfig defines the three polling cadences
type RefreshConfig struct {
	KeysInterval  string `yaml:"keysInterval,omitempty"`
	StatsInterval string `yaml:"statsInterval,omitempty"`
	RatesInterval string `yaml:"ratesInterval,omitempty"`
}

// UIConfig defines console presentation timings and the initial sort
type UIConfig struct {
	ModeDebounce     string     `yaml:"modeDebounce,omitempty"`
	SettleDelay      string     `yaml:"settleDelay,omitempty"`
	ErrorSettleDelay string     `yaml:"errorSettleDelay,omitempty"`
	NotifyDuration   string     `yaml:"notifyDuration,omitempty"`
	Sort             SortConfig `yaml:"sort,omitempty"`
}

// SortConfig is the sort order applied when the console starts
type SortConfig struct {
	Field     string `yaml:"field,omitempty"`
	Direction string `yaml:"direction,omitempty"`
}

// Default returns a configuration with every optional field populated
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file when a path is given.
// Without a path the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if loaderCfg.endpoint != "" {
		config.Backend.Endpoint = loaderCfg.endpoint
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Backend.Endpoint, DefaultEndpoint)
	setDefault(&c.Backend.Timeout, DefaultBackendTimeout)
	if c.Backend.Retries == nil {
		retries := DefaultRetries
		c.Backend.Retries = &retries
	}
	setDefault(&c.Refresh.KeysInterval, DefaultKeysInterval)
	setDefault(&c.Refresh.StatsInterval, DefaultStatsInterval)
	setDefault(&c.Refresh.RatesInterval, DefaultRatesInterval)
	setDefault(&c.UI.ModeDebounce, DefaultModeDebounce)
	setDefault(&c.UI.SettleDelay, DefaultSettleDelay)
	setDefault(&c.UI.ErrorSettleDelay, DefaultErrorSettleDelay)
	setDefault(&c.UI.NotifyDuration, DefaultNotifyDuration)
	setDefault(&c.UI.Sort.Field, string(keys.SortScore))
	setDefault(&c.UI.Sort.Direction, string(keys.Descending))
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateEndpoint(c.Backend.Endpoint); err != nil {
		return err
	}
	if c.Backend.Retries != nil && *c.Backend.Retries < 0 {
		return fmt.Errorf("backend.retries must not be negative, got %d", *c.Backend.Retries)
	}

	durations := []struct {
		name  string
		value string
		zero  bool
	}{
		{name: "backend.timeout", value: c.Backend.Timeout},
		{name: "refresh.keysInterval", value: c.Refresh.KeysInterval},
		{name: "refresh.statsInterval", value: c.Refresh.StatsInterval},
		{name: "refresh.ratesInterval", value: c.Refresh.RatesInterval},
		{name: "ui.modeDebounce", value: c.UI.ModeDebounce, zero: true},
		{name: "ui.settleDelay", value: c.UI.SettleDelay, zero: true},
		{name: "ui.errorSettleDelay", value: c.UI.ErrorSettleDelay, zero: true},
		{name: "ui.notifyDuration", value: c.UI.NotifyDuration},
	}
	for _, d := range durations {
		if err := validateDuration(d.name, d.value, d.zero); err != nil {
			return err
		}
	}

	if _, err := keys.ParseSortField(c.UI.Sort.Field); err != nil {
		return fmt.Errorf("ui.sort.field: %w", err)
	}
	if _, err := keys.ParseSortDirection(c.UI.Sort.Direction); err != nil {
		return fmt.Errorf("ui.sort.direction: %w", err)
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("backend.endpoint must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.endpoint must use http or https, got %q", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("backend.endpoint must include a host, got %q", endpoint)
	}
	return nil
}

func validateDuration(name, value string, allowZero bool) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '5m'): %w", name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return nil
}

// mustDuration parses a duration that validate has already accepted
func mustDuration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

// GetTimeout returns the per-request backend timeout
func (b *BackendConfig) GetTimeout() time.Duration {
	return mustDuration(b.Timeout)
}

// GetRetries returns the retry count for failed reads
func (b *BackendConfig) GetRetries() uint {
	if b.Retries == nil {
		return DefaultRetries
	}
	return uint(*b.Retries)
}

// GetKeysInterval returns the key list cadence
func (r *RefreshConfig) GetKeysInterval() time.Duration {
	return mustDuration(r.KeysInterval)
}

// GetStatsInterval returns the dashboard totals cadence
func (r *RefreshConfig) GetStatsInterval() time.Duration {
	return mustDuration(r.StatsInterval)
}

// GetRatesInterval returns the live rates cadence
func (r *RefreshConfig) GetRatesInterval() time.Duration {
	return mustDuration(r.RatesInterval)
}

// GetModeDebounce returns the mode fetch quiet period
func (u *UIConfig) GetModeDebounce() time.Duration {
	return mustDuration(u.ModeDebounce)
}

// GetSettleDelay returns the post-batch settle delay
func (u *UIConfig) GetSettleDelay() time.Duration {
	return mustDuration(u.SettleDelay)
}

// GetErrorSettleDelay returns the settle delay after a failed batch
func (u *UIConfig) GetErrorSettleDelay() time.Duration {
	return mustDuration(u.ErrorSettleDelay)
}

// GetNotifyDuration returns how long notifications stay visible
func (u *UIConfig) GetNotifyDuration() time.Duration {
	return mustDuration(u.NotifyDuration)
}

// GetSort returns the configured initial sort
func (s *SortConfig) GetSort() keys.SortState {
	field, _ := keys.ParseSortField(s.Field)
	direction, _ := keys.ParseSortDirection(s.Direction)
	return keys.SortState{Field: field, Direction: direction}
}
