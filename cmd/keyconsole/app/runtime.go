package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowsilicon/keyconsole/internal/config"
	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/httpclient"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/telemetry"
)

const (
	tracerName           = "github.com/flowsilicon/keyconsole/remote"
	telemetryStopTimeout = 5 * time.Second
)

// runtime holds everything a command needs to talk to the backend
type runtime struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	metrics   *telemetry.ConsoleMetrics
	backend   remote.Backend
}

// loadConfig reads the configuration named by --config and applies --endpoint
func loadConfig() (*config.Config, error) {
	var opts []config.Option
	if path := viper.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	if endpoint := viper.GetString("endpoint"); endpoint != "" {
		opts = append(opts, config.WithEndpoint(endpoint))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	tel, err := telemetry.New(ctx,
		telemetry.WithConfig(cfg.Telemetry),
		telemetry.WithBackendEndpoint(cfg.Backend.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := telemetry.NewConsoleMetrics(tel.MeterProvider())
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create console metrics: %w", err)
	}

	client := httpclient.NewDefaultClient(cfg.Backend.GetTimeout(),
		httpclient.WithRetries(cfg.Backend.GetRetries()))
	backend, err := remote.NewHTTPBackend(cfg.Backend.Endpoint,
		remote.WithHTTPClient(client),
		remote.WithTracer(tel.Tracer(tracerName)))
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	slog.Debug("Backend configured", "endpoint", cfg.Backend.Endpoint)

	return &runtime{
		cfg:       cfg,
		telemetry: tel,
		metrics:   metrics,
		backend:   backend,
	}, nil
}

// newController builds a controller over the runtime's backend. Later
// options override the configured settings and metrics.
func (r *runtime) newController(opts ...console.Option) *console.Controller {
	base := []console.Option{
		console.WithSettings(settingsFromConfig(r.cfg)),
		console.WithMetrics(r.metrics),
	}
	return console.New(r.backend, append(base, opts...)...)
}

func (r *runtime) close() {
	shutdownTelemetry(r.telemetry)
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryStopTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown telemetry", "error", err)
	}
}

// settingsFromConfig converts the configured durations into controller settings
func settingsFromConfig(cfg *config.Config) console.Settings {
	return console.Settings{
		KeysInterval:     cfg.Refresh.GetKeysInterval(),
		StatsInterval:    cfg.Refresh.GetStatsInterval(),
		RatesInterval:    cfg.Refresh.GetRatesInterval(),
		ModeDebounce:     cfg.UI.GetModeDebounce(),
		SettleDelay:      cfg.UI.GetSettleDelay(),
		ErrorSettleDelay: cfg.UI.GetErrorSettleDelay(),
		NotifyDuration:   cfg.UI.GetNotifyDuration(),
		Sort:             cfg.UI.Sort.GetSort(),
	}
}

// signalContext returns the command context cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
