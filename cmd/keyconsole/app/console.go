package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/tui"
)

const (
	defaultGracefulTimeout = 5 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the interactive key console",
		Long: `Open the interactive key console. The key list and dashboard totals are
refreshed every 30 seconds and the live rates every 5 seconds by default; a
cadence pauses while the backend reports no keys.

Logs are written to --log-file while the console owns the terminal. When
telemetry.metrics.prometheusAddress is configured a Prometheus scrape
endpoint is served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: runConsole,
	}

	cmd.Flags().String("log-file", "keyconsole.log", "File receiving logs while the console is open")
	if err := viper.BindPFlag("log-file", cmd.Flags().Lookup("log-file")); err != nil {
		slog.Error("Error binding log-file flag", "error", err)
	}
	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	logFile, err := os.OpenFile(viper.GetString("log-file"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	ConfigureLogging(logFile)

	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	bridge := tui.NewBridge()
	controller := rt.newController(
		console.WithSurface(bridge),
		console.WithNotifier(bridge),
		console.WithProgress(bridge),
		console.WithConfirmer(bridge),
	)

	program := tea.NewProgram(tui.New(ctx, controller), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program.Send)

	metricsServer := startMetricsServer(rt)

	started := make(chan struct{})
	go func() {
		defer close(started)
		// failures are already shown in the console and parked their cadence
		if err := controller.Start(ctx); err != nil {
			slog.Warn("Initial load failed", "error", err)
		}
	}()

	_, runErr := program.Run()

	controller.Stop()
	<-started
	stopMetricsServer(metricsServer)

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("console exited: %w", runErr)
	}
	slog.Info("Console closed")
	return nil
}

// startMetricsServer serves the Prometheus handler when one is configured
func startMetricsServer(rt *runtime) *http.Server {
	handler, address := rt.telemetry.MetricsHandler()
	if handler == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{
		Addr:         address,
		Handler:      mux,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		slog.Info("Metrics server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return server
}

func stopMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Metrics server forced to shutdown", "error", err)
	}
}
