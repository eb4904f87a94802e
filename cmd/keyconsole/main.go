// Package main is the entry point for the key console.
package main

import (
	"log/slog"
	"os"

	"github.com/flowsilicon/keyconsole/cmd/keyconsole/app"
)

func main() {
	// Log to stderr so stdout stays clean for command output (e.g., list, version --format json).
	// The interactive console redirects logging to a file before it takes over the terminal.
	app.ConfigureLogging(os.Stderr)

	if err := app.NewRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
