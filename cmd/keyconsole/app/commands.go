// Package app provides the command tree of the key console.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowsilicon/keyconsole/internal/config"
	"github.com/flowsilicon/keyconsole/internal/versions"
)

// NewRootCmd creates a new root command for the key console.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "keyconsole",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Short:             "Key console for an API key balancing backend",
		Long: `keyconsole manages the API keys of a key balancing backend.

Run "keyconsole console" for the interactive view, which keeps the key list,
the dashboard totals and the live rates in sync with the backend. The other
commands perform a single operation and exit.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if viper.GetBool("debug") {
				logLevel.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("config", "", "Path to configuration file (YAML format)")
	flags.String("endpoint", "", "Backend base URL, overrides backend.endpoint from the configuration file")
	for _, name := range []string{"debug", "config", "endpoint"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(
		newConsoleCmd(),
		newListCmd(),
		newStatsCmd(),
		newAddCmd(),
		newAddBatchCmd(),
		newDeleteCmd(),
		newPruneCmd(),
		newEnableCmd(),
		newDisableCmd(),
		newCheckCmd(),
		newModeCmd(),
		newRefreshBalancesCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
