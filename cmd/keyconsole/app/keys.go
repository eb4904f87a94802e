package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
)

type controllerFunc func(ctx context.Context, rt *runtime, c *console.Controller) error

// runWithController wires a controller that prints to the command output and
// prompts on its input, runs fn and stops the controller. Batch settle delays
// only matter to the interactive view and are disabled.
func runWithController(cmd *cobra.Command, confirmer console.Confirmer, fn controllerFunc) error {
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

	if confirmer == nil {
		confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	settings := settingsFromConfig(cfg)
	settings.SettleDelay = 0
	settings.ErrorSettleDelay = 0

	out := newPrinter(cmd.ErrOrStderr())
	c := rt.newController(
		console.WithSettings(settings),
		console.WithNotifier(out),
		console.WithProgress(out),
		console.WithConfirmer(confirmer),
	)
	defer c.Stop()

	return fn(ctx, rt, c)
}

// confirmerFromFlags maps --yes and --no onto a fixed answer. Without either
// the user is prompted.
func confirmerFromFlags(cmd *cobra.Command) (console.Confirmer, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return nil, fmt.Errorf("failed to read yes flag: %w", err)
	}
	no, err := cmd.Flags().GetBool("no")
	if err != nil {
		return nil, fmt.Errorf("failed to read no flag: %w", err)
	}
	switch {
	case yes && no:
		return nil, fmt.Errorf("--yes and --no are mutually exclusive")
	case yes:
		return fixedConfirmer(console.ChoiceYes), nil
	case no:
		return fixedConfirmer(console.ChoiceNo), nil
	default:
		return nil, nil
	}
}

func addConfirmFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("yes", false, "Accept zero balances without asking")
	cmd.Flags().Bool("no", false, "Refuse zero balances without asking")
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keys with their balance, score and live rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sort, err := sortFromFlags(cmd)
			if err != nil {
				return err
			}
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				if sort != nil {
					c.SetSort(*sort)
				}
				if err := c.RefreshKeys(ctx); err != nil {
					return err
				}
				reveal, _ := cmd.Flags().GetBool("reveal")
				return writeKeysTable(cmd.OutOrStdout(), c.View().Records, reveal)
			})
		},
	}
	cmd.Flags().String("sort", "", "Sort field (none, score, balance, success_rate, usage, rpm, tpm)")
	cmd.Flags().String("direction", "", "Sort direction (asc or desc)")
	cmd.Flags().Bool("reveal", false, "Print full keys instead of masked ones")
	return cmd
}

// sortFromFlags returns nil when neither flag is set so the configured sort applies
func sortFromFlags(cmd *cobra.Command) (*keys.SortState, error) {
	fieldFlag, _ := cmd.Flags().GetString("sort")
	directionFlag, _ := cmd.Flags().GetString("direction")
	if fieldFlag == "" && directionFlag == "" {
		return nil, nil
	}

	field, err := keys.ParseSortField(fieldFlag)
	if err != nil {
		return nil, err
	}
	direction, err := keys.ParseSortDirection(directionFlag)
	if err != nil {
		return nil, err
	}
	return &keys.SortState{Field: field, Direction: direction}, nil
}

func writeKeysTable(w io.Writer, records []keys.Record, reveal bool) error {
	table := tablewriter.NewWriter(w)
	table.Header("Key", "Balance", "Score", "Success", "Calls", "RPM", "TPM", "State")
	for _, r := range records {
		state := "enabled"
		if r.Disabled {
			state = "disabled"
		}
		id := r.Masked()
		if reveal {
			id = r.ID
		}
		if err := table.Append([]string{
			id,
			strconv.FormatFloat(r.Balance, 'f', 2, 64),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			strconv.FormatFloat(r.SuccessRate*100, 'f', 1, 64) + "%",
			strconv.FormatInt(r.TotalCalls, 10),
			strconv.FormatInt(r.RPM, 10),
			strconv.FormatInt(r.TPM, 10),
			state,
		}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard totals and live rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				if err := c.RefreshStats(ctx); err != nil {
					return err
				}
				if err := c.RefreshRates(ctx); err != nil {
					return err
				}
				view := c.View()
				return writeStatsTable(cmd.OutOrStdout(), view.Stats, view.Rates)
			})
		},
	}
}

func writeStatsTable(w io.Writer, stats *remote.Stats, rates *remote.RateStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	var rows [][]string
	if stats != nil {
		rows = append(rows,
			[]string{"Keys", strconv.Itoa(stats.TotalKeys)},
			[]string{"Active keys", strconv.Itoa(stats.ActiveKeys)},
			[]string{"Disabled keys", strconv.Itoa(stats.DisabledKeys)},
			[]string{"Total balance", strconv.FormatFloat(stats.TotalBalance, 'f', 2, 64)},
			[]string{"Active balance", strconv.FormatFloat(stats.ActiveKeysBalance, 'f', 2, 64)},
			[]string{"Calls", strconv.FormatInt(stats.TotalCalls, 10)},
			[]string{"Successful calls", strconv.FormatInt(stats.SuccessCalls, 10)},
			[]string{"Success rate", strconv.FormatFloat(stats.AvgSuccessRate*100, 'f', 1, 64) + "%"},
			[]string{"Last used", stats.LastUsedTime},
		)
	}
	if rates != nil {
		rows = append(rows,
			[]string{"RPM", strconv.FormatInt(rates.RPM, 10)},
			[]string{"TPM", strconv.FormatInt(rates.TPM, 10)},
			[]string{"RPD", strconv.FormatInt(rates.RPD, 10)},
			[]string{"TPD", strconv.FormatInt(rates.TPD, 10)},
		)
	}
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add KEY",
		Short: "Add one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, _ := cmd.Flags().GetFloat64("balance")
			confirmer, err := confirmerFromFlags(cmd)
			if err != nil {
				return err
			}
			return runWithController(cmd, confirmer, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				// duplicates are detected against the loaded list
				if err := c.RefreshKeys(ctx); err != nil {
					return err
				}
				return c.AddKey(ctx, strings.TrimSpace(args[0]), balance)
			})
		},
	}
	cmd.Flags().Float64("balance", 0, "Initial balance; zero lets the backend probe the real balance")
	addConfirmFlags(cmd)
	return cmd
}

func newAddBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-batch [FILE]",
		Short: "Add many keys read from a file or standard input",
		Long: `Add many keys sharing one balance. Keys are separated by whitespace
or commas and tokens shorter than a key are ignored. Without FILE the
keys are read from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, _ := cmd.Flags().GetFloat64("balance")
			confirmer, err := confirmerFromFlags(cmd)
			if err != nil {
				return err
			}

			input, err := readBatchInput(cmd, args)
			if err != nil {
				return err
			}
			ids := keys.ParseKeys(input)

			if confirmer == nil && len(args) == 0 {
				// standard input is already consumed by the key list
				confirmer = fixedConfirmer(console.ChoiceCancel)
			}
			return runWithController(cmd, confirmer, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				if err := c.RefreshKeys(ctx); err != nil {
					return err
				}
				return c.AddKeys(ctx, ids, balance)
			})
		},
	}
	cmd.Flags().Float64("balance", 0, "Initial balance for every key")
	addConfirmFlags(cmd)
	return cmd
}

func readBatchInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read keys from standard input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read keys file: %w", err)
	}
	return string(data), nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				return c.DeleteKey(ctx, args[0])
			})
		},
	}
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete keys whose balance is zero or below a threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zero, _ := cmd.Flags().GetBool("zero")
			belowSet := cmd.Flags().Changed("below")
			below, _ := cmd.Flags().GetFloat64("below")
			if zero == belowSet {
				return fmt.Errorf("exactly one of --zero or --below is required")
			}

			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				if zero {
					_, err := c.DeleteZeroBalance(ctx)
					return err
				}
				_, err := c.DeleteBelowThreshold(ctx, below)
				return err
			})
		},
	}
	cmd.Flags().Bool("zero", false, "Delete keys with a zero balance")
	cmd.Flags().Float64("below", 0, "Delete keys whose balance is below this threshold")
	return cmd
}

func newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable KEY",
		Short: "Enable a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				return c.EnableKey(ctx, args[0])
			})
		},
	}
}

func newDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable KEY",
		Short: "Disable a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				return c.DisableKey(ctx, args[0])
			})
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check KEY",
		Short: "Probe the live balance of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				result, err := c.CheckKey(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
					keys.MaskKey(result.Key), strconv.FormatFloat(result.Balance, 'f', 2, 64))
				return err
			})
		},
	}
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [all|single|selected] [KEY...]",
		Short: "Show or change how the backend picks keys",
		Long: `Without arguments the current mode is printed. single takes exactly one key
and selected at least two; all takes none.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, rt *runtime, c *console.Controller) error {
				if len(args) == 0 {
					state, err := rt.backend.GetMode(ctx)
					if err != nil {
						return fmt.Errorf("failed to get key mode: %w", err)
					}
					return writeMode(cmd.OutOrStdout(), *state)
				}

				mode, err := keys.ParseMode(args[0])
				if err != nil {
					return err
				}
				return c.ApplyMode(ctx, mode, args[1:])
			})
		},
	}
}

func writeMode(w io.Writer, state keys.ModeState) error {
	if !state.Mode.UsesIDs() {
		_, err := fmt.Fprintln(w, state.Mode)
		return err
	}
	masked := make([]string, 0, len(state.IDs))
	for _, id := range state.IDs {
		masked = append(masked, keys.MaskKey(id))
	}
	_, err := fmt.Fprintf(w, "%s %s\n", state.Mode, strings.Join(masked, " "))
	return err
}

func newRefreshBalancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-balances",
		Short: "Ask the backend to re-probe every balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithController(cmd, nil, func(ctx context.Context, _ *runtime, c *console.Controller) error {
				return c.RefreshBalances(ctx)
			})
		},
	}
}
