package console

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
)

const zeroBalanceTitle = "Zero balance"

// AddKey adds one key. Keys already in the list and negative balances are
// rejected locally. A zero balance asks the confirmer whether the backend
// should accept it and probe the real balance.
func (c *Controller) AddKey(ctx context.Context, id string, balance float64) error {
	const op = "AddKey"

	if id == "" {
		return c.reject(ctx, op, "key is required")
	}
	if err := c.validateBalance(ctx, op, balance); err != nil {
		return err
	}
	c.mu.Lock()
	exists := c.cache.Contains(id)
	c.mu.Unlock()
	if exists {
		return c.reject(ctx, op, "key %s already exists", keys.MaskKey(id))
	}

	allowZero, err := c.confirmZeroBalance(ctx, balance,
		fmt.Sprintf("Key %s has a zero balance. Add it anyway and let the backend check its real balance?", keys.MaskKey(id)))
	if err != nil {
		return err
	}

	result, err := c.backend.CreateKey(ctx, remote.CreateKeyRequest{
		Key:              id,
		Balance:          balance,
		AllowZeroBalance: allowZero,
	})
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to add key", "key", keys.MaskKey(id), "error", err)
		c.notify(SeverityError, "Failed to add key: %s", reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	slog.InfoContext(ctx, "Key added", "key", keys.MaskKey(id), "balance", result.Balance)
	c.notify(SeveritySuccess, "Key %s added with balance %s", keys.MaskKey(id), formatBalance(result.Balance))
	c.reconcile(ctx)
	return nil
}

// AddKeys adds many keys sharing one balance. Keys already in the list are
// skipped locally; when none remain nothing is sent.
func (c *Controller) AddKeys(ctx context.Context, ids []string, balance float64) error {
	const op = "AddKeys"

	if err := c.validateBalance(ctx, op, balance); err != nil {
		return err
	}

	var fresh, duplicate []string
	c.mu.Lock()
	for _, id := range ids {
		switch {
		case id == "" || slices.Contains(fresh, id) || slices.Contains(duplicate, id):
		case c.cache.Contains(id):
			duplicate = append(duplicate, id)
		default:
			fresh = append(fresh, id)
		}
	}
	c.mu.Unlock()

	if len(fresh) == 0 && len(duplicate) == 0 {
		return c.reject(ctx, op, "no keys to add")
	}
	if len(duplicate) > 0 {
		c.notify(SeverityWarning, "Skipping %d keys that already exist", len(duplicate))
	}
	if len(fresh) == 0 {
		c.notify(SeverityInfo, "All %d keys already exist, nothing to add", len(duplicate))
		return nil
	}

	allowZero, err := c.confirmZeroBalance(ctx, balance,
		fmt.Sprintf("%d keys have a zero balance. Add them anyway and let the backend check their real balances?", len(fresh)))
	if err != nil {
		return err
	}

	total := len(fresh)
	start := c.clock.Now()
	c.progress.Start(fmt.Sprintf("Adding %d keys", total), total)
	c.progress.Update(0, total, "")

	result, err := c.backend.CreateKeys(ctx, remote.BatchCreateRequest{
		Keys:             fresh,
		Balance:          balance,
		AllowZeroBalance: allowZero,
	})
	elapsed := c.clock.Since(start).Round(time.Millisecond)
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to add keys", "count", total, "error", err)
		c.progress.Update(0, total, "failed: "+reason(err))
		c.sleep(ctx, c.settings.ErrorSettleDelay)
		c.progress.Done()
		c.notify(SeverityError, "Failed to add keys: %s", reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	skipped := result.Skipped + len(duplicate)
	detail := fmt.Sprintf("added %d, skipped %d in %s", result.Added, skipped, elapsed)
	slog.InfoContext(ctx, "Keys added", "added", result.Added, "skipped", skipped, "elapsed", elapsed)
	c.progress.Update(total, total, detail)
	c.sleep(ctx, c.settings.SettleDelay)
	c.progress.Done()
	c.notify(SeveritySuccess, "Batch add finished: %s", detail)
	c.reconcile(ctx)
	return nil
}

// DeleteKey removes one key. The cache is not touched until the backend
// acknowledges the delete and the trailing refresh returns.
func (c *Controller) DeleteKey(ctx context.Context, id string) error {
	const op = "DeleteKey"

	if id == "" {
		return c.reject(ctx, op, "key is required")
	}

	_, err := c.backend.DeleteKey(ctx, id)
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete key", "key", keys.MaskKey(id), "error", err)
		c.notify(SeverityError, "Failed to delete key: %s", reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	slog.InfoContext(ctx, "Key deleted", "key", keys.MaskKey(id))
	c.notify(SeveritySuccess, "Key %s deleted", keys.MaskKey(id))
	c.reconcile(ctx)
	return nil
}

// DeleteBelowThreshold removes every key whose balance is below threshold.
// The threshold must be a positive number.
func (c *Controller) DeleteBelowThreshold(ctx context.Context, threshold float64) (*remote.DeleteResult, error) {
	const op = "DeleteBelowThreshold"

	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, c.reject(ctx, op, "threshold must be a positive number")
	}

	result, err := c.backend.DeleteBelow(ctx, threshold)
	return c.finishBulkDelete(ctx, op, result, err,
		fmt.Sprintf("Deleted %%d keys with a balance below %s", formatBalance(threshold)),
		fmt.Sprintf("No keys with a balance below %s", formatBalance(threshold)))
}

// DeleteZeroBalance removes every key whose balance is zero or negative
func (c *Controller) DeleteZeroBalance(ctx context.Context) (*remote.DeleteResult, error) {
	const op = "DeleteZeroBalance"

	result, err := c.backend.DeleteZeroBalance(ctx)
	return c.finishBulkDelete(ctx, op, result, err,
		"Deleted %d keys with no balance",
		"No keys with a zero or negative balance")
}

func (c *Controller) finishBulkDelete(
	ctx context.Context,
	op string,
	result *remote.DeleteResult,
	err error,
	deletedFormat string,
	noneMessage string,
) (*remote.DeleteResult, error) {
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete keys", "operation", op, "error", err)
		c.notify(SeverityError, "Failed to delete keys: %s", reason(err))
		c.reconcile(ctx)
		return nil, &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	deleted := max(result.Deleted, len(result.DeletedKeys))
	slog.InfoContext(ctx, "Keys deleted", "operation", op, "count", deleted)
	if deleted == 0 {
		c.notify(SeverityInfo, "%s", noneMessage)
	} else {
		c.notify(SeveritySuccess, deletedFormat, deleted)
	}
	c.reconcile(ctx)
	return result, nil
}

// EnableKey lets the backend use a key again
func (c *Controller) EnableKey(ctx context.Context, id string) error {
	return c.setEnabled(ctx, "EnableKey", id, true)
}

// DisableKey stops the backend from using a key
func (c *Controller) DisableKey(ctx context.Context, id string) error {
	return c.setEnabled(ctx, "DisableKey", id, false)
}

func (c *Controller) setEnabled(ctx context.Context, op, id string, enable bool) error {
	if id == "" {
		return c.reject(ctx, op, "key is required")
	}

	verb := "disable"
	call := c.backend.DisableKey
	if enable {
		verb = "enable"
		call = c.backend.EnableKey
	}

	_, err := call(ctx, id)
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to "+verb+" key", "key", keys.MaskKey(id), "error", err)
		c.notify(SeverityError, "Failed to %s key: %s", verb, reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	slog.InfoContext(ctx, "Key "+verb+"d", "key", keys.MaskKey(id))
	c.notify(SeveritySuccess, "Key %s %sd", keys.MaskKey(id), verb)
	c.reconcile(ctx)
	return nil
}

// CheckKey probes the live balance of a key without changing anything
func (c *Controller) CheckKey(ctx context.Context, id string) (*remote.CheckResult, error) {
	const op = "CheckKey"

	if id == "" {
		return nil, c.reject(ctx, op, "key is required")
	}

	result, err := c.backend.CheckKey(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to check key", "key", keys.MaskKey(id), "error", err)
		c.notify(SeverityError, "Failed to check key: %s", reason(err))
		return nil, &RemoteError{Op: op, Err: err}
	}

	if result.Balance <= 0 {
		c.notify(SeverityWarning, "Key %s has no balance left", keys.MaskKey(id))
	} else {
		c.notify(SeveritySuccess, "Key %s is available with balance %s", keys.MaskKey(id), formatBalance(result.Balance))
	}
	return result, nil
}

// RefreshBalances asks the backend to re-probe every balance and then reloads
// keys, stats and rates. It is rejected locally when there is nothing to probe.
func (c *Controller) RefreshBalances(ctx context.Context) error {
	const op = "RefreshBalances"

	c.mu.Lock()
	loaded, records := c.cache.Loaded(), c.cache.Records()
	c.mu.Unlock()
	if loaded && len(records) == 0 {
		return c.reject(ctx, op, "there are no keys to refresh")
	}

	_, err := c.backend.RefreshBalances(ctx)
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to refresh balances", "error", err)
		c.notify(SeverityError, "Failed to refresh balances: %s", reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	c.acknowledge()
	slog.InfoContext(ctx, "Balances refreshed", "keys", len(records))
	c.notify(SeveritySuccess, "Balances refreshed")
	_ = c.Refresh(ctx)
	return nil
}

// reject surfaces a local validation failure
func (c *Controller) reject(ctx context.Context, op, format string, args ...any) error {
	err := invalid(op, format, args...)
	slog.DebugContext(ctx, "Rejected locally", "operation", op, "reason", err.Reason)
	c.notify(SeverityWarning, "%s", err.Reason)
	return err
}

func (c *Controller) validateBalance(ctx context.Context, op string, balance float64) error {
	if math.IsNaN(balance) || math.IsInf(balance, 0) {
		return c.reject(ctx, op, "balance must be a number")
	}
	if balance < 0 {
		return c.reject(ctx, op, "balance must not be negative")
	}
	return nil
}

// confirmZeroBalance returns the allow_zero_balance flag for an additive
// request. Only a zero balance needs an answer; cancel aborts the operation.
func (c *Controller) confirmZeroBalance(ctx context.Context, balance float64, message string) (bool, error) {
	if balance != 0 {
		return false, nil
	}

	choice, err := c.confirmer.Confirm(ctx, zeroBalanceTitle, message)
	if err != nil {
		return false, fmt.Errorf("failed to confirm zero balance: %w", err)
	}
	switch choice {
	case ChoiceYes:
		return true, nil
	case ChoiceNo:
		return false, nil
	default:
		c.notify(SeverityInfo, "Cancelled")
		return false, ErrCancelled
	}
}

// acknowledge marks a confirmed mutation so refreshes started before it are discarded
func (c *Controller) acknowledge() {
	c.mu.Lock()
	c.cache.Acknowledge()
	c.mu.Unlock()
}

func formatBalance(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}
