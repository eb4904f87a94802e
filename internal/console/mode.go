package console

import (
	"context"
	"log/slog"

	"github.com/flowsilicon/keyconsole/internal/keys"
)

// ApplyMode changes the backend's usage mode. single needs exactly one key
// and selected at least two; all ignores ids. Cardinality violations are
// rejected without contacting the backend. On success the selection is
// overwritten with the identifiers the backend reports.
func (c *Controller) ApplyMode(ctx context.Context, mode keys.Mode, ids []string) error {
	const op = "ApplyMode"

	if err := mode.ValidateIDs(ids); err != nil {
		return c.reject(ctx, op, "%s", err.Error())
	}
	if !mode.UsesIDs() {
		ids = nil
	}

	result, err := c.backend.SetMode(ctx, mode, ids)
	c.metrics.RecordMutation(ctx, op, err == nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to set key mode", "mode", mode, "error", err)
		c.notify(SeverityError, "Failed to set key mode: %s", reason(err))
		c.reconcile(ctx)
		return &RemoteError{Op: op, Err: err}
	}

	state := result.State()
	if state.Mode == "" {
		state = keys.ModeState{Mode: mode, IDs: ids}
	}

	c.mu.Lock()
	c.cache.Acknowledge()
	// mode reads issued before this change must not overwrite it
	c.modeSeq.apply(c.modeSeq.begin())
	c.applyModeLocked(state)
	c.mu.Unlock()

	slog.InfoContext(ctx, "Key mode changed", "mode", state.Mode, "keys", len(state.IDs))
	message := result.Message
	if message == "" {
		message = "Key mode set to " + string(state.Mode)
	}
	c.notify(SeveritySuccess, "%s", message)

	c.LoadCurrentMode(ctx)
	c.reconcile(ctx)
	return nil
}

// LoadCurrentMode schedules a read of the backend's usage mode after the
// quiet period. A call during the quiet period restarts it, and only the
// newest call's context is used. It does nothing once the controller has
// stopped.
func (c *Controller) LoadCurrentMode(ctx context.Context) {
	if c.isStopped() {
		return
	}
	c.modeLoader.Call(ctx)
}

// resolveMode runs when the mode quiet period elapses
func (c *Controller) resolveMode(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	stamp := c.modeSeq.begin()
	c.mu.Unlock()

	state, err := c.backend.GetMode(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load current key mode", "error", err)
		return
	}
	if state == nil || state.Mode == "" {
		state = &keys.ModeState{Mode: keys.ModeAll}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.modeSeq.apply(stamp) {
		slog.DebugContext(ctx, "Discarded stale key mode", "stamp", stamp)
		return
	}
	c.applyModeLocked(*state)
}

// applyModeLocked makes the selection match an authoritative mode
func (c *Controller) applyModeLocked(state keys.ModeState) {
	if state.Mode.UsesIDs() {
		c.cache.Select(state.IDs)
	} else {
		c.cache.Select(nil)
	}
	c.mode = &state
	c.renderLocked()
	if !c.stopped {
		c.surface.RenderMode(state)
	}
}
