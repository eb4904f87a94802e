package console

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/status"
)

// RefreshKeys replaces the cache with the backend's key list. On success the
// selection is reconciled, the view re-sorted and rendered and the keys
// cadence armed; an empty list parks the cadence as paused. On failure the
// cache is left as it was and the cadence parks as failed.
func (c *Controller) RefreshKeys(ctx context.Context) error {
	c.mu.Lock()
	stamp := c.cache.Begin()
	c.mu.Unlock()

	start := c.clock.Now()
	records, err := c.backend.ListKeys(ctx)
	c.metrics.RecordRefresh(ctx, CadenceKeys, c.clock.Since(start), err == nil)

	c.mu.Lock()
	if err != nil {
		stale := c.cache.Stale(stamp) || c.stopped
		c.mu.Unlock()
		if stale {
			slog.DebugContext(ctx, "Ignoring failure of superseded key refresh", "stamp", stamp, "error", err)
			return &RemoteError{Op: "RefreshKeys", Err: err}
		}
		slog.ErrorContext(ctx, "Failed to refresh keys", "error", err)
		c.keysCadence.Park(status.PhaseFailed, reason(err))
		c.notify(SeverityError, "Failed to load keys: %s", reason(err))
		return &RemoteError{Op: "RefreshKeys", Err: err}
	}

	if !c.cache.Replace(stamp, records) {
		c.mu.Unlock()
		slog.DebugContext(ctx, "Discarded stale key snapshot", "stamp", stamp)
		c.metrics.RecordStaleResponse(ctx, CadenceKeys)
		return nil
	}
	c.renderLocked()
	if len(records) == 0 {
		c.keysCadence.Park(status.PhasePaused, "")
	} else {
		c.keysCadence.Arm()
	}
	c.mu.Unlock()

	enabled, disabled := keys.Partition(records)
	c.metrics.RecordKeys(ctx, len(enabled), len(disabled))
	slog.DebugContext(ctx, "Keys refreshed", "enabled", len(enabled), "disabled", len(disabled))

	c.LoadCurrentMode(ctx)
	return nil
}

// RefreshStats reloads the dashboard totals. A store without keys parks the
// stats cadence as paused.
func (c *Controller) RefreshStats(ctx context.Context) error {
	c.mu.Lock()
	stamp := c.statsSeq.begin()
	c.mu.Unlock()

	start := c.clock.Now()
	stats, err := c.backend.GetStats(ctx)
	c.metrics.RecordRefresh(ctx, CadenceStats, c.clock.Since(start), err == nil)
	if err != nil {
		c.mu.Lock()
		superseded := stamp < c.statsSeq.applied || c.stopped
		c.mu.Unlock()
		if !superseded {
			slog.ErrorContext(ctx, "Failed to refresh stats", "error", err)
			c.statsCadence.Park(status.PhaseFailed, reason(err))
			c.notify(SeverityWarning, "Failed to load stats: %s", reason(err))
		}
		return &RemoteError{Op: "RefreshStats", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.statsSeq.apply(stamp) {
		slog.DebugContext(ctx, "Discarded stale stats snapshot", "stamp", stamp)
		c.metrics.RecordStaleResponse(ctx, CadenceStats)
		return nil
	}
	c.stats = stats
	if !c.stopped {
		c.surface.RenderStats(stats)
	}
	if stats.Empty() {
		c.statsCadence.Park(status.PhasePaused, "")
	} else {
		c.statsCadence.Arm()
	}
	return nil
}

// RefreshRates reloads the live request and token rates. When no key has
// reported a rate the rates cadence parks as paused.
func (c *Controller) RefreshRates(ctx context.Context) error {
	c.mu.Lock()
	stamp := c.ratesSeq.begin()
	c.mu.Unlock()

	start := c.clock.Now()
	rates, err := c.backend.GetRateStats(ctx)
	c.metrics.RecordRefresh(ctx, CadenceRates, c.clock.Since(start), err == nil)
	if err != nil {
		c.mu.Lock()
		superseded := stamp < c.ratesSeq.applied || c.stopped
		c.mu.Unlock()
		if !superseded {
			slog.ErrorContext(ctx, "Failed to refresh request stats", "error", err)
			c.ratesCadence.Park(status.PhaseFailed, reason(err))
			c.notify(SeverityWarning, "Failed to load request stats: %s", reason(err))
		}
		return &RemoteError{Op: "RefreshRates", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ratesSeq.apply(stamp) {
		slog.DebugContext(ctx, "Discarded stale request stats snapshot", "stamp", stamp)
		c.metrics.RecordStaleResponse(ctx, CadenceRates)
		return nil
	}
	c.rates = rates
	if !c.stopped {
		c.surface.RenderRates(rates)
	}
	if rates.Empty() {
		c.ratesCadence.Park(status.PhasePaused, "")
	} else {
		c.ratesCadence.Arm()
	}
	return nil
}

// Refresh reloads keys, stats and rates concurrently
func (c *Controller) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return c.RefreshKeys(ctx) })
	g.Go(func() error { return c.RefreshStats(ctx) })
	g.Go(func() error { return c.RefreshRates(ctx) })
	return g.Wait()
}

// reconcile is the trailing refresh run after every mutation that reached the
// backend. Its failures are already surfaced by the refresh itself.
func (c *Controller) reconcile(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return c.RefreshKeys(ctx) })
	g.Go(func() error { return c.RefreshStats(ctx) })
	_ = g.Wait()
}
