// Package console keeps a local copy of the key registry in step with the
// backend. It owns the cache, the selection, the sort order, the three
// refresh cadences and the debounced mode read, and it runs every mutation
// through local validation, the backend and a trailing refresh.
package console

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/registry"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/schedule"
	"github.com/flowsilicon/keyconsole/internal/status"
	"github.com/flowsilicon/keyconsole/internal/telemetry"
)

// Cadence names
const (
	CadenceKeys  = "keys"
	CadenceStats = "stats"
	CadenceRates = "rates"
)

// Settings are the timings and initial sort of a controller
type Settings struct {
	KeysInterval     time.Duration
	StatsInterval    time.Duration
	RatesInterval    time.Duration
	ModeDebounce     time.Duration
	SettleDelay      time.Duration
	ErrorSettleDelay time.Duration
	NotifyDuration   time.Duration
	Sort             keys.SortState
}

// DefaultSettings returns the timings the console uses when none are configured
func DefaultSettings() Settings {
	return Settings{
		KeysInterval:     30 * time.Second,
		StatsInterval:    30 * time.Second,
		RatesInterval:    5 * time.Second,
		ModeDebounce:     300 * time.Millisecond,
		SettleDelay:      1500 * time.Millisecond,
		ErrorSettleDelay: 2 * time.Second,
		NotifyDuration:   3 * time.Second,
		Sort:             keys.SortState{Field: keys.SortScore, Direction: keys.Descending},
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// WithSurface sets where state is rendered
func WithSurface(s Surface) Option {
	return func(c *Controller) {
		c.surface = s
	}
}

// WithNotifier sets where user-facing messages go
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithProgress sets the batch progress reporter
func WithProgress(p Progress) Option {
	return func(c *Controller) {
		c.progress = p
	}
}

// WithConfirmer sets who answers zero-balance confirmations.
// Without one every confirmation is answered with ChoiceNo.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Controller) {
		c.confirmer = cf
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.ConsoleMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithSettings overrides the default timings
func WithSettings(s Settings) Option {
	return func(c *Controller) {
		c.settings = s
	}
}

// sequence stamps fetches of one kind so an older response never replaces a newer one
type sequence struct {
	issued  uint64
	applied uint64
}

func (s *sequence) begin() uint64 {
	s.issued++
	return s.issued
}

func (s *sequence) apply(stamp uint64) bool {
	if stamp < s.applied {
		return false
	}
	s.applied = stamp
	return true
}

// Controller is the registry synchronization layer of the console
type Controller struct {
	backend   remote.Backend
	clock     clock.WithDelayedExecution
	surface   Surface
	notifier  Notifier
	progress  Progress
	confirmer Confirmer
	metrics   *telemetry.ConsoleMetrics
	settings  Settings

	keysCadence  *schedule.Cadence
	statsCadence *schedule.Cadence
	ratesCadence *schedule.Cadence
	modeLoader   *schedule.Debouncer[context.Context]

	mu       sync.Mutex
	cache    *registry.Cache
	sort     keys.SortState
	stats    *remote.Stats
	rates    *remote.RateStats
	mode     *keys.ModeState
	order    []string
	statsSeq sequence
	ratesSeq sequence
	modeSeq  sequence
	baseCtx  context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
}

// New creates a controller for backend. It does nothing until Start or one
// of its operations is called.
func New(backend remote.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		clock:     clock.RealClock{},
		surface:   nopSurface{},
		notifier:  nopSurface{},
		progress:  nopSurface{},
		confirmer: declineConfirmer{},
		settings:  DefaultSettings(),
		cache:     registry.NewCache(),
		baseCtx:   context.Background(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sort = c.settings.Sort
	if c.sort.Direction == "" {
		c.sort.Direction = keys.Descending
	}

	renderCadence := schedule.WithStatusHandler(c.surface.RenderCadence)
	c.keysCadence = schedule.NewCadence(CadenceKeys, c.clock, c.settings.KeysInterval,
		func() { _ = c.RefreshKeys(c.runContext()) }, renderCadence)
	c.statsCadence = schedule.NewCadence(CadenceStats, c.clock, c.settings.StatsInterval,
		func() { _ = c.RefreshStats(c.runContext()) }, renderCadence)
	c.ratesCadence = schedule.NewCadence(CadenceRates, c.clock, c.settings.RatesInterval,
		func() { _ = c.RefreshRates(c.runContext()) }, renderCadence)
	c.modeLoader = schedule.NewDebouncer(c.clock, c.settings.ModeDebounce, c.resolveMode)

	return c
}

// Start loads keys, stats and rates concurrently and arms the cadences that
// returned data. Later cadence-driven refreshes use a context derived from ctx.
// A failed initial load has already been shown to the user and parked its
// cadence; the first such error is returned.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return fmt.Errorf("controller already stopped")
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("controller already started")
	}
	c.started = true
	c.baseCtx, c.cancel = context.WithCancel(ctx)
	base := c.baseCtx
	c.mu.Unlock()

	slog.InfoContext(ctx, "Starting key console",
		"keys_interval", c.settings.KeysInterval,
		"stats_interval", c.settings.StatsInterval,
		"rates_interval", c.settings.RatesInterval,
	)

	var g errgroup.Group
	g.Go(func() error { return c.RefreshKeys(base) })
	g.Go(func() error { return c.RefreshStats(base) })
	g.Go(func() error { return c.RefreshRates(base) })
	return g.Wait()
}

// Stop cancels the three cadences, any pending mode read and every request
// started from the Start context. It is safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	ctx, cancel := c.baseCtx, c.cancel
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	c.keysCadence.Stop()
	c.statsCadence.Stop()
	c.ratesCadence.Stop()
	c.modeLoader.Stop()
	if cancel != nil {
		cancel()
	}

	slog.InfoContext(ctx, "Key console stopped")
}

func (c *Controller) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// CadenceStatus returns the state of the named cadence
func (c *Controller) CadenceStatus(name string) (status.CadenceStatus, bool) {
	switch name {
	case CadenceKeys:
		return c.keysCadence.Status(), true
	case CadenceStats:
		return c.statsCadence.Status(), true
	case CadenceRates:
		return c.ratesCadence.Status(), true
	default:
		return status.CadenceStatus{}, false
	}
}

func (c *Controller) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseCtx
}

// renderLocked sorts the cache and hands it to the surface
func (c *Controller) renderLocked() {
	records := keys.Sort(c.cache.Records(), c.sort)
	c.order = c.order[:0]
	for _, r := range records {
		c.order = append(c.order, r.ID)
	}
	c.showLocked(records)
}

// redrawLocked re-renders the cache in the order last shown
func (c *Controller) redrawLocked() {
	c.showLocked(c.displayedLocked())
}

func (c *Controller) showLocked(records []keys.Record) {
	if c.stopped {
		return
	}
	c.surface.RenderKeys(records, c.cache.Selection())
}

// displayedLocked returns the cache in display order. Records that have not
// been rendered yet go last in fetch order.
func (c *Controller) displayedLocked() []keys.Record {
	records := c.cache.Records()
	pos := make(map[string]int, len(c.order))
	for i, id := range c.order {
		pos[id] = i
	}
	rank := func(id string) int {
		if i, ok := pos[id]; ok {
			return i
		}
		return len(c.order)
	}
	slices.SortStableFunc(records, func(a, b keys.Record) int {
		return cmp.Compare(rank(a.ID), rank(b.ID))
	})
	return records
}

// notify must be called without c.mu held. Messages raised by work that
// finishes after Stop are dropped.
func (c *Controller) notify(severity Severity, format string, args ...any) {
	if c.isStopped() {
		return
	}
	c.notifier.Notify(fmt.Sprintf(format, args...), severity, c.settings.NotifyDuration)
}

// sleep waits for d on the controller clock, returning early if ctx is done
func (c *Controller) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-c.clock.After(d):
	case <-ctx.Done():
	}
}
