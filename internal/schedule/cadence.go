package schedule

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/flowsilicon/keyconsole/internal/status"
)

// tickInterval is the resolution of the countdown label
const tickInterval = time.Second

// Cadence drives one periodic refresh: after a successful fetch it counts down
// the interval in one-second ticks and then calls its expiry function, which is
// expected to fetch again and either Arm or Park the cadence.
type Cadence struct {
	clock    clock.WithDelayedExecution
	interval time.Duration
	onExpire func()
	onChange func(status.CadenceStatus)

	expiry *Task
	ticker *Task

	mu       sync.Mutex
	status   status.CadenceStatus
	deadline time.Time
}

// CadenceOption configures a Cadence
type CadenceOption func(*Cadence)

// WithStatusHandler registers fn to receive every status change. It is called
// with the cadence lock held and must not call back into the cadence.
func WithStatusHandler(fn func(status.CadenceStatus)) CadenceOption {
	return func(c *Cadence) {
		c.onChange = fn
	}
}

// NewCadence creates an idle cadence.
func NewCadence(
	name string,
	clk clock.WithDelayedExecution,
	interval time.Duration,
	onExpire func(),
	opts ...CadenceOption,
) *Cadence {
	c := &Cadence{
		clock:    clk,
		interval: interval,
		onExpire: onExpire,
		status: status.CadenceStatus{
			Name:     name,
			Phase:    status.PhaseIdle,
			Interval: interval,
		},
	}
	c.expiry = NewTask(clk, c.expire)
	c.ticker = NewTask(clk, c.tick)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the cadence name.
func (c *Cadence) Name() string {
	return c.status.Name
}

// Arm starts a fresh countdown from now. Calling it while a countdown is
// running restarts the countdown. It has no effect after Stop.
func (c *Cadence) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Phase == status.PhaseStopped {
		return
	}

	now := c.clock.Now()
	c.deadline = now.Add(c.interval)
	c.status.Phase = status.PhaseArmed
	c.status.Message = ""
	c.status.LastUpdate = &now
	c.status.FailureCount = 0
	c.status.Remaining = c.remainingLocked(now)

	c.expiry.Arm(c.interval)
	c.ticker.Arm(tickInterval)
	c.notifyLocked()
}

// Park stops the countdown after an empty or failed fetch. The cadence stays
// parked until the next Arm.
func (c *Cadence) Park(phase status.CadencePhase, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Phase == status.PhaseStopped {
		return
	}

	c.expiry.Cancel()
	c.ticker.Cancel()

	now := c.clock.Now()
	c.status.Phase = phase
	c.status.Message = message
	c.status.LastUpdate = &now
	c.status.Remaining = 0
	if phase == status.PhaseFailed {
		c.status.FailureCount++
	}
	c.notifyLocked()
}

// Stop tears the cadence down for good.
func (c *Cadence) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expiry.Cancel()
	c.ticker.Cancel()
	if c.status.Phase == status.PhaseStopped {
		return
	}
	c.status.Phase = status.PhaseStopped
	c.status.Remaining = 0
	c.notifyLocked()
}

// Status returns a snapshot of the cadence state.
func (c *Cadence) Status() status.CadenceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Cadence) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Phase != status.PhaseArmed {
		return
	}
	c.status.Remaining = c.remainingLocked(c.clock.Now())
	if c.status.Remaining > 0 {
		c.ticker.Arm(tickInterval)
	}
	c.notifyLocked()
}

func (c *Cadence) expire() {
	c.mu.Lock()
	if c.status.Phase != status.PhaseArmed {
		c.mu.Unlock()
		return
	}
	c.ticker.Cancel()
	c.status.Remaining = 0
	c.notifyLocked()
	c.mu.Unlock()

	c.onExpire()
}

func (c *Cadence) remainingLocked(now time.Time) int {
	left := c.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + tickInterval - 1) / tickInterval)
}

func (c *Cadence) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.status)
	}
}
