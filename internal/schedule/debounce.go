package schedule

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Debouncer coalesces bursts of calls into a single trailing call. Each Call
// restarts the quiet period, and when it elapses fn runs once with the
// argument of the most recent Call.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)
	task  *Task

	mu      sync.Mutex
	latest  T
	pending int
	stopped bool
}

// NewDebouncer creates a debouncer that runs fn after quiet has passed
// without another Call.
func NewDebouncer[T any](clk clock.WithDelayedExecution, quiet time.Duration, fn func(T)) *Debouncer[T] {
	d := &Debouncer[T]{quiet: quiet, fn: fn}
	d.task = NewTask(clk, d.flush)
	return d
}

// Call records arg and restarts the quiet period. It has no effect after
// Stop.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.latest = arg
	d.pending++
	d.mu.Unlock()

	d.task.Arm(d.quiet)
}

// Pending reports whether a trailing call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	return d.task.State() == StateArmed
}

// Stop drops any scheduled call and turns later calls into no-ops.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.task.Cancel()

	d.mu.Lock()
	var zero T
	d.latest = zero
	d.pending = 0
	d.mu.Unlock()
}

func (d *Debouncer[T]) flush() {
	d.mu.Lock()
	if d.stopped || d.pending == 0 {
		d.mu.Unlock()
		return
	}
	arg := d.latest
	var zero T
	d.latest = zero
	d.pending = 0
	d.mu.Unlock()

	d.fn(arg)
}
