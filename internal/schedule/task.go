package schedule

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// State is the lifecycle state of a Task
type State int

const (
	// StateIdle means nothing is scheduled
	StateIdle State = iota
	// StatePending means the timer elapsed and the callback is running
	StatePending
	// StateArmed means the timer is scheduled and has not elapsed
	StateArmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// Task is a cancellable one-shot timer. Re-arming cancels the previous
// schedule, so a task never fires twice for overlapping Arm calls.
type Task struct {
	clock clock.WithDelayedExecution
	fn    func()

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
	state State
}

// NewTask creates an idle task that runs fn when it fires.
func NewTask(clk clock.WithDelayedExecution, fn func()) *Task {
	return &Task{clock: clk, fn: fn}
}

// Arm schedules fn to run after d, replacing any earlier schedule.
func (t *Task) Arm(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.state = StateArmed
	// The callback must not block: fake clocks run it while holding their lock.
	t.timer = t.clock.AfterFunc(d, func() { go t.run(gen) })
}

// Cancel drops any pending schedule. A callback that is already running is
// not interrupted.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.state = StateIdle
}

// State returns the current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Task) run(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.state != StateArmed {
		t.mu.Unlock()
		return
	}
	t.state = StatePending
	t.timer = nil
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	if gen == t.gen && t.state == StatePending {
		t.state = StateIdle
	}
	t.mu.Unlock()
}
