// Package schedule provides the timers behind the console's periodic refreshes
// and debounced reads.
//
// All timers run on an injected k8s.io/utils/clock so tests can drive time with
// a fake clock instead of sleeping.
//
// # Task
//
// Task is an explicit one-shot scheduled call with three states:
//
//   - idle: nothing scheduled
//   - armed: the timer is running
//   - pending: the timer elapsed and the callback is executing
//
// Arm replaces any earlier schedule and Cancel drops it. Callbacks from a
// replaced schedule are recognised by a generation number and ignored.
//
// # Cadence
//
// Cadence repeats fetch, countdown, fetch. The owner calls Arm after a
// successful non-empty fetch and Park after an empty or failed one. While armed
// the remaining whole seconds are published once per second through the status
// handler, and when the countdown runs out the expiry function is called.
//
// # Debouncer
//
// Debouncer delays a call until a quiet period has passed without another
// call, then runs it once with the most recent argument.
package schedule
