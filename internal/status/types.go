// Package status describes the state of the console's periodic refresh cadences.
package status

import (
	"fmt"
	"time"
)

// CadencePhase represents where a refresh cadence is in its lifecycle
type CadencePhase string

const (
	// PhaseIdle means the cadence has not completed a fetch yet
	PhaseIdle CadencePhase = "Idle"

	// PhaseArmed means the countdown to the next fetch is running
	PhaseArmed CadencePhase = "Armed"

	// PhasePaused means the last fetch returned nothing and the countdown is parked
	PhasePaused CadencePhase = "Paused"

	// PhaseFailed means the last fetch failed and the countdown is parked
	PhaseFailed CadencePhase = "Failed"

	// PhaseStopped means the cadence was torn down and will not fire again
	PhaseStopped CadencePhase = "Stopped"
)

// TimeFormat is the layout used for the last update time in labels
const TimeFormat = "15:04:05"

// CadenceStatus represents the current state of one refresh cadence
type CadenceStatus struct {
	// Name identifies the cadence (keys, stats or rates)
	Name string `json:"name"`

	// Phase is the current lifecycle phase
	Phase CadencePhase `json:"phase"`

	// Message provides additional information, usually the failure reason
	Message string `json:"message,omitempty"`

	// LastUpdate is when the cadence last completed a fetch, successful or not
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`

	// Interval is the configured time between fetches
	Interval time.Duration `json:"interval"`

	// Remaining is the number of whole seconds until the next fetch while armed
	Remaining int `json:"remaining,omitempty"`

	// FailureCount is the number of consecutive failed fetches
	FailureCount int `json:"failureCount,omitempty"`
}

// Label renders the status the way the console shows it next to each panel
func (s CadenceStatus) Label() string {
	var suffix string
	switch s.Phase {
	case PhaseArmed:
		suffix = fmt.Sprintf("(%ds until refresh)", s.Remaining)
	case PhasePaused:
		suffix = "(paused)"
	case PhaseFailed:
		suffix = "(failed)"
		if s.Message != "" {
			suffix = fmt.Sprintf("(failed: %s)", s.Message)
		}
	case PhaseStopped:
		suffix = "(stopped)"
	default:
		return "waiting for first refresh"
	}

	if s.LastUpdate == nil {
		return suffix
	}
	return fmt.Sprintf("last update: %s %s", s.LastUpdate.Format(TimeFormat), suffix)
}

// Parked reports whether the cadence stopped counting down after a fetch
func (s CadenceStatus) Parked() bool {
	return s.Phase == PhasePaused || s.Phase == PhaseFailed
}
