package console

import (
	"context"
	"time"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/status"
)

// Severity classifies a user-facing message
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Choice is the answer to a three-way confirmation
type Choice int

const (
	// ChoiceCancel abandons the operation without contacting the backend
	ChoiceCancel Choice = iota
	// ChoiceNo proceeds without the optional behavior
	ChoiceNo
	// ChoiceYes proceeds with the optional behavior
	ChoiceYes
)

func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "yes"
	case ChoiceNo:
		return "no"
	default:
		return "cancel"
	}
}

// Surface renders controller state. Implementations must be safe for
// concurrent use and must not call back into the controller synchronously.
type Surface interface {
	// RenderKeys shows records in display order together with the selection
	RenderKeys(records []keys.Record, selected []string)

	// RenderCadence shows the countdown or parked state of one refresh cadence
	RenderCadence(st status.CadenceStatus)

	RenderStats(stats *remote.Stats)
	RenderRates(rates *remote.RateStats)
	RenderMode(mode keys.ModeState)

	// SelectedIDs returns the selection currently shown. ok is false until
	// the surface has rendered at least once.
	SelectedIDs() (ids []string, ok bool)
}

// Notifier shows transient messages and manages their display lifecycle
type Notifier interface {
	Notify(message string, severity Severity, duration time.Duration)
}

// Progress reports coarse progress of a batch operation
type Progress interface {
	Start(title string, total int)
	Update(done, total int, detail string)
	Done()
}

// Confirmer asks the user to decide between yes, no and cancel
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (Choice, error)
}

type nopSurface struct{}

func (nopSurface) RenderKeys([]keys.Record, []string)     {}
func (nopSurface) RenderCadence(status.CadenceStatus)     {}
func (nopSurface) RenderStats(*remote.Stats)              {}
func (nopSurface) RenderRates(*remote.RateStats)          {}
func (nopSurface) RenderMode(keys.ModeState)              {}
func (nopSurface) SelectedIDs() ([]string, bool)          { return nil, false }
func (nopSurface) Notify(string, Severity, time.Duration) {}
func (nopSurface) Start(string, int)                      {}
func (nopSurface) Update(int, int, string)                {}
func (nopSurface) Done()                                  {}

// declineConfirmer answers every question with ChoiceNo
type declineConfirmer struct{}

func (declineConfirmer) Confirm(context.Context, string, string) (Choice, error) {
	return ChoiceNo, nil
}
