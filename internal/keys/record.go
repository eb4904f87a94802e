// Package keys defines the credential records shown by the console together with
// the ordering rules and input helpers that operate on them.
package keys

import (
	"fmt"
	"strings"
)

// Record is a single credential entry as reported by the backend.
type Record struct {
	// ID is the credential itself. It doubles as the record identifier.
	ID string `json:"key"`

	// Balance is the remaining balance reported for the credential
	Balance float64 `json:"balance"`

	// Score is the quality score computed by the backend's balancer
	Score float64 `json:"score"`

	// SuccessRate is the ratio of successful calls, between 0 and 1
	SuccessRate float64 `json:"success_rate"`

	// TotalCalls is the number of calls routed through the credential
	TotalCalls int64 `json:"total_calls"`

	// RPM and TPM are the live request and token rates
	RPM int64 `json:"rpm"`
	TPM int64 `json:"tpm"`

	// Disabled records are never used by the backend and always sort last
	Disabled bool `json:"disabled"`

	// Selected is local display state and is never sent to the backend
	Selected bool `json:"-"`
}

// Masked returns the record identifier in a form safe for logs and notifications.
func (r Record) Masked() string {
	return MaskKey(r.ID)
}

// Mode is the usage policy the backend applies when picking credentials.
type Mode string

const (
	// ModeAll lets the backend use every enabled credential
	ModeAll Mode = "all"

	// ModeSingle pins the backend to exactly one credential
	ModeSingle Mode = "single"

	// ModeSelected restricts the backend to a chosen subset of at least two credentials
	ModeSelected Mode = "selected"
)

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeSingle, ModeSelected:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected all, single or selected)", s)
	}
}

// UsesIDs reports whether the mode carries an explicit identifier list.
func (m Mode) UsesIDs() bool {
	return m == ModeSingle || m == ModeSelected
}

// ValidateIDs checks the identifier cardinality required by the mode.
func (m Mode) ValidateIDs(ids []string) error {
	switch m {
	case ModeAll:
		return nil
	case ModeSingle:
		if len(ids) != 1 {
			return fmt.Errorf("single mode requires exactly one key, got %d", len(ids))
		}
	case ModeSelected:
		if len(ids) < 2 {
			return fmt.Errorf("selected mode requires at least two keys, got %d", len(ids))
		}
	default:
		return fmt.Errorf("unknown mode %q", string(m))
	}
	return nil
}

// ModeState is the authoritative usage mode together with its identifiers.
type ModeState struct {
	Mode Mode     `json:"mode"`
	IDs  []string `json:"keys"`
}

// Partition splits records into enabled and disabled groups preserving order.
func Partition(records []Record) (enabled, disabled []Record) {
	for _, r := range records {
		if r.Disabled {
			disabled = append(disabled, r)
		} else {
			enabled = append(enabled, r)
		}
	}
	return enabled, disabled
}
