package keys

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortField names the numeric record attribute used for ordering.
type SortField string

const (
	SortNone        SortField = "none"
	SortScore       SortField = "score"
	SortBalance     SortField = "balance"
	SortSuccessRate SortField = "success_rate"
	SortUsage       SortField = "usage"
	SortRPM         SortField = "rpm"
	SortTPM         SortField = "tpm"
)

// SortFields lists every field accepted by ParseSortField, in display order.
var SortFields = []SortField{SortNone, SortScore, SortBalance, SortSuccessRate, SortUsage, SortRPM, SortTPM}

// SortDirection is either ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortField converts user input into a SortField.
func ParseSortField(s string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return SortNone, nil
	}
	if slices.Contains(SortFields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// ParseSortDirection converts user input into a SortDirection.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case Ascending, Descending:
		return d, nil
	case "":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q (expected asc or desc)", s)
	}
}

// SortState is the active field and direction. The zero value sorts by nothing.
type SortState struct {
	Field     SortField     `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// Active reports whether a field other than none is selected.
func (s SortState) Active() bool {
	return s.Field != "" && s.Field != SortNone
}

// By returns the state after the user picks field: the same field flips the
// direction, a new field starts descending.
func (s SortState) By(field SortField) SortState {
	if field == s.Field && s.Active() {
		if s.Direction == Descending {
			return SortState{Field: field, Direction: Ascending}
		}
		return SortState{Field: field, Direction: Descending}
	}
	return SortState{Field: field, Direction: Descending}
}

func (s SortState) String() string {
	if !s.Active() {
		return string(SortNone)
	}
	return fmt.Sprintf("%s %s", s.Field, s.Direction)
}

// Sort returns a new slice ordered for display. Disabled records always come
// after enabled ones and, among enabled records, selected ones come first.
// Remaining ties keep their input order.
func Sort(records []Record, state SortState) []Record {
	out := slices.Clone(records)
	sign := 1
	if state.Direction != Ascending {
		sign = -1
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		if a.Disabled != b.Disabled {
			if a.Disabled {
				return 1
			}
			return -1
		}
		if a.Disabled {
			return 0
		}
		if a.Selected != b.Selected {
			if a.Selected {
				return -1
			}
			return 1
		}
		if !state.Active() {
			return 0
		}
		return sign * compareField(a, b, state.Field)
	})
	return out
}

func compareField(a, b Record, field SortField) int {
	switch field {
	case SortScore:
		return cmp.Compare(a.Score, b.Score)
	case SortBalance:
		return cmp.Compare(a.Balance, b.Balance)
	case SortSuccessRate:
		return cmp.Compare(a.SuccessRate, b.SuccessRate)
	case SortUsage:
		return cmp.Compare(a.TotalCalls, b.TotalCalls)
	case SortRPM:
		return cmp.Compare(a.RPM, b.RPM)
	case SortTPM:
		return cmp.Compare(a.TPM, b.TPM)
	default:
		return 0
	}
}
