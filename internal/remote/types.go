package remote

import "github.com/flowsilicon/keyconsole/internal/keys"

// Ack is the plain acknowledgement returned by most mutations
type Ack struct {
	Message string `json:"message"`
}

// CreateKeyRequest adds a single credential
type CreateKeyRequest struct {
	Key     string  `json:"key"`
	Balance float64 `json:"balance"`
	// AllowZeroBalance asks the backend to accept a zero balance and probe the real one
	AllowZeroBalance bool `json:"allow_zero_balance"`
}

// CreateKeyResult is the backend's answer to CreateKey
type CreateKeyResult struct {
	Message string  `json:"message"`
	Balance float64 `json:"balance"`
}

// BatchCreateRequest adds many credentials sharing one balance
type BatchCreateRequest struct {
	Keys             []string `json:"keys"`
	Balance          float64  `json:"balance"`
	AllowZeroBalance bool     `json:"allow_zero_balance"`
}

// BatchCreateResult reports how many credentials were added or skipped
type BatchCreateResult struct {
	Message string `json:"message"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

// DeleteResult reports a bulk delete
type DeleteResult struct {
	Message     string   `json:"message"`
	Deleted     int      `json:"deleted"`
	DeletedKeys []string `json:"deleted_keys"`
}

// CheckResult is a live balance probe
type CheckResult struct {
	Key     string  `json:"key"`
	Balance float64 `json:"balance"`
}

// ModeResult is the backend's answer to SetMode
type ModeResult struct {
	Message string    `json:"message"`
	Mode    keys.Mode `json:"mode"`
	Keys    []string  `json:"keys"`
}

// State returns the authoritative mode carried by the result
func (r *ModeResult) State() keys.ModeState {
	return keys.ModeState{Mode: r.Mode, IDs: r.Keys}
}

// Stats are the dashboard totals
type Stats struct {
	TotalKeys         int     `json:"total_keys"`
	ActiveKeys        int     `json:"active_keys"`
	DisabledKeys      int     `json:"disabled_keys"`
	TotalBalance      float64 `json:"total_balance"`
	ActiveKeysBalance float64 `json:"active_keys_balance"`
	LastUsedTime      string  `json:"last_used_time"`
	TotalCalls        int64   `json:"total_calls"`
	SuccessCalls      int64   `json:"success_calls"`
	AvgSuccessRate    float64 `json:"avg_success_rate"`
}

// Empty reports whether the backend has no credentials at all
func (s *Stats) Empty() bool {
	return s == nil || s.TotalKeys == 0
}

// KeyRate holds the live rates for one credential
type KeyRate struct {
	Key         string  `json:"key"`
	RPM         int64   `json:"rpm"`
	TPM         int64   `json:"tpm"`
	TotalCalls  int64   `json:"total_calls"`
	SuccessRate float64 `json:"success_rate"`
	Score       float64 `json:"score"`
}

// RateStats are the live request and token rates
type RateStats struct {
	RPM      int64     `json:"rpm"`
	TPM      int64     `json:"tpm"`
	RPD      int64     `json:"rpd"`
	TPD      int64     `json:"tpd"`
	KeyStats []KeyRate `json:"key_stats"`
}

// Empty reports whether no credential has reported any rate
func (r *RateStats) Empty() bool {
	return r == nil || len(r.KeyStats) == 0
}

type listKeysResponse struct {
	Keys []keys.Record `json:"keys"`
}

type setModeRequest struct {
	Mode keys.Mode `json:"mode"`
	Keys []string  `json:"keys"`
}

type checkKeyRequest struct {
	Key string `json:"key"`
}
