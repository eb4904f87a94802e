// Package remote is the client side of the key backend's HTTP API.
package remote

import (
	"context"

	"github.com/flowsilicon/keyconsole/internal/keys"
)

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks -source=backend.go Backend

// Backend is the remote authority for the key registry
type Backend interface {
	// ListKeys returns every credential in backend order
	ListKeys(ctx context.Context) ([]keys.Record, error)

	// CheckKey probes the live balance of a credential without storing it
	CheckKey(ctx context.Context, key string) (*CheckResult, error)

	// CreateKey adds one credential
	CreateKey(ctx context.Context, req CreateKeyRequest) (*CreateKeyResult, error)

	// CreateKeys adds many credentials in one request
	CreateKeys(ctx context.Context, req BatchCreateRequest) (*BatchCreateResult, error)

	// DeleteKey removes one credential
	DeleteKey(ctx context.Context, key string) (*Ack, error)

	// DeleteBelow removes every credential whose balance is below threshold
	DeleteBelow(ctx context.Context, threshold float64) (*DeleteResult, error)

	// DeleteZeroBalance removes every credential with a zero or negative balance
	DeleteZeroBalance(ctx context.Context) (*DeleteResult, error)

	// EnableKey and DisableKey toggle whether the backend may use a credential
	EnableKey(ctx context.Context, key string) (*Ack, error)
	DisableKey(ctx context.Context, key string) (*Ack, error)

	// SetMode changes the usage policy
	SetMode(ctx context.Context, mode keys.Mode, ids []string) (*ModeResult, error)

	// GetMode reads the active usage policy
	GetMode(ctx context.Context) (*keys.ModeState, error)

	// GetStats reads the dashboard totals
	GetStats(ctx context.Context) (*Stats, error)

	// GetRateStats reads the live per-credential rates
	GetRateStats(ctx context.Context) (*RateStats, error)

	// RefreshBalances asks the backend to re-probe every balance
	RefreshBalances(ctx context.Context) (*Ack, error)
}
