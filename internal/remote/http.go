package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowsilicon/keyconsole/internal/httpclient"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/otel"
)

// httpBackend talks to the backend's JSON API
type httpBackend struct {
	base   *url.URL
	client httpclient.Client
	tracer trace.Tracer
}

// Option configures the HTTP backend
type Option func(*httpBackend)

// WithHTTPClient sets the transport used for requests
func WithHTTPClient(c httpclient.Client) Option {
	return func(b *httpBackend) {
		b.client = c
	}
}

// WithTracer enables a span around every backend call
func WithTracer(t trace.Tracer) Option {
	return func(b *httpBackend) {
		b.tracer = t
	}
}

// NewHTTPBackend creates a Backend for the API rooted at endpoint
func NewHTTPBackend(endpoint string, opts ...Option) (Backend, error) {
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend endpoint %q: scheme must be http or https", endpoint)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid backend endpoint %q: host is required", endpoint)
	}

	b := &httpBackend{
		base:   base,
		client: httpclient.NewDefaultClient(httpclient.DefaultTimeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *httpBackend) ListKeys(ctx context.Context) ([]keys.Record, error) {
	data, err := b.call(ctx, "ListKeys", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Get(ctx, b.url("keys"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	resp, err := decode[listKeysResponse](data, "list keys")
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (b *httpBackend) CheckKey(ctx context.Context, key string) (*CheckResult, error) {
	data, err := b.call(ctx, "CheckKey", keyAttrs(key), func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", "check"), checkKeyRequest{Key: key})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check key %s: %w", keys.MaskKey(key), err)
	}
	return decode[CheckResult](data, "check key")
}

func (b *httpBackend) CreateKey(ctx context.Context, req CreateKeyRequest) (*CreateKeyResult, error) {
	data, err := b.call(ctx, "CreateKey", keyAttrs(req.Key), func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys"), req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add key %s: %w", keys.MaskKey(req.Key), err)
	}
	return decode[CreateKeyResult](data, "add key")
}

func (b *httpBackend) CreateKeys(ctx context.Context, req BatchCreateRequest) (*BatchCreateResult, error) {
	attrs := []attribute.KeyValue{otel.AttrKeyCount.Int(len(req.Keys))}
	data, err := b.call(ctx, "CreateKeys", attrs, func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", "batch"), req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add %d keys: %w", len(req.Keys), err)
	}
	return decode[BatchCreateResult](data, "batch add")
}

func (b *httpBackend) DeleteKey(ctx context.Context, key string) (*Ack, error) {
	data, err := b.call(ctx, "DeleteKey", keyAttrs(key), func(ctx context.Context) ([]byte, error) {
		return b.client.Delete(ctx, b.url("keys", key))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete key %s: %w", keys.MaskKey(key), err)
	}
	return decode[Ack](data, "delete key")
}

func (b *httpBackend) DeleteBelow(ctx context.Context, threshold float64) (*DeleteResult, error) {
	attrs := []attribute.KeyValue{otel.AttrThreshold.Float64(threshold)}
	value := strconv.FormatFloat(threshold, 'f', -1, 64)
	data, err := b.call(ctx, "DeleteBelow", attrs, func(ctx context.Context) ([]byte, error) {
		return b.client.Delete(ctx, b.url("keys", "low-balance", value))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete keys below %s: %w", value, err)
	}
	return decode[DeleteResult](data, "delete low balance")
}

func (b *httpBackend) DeleteZeroBalance(ctx context.Context) (*DeleteResult, error) {
	data, err := b.call(ctx, "DeleteZeroBalance", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Delete(ctx, b.url("keys", "zero-balance"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete zero balance keys: %w", err)
	}
	return decode[DeleteResult](data, "delete zero balance")
}

func (b *httpBackend) EnableKey(ctx context.Context, key string) (*Ack, error) {
	data, err := b.call(ctx, "EnableKey", keyAttrs(key), func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", key, "enable"), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enable key %s: %w", keys.MaskKey(key), err)
	}
	return decode[Ack](data, "enable key")
}

func (b *httpBackend) DisableKey(ctx context.Context, key string) (*Ack, error) {
	data, err := b.call(ctx, "DisableKey", keyAttrs(key), func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", key, "disable"), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to disable key %s: %w", keys.MaskKey(key), err)
	}
	return decode[Ack](data, "disable key")
}

func (b *httpBackend) SetMode(ctx context.Context, mode keys.Mode, ids []string) (*ModeResult, error) {
	attrs := []attribute.KeyValue{otel.AttrMode.String(string(mode)), otel.AttrKeyCount.Int(len(ids))}
	data, err := b.call(ctx, "SetMode", attrs, func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", "mode"), setModeRequest{Mode: mode, Keys: ids})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set key mode %s: %w", mode, err)
	}
	return decode[ModeResult](data, "set mode")
}

func (b *httpBackend) GetMode(ctx context.Context) (*keys.ModeState, error) {
	data, err := b.call(ctx, "GetMode", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Get(ctx, b.url("keys", "mode"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get key mode: %w", err)
	}
	return decode[keys.ModeState](data, "get mode")
}

func (b *httpBackend) GetStats(ctx context.Context) (*Stats, error) {
	data, err := b.call(ctx, "GetStats", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Get(ctx, b.url("stats"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return decode[Stats](data, "stats")
}

func (b *httpBackend) GetRateStats(ctx context.Context) (*RateStats, error) {
	data, err := b.call(ctx, "GetRateStats", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Get(ctx, b.url("request-stats"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get request stats: %w", err)
	}
	return decode[RateStats](data, "request stats")
}

func (b *httpBackend) RefreshBalances(ctx context.Context) (*Ack, error) {
	data, err := b.call(ctx, "RefreshBalances", nil, func(ctx context.Context) ([]byte, error) {
		return b.client.Post(ctx, b.url("keys", "refresh"), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh balances: %w", err)
	}
	return decode[Ack](data, "refresh balances")
}

// call runs fn inside a span named after the operation
func (b *httpBackend) call(
	ctx context.Context,
	op string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	ctx, span := otel.StartRequest(ctx, b.tracer, op, attrs...)
	data, err := fn(ctx)
	otel.EndRequest(span, err, httpclient.StatusCode(err))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// url joins escaped path segments onto the endpoint
func (b *httpBackend) url(segments ...string) string {
	u := *b.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = u.Path + "/" + strings.Join(segments, "/")
	u.RawPath = b.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	return u.String()
}

func keyAttrs(key string) []attribute.KeyValue {
	return []attribute.KeyValue{otel.AttrKey.String(keys.MaskKey(key))}
}

func decode[T any](data []byte, what string) (*T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", what, err)
	}
	return &v, nil
}
