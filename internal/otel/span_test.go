package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("keyconsole/remote")
}

func attrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartRequest_WithoutTracer(t *testing.T) {
	t.Parallel()

	ctx, span := StartRequest(context.Background(), nil, "ListKeys")
	require.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() { EndRequest(span, errors.New("refused"), 503) })
}

func TestStartRequest_KeepsParent(t *testing.T) {
	t.Parallel()

	exporter, tracer := newRecorder(t)
	parentCtx, parent := tracer.Start(context.Background(), "console.Refresh")

	_, span := StartRequest(parentCtx, tracer, "GetStats")
	EndRequest(span, nil, 0)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "remote.GetStats", spans[0].Name)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
}

func TestEndRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		status      int
		wantCode    codes.Code
		wantStatus  bool
		wantEvented bool
	}{
		{name: "success", wantCode: codes.Unset},
		{
			name:        "backend rejected the request",
			err:         errors.New("key sk-abc******: not found"),
			status:      404,
			wantCode:    codes.Error,
			wantStatus:  true,
			wantEvented: true,
		},
		{
			name:        "transport failure",
			err:         errors.New("dial tcp 127.0.0.1:3016: connection refused"),
			wantCode:    codes.Error,
			wantEvented: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tracer := newRecorder(t)
			_, span := StartRequest(context.Background(), tracer, "DeleteKey",
				AttrKey.String("sk-abc******"))
			EndRequest(span, tt.err, tt.status)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			got := spans[0]
			assert.Equal(t, "remote.DeleteKey", got.Name)
			assert.Equal(t, trace.SpanKindClient, got.SpanKind)
			assert.Equal(t, tt.wantCode, got.Status.Code)

			a := attrs(got)
			assert.Equal(t, "DeleteKey", a[AttrOperation].AsString())
			assert.Equal(t, "sk-abc******", a[AttrKey].AsString())
			status, hasStatus := a[AttrHTTPStatus]
			assert.Equal(t, tt.wantStatus, hasStatus)
			if tt.wantStatus {
				assert.Equal(t, int64(tt.status), status.AsInt64())
			}

			if tt.err != nil {
				// the error text stays out of the span status
				assert.Equal(t, "operation failed", got.Status.Description)
			}
			assert.Equal(t, tt.wantEvented, len(got.Events) > 0)
		})
	}
}

func TestEndRequest_NilSpan(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { EndRequest(nil, errors.New("refused"), 500) })
}
