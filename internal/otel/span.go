// Package otel holds the span helpers the key console uses around backend
// requests.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on backend request spans. Key identifiers are always
// masked before they reach a span.
const (
	AttrOperation   = attribute.Key("console.operation")
	AttrKey         = attribute.Key("key.masked")
	AttrKeyCount    = attribute.Key("key.count")
	AttrMode        = attribute.Key("key.mode")
	AttrThreshold   = attribute.Key("key.balance_threshold")
	AttrHTTPStatus  = attribute.Key("http.response.status_code")
)

// requestSpanPrefix names backend request spans, e.g. "remote.ListKeys"
const requestSpanPrefix = "remote."

// StartRequest opens a client span for one backend operation. Without a
// tracer the span already carried by ctx is returned and nothing is recorded.
func StartRequest(
	ctx context.Context,
	tracer trace.Tracer,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	attrs = append(attrs, AttrOperation.String(op))
	return tracer.Start(ctx, requestSpanPrefix+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// EndRequest closes a span opened by StartRequest. status is the HTTP status
// the backend answered a failed request with, or 0. The span status only says
// the operation failed; the error text, which may carry the endpoint URL, is
// kept in the exception event.
func EndRequest(span trace.Span, err error, status int) {
	if span == nil {
		return
	}
	if err != nil {
		if status != 0 {
			span.SetAttributes(AttrHTTPStatus.Int(status))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
	span.End()
}
