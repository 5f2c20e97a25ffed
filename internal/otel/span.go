// Package otel holds the span helpers and attribute keys shared by the poll coordinator and
// the Postgres store.
package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys
const (
	AttrProjectID       = attribute.Key("cloudflare.project.id")
	AttrProjectName     = attribute.Key("cloudflare.project.name")
	AttrDeploymentCount = attribute.Key("cloudflare.deployment.count")
	AttrEndpoint        = attribute.Key("cloudflare.endpoint")
	AttrStatus          = attribute.Key("record.status")
	AttrResultCount     = attribute.Key("result.count")
	AttrErrorCount      = attribute.Key("poll.error_count")
)

// StartSpan starts a child span on tracer. Without a tracer the span already in ctx is
// returned, which is a no-op span when ctx has none.
func StartSpan(
	ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer != nil {
		return tracer.Start(ctx, name, opts...)
	}
	return ctx, trace.SpanFromContext(ctx)
}

// RecordError attaches err to span as an exception event tagged with its Go type and fails
// the span. The status description never carries the error text, which may hold SQL or
// connection details. Cancellation gets its own description.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(semconv.ErrorTypeKey.String(fmt.Sprintf("%T", err))))
	switch {
	case errors.Is(err, context.Canceled):
		span.SetStatus(codes.Error, "operation canceled")
	case errors.Is(err, context.DeadlineExceeded):
		span.SetStatus(codes.Error, "operation timed out")
	default:
		span.SetStatus(codes.Error, "operation failed")
	}
}
