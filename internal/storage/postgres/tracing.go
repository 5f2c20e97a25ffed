package postgres

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/internal/otel"
)

// TracerName is the name used for the store's tracer
const TracerName = "github.com/CrashBytes/cloudflare-monitor/storage/postgres"

// startSpan starts a span for a database operation. Every span carries db.system
// per the OpenTelemetry semantic conventions; a nil tracer yields the span from ctx.
func (s *Store) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	opts = append([]trace.SpanStartOption{trace.WithAttributes(semconv.DBSystemPostgreSQL)}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}
