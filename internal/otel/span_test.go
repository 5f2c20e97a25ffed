package otel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordingTracer(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, tp.Tracer("otel-test")
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer reuses the span in ctx", func(t *testing.T) {
		t.Parallel()

		recorder, tracer := recordingTracer(t)
		parentCtx, parent := tracer.Start(context.Background(), "poll")

		ctx, span := StartSpan(parentCtx, nil, "store.ListProjects")
		assert.Equal(t, parentCtx, ctx)
		assert.Equal(t, parent.SpanContext(), span.SpanContext())
		parent.End()

		require.Len(t, recorder.Ended(), 1)
	})

	t.Run("nil tracer without a span in ctx is a no-op", func(t *testing.T) {
		t.Parallel()

		_, span := StartSpan(context.Background(), nil, "store.ListProjects")
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("tracer starts a child span", func(t *testing.T) {
		t.Parallel()

		recorder, tracer := recordingTracer(t)
		parentCtx, parent := tracer.Start(context.Background(), "poll")

		_, span := StartSpan(parentCtx, tracer, "coordinator.fetchDeployments",
			trace.WithAttributes(AttrProjectName.String("docs")))
		span.End()
		parent.End()

		ended := recorder.Ended()
		require.Len(t, ended, 2)
		child := ended[0]
		assert.Equal(t, "coordinator.fetchDeployments", child.Name())
		assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
		assert.Contains(t, child.Attributes(), AttrProjectName.String("docs"))
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantCode    codes.Code
		wantStatus  string
		wantErrType string
	}{
		{
			name:     "nil error leaves the span alone",
			wantCode: codes.Unset,
		},
		{
			name:        "failure",
			err:         errors.New("dial tcp 10.0.0.1:5432: connection refused"),
			wantCode:    codes.Error,
			wantStatus:  "operation failed",
			wantErrType: "*errors.errorString",
		},
		{
			name:        "cancellation",
			err:         fmt.Errorf("failed to list projects: %w", context.Canceled),
			wantCode:    codes.Error,
			wantStatus:  "operation canceled",
			wantErrType: "*fmt.wrapError",
		},
		{
			name:        "deadline",
			err:         context.DeadlineExceeded,
			wantCode:    codes.Error,
			wantStatus:  "operation timed out",
			wantErrType: "context.deadlineExceededError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder, tracer := recordingTracer(t)
			_, span := tracer.Start(context.Background(), "op")
			RecordError(span, tt.err)
			span.End()

			ended := recorder.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, tt.wantCode, ended[0].Status().Code)
			assert.Equal(t, tt.wantStatus, ended[0].Status().Description)

			if tt.err == nil {
				assert.Empty(t, ended[0].Events())
				return
			}
			require.Len(t, ended[0].Events(), 1)
			event := ended[0].Events()[0]
			assert.Equal(t, "exception", event.Name)
			assert.Contains(t, event.Attributes, attribute.String("error.type", tt.wantErrType))
			assert.NotContains(t, ended[0].Status().Description, "10.0.0.1")
		})
	}

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
}
