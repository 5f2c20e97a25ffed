// Package telemetry wires OpenTelemetry into the monitor.
//
// New turns the telemetry section of the configuration into a tracer provider and a meter
// provider. Traces are pushed to an OTLP/HTTP collector; metrics are either pushed over
// OTLP/HTTP or exposed for Prometheus scraping through MetricsHandler. A disabled section
// yields no-op providers, so callers never need to nil-check.
//
// The package also defines the instruments recorded by the poll coordinator, the caches,
// the event hub and the HTTP layer.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the process-wide providers and shuts them down on exit
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
	shutdowns      []func(context.Context) error
}

// New builds the providers described by cfg and installs them as the otel globals.
// A nil or disabled config returns no-op providers.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	if cfg.TracingEnabled() {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(Propagator())
	}

	if cfg.MetricsEnabled() {
		mp, handler, err := newMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.meterProvider = mp
		t.metricsHandler = handler
		t.shutdowns = append(t.shutdowns, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	slog.Info("Telemetry initialized",
		"service_name", cfg.serviceName(),
		"service_version", cfg.serviceVersion(),
		"tracing", cfg.TracingEnabled(),
		"metrics", cfg.MetricsEnabled(),
		"metrics_exporter", cfg.Metrics.exporter(),
	)
	return t, nil
}

// Propagator is the W3C trace context and baggage propagator used on inbound requests
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// TracerProvider returns the tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil unless metrics use the
// Prometheus exporter
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Shutdown flushes and stops the providers in reverse creation order. Later calls are no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if len(t.shutdowns) == 0 {
		return nil
	}

	var errs []error
	for _, shutdown := range slices.Backward(t.shutdowns) {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down telemetry: %w", err)
	}
	slog.Debug("Telemetry shut down")
	return nil
}
