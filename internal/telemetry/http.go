package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPMeterName is the instrumentation scope of the HTTP request metrics
	HTTPMeterName = "github.com/CrashBytes/cloudflare-monitor/http"

	// eventStreamPath stays open for as long as an SSE client is connected
	eventStreamPath = "/api/v1/events"

	unmatchedRoute = "unmatched"
)

var probePaths = map[string]struct{}{
	"/health":    {},
	"/readiness": {},
	"/metrics":   {},
}

// HTTPMetrics records request counts, latencies and in-flight requests per chi route
type HTTPMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instruments. A nil provider yields nil metrics.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMeterName)

	duration, err := meter.Float64Histogram(
		"cfmon_http_request_duration_seconds",
		metric.WithDescription("Latency of HTTP requests, excluding the event stream"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"cfmon_http_requests_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter(
		"cfmon_http_requests_in_flight",
		metric.WithDescription("HTTP requests being served, including open event streams"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{duration: duration, requests: requests, inFlight: inFlight}, nil
}

// Middleware records one request. Event streams are counted but their duration is not
// observed.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// r.Context() is cancelled once the handler returns; the instruments do not care
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.inFlight.Add(ctx, 1)
		defer func() {
			m.inFlight.Add(ctx, -1)

			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", routeLabel(r)),
				attribute.String("status_class", statusClass(ww.Status())),
			)
			m.requests.Add(ctx, 1, attrs)
			if r.URL.Path != eventStreamPath {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// MetricsMiddleware builds HTTPMetrics from provider and returns its middleware
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	m, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return m.Middleware, nil
}

// TracingMiddleware starts a server span per request, continuing any W3C trace context the
// caller sent. Spans are named after the chi route once routing is done. Probes and the
// event stream are not traced. A nil provider disables tracing.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			route := routeLabel(r)
			if route == unmatchedRoute {
				return
			}
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + route)
			span.SetAttributes(semconv.HTTPRouteKey.String(route))
		})

		return otelhttp.NewHandler(named, "http.server",
			otelhttp.WithTracerProvider(provider),
			// request metrics come from HTTPMetrics
			otelhttp.WithMeterProvider(metricnoop.NewMeterProvider()),
			otelhttp.WithPropagators(Propagator()),
			otelhttp.WithFilter(traced),
		)
	}
}

func traced(r *http.Request) bool {
	if r.URL.Path == eventStreamPath {
		return false
	}
	_, probe := probePaths[r.URL.Path]
	return !probe
}

// routeLabel is the chi route pattern, which keeps label cardinality bounded
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

func statusClass(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}
