package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// testRoutes mirrors the shape of the monitor's router
func testRoutes(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		r.Get("/broken", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		r.Get("/events", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func serve(h http.Handler, path string, header http.Header) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

// requestCount sums the request counter data points whose attributes contain want
func requestCount(t *testing.T, metrics []metricdata.Metrics, want ...attribute.KeyValue) int64 {
	t.Helper()

	for _, m := range metrics {
		if m.Name != "cfmon_http_requests_total" {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		var total int64
	points:
		for _, dp := range sum.DataPoints {
			for _, kv := range want {
				if v, found := dp.Attributes.Value(kv.Key); !found || v != kv.Value {
					continue points
				}
			}
			total += dp.Value
		}
		return total
	}
	t.Fatal("cfmon_http_requests_total not found")
	return 0
}

func TestMetricsMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	mw, err := MetricsMiddleware(nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(testRoutes(mw), "/api/v1/projects/p1", nil))
}

func TestMetricsMiddleware_RecordsRoutes(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)
	h := testRoutes(mw)

	assert.Equal(t, http.StatusOK, serve(h, "/api/v1/projects/p1", nil))
	assert.Equal(t, http.StatusOK, serve(h, "/api/v1/projects/p2", nil))
	assert.Equal(t, http.StatusInternalServerError, serve(h, "/api/v1/broken", nil))
	assert.Equal(t, http.StatusNotFound, serve(h, "/nope", nil))
	assert.Equal(t, http.StatusOK, serve(h, "/api/v1/events", nil))

	metrics := collectScope(t, reader, HTTPMeterName)

	assert.Equal(t, int64(5), requestCount(t, metrics))
	assert.Equal(t, int64(2), requestCount(t, metrics,
		attribute.String("route", "/api/v1/projects/{id}"),
		attribute.String("status_class", "2xx"),
		attribute.String("method", http.MethodGet),
	))
	assert.Equal(t, int64(1), requestCount(t, metrics, attribute.String("status_class", "5xx")))
	assert.Equal(t, int64(1), requestCount(t, metrics, attribute.String("status_class", "4xx")))

	assert.Equal(t, int64(0), sumValue(t, metrics, "cfmon_http_requests_in_flight"))

	var observed uint64
	for _, m := range metrics {
		if m.Name != "cfmon_http_request_duration_seconds" {
			continue
		}
		hist, ok := m.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		for _, dp := range hist.DataPoints {
			observed += dp.Count
		}
	}
	assert.Equal(t, uint64(4), observed, "the event stream has no latency observation")
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	h := testRoutes(TracingMiddleware(tp))

	parent := http.Header{"Traceparent": {"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}}
	assert.Equal(t, http.StatusOK, serve(h, "/api/v1/projects/p1", parent))
	assert.Equal(t, http.StatusOK, serve(h, "/health", nil))
	assert.Equal(t, http.StatusOK, serve(h, "/api/v1/events", nil))
	assert.Equal(t, http.StatusInternalServerError, serve(h, "/api/v1/broken", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2, "probes and the event stream are not traced")

	project := spans[0]
	assert.Equal(t, "GET /api/v1/projects/{id}", project.Name())
	assert.Equal(t, trace.SpanKindServer, project.SpanKind())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", project.SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", project.Parent().SpanID().String())
	assert.Contains(t, project.Attributes(), attribute.String("http.route", "/api/v1/projects/{id}"))

	broken := spans[1]
	assert.Equal(t, "GET /api/v1/broken", broken.Name())
	assert.Equal(t, codes.Error, broken.Status().Code)
	assert.False(t, broken.Parent().IsValid())
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, serve(testRoutes(TracingMiddleware(nil)), "/api/v1/projects/p1", nil))
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]string{0: "2xx", 200: "2xx", 304: "3xx", 404: "4xx", 503: "5xx"} {
		assert.Equal(t, want, statusClass(code), "code %d", code)
	}
}
