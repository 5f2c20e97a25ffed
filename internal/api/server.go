// Package api provides the REST API server of the monitor.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/CrashBytes/cloudflare-monitor/internal/api/v1"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
)

// Dependencies are the components the API serves
type Dependencies struct {
	Service     service.MonitorService
	Coordinator coordinator.Coordinator
	Hub         v1.EventHub

	// Metrics serves /metrics when set
	Metrics http.Handler
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithRequestTimeout bounds every request except the event stream
func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.requestTimeout = timeout
	}
}

// NewServer creates and configures the HTTP router with the given dependencies and options
func NewServer(deps Dependencies, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	h := &healthHandler{deps: deps}
	r.Group(func(r chi.Router) {
		if cfg.requestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.requestTimeout))
		}
		r.Get("/health", h.health)
		r.Get("/readiness", h.readiness)
		r.Get("/version", versionHandler)
		if deps.Metrics != nil {
			r.Handle("/metrics", deps.Metrics)
		}
	})

	r.Mount("/api/v1", v1.Router(deps.Service, deps.Coordinator, deps.Hub, cfg.requestTimeout))

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
