package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/juju/clock"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/internal/api"
	"github.com/CrashBytes/cloudflare-monitor/internal/cloudflare"
	"github.com/CrashBytes/cloudflare-monitor/internal/config"
	"github.com/CrashBytes/cloudflare-monitor/internal/events"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	servicefactory "github.com/CrashBytes/cloudflare-monitor/internal/service/factory"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
	storagefactory "github.com/CrashBytes/cloudflare-monitor/internal/storage/factory"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
	"github.com/CrashBytes/cloudflare-monitor/internal/versions"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// TracerName is the instrumentation name of the monitor's own spans
	TracerName = "github.com/CrashBytes/cloudflare-monitor"
)

// MonitorAppOptions is a function that configures the monitor app builder
type MonitorAppOptions func(*monitorAppConfig) error

// monitorAppConfig collects the builder inputs.
// Component overrides exist for tests; production builds everything from config.
type monitorAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	client cloudflare.Client
	store  storage.Store
	clock  clock.Clock

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...MonitorAppOptions) (*monitorAppConfig, error) {
	cfg := &monitorAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		clock:          clock.WallClock,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewMonitorApp builds every component from the configuration
func NewMonitorApp(
	ctx context.Context,
	opts ...MonitorAppOptions,
) (*MonitorApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.store == nil {
		cfg.store, err = storagefactory.NewStore(ctx, cfg.config, cfg.tracer())
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.store.Close()
		}
	}()

	if cfg.client == nil {
		cfg.client, err = NewCloudflareClient(cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudflare client: %w", err)
		}
	}

	svc, err := buildServiceComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	hub, err := buildEventHub(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build event hub: %w", err)
	}

	coord, err := buildPollComponents(cfg, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll components: %w", err)
	}

	components := &AppComponents{
		Coordinator: coord,
		Service:     svc,
		Hub:         hub,
		Store:       cfg.store,
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	return &MonitorApp{
		config:        cfg.config,
		components:    components,
		httpServer:    httpServer,
		clock:         cfg.clock,
		sweepInterval: cfg.config.Cache.GetSweepInterval(),
		ctx:           appCtx,
		cancelFunc:    cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout bounds every request except the event stream
func WithRequestTimeout(timeout time.Duration) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		if timeout < 0 {
			return fmt.Errorf("request timeout cannot be negative")
		}
		cfg.requestTimeout = timeout
		return nil
	}
}

// WithCloudflareClient allows injecting a custom upstream client (for testing)
func WithCloudflareClient(c cloudflare.Client) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.client = c
		return nil
	}
}

// WithStore allows injecting a custom store (for testing)
func WithStore(s storage.Store) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithClock sets the clock shared by the caches, the hub and the coordinator
func WithClock(clk clock.Clock) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		if clk == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.clock = clk
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for metrics
func WithMeterProvider(mp metric.MeterProvider) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves the given handler at /metrics
func WithMetricsHandler(h http.Handler) MonitorAppOptions {
	return func(cfg *monitorAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

func (b *monitorAppConfig) tracer() trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(TracerName)
}

// NewCloudflareClient creates the upstream API client from the cloudflare section of cfg
func NewCloudflareClient(cfg *config.Config) (*cloudflare.APIClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	cf := &cfg.Cloudflare

	token, err := cf.GetAPIToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read api token: %w", err)
	}

	return cloudflare.NewAPIClient(cf.AccountID, token,
		cloudflare.WithBaseURL(cf.GetBaseURL()),
		cloudflare.WithTimeout(cf.GetTimeout()),
		cloudflare.WithRetryPolicy(cf.GetRetryPolicy()),
		cloudflare.WithRateLimit(cf.RequestsPerSecond, cf.GetBurst()),
		cloudflare.WithDeploymentPages(cf.GetDeploymentPages()),
		cloudflare.WithUserAgent(versions.UserAgent()),
	)
}

// CoordinatorOptions returns the coordinator options configured by the polling section of cfg
func CoordinatorOptions(cfg *config.Config) ([]coordinator.Option, error) {
	filter, err := cfg.Polling.ProjectFilter()
	if err != nil {
		return nil, fmt.Errorf("invalid project filter: %w", err)
	}

	return []coordinator.Option{
		coordinator.WithInterval(cfg.Polling.GetInterval()),
		coordinator.WithJitter(cfg.Polling.GetJitter()),
		coordinator.WithConcurrency(cfg.Polling.GetConcurrency()),
		coordinator.WithCycleTimeout(cfg.Polling.GetCycleTimeout()),
		coordinator.WithProjectFilter(filter),
	}, nil
}

// buildServiceComponents builds the cached read service
func buildServiceComponents(b *monitorAppConfig) (service.MonitorService, error) {
	slog.Info("Initializing service components")

	var cacheMetrics *telemetry.CacheMetrics
	if b.meterProvider != nil {
		var err error
		cacheMetrics, err = telemetry.NewCacheMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache metrics: %w", err)
		}
		slog.Info("Cache metrics enabled")
	}

	return servicefactory.NewMonitorService(b.config, b.store, b.clock, cacheMetrics)
}

// buildEventHub builds the event hub configured by the events section
func buildEventHub(b *monitorAppConfig) (*events.Hub, error) {
	ev := b.config.Events
	opts := []events.Option{
		events.WithMaxConnections(ev.GetMaxConnections()),
		events.WithHeartbeatInterval(ev.GetHeartbeatInterval()),
		events.WithStaleAfter(ev.GetStaleAfter()),
		events.WithBufferSize(ev.GetBufferSize()),
		events.WithClock(b.clock),
	}

	if b.meterProvider != nil {
		eventMetrics, err := telemetry.NewEventMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create event metrics: %w", err)
		}
		opts = append(opts, events.WithMetrics(eventMetrics))
		slog.Info("Event metrics enabled")
	}

	return events.NewHub(opts...), nil
}

// buildPollComponents builds the poll coordinator publishing to hub
func buildPollComponents(b *monitorAppConfig, hub *events.Hub) (coordinator.Coordinator, error) {
	slog.Info("Initializing poll components")

	coordOpts, err := CoordinatorOptions(b.config)
	if err != nil {
		return nil, err
	}
	coordOpts = append(coordOpts,
		coordinator.WithClock(b.clock),
		coordinator.WithPublisher(hub),
		coordinator.WithTracer(b.tracer()),
	)

	if b.meterProvider != nil {
		pollMetrics, err := telemetry.NewPollMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create poll metrics: %w", err)
		}
		coordOpts = append(coordOpts, coordinator.WithPollMetrics(pollMetrics))
		slog.Info("Poll metrics enabled")
	}

	coord := coordinator.New(b.client, b.store, coordOpts...)
	slog.Info("Poll components initialized successfully",
		"interval", b.config.Polling.GetInterval(),
		"concurrency", b.config.Polling.GetConcurrency())

	return coord, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *monitorAppConfig, components *AppComponents) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided. The request timeout is applied by the
	// router so that event streams are not cut.
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware,
		}
	}

	// Telemetry middlewares go first to capture every request
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{
			telemetry.TracingMiddleware(b.tracerProvider),
		}, b.middlewares...)
	}

	router := api.NewServer(api.Dependencies{
		Service:     components.Service,
		Coordinator: components.Coordinator,
		Hub:         components.Hub,
		Metrics:     b.metricsHandler,
	},
		api.WithMiddlewares(b.middlewares...),
		api.WithRequestTimeout(b.requestTimeout),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
