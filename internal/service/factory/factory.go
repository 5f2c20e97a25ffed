// Package factory provides factory functions for creating service implementations.
package factory

import (
	"fmt"
	"log/slog"

	"github.com/juju/clock"

	"github.com/CrashBytes/cloudflare-monitor/internal/config"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

// NewMonitorService creates the cached MonitorService configured by the cache section of cfg.
//
// A nil clock uses the wall clock; nil metrics disable cache instrumentation.
func NewMonitorService(
	cfg *config.Config,
	store storage.Store,
	clk clock.Clock,
	metrics *telemetry.CacheMetrics,
) (service.MonitorService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	opts := []service.Option{
		service.WithCacheSize(cfg.Cache.GetMaxSize()),
		service.WithCacheTTL(cfg.Cache.GetTTL()),
		service.WithCacheMetrics(metrics),
	}
	if clk != nil {
		opts = append(opts, service.WithClock(clk))
	}

	slog.Info("Creating cached monitor service",
		"cache_max_size", cfg.Cache.GetMaxSize(),
		"cache_ttl", cfg.Cache.GetTTL())

	return service.New(store, opts...)
}
