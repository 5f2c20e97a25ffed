// Package app provides application lifecycle management for the monitor.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/CrashBytes/cloudflare-monitor/internal/config"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
)

// MonitorApp encapsulates all components needed to run the monitor.
// It provides lifecycle management and graceful shutdown capabilities.
type MonitorApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	clock         clock.Clock
	sweepInterval time.Duration

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	stopOnce   sync.Once
	stopErr    error
}

// Start starts the event hub, the polling schedule and the cache janitor, then serves HTTP.
// This method blocks until the HTTP server stops or encounters an error.
func (app *MonitorApp) Start() error {
	app.components.Hub.Start()

	if err := app.components.Coordinator.Start(app.ctx); err != nil {
		return fmt.Errorf("failed to start poll coordinator: %w", err)
	}

	go runCacheJanitor(app.ctx, app.components.Service, app.clock, app.sweepInterval)

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// Polling stops first, then event streams are closed so the HTTP server can drain,
// and the store is released last. Stop is idempotent.
func (app *MonitorApp) Stop(timeout time.Duration) error {
	app.stopOnce.Do(func() {
		app.stopErr = app.stop(timeout)
	})
	return app.stopErr
}

func (app *MonitorApp) stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.Coordinator.Stop(); err != nil {
		slog.Error("Failed to stop poll coordinator", "error", err)
	}

	app.components.Hub.Stop()

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)

	if app.components.Store != nil {
		app.components.Store.Close()
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *MonitorApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *MonitorApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// runCacheJanitor evicts expired cache entries every interval until ctx is done
func runCacheJanitor(ctx context.Context, svc service.MonitorService, clk clock.Clock, interval time.Duration) {
	if interval <= 0 {
		return
	}

	for {
		select {
		case <-clk.After(interval):
			if n := svc.EvictExpired(); n > 0 {
				slog.Debug("Evicted expired cache entries", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
