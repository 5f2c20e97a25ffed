package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	monitor "github.com/CrashBytes/cloudflare-monitor/internal/app"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the monitor",
		Long: `Start polling the Cloudflare Pages API and serve the REST API and event stream.

The monitor requires a configuration file (--config) that specifies:
- The Cloudflare account to monitor and how the API is reached
- The polling schedule, cache and event stream settings
- Optionally a PostgreSQL database; records are kept in memory otherwise

See examples/ directory for sample configurations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Duration("request-timeout", 10*time.Second, "Timeout for API requests (the event stream is exempt)")

	if err := v.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		panic(err)
	}
	if err := v.BindPFlag("request-timeout", cmd.Flags().Lookup("request-timeout")); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration", "account_id", cfg.Cloudflare.AccountID)

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := []monitor.MonitorAppOptions{
		monitor.WithConfig(cfg),
		monitor.WithAddress(v.GetString("address")),
		monitor.WithRequestTimeout(v.GetDuration("request-timeout")),
		monitor.WithTracerProvider(tel.TracerProvider()),
	}
	if cfg.Telemetry.MetricsEnabled() {
		opts = append(opts,
			monitor.WithMeterProvider(tel.MeterProvider()),
			monitor.WithMetricsHandler(tel.MetricsHandler()),
		)
	}

	monitorApp, err := monitor.NewMonitorApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- monitorApp.Start()
	}()

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-errChan:
		if stopErr := monitorApp.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	}

	if err := monitorApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errChan
}
