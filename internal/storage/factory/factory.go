// Package factory creates the storage.Store selected by configuration.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/internal/config"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage/memory"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage/postgres"
)

// NewStore returns a PostgreSQL store when a database is configured and an in-memory
// store otherwise. The tracer may be nil.
func NewStore(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (storage.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database == nil {
		slog.InfoContext(ctx, "No database configured, using in-memory store")
		return memory.New(), nil
	}

	pool, err := NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	store, err := postgres.New(postgres.WithConnectionPool(pool), postgres.WithTracer(tracer))
	if err != nil {
		pool.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "Using PostgreSQL store",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Database)
	return store, nil
}

// NewPool opens and verifies a pgx pool for the database configuration
func NewPool(ctx context.Context, db *config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString, err := db.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if db.MaxOpenConns > 0 {
		poolCfg.MaxConns = db.MaxOpenConns
	}
	if db.MaxIdleConns > 0 {
		poolCfg.MinConns = min(db.MaxIdleConns, poolCfg.MaxConns)
	}
	if lifetime := db.GetConnMaxLifetime(); lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
