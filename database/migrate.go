// Package database provides the embedded schema migrations of the monitor's PostgreSQL store.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator is the subset of *migrate.Migrate the CLI drives
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// GetMigrate returns a migrate instance reading the embedded migrations and
// applying them to the database at connString.
func GetMigrate(connString string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(connString))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// driverURL rewrites a postgres:// connection string to the scheme of the pgx/v5 migrate driver
func driverURL(connString string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(connString, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return connString
}

// MigrateUp applies every pending migration. A database that is already current is not an error.
func MigrateUp(ctx context.Context, connString string) error {
	m, err := GetMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	stop := stopOnDone(ctx, m)
	defer stop()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown reverts steps migrations, or all of them when steps is zero
func MigrateDown(ctx context.Context, connString string, steps uint) error {
	m, err := GetMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	stop := stopOnDone(ctx, m)
	defer stop()

	if steps == 0 {
		err = m.Down()
	} else {
		err = m.Steps(-int(steps)) // #nosec G115 -- migration counts are tiny
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// GetVersion returns the current schema version and whether it is dirty
func GetVersion(connString string) (uint, bool, error) {
	m, err := GetMigrate(connString)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(context.Background(), m)

	return m.Version()
}

// stopOnDone asks m to stop after the current migration once ctx ends
func stopOnDone(ctx context.Context, m *migrate.Migrate) func() bool {
	return context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
}

func closeMigrate(ctx context.Context, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.WarnContext(ctx, "Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
	}
}
