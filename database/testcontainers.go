package database

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const testImage = "postgres:16-alpine"

// TestDB is a migrated Postgres instance running in a container
type TestDB struct {
	Pool       *pgxpool.Pool
	ConnString string
}

// containerLogger routes testcontainers output to slog at debug level
type containerLogger struct{}

func (containerLogger) Printf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "testcontainers")
}

var _ tclog.Logger = containerLogger{}

// NewTestDB starts a Postgres container, applies every migration and connects a pool to it.
// Container and pool are released when the test ends. The test is skipped when no container
// runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, testImage,
		postgres.WithDatabase("cfmon_test"),
		postgres.WithUsername("cfmon"),
		postgres.WithPassword("cfmon"),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(containerLogger{}),
	)
	tc.CleanupContainer(t, container)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, MigrateUp(ctx, connString))

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &TestDB{Pool: pool, ConnString: connString}
}
