package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrashBytes/cloudflare-monitor/internal/config"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage/memory"
)

func TestNewStore_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := NewStore(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestNewStore_Memory(t *testing.T) {
	t.Parallel()

	store, err := NewStore(context.Background(), &config.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_DatabaseWithoutPassword(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Database: &config.DatabaseConfig{
		Host:         "localhost",
		Port:         5432,
		User:         "monitor",
		Database:     "cfmon",
		PasswordFile: filepath.Join(t.TempDir(), "missing"),
	}}

	_, err := NewStore(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build connection string")
}

func TestNewPool_InvalidConnString(t *testing.T) {
	t.Parallel()

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("secret"), 0600))

	_, err := NewPool(context.Background(), &config.DatabaseConfig{
		Host:         "localhost",
		Port:         5432,
		User:         "monitor",
		Database:     "cfmon",
		PasswordFile: passwordFile,
		SSLMode:      "not-a-mode",
	})
	require.Error(t, err)
}
