// internal/logger/logger_test.go
package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "test.log")
	cfg.Development = true

	log, err := New(cfg)
	require.NoError(t, err)
	return log
}

func TestNewWritesToFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "test.log")

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("pipeline started")
	require.NoError(t, log.Sync())

	content, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pipeline started")
	assert.Contains(t, string(content), `"timestamp"`)
}

func TestContextHelpers(t *testing.T) {
	log := newTestLogger(t)

	assert.NotNil(t, log.WithTransaction("5Ej8..."))
	assert.NotNil(t, log.WithOperation("transfer"))
	assert.NotNil(t, log.WithComponent("broadcast"))
	assert.NotNil(t, log.WithWallet("9xQe..."))
	assert.NotNil(t, log.WithEndpoint("https://api.devnet.solana.com"))
}

func TestTrackPerformance(t *testing.T) {
	log := newTestLogger(t)

	end := log.TrackPerformance("build")
	require.NotNil(t, end)
	end()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sparksol.log", cfg.LogFile)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.False(t, cfg.Development)
}
