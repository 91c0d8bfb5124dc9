package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/data")
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 2*time.Second, cfg.Sync.BatchWindow)
	assert.Equal(t, 10, cfg.Sync.BatchThreshold)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Sync.BaseDelay)
	assert.Equal(t, 100, cfg.Sync.MaxQueueSize)
	assert.Equal(t, "RELAY_TOKEN", cfg.API.TokenEnv)
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://progress.example.com
sync:
  batch_threshold: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, "/data")
	require.NoError(t, err)

	assert.Equal(t, "https://progress.example.com", cfg.API.BaseURL)
	assert.Equal(t, 25, cfg.Sync.BatchThreshold)
	// Untouched fields fall back to defaults.
	assert.Equal(t, 2*time.Second, cfg.Sync.BatchWindow)
	assert.Equal(t, 100, cfg.Sync.MaxQueueSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))

	_, err := Load(path, "/data")
	assert.Error(t, err)
}

func TestValidate_BadScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "ftp://example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestValidate_EmptyBaseURLIsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ThresholdExceedsQueueSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.BatchThreshold = 200
	cfg.Sync.MaxQueueSize = 100

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_threshold")
}

func TestValidate_IntervalShorterThanWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.Interval = time.Second
	cfg.Sync.BatchWindow = 2 * time.Second

	assert.Error(t, cfg.Validate())
}
