package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlay_MissingFileReturnsBaseUnchanged(t *testing.T) {
	base := Defaults()
	cfg, err := LoadOverlay(filepath.Join(t.TempDir(), "missing.yaml"), base)
	require.NoError(t, err)
	assert.Equal(t, base.JoinTimeout, cfg.JoinTimeout)
}

func TestLoadOverlay_AppliesCacheAndMetricsFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"join_timeout: 10s\nmetrics_backend: noop\ncache_capacity: 99\ncache_ttl: 30s\n"), 0o644))

	base := Defaults()
	cfg, err := LoadOverlay(path, base)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.JoinTimeout)
	assert.Equal(t, "noop", cfg.MetricsBackend)
	assert.Equal(t, 99, cfg.Cache.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoadOverlay_ZeroFieldsLeaveBaseValuesIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"v1\"\n"), 0o644))

	base := Defaults()
	cfg, err := LoadOverlay(path, base)
	require.NoError(t, err)
	assert.Equal(t, base.Cache.Capacity, cfg.Cache.Capacity)
	assert.Equal(t, base.MetricsBackend, cfg.MetricsBackend)
}
