package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRuntimeConfigManager_LoadConfiguration_MissingFileUsesZeroValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	mgr, err := NewRuntimeConfigManager(path)
	require.NoError(t, err)

	require.NoError(t, mgr.LoadConfiguration())
	cfg := mgr.GetCurrentConfig()
	assert.Equal(t, 0, cfg.CacheCapacity)
}

func TestRuntimeConfigManager_LoadConfiguration_ParsesYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "version: \"v2\"\ncache_capacity: 512\n")
	mgr, err := NewRuntimeConfigManager(path)
	require.NoError(t, err)

	require.NoError(t, mgr.LoadConfiguration())
	cfg := mgr.GetCurrentConfig()
	assert.Equal(t, "v2", cfg.Version)
	assert.Equal(t, 512, cfg.CacheCapacity)
}

func TestRuntimeConfigManager_UpdateConfiguration_RejectsNegativeCacheCapacity(t *testing.T) {
	mgr, err := NewRuntimeConfigManager(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, err)

	err = mgr.UpdateConfiguration(&ReloadableConfig{CacheCapacity: -1})
	assert.Error(t, err)
}

func TestRuntimeConfigManager_UpdateConfiguration_AssignsChecksum(t *testing.T) {
	mgr, err := NewRuntimeConfigManager(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, err)

	require.NoError(t, mgr.UpdateConfiguration(&ReloadableConfig{CacheCapacity: 10}))
	cfg := mgr.GetCurrentConfig()
	assert.NotEmpty(t, cfg.Checksum)
	assert.False(t, cfg.UpdatedAt.IsZero())
}

func TestDefaultConfigValidator_RejectsNegativeJoinTimeout(t *testing.T) {
	v := defaultConfigValidator{}
	err := v.Validate(&ReloadableConfig{JoinTimeout: -1 * time.Second})
	assert.Error(t, err)
}

func TestDefaultConfigValidator_AcceptsZeroValues(t *testing.T) {
	v := defaultConfigValidator{}
	assert.NoError(t, v.Validate(&ReloadableConfig{}))
}

func TestHotReloadSystem_DetectChanges(t *testing.T) {
	hrs := &HotReloadSystem{}
	assert.False(t, hrs.DetectChanges(nil, nil))
	assert.True(t, hrs.DetectChanges(nil, &ReloadableConfig{Version: "v1"}))
	assert.True(t, hrs.DetectChanges(&ReloadableConfig{Version: "v1"}, nil))
	assert.False(t, hrs.DetectChanges(&ReloadableConfig{Version: "v1"}, &ReloadableConfig{Version: "v1"}))
	assert.True(t, hrs.DetectChanges(&ReloadableConfig{Version: "v1"}, &ReloadableConfig{Version: "v2"}))
}

func TestHotReloadSystem_WatchConfigChanges_DetectsFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "version: \"v1\"\ncache_capacity: 1\n")

	hrs, err := NewHotReloadSystem(path)
	require.NoError(t, err)
	defer hrs.StopWatching()

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	changes, errs := hrs.WatchConfigChanges(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("version: \"v2\"\ncache_capacity: 2\n"), 0o644))

	select {
	case ch := <-changes:
		require.NotNil(t, ch)
		assert.Equal(t, "v2", ch.Version)
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("timed out waiting for config change notification")
	}
}

func TestHotReloadSystem_WatchConfigChanges_SecondCallNoOps(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "version: \"v1\"\n")

	hrs, err := NewHotReloadSystem(path)
	require.NoError(t, err)
	defer hrs.StopWatching()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	_, _ = hrs.WatchConfigChanges(ctx)

	changes, errs := hrs.WatchConfigChanges(ctx)
	_, open1 := <-changes
	_, open2 := <-errs
	assert.False(t, open1)
	assert.False(t, open2)
}
