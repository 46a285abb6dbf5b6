package engine

import (
	"context"
	"log/slog"

	intruntime "github.com/99souls/ariadne/engine/internal/runtime"
)

// LoadOverlay reads a YAML overlay file and applies it on top of base,
// returning the merged Config. A missing file is not an error — base is
// returned unchanged.
func LoadOverlay(path string, base Config) (Config, error) {
	mgr, err := intruntime.NewRuntimeConfigManager(path)
	if err != nil {
		return base, err
	}
	if err := mgr.LoadConfiguration(); err != nil {
		return base, err
	}
	applyOverlay(&base, mgr.GetCurrentConfig())
	return base, nil
}

// WatchOverlay watches path for edits and logs each detected change. Overlay
// fields are read once at startup (adapters/cache/guard are already
// constructed), so this surfaces drift for operators and does not mutate a
// running Engine.
func WatchOverlay(ctx context.Context, path string) {
	hrs, err := intruntime.NewHotReloadSystem(path)
	if err != nil {
		slog.Error("hot reload system", "err", err)
		return
	}
	defer hrs.StopWatching()
	changes, errs := hrs.WatchConfigChanges(ctx)
	for {
		select {
		case ch, ok := <-changes:
			if !ok {
				return
			}
			slog.Info("config file changed", "version", ch.Version, "changed_at", ch.ChangedAt)
		case err, ok := <-errs:
			if !ok {
				return
			}
			slog.Error("config watch error", "err", err)
		case <-ctx.Done():
			return
		}
	}
}

func applyOverlay(cfg *Config, rc *intruntime.ReloadableConfig) {
	if rc == nil {
		return
	}
	if rc.JoinTimeout > 0 {
		cfg.JoinTimeout = rc.JoinTimeout
	}
	if rc.MetricsBackend != "" {
		cfg.MetricsBackend = rc.MetricsBackend
	}
	if rc.CacheCapacity > 0 {
		cfg.Cache.Capacity = rc.CacheCapacity
	}
	if rc.CacheTTL > 0 {
		cfg.Cache.TTL = rc.CacheTTL
	}
}
