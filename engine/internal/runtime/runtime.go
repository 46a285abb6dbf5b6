// Package runtime loads a YAML overlay for a subset of engine.Config (join
// timeout, cache sizing, and the metrics backend) and watches the file for
// edits, reporting each detected change to the caller. Everything else
// (adapter endpoints, credentials) is fixed at startup.
package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ReloadableConfig is the overlay applied on top of engine.Defaults() at
// startup; HotReloadSystem re-reads it whenever the backing file changes.
type ReloadableConfig struct {
	Version        string        `yaml:"version"`
	UpdatedAt      time.Time     `yaml:"-"`
	JoinTimeout    time.Duration `yaml:"join_timeout"`
	MetricsBackend string        `yaml:"metrics_backend"`
	CacheCapacity  int           `yaml:"cache_capacity"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	Checksum       string        `yaml:"-"`
}

// ConfigValidator rejects a ReloadableConfig before it is applied.
type ConfigValidator interface {
	Validate(cfg *ReloadableConfig) error
}

// RuntimeConfigManager owns the current ReloadableConfig, loaded from a
// single YAML file. Nothing is written back to that file.
type RuntimeConfigManager struct {
	configPath    string
	currentConfig *ReloadableConfig
	mutex         sync.RWMutex
	validators    []ConfigValidator
}

// NewRuntimeConfigManager builds a manager backed by configPath, registering
// the built-in bounds validator.
func NewRuntimeConfigManager(configPath string) (*RuntimeConfigManager, error) {
	m := &RuntimeConfigManager{configPath: configPath, currentConfig: &ReloadableConfig{}}
	m.AddValidator(&defaultConfigValidator{})
	return m, nil
}

func (rcm *RuntimeConfigManager) AddValidator(v ConfigValidator) {
	rcm.mutex.Lock()
	defer rcm.mutex.Unlock()
	rcm.validators = append(rcm.validators, v)
}

// LoadConfiguration reads configPath, or leaves the zero-value config in
// place if the file does not yet exist.
func (rcm *RuntimeConfigManager) LoadConfiguration() error {
	rcm.mutex.Lock()
	defer rcm.mutex.Unlock()
	if _, err := os.Stat(rcm.configPath); os.IsNotExist(err) {
		rcm.currentConfig = &ReloadableConfig{UpdatedAt: time.Now()}
		return nil
	}
	data, err := os.ReadFile(rcm.configPath)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var cfg ReloadableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	rcm.currentConfig = &cfg
	return nil
}

func (rcm *RuntimeConfigManager) UpdateConfiguration(cfg *ReloadableConfig) error {
	rcm.mutex.Lock()
	defer rcm.mutex.Unlock()
	if err := rcm.validateConfiguration(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.UpdatedAt = time.Now()
	cfg.Checksum = rcm.calculateChecksum(cfg)
	rcm.currentConfig = cfg
	return nil
}

func (rcm *RuntimeConfigManager) GetCurrentConfig() *ReloadableConfig {
	rcm.mutex.RLock()
	defer rcm.mutex.RUnlock()
	cpy := *rcm.currentConfig
	return &cpy
}

func (rcm *RuntimeConfigManager) ValidateConfiguration(cfg *ReloadableConfig) error {
	rcm.mutex.RLock()
	defer rcm.mutex.RUnlock()
	return rcm.validateConfiguration(cfg)
}

func (rcm *RuntimeConfigManager) validateConfiguration(cfg *ReloadableConfig) error {
	for _, v := range rcm.validators {
		if err := v.Validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (rcm *RuntimeConfigManager) calculateChecksum(cfg *ReloadableConfig) string {
	cpy := *cfg
	cpy.Checksum = ""
	data, _ := json.Marshal(cpy)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// ConfigChange is delivered on every detected file edit. The watcher does
// not run the ConfigValidators on the new content.
type ConfigChange struct {
	*ReloadableConfig
	ChangeType       string
	ChangedAt        time.Time
	PreviousChecksum string
}

// HotReloadSystem watches configPath for writes and emits ConfigChange
// events whenever the parsed content actually differs from the last load.
type HotReloadSystem struct {
	configPath string
	watcher    *fsnotify.Watcher
	isWatching bool
	mutex      sync.Mutex
}

func NewHotReloadSystem(configPath string) (*HotReloadSystem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &HotReloadSystem{configPath: configPath, watcher: watcher}, nil
}

func (hrs *HotReloadSystem) WatchConfigChanges(ctx context.Context) (<-chan *ConfigChange, <-chan error) {
	changes := make(chan *ConfigChange, 10)
	errs := make(chan error, 10)
	hrs.mutex.Lock()
	if hrs.isWatching {
		hrs.mutex.Unlock()
		close(changes)
		close(errs)
		return changes, errs
	}
	configDir := filepath.Dir(hrs.configPath)
	if err := hrs.watcher.Add(configDir); err != nil {
		hrs.mutex.Unlock()
		errs <- fmt.Errorf("watch dir %s: %w", configDir, err)
		close(changes)
		close(errs)
		return changes, errs
	}
	hrs.isWatching = true
	hrs.mutex.Unlock()

	go func() {
		defer close(changes)
		defer close(errs)
		var last *ReloadableConfig
		for {
			select {
			case e, ok := <-hrs.watcher.Events:
				if !ok {
					return
				}
				if e.Name != hrs.configPath {
					continue
				}
				if e.Op&fsnotify.Write == fsnotify.Write {
					nc, err := hrs.loadConfigFromFile()
					if err != nil {
						errs <- err
						continue
					}
					if hrs.DetectChanges(last, nc) {
						ch := &ConfigChange{ReloadableConfig: nc, ChangeType: "file_modified", ChangedAt: time.Now()}
						if last != nil {
							ch.PreviousChecksum = last.Checksum
						}
						changes <- ch
						last = nc
					}
				}
			case err, ok := <-hrs.watcher.Errors:
				if !ok {
					return
				}
				errs <- err
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, errs
}

func (hrs *HotReloadSystem) StopWatching() error {
	hrs.mutex.Lock()
	defer hrs.mutex.Unlock()
	if hrs.isWatching {
		hrs.isWatching = false
		return hrs.watcher.Close()
	}
	return nil
}

func (hrs *HotReloadSystem) DetectChanges(oldC, newC *ReloadableConfig) bool {
	if oldC == nil && newC == nil {
		return false
	}
	if oldC == nil || newC == nil {
		return true
	}
	od, _ := json.Marshal(oldC)
	nd, _ := json.Marshal(newC)
	return string(od) != string(nd)
}

func (hrs *HotReloadSystem) loadConfigFromFile() (*ReloadableConfig, error) {
	if _, err := os.Stat(hrs.configPath); os.IsNotExist(err) {
		return &ReloadableConfig{}, nil
	}
	data, err := os.ReadFile(hrs.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg ReloadableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

type defaultConfigValidator struct{}

func (defaultConfigValidator) Validate(cfg *ReloadableConfig) error {
	if cfg.CacheCapacity < 0 {
		return fmt.Errorf("invalid cache_capacity: must be non-negative")
	}
	if cfg.JoinTimeout < 0 {
		return fmt.Errorf("invalid join_timeout: must be non-negative")
	}
	return nil
}
