package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads the configuration directory when a file changes.
// Watching is only active in development; elsewhere the watcher just holds
// the initial configuration.
type ConfigWatcher struct {
	loader    *Loader
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewConfigWatcher creates a watcher over the loader's directory.
func NewConfigWatcher(loader *Loader, initial *Config, logger *zap.Logger) (*ConfigWatcher, error) {
	w := &ConfigWatcher{
		loader: loader,
		config: initial,
		logger: logger.Named("config"),
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development {
		w.logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigFiles(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config files: %w", err)
	}

	go w.watchLoop()

	w.logger.Info("Configuration hot reloading enabled",
		zap.String("environment", string(initial.Environment)),
		zap.String("dir", loader.BasePath()),
	)
	return w, nil
}

func (w *ConfigWatcher) watchConfigFiles() error {
	dir := w.loader.BasePath()
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			w.logger.Warn("Config directory does not exist, nothing to watch", zap.String("dir", dir))
			return nil
		}
		return err
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *ConfigWatcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}

			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reloadConfig)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info("Stopping configuration watcher")
			return
		}
	}
}

// reloadConfig loads the files again and notifies callbacks when anything
// changed. An invalid file keeps the previous configuration.
func (w *ConfigWatcher) reloadConfig() {
	newConfig, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	oldConfig := w.config
	if configsEqual(oldConfig, newConfig) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = newConfig
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logConfigChanges(oldConfig, newConfig)
	w.notifyCallbacks(callbacks, newConfig)

	w.logger.Info("Configuration reloaded",
		zap.Int("callbacks_notified", len(callbacks)),
		zap.Strings("sources", newConfig.LoadedFrom),
	)
}

// OnChange registers a callback run after every effective reload.
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// GetConfig returns the current configuration.
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop ends the watch loop. Safe to call more than once.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func (w *ConfigWatcher) notifyCallbacks(callbacks []func(*Config), newConfig *Config) {
	for i, callback := range callbacks {
		go func(idx int, cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Config callback panicked",
						zap.Int("callback_index", idx),
						zap.Any("panic", r),
					)
				}
			}()
			cb(newConfig)
		}(i, callback)
	}
}

func configsEqual(a, b *Config) bool {
	left, right := *a, *b
	left.LoadedFrom, right.LoadedFrom = nil, nil
	return reflect.DeepEqual(left, right)
}

func (w *ConfigWatcher) logConfigChanges(old, updated *Config) {
	changes := make([]string, 0)

	if !reflect.DeepEqual(old.Filter, updated.Filter) {
		changes = append(changes, "filter")
	}
	if !reflect.DeepEqual(old.Taxonomy, updated.Taxonomy) {
		changes = append(changes, "taxonomy")
	}
	if old.Graph != updated.Graph {
		changes = append(changes, fmt.Sprintf("graph: %+v -> %+v", old.Graph, updated.Graph))
	}
	if old.Logging != updated.Logging {
		changes = append(changes, fmt.Sprintf("logging: %s -> %s", old.Logging.Level, updated.Logging.Level))
	}
	if old.Server.Port != updated.Server.Port {
		changes = append(changes, fmt.Sprintf("port: %d -> %d (restart required)", old.Server.Port, updated.Server.Port))
	}

	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected", zap.Strings("changes", changes))
	}
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	default:
		return false
	}
}

// ComponentReloader applies a reloaded configuration to one component.
type ComponentReloader struct {
	name     string
	reloadFn func(*Config) error
	logger   *zap.Logger
}

// NewComponentReloader creates a reloader for the named component.
func NewComponentReloader(name string, reloadFn func(*Config) error, logger *zap.Logger) *ComponentReloader {
	return &ComponentReloader{
		name:     name,
		reloadFn: reloadFn,
		logger:   logger,
	}
}

// Reload runs the component's reload function and logs the outcome.
func (r *ComponentReloader) Reload(cfg *Config) {
	if err := r.reloadFn(cfg); err != nil {
		r.logger.Error("Failed to reload component",
			zap.String("component", r.name),
			zap.Error(err),
		)
		return
	}
	r.logger.Info("Component reloaded", zap.String("component", r.name))
}
