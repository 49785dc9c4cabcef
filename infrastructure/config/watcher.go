package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the config file when it changes and notifies callbacks
// with the old and new configuration.
type Watcher struct {
	path      string
	loader    *Loader
	logger    *zap.Logger
	debounce  time.Duration
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
	mu        sync.RWMutex
	config    *Config
	callbacks []func(old, updated *Config)
}

// NewWatcher starts watching initial.ConfigFile. With no config file or with
// hot reload disabled the watcher is inert.
func NewWatcher(initial *Config, loader *Loader, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		path:     initial.ConfigFile,
		loader:   loader,
		logger:   logger.Named("config.watcher"),
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		config:   initial,
	}

	if w.path == "" || !initial.Features.EnableHotReload {
		w.logger.Info("Configuration hot reloading disabled")
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors often replace the file, so watch its directory
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()

	w.logger.Info("Configuration hot reloading enabled", zap.String("file", w.path))
	return w, nil
}

// OnChange registers a callback run after a successful reload that changed
// the configuration
func (w *Watcher) OnChange(callback func(old, updated *Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Config returns the current configuration
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.Reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// Reload re-reads the config file. An invalid file keeps the current config.
func (w *Watcher) Reload() {
	updated, err := w.loader.Load(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.config
	if cmp.Equal(old, updated) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = updated
	callbacks := make([]func(old, updated *Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.String("diff", cmp.Diff(redacted(old), redacted(updated))),
		zap.Int("callbacks", len(callbacks)))

	for i, cb := range callbacks {
		w.notify(i, cb, old, updated)
	}
}

func (w *Watcher) notify(idx int, cb func(old, updated *Config), old, updated *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Config callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r))
		}
	}()
	cb(old, updated)
}

// redacted hides secrets before a config is logged
func redacted(c *Config) Config {
	out := *c
	if out.Cache.RESTToken != "" {
		out.Cache.RESTToken = "***"
	}
	return out
}
