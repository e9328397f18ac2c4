package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/fbhwc/internal/config"
)

// DefaultReloadDebounce collapses the burst of events an editor save
// produces into one reload.
const DefaultReloadDebounce = 100 * time.Millisecond

// ConfigWatcher reloads the daemon config when its file changes. Only
// settings that can change at runtime are applied by the reload handler;
// the rest take effect on restart.
type ConfigWatcher struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
	onReload func(*config.DaemonConfig)
	onError  func(error)

	mu      sync.Mutex
	current *config.DaemonConfig
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchOption configures a ConfigWatcher.
type WatchOption func(*ConfigWatcher)

// WithReloadHandler is called with each config that loads and validates.
func WithReloadHandler(fn func(*config.DaemonConfig)) WatchOption {
	return func(w *ConfigWatcher) { w.onReload = fn }
}

// WithErrorHandler is called when a changed file fails to load; the
// previous config stays current.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *ConfigWatcher) { w.onError = fn }
}

// WithDebounce sets how long to wait for file events to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *ConfigWatcher) { w.debounce = d }
}

// NewConfigWatcher creates a watcher for the config file at path, starting
// from initial.
func NewConfigWatcher(path string, initial *config.DaemonConfig, logger *slog.Logger, opts ...WatchOption) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ConfigWatcher{
		path:     path,
		logger:   logger,
		debounce: DefaultReloadDebounce,
		current:  initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current returns the last config that loaded successfully.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Reload loads the file now. On success the new config becomes current and
// the reload handler runs; on failure the error handler runs and the error
// is returned.
func (w *ConfigWatcher) Reload() error {
	cfg, err := config.LoadDaemonConfigFrom(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return err
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
	return nil
}

// Start watches the config file's directory, so that editors replacing the
// file by rename are seen too. Starting twice is a no-op.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop(watcher, w.done)

	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()

	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
	w.logger.Debug("config watcher stopped")
}

func (w *ConfigWatcher) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	name := filepath.Clean(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("config watcher error", "error", err)
				continue
			}
			// Events were lost; reload to be safe.
			timer.Reset(w.debounce)
		case <-timer.C:
			_ = w.Reload()
		}
	}
}
