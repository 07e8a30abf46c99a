package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches a configuration file for changes and triggers a
// debounced reload callback. It watches the parent directory rather than
// the file itself so atomic rename-based saves are observed.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	timer   *time.Timer
}

// DefaultDebounceInterval is the delay between the last observed file
// event and the reload callback.
const DefaultDebounceInterval = 100 * time.Millisecond

// NewConfigWatcher creates a watcher for the configuration file at path.
// A debounce of zero uses DefaultDebounceInterval.
func NewConfigWatcher(path string, debounce time.Duration) (*ConfigWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ConfigWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		watcher:  watcher,
		logger:   slog.Default().With("component", "daemon.watcher"),
	}, nil
}

// Watch blocks processing file events until ctx is cancelled, invoking
// onReload after each debounced change to the watched file.
func (w *ConfigWatcher) Watch(ctx context.Context, onReload func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.running = false
		w.mu.Unlock()
		w.watcher.Close()
	}()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("config watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("config file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			w.trigger(onReload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Rename)
}

func (w *ConfigWatcher) trigger(onReload func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("reloading configuration", "path", w.path)
		if err := onReload(); err != nil {
			w.logger.Error("configuration reload failed", "error", err)
		}
	})
}
