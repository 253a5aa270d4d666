package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the write bursts editors produce when saving.
const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a sensor mapping file whenever it changes on disk and
// hands the new registry to a callback. A reload that fails to parse is
// logged and the previous registry stays in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload func(*Registry)
	logger   *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending *time.Timer
}

// NewWatcher creates a watcher for the mapping file at path. onReload is
// invoked with each successfully parsed registry.
func NewWatcher(path string, onReload func(*Registry), logger *slog.Logger) (*Watcher, error) {
	if onReload == nil {
		return nil, fmt.Errorf("onReload callback is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		onReload: onReload,
		logger:   logger.With("component", "vocabulary-watcher"),
	}, nil
}

// Start begins watching until ctx is cancelled. It watches the parent
// directory rather than the file itself so atomic rename-over saves are
// still observed.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	w.logger.Info("watching sensor mapping", "path", w.path)

	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}

func (w *Watcher) reload() {
	reg, err := Load(w.path)
	if err != nil {
		w.logger.Error("sensor mapping reload failed, keeping previous mapping",
			"path", w.path, "error", err)
		return
	}
	w.logger.Info("sensor mapping reloaded", "path", w.path, "roles", reg.Len())
	w.onReload(reg)
}
