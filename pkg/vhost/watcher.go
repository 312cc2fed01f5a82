package vhost

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the proxy config file and rebuilds the registry when the
// file changes. Rapid write bursts (editors write-then-rename) are
// debounced so a single save triggers one reload.
type Watcher struct {
	path     string
	hostIP   string
	onReload func(*Registry)
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the config file at path. onReload
// receives each freshly parsed registry; making the swap atomic is the
// caller's responsibility.
func NewWatcher(path, hostIP string, onReload func(*Registry), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		hostIP:   hostIP,
		onReload: onReload,
		debounce: 100 * time.Millisecond,
		logger:   logger.With("component", "vhost.watcher"),
	}
}

// Watch blocks processing filesystem events until the context is
// cancelled. The parent directory is watched rather than the file itself
// so atomic-rename saves keep firing events.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("config watcher started", "path", w.path)

	var pending *time.Timer
	reloadCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	registry, err := ParseFile(w.path, w.hostIP)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous registry",
			"path", w.path,
			"error", err,
		)
		return
	}
	w.logger.Info("config reloaded", "hosts", registry.Len())
	w.onReload(registry)
}
