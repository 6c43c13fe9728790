package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads rule documents when their files change. Events are
// debounced so editors that write in several steps trigger one reload.
type Watcher struct {
	directory *Directory
	debounce  time.Duration
	logger    *slog.Logger
}

// DefaultDebounceInterval is the delay between the last file event and the
// reload it triggers.
const DefaultDebounceInterval = 100 * time.Millisecond

// NewWatcher creates a watcher over the given directory loader.
func NewWatcher(directory *Directory, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		directory: directory,
		debounce:  debounce,
		logger:    logger.With("component", "loader.watcher"),
	}
}

// Watch blocks, reloading changed rule documents until the context is
// cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.directory.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.directory.dir, err)
	}

	w.logger.Info("watching ruleset directory",
		"dir", w.directory.dir,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	// pending collects paths touched since the last flush; the timer
	// fires once the directory has been quiet for the debounce interval.
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !supportedFile(event.Name) {
				continue
			}
			pending[event.Name] |= event.Op
			timer.Reset(w.debounce)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			for path, op := range pending {
				w.apply(path, op)
			}
			pending = make(map[string]fsnotify.Op)
		}
	}
}

func (w *Watcher) apply(path string, op fsnotify.Op) {
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		w.logger.Info("rule document removed", "path", path)
		w.directory.Remove(path)
		return
	}

	if err := w.directory.LoadFile(path); err != nil {
		w.logger.Warn("reload failed, keeping previous registration",
			"path", path,
			"error", err,
		)
		return
	}
	w.logger.Info("rule document reloaded", "path", path)
}
