// Package watcher re-runs a callback whenever the dpkg status file changes.
//
// dpkg rewrites the status file by writing status-new and renaming it over
// the original, so the watch is placed on the containing directory and
// events are filtered by name. Bursts of events (an apt transaction touches
// the file several times) are collapsed with a debounce timer.
//
// Example usage:
//
//	w, err := watcher.New("/var/lib/dpkg/status", reindex, logger)
//	if err != nil {
//		return err
//	}
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return w.Run(ctx)
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 2 * time.Second

// Watcher watches a single file.
type Watcher struct {
	path     string
	onChange func(context.Context) error
	logger   *log.Logger

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// New creates a Watcher for path. onChange runs on the Run goroutine, never
// concurrently with itself.
func New(path string, onChange func(context.Context) error, logger *log.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return &Watcher{
		path:     abs,
		onChange: onChange,
		logger:   logger,
		Debounce: DefaultDebounce,
	}, nil
}

// Run blocks until ctx is cancelled. Callback errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Debug("watching", "path", w.path)

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("status file changed", "op", ev.Op.String())
			timer.Reset(w.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("re-index failed", "err", err)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
