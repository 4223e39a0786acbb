// Package watch re-runs a conversion whenever its input file changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an exporter produces while
// writing one file.
const DefaultDebounce = 300 * time.Millisecond

// Run calls fn for path once, then again after every write or re-creation
// of the file, until ctx is done. The parent directory is watched so that
// files replaced by rename are still seen. Errors from fn are logged and
// watching goes on.
func Run(ctx context.Context, path string, debounce time.Duration, fn func(context.Context) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	call := func() {
		if err := fn(ctx); err != nil {
			logger.Error("conversion failed", "input", path, "err", err)
		}
	}
	call()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("input changed", "op", event.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			call()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}
