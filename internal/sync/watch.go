package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors often save in several steps; wait for writes to settle.
var watchDebounce = 100 * time.Millisecond

// RunFunc receives the outcome of each synchronization done by Watch.
type RunFunc func(report *Report, err error)

// Watch runs a synchronization, then runs it again every time the manifest
// is written or recreated, until ctx is cancelled. Failed runs are passed to
// onRun and do not stop the watch.
//
// The manifest's directory is watched rather than the file itself so that
// editors replacing the file by rename are still seen.
func Watch(ctx context.Context, opts Options, onRun RunFunc) error {
	opts = opts.withDefaults()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck // nothing to do on close failure

	dir := filepath.Dir(opts.ManifestPath)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	name := filepath.Base(opts.ManifestPath)

	onRun(Run(ctx, opts))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			slog.Debug("manifest changed", "event", ev.Op.String(), "path", ev.Name)
			timer.Reset(watchDebounce)

		case <-timer.C:
			onRun(Run(ctx, opts))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}
