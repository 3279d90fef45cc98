package corelib

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// OnMerge is called after every merge triggered by a change.
	OnMerge func(*MergeResult, error)
}

// Watcher re-runs a merge whenever the local library directory changes.
type Watcher struct {
	merger   *Merger
	debounce time.Duration
	logger   *slog.Logger
	onMerge  func(*MergeResult, error)
}

// NewWatcher creates a watcher for the merger's library directory.
func NewWatcher(m *Merger, opts WatchOptions) *Watcher {
	w := &Watcher{
		merger:   m,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onMerge:  opts.OnMerge,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = m.logger
	}
	if w.onMerge == nil {
		w.onMerge = func(*MergeResult, error) {}
	}
	return w
}

// Run blocks until ctx is cancelled. Merges run one at a time from the
// event loop; a failed merge is reported through OnMerge and the watch
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := w.merger.layout.LibraryDir
	if err := watchDirRecursive(watcher, dir); err != nil {
		return err
	}
	w.logger.Info("watching libraries", slog.String("dir", dir))

	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// new subdirectories need their own watch
				_ = watchDirRecursive(watcher, event.Name)
			}
			w.logger.Debug("library changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			settle = time.After(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("error", err))

		case <-settle:
			settle = nil
			res, err := w.merger.Merge(ctx)
			if err != nil {
				w.logger.Error("merge failed", slog.Any("error", err))
			}
			w.onMerge(res, err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
