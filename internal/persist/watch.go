package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
)

// Watcher watches a store's database file for writes from outside this
// process (a sibling restoring a backup, a second fzcored instance
// sharing a store directory) and invokes onChange so the caller can
// reload its in-memory Graph. Grounded on the teacher's cmd/bd/list.go,
// which uses the identical fsnotify.NewWatcher/watcher.Add pattern to
// refresh a live issue listing when the database directory changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	onChange func()
	logger   *slog.Logger
}

// NewWatcher starts watching the directory containing dbPath.
func NewWatcher(dbPath string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	dir := dirOf(dbPath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{fsw: fsw, path: dbPath, onChange: onChange, logger: logger}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name == w.path && (event.Op&(fsnotify.Write|fsnotify.Create) != 0) {
				w.logger.Info("persist: external write detected, reloading", "path", event.Name)
				w.onChange()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("persist: watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// CheckpointWithRetry wraps a Store.Checkpoint call in the same
// exponential-backoff retry the modification-request protocol needs
// around its single persistence call (spec §4.C step 4: "if that fails,
// the batch is rolled back"). Retrying first narrows the cases that
// actually reach the rollback-gap spec §9 flags as a known weakness.
func CheckpointWithRetry(ctx context.Context, checkpoint func() error) error {
	bo := backoff.NewExponentialBackOff()
	// The default MaxElapsedTime bounds the retries; ctx can end them sooner.
	return backoff.Retry(checkpoint, backoff.WithContext(bo, ctx))
}
