package trackservice

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunCallback is called after a watcher-driven re-run with the per-tracker
// outcomes of that pass.
type RunCallback func(outcomes []Outcome)

// debounceWindow batches bursts of file events into one re-run. Editors
// commonly fire several writes per save.
const debounceWindow = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and re-runs every
// tracker after markdown changes settle, until ctx is cancelled. It calls
// cb (if non-nil) after each completed pass.
//
// New directories created at runtime are automatically added to the watch
// list. Renames and removals count as changes too: a note moving out of a
// tracked folder must drop out of the next run's datasets.
func Watch(ctx context.Context, svc *Service, vaultRoot string, logger *slog.Logger, cb RunCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// rerunTimer debounces the re-run so a burst of saves triggers one pass.
	var rerunTimer *time.Timer
	var rerunCh <-chan time.Time

	scheduleRerun := func() {
		if rerunTimer == nil {
			rerunTimer = time.NewTimer(debounceWindow)
			rerunCh = rerunTimer.C
		} else {
			rerunTimer.Reset(debounceWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rerunTimer != nil {
				rerunTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rerunCh:
			logger.Debug("watcher: vault settled, re-running trackers")
			outcomes := svc.RunAll(ctx)
			if cb != nil {
				cb(outcomes)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					// A moved-in directory can carry .md files with it.
					scheduleRerun()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: note changed",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
				scheduleRerun()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
