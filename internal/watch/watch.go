// Package watch monitors a replay directory and reports matches whose
// recording has finished. The game appends frame files one by one with
// no terminator, so a match counts as complete once its frames stop
// arriving for a settle period.
package watch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

var ErrWatch = errors.New("failed to watch replay directory")

// DefaultSettle is how long a replay must stay quiet before it is
// considered finished. Frames land roughly every six seconds, so this
// leaves generous slack for disk stalls.
const DefaultSettle = 30 * time.Second

// Watch monitors the tree under dir until ctx is cancelled, sending
// the path-qualified replay name (directory joined with the match-
// session stem, no frame suffix) of each settled match on completed.
// Frames present before the watch started are picked up too, so an
// already-finished match in the tree settles on the first tick.
func Watch(ctx context.Context, dir string, settle time.Duration, completed chan<- string) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, errWatcher := fsnotify.NewWatcher()
	if errWatcher != nil {
		return errors.Join(errWatcher, ErrWatch)
	}
	defer func(closer io.Closer) {
		if err := closer.Close(); err != nil {
			slog.Error("watcher close error", slog.String("error", err.Error()))
		}
	}(watcher)

	if errAdd := watchTree(watcher, dir); errAdd != nil {
		return errors.Join(errAdd, ErrWatch)
	}

	lastSeen := map[string]time.Time{}

	// Seed with whatever is already on disk.
	existing, errFind := replay.FindMatches(dir)
	if errFind != nil {
		slog.Warn("Initial replay scan failed", slog.String("error", errFind.Error()))
	}
	now := time.Now()
	for name, frames := range existing {
		lastSeen[filepath.Join(filepath.Dir(frames[0].Path), name)] = now
	}

	ticker := time.NewTicker(settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if event.Op != fsnotify.Create && event.Op != fsnotify.Write {
				continue
			}
			if event.Op == fsnotify.Create && isDir(event.Name) {
				// The game nests replays per account; cover new
				// subdirectories the moment they appear.
				if errAdd := watcher.Add(event.Name); errAdd != nil {
					slog.Warn("Failed to watch new directory",
						slog.String("dir", event.Name), slog.String("error", errAdd.Error()))
				}

				continue
			}
			name, _, errName := replay.ParseFrameName(filepath.Base(event.Name))
			if errName != nil {
				continue
			}
			stem := filepath.Join(filepath.Dir(event.Name), name)
			if _, known := lastSeen[stem]; !known {
				slog.Info("Recording started", slog.String("replay", name))
			}
			lastSeen[stem] = time.Now()
		case errEvent := <-watcher.Errors:
			if errEvent != nil {
				slog.Error("Watcher error", slog.String("error", errEvent.Error()))
			}
		case <-ticker.C:
			cutoff := time.Now().Add(-settle)
			for stem, seen := range lastSeen {
				if seen.After(cutoff) {
					continue
				}
				delete(lastSeen, stem)
				slog.Info("Recording settled", slog.String("replay", filepath.Base(stem)))

				select {
				case completed <- stem:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// watchTree registers root and every directory below it. Discovery
// walks the whole tree, so the watcher has to cover it too.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}

		return watcher.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
