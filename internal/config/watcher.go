package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors rule directories for YAML changes using fsnotify.
// `semscan serve` uses it to reload the catalog when a rule file is
// edited, added, or dropped in — no restart needed.
//
// The watcher runs a background goroutine that processes fsnotify
// events. Call Close() to stop the watcher and release resources.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	done      chan struct{}
}

// NewWatcher creates a file watcher over the given rule directories.
// onChange fires whenever a .yaml/.yml file in any watched directory
// is written, created, renamed, or removed.
//
// The watcher immediately starts processing events in a background
// goroutine. Rapid successive writes typically coalesce into a single
// fsnotify event.
func NewWatcher(dirs []string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	w := &Watcher{
		fsWatcher: fw,
		done:      make(chan struct{}),
	}

	go w.processEvents(onChange)

	slog.Info("rule watcher started", "dirs", dirs)
	return w, nil
}

// processEvents reads fsnotify events and fires the callback for rule
// file changes. Runs in a background goroutine until Close().
func (w *Watcher) processEvents(onChange func()) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Removal and rename matter here too — a deleted rule
			// file should disappear from the catalog on reload.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			slog.Info("rule file changed, triggering reload", "file", event.Name)
			if onChange != nil {
				onChange()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("rule watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		// Already closed.
		return nil
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}
