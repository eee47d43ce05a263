// Package watcher turns file system activity under the mods directory into
// debounced "catalog changed" notifications.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

// Watcher watches the mods root recursively. New subdirectories are picked
// up as they appear and removed ones are dropped.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	onChange func()

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher for root that calls onChange once per relevant
// burst of activity, after quiet has passed without further events.
func New(root string, quiet time.Duration, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watching %s: not a directory", abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     abs,
		fsw:      fsw,
		onChange: onChange,
		paths:    make(map[string]bool),
	}
	w.debounce = NewDebouncer(quiet, w.flush)

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root is the absolute directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.Get("watcher")
	log.Info("watching mods directory", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; reload anyway.
				w.debounce.Trigger(RawEvent{Path: w.root, Op: fsnotify.Write, Forced: true})
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	logging.Get("watcher").Debug("raw event", "path", event.Name, "op", event.Op.String())

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = w.addTree(event.Name)
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The new name of a rename arrives as its own Create.
		w.dropTree(event.Name)
	}

	w.debounce.Trigger(RawEvent{Path: event.Name, Op: event.Op})
}

func (w *Watcher) flush(batch []RawEvent) {
	if !AnyRelevant(w.root, batch) {
		logging.Get("watcher").Debug("ignoring irrelevant changes", "events", len(batch))
		return
	}
	logging.Get("watcher").Info("mods changed", "events", len(batch))
	if w.onChange != nil {
		w.onChange()
	}
}

// addTree watches dir and every directory beneath it. Symlinks are not
// followed.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil //nolint:nilerr // skip unreadable subtrees
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		return w.add(path)
	})
}

func (w *Watcher) add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) dropTree(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Watched returns the number of directories under watch.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// Close stops watching and discards any pending notification.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	w.mu.Unlock()

	w.debounce.Stop()
	return w.fsw.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
