// Package repository owns the in-memory catalog of mods and every operation
// that changes the mods directory.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/icepick/pkg/icepick/archive"
	"github.com/jamesainslie/icepick/pkg/icepick/events"
	"github.com/jamesainslie/icepick/pkg/icepick/history"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
	"github.com/jamesainslie/icepick/pkg/icepick/watcher"
)

// ErrModNotFound is returned by Find when no loaded mod matches.
var ErrModNotFound = errors.New("mod not found")

// Options configures a Repository.
type Options struct {
	ModsDir  string
	SavesDir string

	// QuietPeriod is the watcher debounce. Zero selects the default.
	QuietPeriod time.Duration

	// Confirm is asked before an import replaces an existing mod.
	Confirm archive.ConfirmOverwrite

	// History records mutating operations. Nil disables recording.
	History history.Recorder
}

// Repository holds the catalog. Reads and reloads are safe to call from
// different goroutines; events are emitted outside the catalog lock.
type Repository struct {
	opts   Options
	bus    *events.Bus[Event]
	record history.Recorder

	mu   sync.RWMutex
	mods []*mod.Mod
}

// New returns an empty repository. Call LoadAll to populate it.
func New(opts Options) *Repository {
	rec := opts.History
	if rec == nil {
		rec = history.Nop{}
	}
	return &Repository{
		opts:   opts,
		bus:    events.New[Event](),
		record: rec,
	}
}

// ModsDir is the mods root.
func (r *Repository) ModsDir() string { return r.opts.ModsDir }

// SavesDir is where save archives are extracted.
func (r *Repository) SavesDir() string { return r.opts.SavesDir }

// Events is the bus carrying repository notifications.
func (r *Repository) Events() *events.Bus[Event] { return r.bus }

// Subscribe is shorthand for Events().Subscribe.
func (r *Repository) Subscribe(fn func(Event)) string {
	return r.bus.Subscribe(fn)
}

// LoadAll appends a Mod for every immediate subdirectory of the mods root,
// in directory order, skipping names that start with a dot. A missing root
// yields no mods.
func (r *Repository) LoadAll() error {
	log := logging.Get("repository")
	r.bus.Emit(Event{Kind: StartedLoading})

	entries, err := readDirUnsorted(r.opts.ModsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.bus.Emit(Event{Kind: FinishedLoading})
		return fmt.Errorf("reading mods directory: %w", err)
	}

	count := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(r.opts.ModsDir, e.Name())
		if !isDir(dir, e) {
			continue
		}

		m := mod.New(dir)
		r.mu.Lock()
		r.mods = append(r.mods, m)
		r.mu.Unlock()
		count++
		r.bus.Emit(Event{Kind: ModLoaded, Mod: m})
	}

	log.Info("mods loaded", "root", r.opts.ModsDir, "count", count)
	r.bus.Emit(Event{Kind: FinishedLoading})
	return nil
}

// readDirUnsorted lists dir in the order the filesystem returns entries.
func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

func isDir(path string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ClearDatabase empties the catalog.
func (r *Repository) ClearDatabase() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mods = nil
}

// Reload rebuilds the catalog from disk.
func (r *Repository) Reload() error {
	r.ClearDatabase()
	return r.LoadAll()
}

// Mods returns a copy of the catalog in load order.
func (r *Repository) Mods() []*mod.Mod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*mod.Mod, len(r.mods))
	copy(out, r.mods)
	return out
}

// Find returns the loaded mod whose directory name or display name equals
// name, ignoring case. Directory names win over display names.
func (r *Repository) Find(name string) (*mod.Mod, error) {
	mods := r.Mods()
	for _, m := range mods {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	for _, m := range mods {
		if m.Definition != nil && strings.EqualFold(m.Definition.Name, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModNotFound, name)
}

// Import installs an archive and publishes ImportFinished. It returns nil,
// without an event, for files that are not archives.
func (r *Repository) Import(path string) *archive.Outcome {
	im := &archive.Importer{
		ModsDir:  r.opts.ModsDir,
		SavesDir: r.opts.SavesDir,
		Confirm:  r.opts.Confirm,
	}
	out := im.Import(path)
	if out == nil {
		return nil
	}

	rec := history.ModRecord{Archive: path, Name: out.Name}
	if out.Type == archive.Mod {
		rec.Dir = filepath.Join(r.opts.ModsDir, out.Name)
	}
	r.log(history.OpImport, out.Success, out.Message, rec)

	r.bus.Emit(Event{Kind: ImportFinished, Outcome: out})
	return out
}

// Package writes mods/<name>.zip from modDir.
func (r *Repository) Package(modDir string) error {
	err := archive.Package(r.opts.ModsDir, modDir)
	r.log(history.OpPackage, err == nil, errMessage(err), history.ModRecord{
		Dir:     modDir,
		Name:    filepath.Base(modDir),
		Archive: archive.ExportPath(r.opts.ModsDir, modDir),
	})
	return err
}

// Toggle flips a mod between enabled and disabled and returns the new
// state.
func (r *Repository) Toggle(modDir string) (bool, error) {
	enabled, err := archive.Toggle(modDir)
	r.log(history.OpToggle, err == nil, errMessage(err), toggleRecord(modDir, enabled, err))
	return enabled, err
}

// SetEnabled enables or disables a mod, recording only real changes.
func (r *Repository) SetEnabled(modDir string, enabled bool) (bool, error) {
	changed, err := archive.SetEnabled(modDir, enabled)
	if changed || err != nil {
		r.log(history.OpToggle, err == nil, errMessage(err), toggleRecord(modDir, enabled, err))
	}
	return changed, err
}

// toggleRecord carries the new state only when the change happened.
func toggleRecord(modDir string, enabled bool, err error) history.ModRecord {
	rec := history.ModRecord{Dir: modDir, Name: filepath.Base(modDir)}
	if err == nil {
		rec.Enabled = &enabled
	}
	return rec
}

// Delete removes a mod directory permanently.
func (r *Repository) Delete(modDir string) error {
	rec := history.ModRecord{Dir: modDir, Name: filepath.Base(modDir)}
	if size, err := (&mod.Mod{Dir: modDir}).DiskUsage(); err == nil {
		rec.Size = size
	}
	err := archive.Delete(modDir)
	r.log(history.OpDelete, err == nil, errMessage(err), rec)
	return err
}

// Watch publishes CatalogChanged whenever the mods tree changes in a way
// that can affect the catalog. It blocks until ctx is done.
func (r *Repository) Watch(ctx context.Context) error {
	w, err := watcher.New(r.opts.ModsDir, r.opts.QuietPeriod, func() {
		r.bus.Emit(Event{Kind: CatalogChanged})
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Repository) log(op history.Operation, ok bool, msg string, rec history.ModRecord) {
	if _, err := r.record.Record(op, ok, msg, rec); err != nil {
		logging.Get("repository").Warn("failed to record history", "operation", op, "error", err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
