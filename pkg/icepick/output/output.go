// Package output renders mod listings for the CLI in several formats
// (pretty, plain, json, yaml). Formatters are looked up by name so the
// --format flag can pick one at runtime.
//
//	f, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, output.FromMods(root, mods)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
)

// ModInfo is one mod prepared for display.
type ModInfo struct {
	Dir         string   `json:"dir" yaml:"dir"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Path        string   `json:"path" yaml:"path"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	Status      string   `json:"status" yaml:"status"`
	Size        int64    `json:"size" yaml:"size"`
	SizeHuman   string   `json:"size_human" yaml:"size_human"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Result is everything a formatter needs.
type Result struct {
	// Root is the mods directory the listing came from.
	Root string `json:"root" yaml:"root"`

	Mods []ModInfo `json:"mods" yaml:"mods"`

	// Detail asks formatters that support it to print descriptions and
	// warnings under each mod.
	Detail bool `json:"-" yaml:"-"`
}

// TotalSize is the sum of every mod's size.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, m := range r.Mods {
		total += m.Size
	}
	return total
}

// EnabledCount is the number of enabled mods.
func (r *Result) EnabledCount() int {
	n := 0
	for _, m := range r.Mods {
		if m.Enabled {
			n++
		}
	}
	return n
}

// FromMod converts one mod. A failed size walk leaves Size at zero.
func FromMod(m *mod.Mod) ModInfo {
	size, err := m.DiskUsage()
	if err != nil {
		logging.Get("output").Debug("disk usage failed", "mod", m.Name(), "error", err)
	}
	info := ModInfo{
		Dir:         m.Name(),
		Name:        m.DisplayName(),
		Description: m.Description(),
		Path:        m.Dir,
		Image:       m.ImagePath(),
		Enabled:     m.Enabled(),
		Status:      m.Status().String(),
		Size:        size,
		SizeHuman:   humanize.IBytes(uint64(max(size, 0))),
		Warnings:    m.Warnings(),
		Errors:      m.Errors(),
	}
	return info
}

// FromMods builds a Result in the given order.
func FromMods(root string, mods []*mod.Mod) *Result {
	r := &Result{Root: root, Mods: make([]ModInfo, 0, len(mods))}
	for _, m := range mods {
		r.Mods = append(r.Mods, FromMod(m))
	}
	return r
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a formatter.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to DefaultRegistry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from DefaultRegistry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists DefaultRegistry.
func Available() []string {
	return DefaultRegistry.Available()
}
