// Package mod models a single mod: a directory under the mods root holding
// a mod.json manifest and, when disabled, an empty "disabled" marker file.
//
// Everything a Mod reports is derived from disk on demand. Constructing a
// Mod only reads; it never writes to the directory.
package mod

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
)

const (
	// ManifestFile names the per-mod metadata file.
	ManifestFile = "mod.json"

	// DisabledFile is the marker whose presence disables a mod.
	DisabledFile = "disabled"
)

// Status summarises a mod's validation state.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	// StatusUpdate marks a mod with a newer version available. Nothing
	// produces it yet; it is part of the display vocabulary.
	StatusUpdate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Definition is the parsed manifest. Keys other than name, description and
// image are kept in Metadata.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Metadata    map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known keys and keeps the rest in Metadata.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		delete(raw, key)
		s, _ := v.(string)
		return s
	}

	// Keys are matched case-insensitively, as existing manifests use both
	// "Name" and "name".
	for k := range raw {
		if lower := strings.ToLower(k); lower != k {
			if _, clash := raw[lower]; !clash {
				raw[lower] = raw[k]
				delete(raw, k)
			}
		}
	}

	d.Name = take("name")
	d.Description = take("description")
	d.Image = take("image")
	d.Metadata = nil
	if len(raw) > 0 {
		d.Metadata = raw
	}
	return nil
}

// Mod is one entry of the catalog. Dir is its identity.
type Mod struct {
	Dir        string
	Definition *Definition

	// manifestErr records why the manifest could not be used.
	manifestErr error
}

// New reads dir/mod.json. A missing or malformed manifest leaves
// Definition nil; New never fails.
func New(dir string) *Mod {
	m := &Mod{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		m.manifestErr = err
		return m
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		m.manifestErr = fmt.Errorf("parsing %s: %w", ManifestFile, err)
		return m
	}
	m.Definition = &def
	return m
}

// Name is the directory's base name.
func (m *Mod) Name() string {
	return filepath.Base(m.Dir)
}

// DisplayName is the manifest name, or "Unnamed Mod <dir>" when blank.
func (m *Mod) DisplayName() string {
	if m.Definition != nil && strings.TrimSpace(m.Definition.Name) != "" {
		return m.Definition.Name
	}
	return "Unnamed Mod " + m.Name()
}

// Description is the manifest description, or "Missing description.".
func (m *Mod) Description() string {
	if m.Definition != nil && strings.TrimSpace(m.Definition.Description) != "" {
		return m.Definition.Description
	}
	return "Missing description."
}

// ImagePath returns the manifest image resolved against Dir, or "" when the
// manifest names none.
func (m *Mod) ImagePath() string {
	if m.Definition == nil || m.Definition.Image == "" {
		return ""
	}
	return filepath.Join(m.Dir, filepath.FromSlash(m.Definition.Image))
}

// MarkerPath is where the disabled marker lives for this mod.
func (m *Mod) MarkerPath() string {
	return filepath.Join(m.Dir, DisabledFile)
}

// Enabled reports whether the disabled marker is absent. It stats the file
// on every call.
func (m *Mod) Enabled() bool {
	return IsEnabled(m.Dir)
}

// IsEnabled reports whether dir has no disabled marker.
func IsEnabled(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, DisabledFile))
	return errors.Is(err, fs.ErrNotExist)
}

// Errors lists conditions that block using the mod. None are defined today.
func (m *Mod) Errors() []string {
	return []string{}
}

// Warnings lists problems worth showing but that do not block the mod.
func (m *Mod) Warnings() []string {
	var warnings []string
	switch {
	case errors.Is(m.manifestErr, fs.ErrNotExist):
		warnings = append(warnings, "Missing "+ManifestFile+".")
	case m.manifestErr != nil:
		warnings = append(warnings, "Could not read "+ManifestFile+": "+m.manifestErr.Error())
	}

	if m.Definition == nil || strings.TrimSpace(m.Definition.Name) == "" {
		warnings = append(warnings, "Unnamed Mod "+m.Name())
	}
	if m.Definition == nil || strings.TrimSpace(m.Definition.Description) == "" {
		warnings = append(warnings, "Missing description.")
	}
	if img := m.ImagePath(); img != "" {
		if _, err := os.Stat(img); err != nil {
			warnings = append(warnings, "Image "+m.Definition.Image+" not found.")
		}
	}
	return warnings
}

// Status is StatusError when there are errors, StatusWarning when there
// are only warnings, and StatusOK otherwise.
func (m *Mod) Status() Status {
	if len(m.Errors()) > 0 {
		return StatusError
	}
	if len(m.Warnings()) > 0 {
		return StatusWarning
	}
	return StatusOK
}

// DiskUsage sums the sizes of regular files beneath Dir.
func (m *Mod) DiskUsage() (int64, error) {
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, m.Dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		total.Add(info.Size())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measuring %s: %w", m.Dir, err)
	}
	return total.Load(), nil
}

// HumanSize formats DiskUsage, or "?" when it cannot be measured.
func (m *Mod) HumanSize() string {
	size, err := m.DiskUsage()
	if err != nil {
		return "?"
	}
	return humanize.IBytes(uint64(size))
}
