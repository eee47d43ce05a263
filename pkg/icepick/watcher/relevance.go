package watcher

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/icepick/pkg/icepick/mod"
)

// Op is the kind of change a RawEvent reports.
type Op = fsnotify.Op

// RawEvent is one undebounced change under the mods root. OldPath is set
// for renames when the previous name is known. Forced marks a change that
// must reload regardless of path, such as an event queue overflow.
type RawEvent struct {
	Path    string
	OldPath string
	Op      Op
	Forced  bool
}

// Relevant reports whether ev can change the catalog: the path names a
// manifest or disabled marker, or is a direct child of root (a mod folder
// appearing or going away). A rename counts if either name qualifies. Forced
// events are always relevant.
func Relevant(root string, ev RawEvent) bool {
	if ev.Forced {
		return true
	}
	if relevantPath(root, ev.Path) {
		return true
	}
	return ev.OldPath != "" && relevantPath(root, ev.OldPath)
}

// AnyRelevant reports whether any event in batch is relevant.
func AnyRelevant(root string, batch []RawEvent) bool {
	for _, ev := range batch {
		if Relevant(root, ev) {
			return true
		}
	}
	return false
}

func relevantPath(root, path string) bool {
	if path == "" {
		return false
	}
	root = filepath.Clean(root)
	path = filepath.Clean(path)

	// Only the part below root is searched for marker names, so a root that
	// itself contains "disabled" does not make everything relevant.
	rel := path
	if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = r
	}
	if strings.Contains(rel, mod.ManifestFile) || strings.Contains(rel, mod.DisabledFile) {
		return true
	}
	return filepath.Dir(path) == root
}
