package watcher

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestRelevant(t *testing.T) {
	root := filepath.Join("games", "tf2", "data", "mods")
	p := func(parts ...string) string { return filepath.Join(append([]string{root}, parts...)...) }

	cases := []struct {
		name string
		ev   RawEvent
		want bool
	}{
		{"new mod folder", RawEvent{Path: p("Pilot"), Op: fsnotify.Create}, true},
		{"archive dropped in root", RawEvent{Path: p("Pilot.zip"), Op: fsnotify.Create}, true},
		{"manifest edited", RawEvent{Path: p("Pilot", "mod.json"), Op: fsnotify.Write}, true},
		{"marker created", RawEvent{Path: p("Pilot", "disabled"), Op: fsnotify.Create}, true},
		{"script edited", RawEvent{Path: p("Pilot", "scripts", "a.nut"), Op: fsnotify.Write}, false},
		{"nested folder", RawEvent{Path: p("Pilot", "scripts"), Op: fsnotify.Create}, false},
		{"rename from manifest", RawEvent{Path: p("Pilot", "mod.bak"), OldPath: p("Pilot", "mod.json"), Op: fsnotify.Rename}, true},
		{"rename of mod folder", RawEvent{Path: p("Pilot2"), OldPath: p("Pilot"), Op: fsnotify.Rename}, true},
		{"rename of script", RawEvent{Path: p("Pilot", "b.nut"), OldPath: p("Pilot", "a.nut"), Op: fsnotify.Rename}, false},
		{"rename deep", RawEvent{Path: p("Pilot", "s", "b.nut"), OldPath: p("Pilot", "s", "a.nut"), Op: fsnotify.Rename}, false},
		{"empty", RawEvent{}, false},
		{"overflow at root", RawEvent{Path: root, Op: fsnotify.Write, Forced: true}, true},
		{"root itself", RawEvent{Path: root, Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Relevant(root, tc.ev))
		})
	}
}

func TestRelevantIgnoresMarkerNamesAboveRoot(t *testing.T) {
	root := filepath.Join("srv", "disabled", "mods")
	assert.False(t, Relevant(root, RawEvent{Path: filepath.Join(root, "Pilot", "scripts", "x.nut")}))
	assert.True(t, Relevant(root, RawEvent{Path: filepath.Join(root, "Pilot", "disabled")}))
}

func TestAnyRelevant(t *testing.T) {
	root := "mods"
	batch := []RawEvent{
		{Path: filepath.Join(root, "Pilot", "scripts", "a.nut")},
		{Path: filepath.Join(root, "Pilot", "mod.json")},
	}
	assert.True(t, AnyRelevant(root, batch))
	assert.False(t, AnyRelevant(root, batch[:1]))
	assert.False(t, AnyRelevant(root, nil))
}

func TestAnyRelevantForcedBatch(t *testing.T) {
	root := "mods"
	batch := []RawEvent{
		{Path: filepath.Join(root, "Pilot", "scripts", "a.nut")},
		{Path: root, Op: fsnotify.Write, Forced: true},
	}
	assert.True(t, AnyRelevant(root, batch))
}
