package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	return s
}

func TestNewRejectsEmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestRecordAndList(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	enabled := false
	first, err := s.Record(OpToggle, true, "", ModRecord{Dir: "/mods/Pilot", Enabled: &enabled})
	require.NoError(t, err)
	second, err := s.Record(OpImport, false, "A mod already exists in folder 'Pilot'!")
	require.NoError(t, err)

	assert.Contains(t, first.ID, "toggle-2026-03-01T12-01-00-")
	assert.FileExists(t, filepath.Join(s.Dir(), first.ID+".json"))

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	require.Len(t, all[1].Mods, 1)
	require.NotNil(t, all[1].Mods[0].Enabled)
	assert.False(t, *all[1].Mods[0].Enabled)

	one, err := s.List(1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestListMissingDir(t *testing.T) {
	entries, err := newStore(t).List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSkipsGarbage(t *testing.T) {
	s := newStore(t)
	_, err := s.Record(OpDelete, true, "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "junk.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))

	entries, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGet(t *testing.T) {
	s := newStore(t)
	e, err := s.Record(OpPackage, true, "", ModRecord{Dir: "/mods/Pilot", Archive: "/mods/Pilot.zip"})
	require.NoError(t, err)

	got, err := s.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "/mods/Pilot.zip", got.Mods[0].Archive)

	got, err = s.Get(e.ID[:len(e.ID)-4])
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = s.Get("inject-nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("")
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	s := newStore(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return now.AddDate(0, 0, -40) }
	_, err := s.Record(OpImport, true, "old")
	require.NoError(t, err)
	s.now = func() time.Time { return now.AddDate(0, 0, -1) }
	recent, err := s.Record(OpImport, true, "recent")
	require.NoError(t, err)

	s.now = func() time.Time { return now }
	removed, err := s.Clean(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recent.ID, entries[0].ID)

	removed, err = s.Clean(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	e, err := r.Record(OpInject, true, "")
	assert.NoError(t, err)
	assert.Nil(t, e)
}
