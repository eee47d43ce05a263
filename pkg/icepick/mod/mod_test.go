package mod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMod(t *testing.T, manifest string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Titanfall.Pilot")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	}
	return dir
}

func TestNewParsesManifest(t *testing.T) {
	dir := writeMod(t, `{"Name":"Pilot Tweaks","description":"Faster wallruns","image":"icon.png","version":"1.2"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), []byte("png"), 0o644))

	m := New(dir)
	require.NotNil(t, m.Definition)
	assert.Equal(t, "Pilot Tweaks", m.Definition.Name)
	assert.Equal(t, "Faster wallruns", m.Definition.Description)
	assert.Equal(t, filepath.Join(dir, "icon.png"), m.ImagePath())
	assert.Equal(t, "1.2", m.Definition.Metadata["version"])
	assert.Empty(t, m.Warnings())
	assert.Empty(t, m.Errors())
	assert.Equal(t, StatusOK, m.Status())
	assert.Equal(t, "Pilot Tweaks", m.DisplayName())
}

func TestNewWithoutManifest(t *testing.T) {
	dir := writeMod(t, "")
	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	m := New(dir)
	assert.Nil(t, m.Definition)
	assert.Equal(t, "Unnamed Mod Titanfall.Pilot", m.DisplayName())
	assert.Equal(t, "Missing description.", m.Description())
	assert.Equal(t, StatusWarning, m.Status())
	assert.Contains(t, m.Warnings(), "Missing mod.json.")

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestNewMalformedManifest(t *testing.T) {
	m := New(writeMod(t, `{"name": `))
	assert.Nil(t, m.Definition)
	assert.Equal(t, StatusWarning, m.Status())
}

func TestWarningsForBlankFields(t *testing.T) {
	m := New(writeMod(t, `{"name":"  ","description":"","image":"missing.png"}`))
	require.NotNil(t, m.Definition)
	assert.Equal(t, []string{
		"Unnamed Mod Titanfall.Pilot",
		"Missing description.",
		"Image missing.png not found.",
	}, m.Warnings())
}

func TestWarningsRecomputed(t *testing.T) {
	dir := writeMod(t, `{"name":"Grunt","description":"x","image":"icon.png"}`)
	m := New(dir)
	assert.Len(t, m.Warnings(), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), nil, 0o644))
	assert.Empty(t, m.Warnings())
}

func TestEnabledFollowsMarker(t *testing.T) {
	dir := writeMod(t, `{"name":"a","description":"b"}`)
	m := New(dir)
	assert.True(t, m.Enabled())

	require.NoError(t, os.WriteFile(m.MarkerPath(), nil, 0o644))
	assert.False(t, m.Enabled())

	require.NoError(t, os.Remove(m.MarkerPath()))
	assert.True(t, m.Enabled())
}

func TestDiskUsage(t *testing.T) {
	dir := writeMod(t, `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts", "vscripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "vscripts", "a.nut"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), make([]byte, 23), 0o644))

	size, err := New(dir).DiskUsage()
	require.NoError(t, err)
	assert.Equal(t, int64(125), size)
	assert.Equal(t, "125 B", New(dir).HumanSize())
}

func TestDiskUsageMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "gone")).DiskUsage()
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "update", StatusUpdate.String())
}
