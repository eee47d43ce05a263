package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "settings")
	s, err := Open(dir)
	require.NoError(t, err)
	return s, dir
}

func TestOpenWritesSchema(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	schema := s.Schema()
	require.NotNil(t, schema)
	assert.Equal(t, CurrentSchemaVersion, schema.Version)
}

func TestDeveloperModeDefaultsOff(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	on, err := s.DeveloperMode()
	require.NoError(t, err)
	assert.False(t, on)
}

func TestDeveloperModePersists(t *testing.T) {
	s, dir := openTemp(t)
	require.NoError(t, s.SetDeveloperMode(true))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	on, err := reopened.DeveloperMode()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestGetSetDelete(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	var v string
	assert.ErrorIs(t, s.Get("launch_via", &v), ErrNotSet)

	require.NoError(t, s.Set("launch_via", "steam"))
	require.NoError(t, s.Get("launch_via", &v))
	assert.Equal(t, "steam", v)

	all, err := s.All()
	require.NoError(t, err)
	assert.JSONEq(t, `"steam"`, string(all["launch_via"]))
	assert.NotContains(t, all, "__schema__")

	require.NoError(t, s.Delete("launch_via"))
	require.NoError(t, s.Delete("launch_via"))
	assert.ErrorIs(t, s.Get("launch_via", &v), ErrNotSet)
}

func TestGetTypeMismatch(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(KeyDeveloperMode, "yes"))
	_, err = s.DeveloperMode()
	assert.Error(t, err)
}
