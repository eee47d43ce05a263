package inject

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutByRoute(t *testing.T) {
	assert.Equal(t, 30*time.Second, Timeout(ViaDirect))
	assert.Equal(t, 30*time.Second, Timeout(ViaNone))
	assert.Equal(t, 60*time.Second, Timeout(ViaSteam))
}

func TestLauncherSteam(t *testing.T) {
	var opened string
	l := &Launcher{
		Via:      ViaSteam,
		SteamURL: "steam://run/1237970",
		Open: func(_ context.Context, target string) error {
			opened = target
			return nil
		},
	}
	require.NoError(t, l.Launch(context.Background()))
	assert.Equal(t, "steam://run/1237970", opened)
}

func TestLauncherDirect(t *testing.T) {
	game := filepath.Join(t.TempDir(), "Titanfall2.exe")
	require.NoError(t, os.WriteFile(game, nil, 0o755))

	var started string
	l := &Launcher{Via: ViaDirect, GamePath: game, Start: func(p string) error {
		started = p
		return nil
	}}
	require.NoError(t, l.Launch(context.Background()))
	assert.Equal(t, game, started)

	l.GamePath = filepath.Join(t.TempDir(), "missing.exe")
	assert.Error(t, l.Launch(context.Background()))

	l.GamePath = ""
	assert.Error(t, l.Launch(context.Background()))
}

func TestLauncherNoneAndUnknown(t *testing.T) {
	assert.NoError(t, (&Launcher{Via: ViaNone}).Launch(context.Background()))
	assert.NoError(t, (&Launcher{}).Launch(context.Background()))
	assert.Error(t, (&Launcher{Via: "origin"}).Launch(context.Background()))
}
