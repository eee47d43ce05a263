package inject

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/opener"
)

// Via says how the game gets started before the engine starts watching.
type Via string

const (
	// ViaNone only watches; the user starts the game.
	ViaNone Via = "none"
	// ViaDirect runs the game executable.
	ViaDirect Via = "direct"
	// ViaSteam opens the Steam run URL, which goes through the EA app
	// before the game appears.
	ViaSteam Via = "steam"
)

// Timeout is the search deadline for a launch route. Routes that go
// through another launcher get longer.
func Timeout(via Via) time.Duration {
	if via == ViaSteam {
		return LauncherTimeout
	}
	return DirectTimeout
}

// Launcher starts the game.
type Launcher struct {
	Via      Via
	GamePath string
	SteamURL string

	// Open opens URLs. Nil uses opener.Open.
	Open func(ctx context.Context, target string) error

	// Start runs an executable without waiting for it. Nil uses os/exec.
	Start func(path string) error
}

// Launch starts the game according to l.Via.
func (l *Launcher) Launch(ctx context.Context) error {
	log := logging.Get("inject")
	switch l.Via {
	case ViaNone, "":
		return nil

	case ViaSteam:
		if l.SteamURL == "" {
			return fmt.Errorf("no Steam URL configured")
		}
		log.Info("launching through Steam", "url", l.SteamURL)
		open := l.Open
		if open == nil {
			open = opener.Open
		}
		return open(ctx, l.SteamURL)

	case ViaDirect:
		if l.GamePath == "" {
			return fmt.Errorf("launch.game_path is not set")
		}
		if _, err := os.Stat(l.GamePath); err != nil {
			return fmt.Errorf("game executable: %w", err)
		}
		log.Info("launching game", "path", l.GamePath)
		start := l.Start
		if start == nil {
			start = startDetached
		}
		return start(l.GamePath)

	default:
		return fmt.Errorf("unknown launch mode %q", l.Via)
	}
}

func startDetached(path string) error {
	cmd := exec.Command(path) //nolint:gosec // path comes from the user's config
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", filepath.Base(path), err)
	}
	return cmd.Process.Release()
}
