// Package opener hands folders and URLs to the desktop: Explorer on
// Windows, open on macOS and xdg-open (or gio) elsewhere.
package opener

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// commandTimeout bounds how long the opener command may take to hand off.
const commandTimeout = 10 * time.Second

// ErrMissingDirectory is returned by ShowFolder for a directory that does
// not exist.
var ErrMissingDirectory = errors.New("directory is missing")

// ErrNoOpener is returned when no opener command is available.
var ErrNoOpener = errors.New("no desktop opener available")

// lookPath and run are swapped out in tests.
var (
	lookPath = exec.LookPath
	run      = func(ctx context.Context, name string, args ...string) error {
		return exec.CommandContext(ctx, name, args...).Run() //nolint:gosec // fixed opener binaries
	}
)

// ShowFolder opens dir in the file manager.
func ShowFolder(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: the directory '%s' is missing", ErrMissingDirectory, abs)
	}
	return Open(ctx, abs)
}

// Open hands target, a path or URL, to the desktop.
func Open(ctx context.Context, target string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	name, args, err := command(runtime.GOOS, target)
	if err != nil {
		return err
	}
	if err := run(ctx, name, args...); err != nil {
		// explorer.exe exits 1 even when it succeeds.
		var exitErr *exec.ExitError
		if name == "explorer" && errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("opening %s: %w", target, err)
	}
	return nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "windows":
		if strings.Contains(target, "://") {
			return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
		}
		return "explorer", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	default:
		if p, err := lookPath("xdg-open"); err == nil {
			return p, []string{target}, nil
		}
		if p, err := lookPath("gio"); err == nil {
			return p, []string{"open", target}, nil
		}
		return "", nil, ErrNoOpener
	}
}
