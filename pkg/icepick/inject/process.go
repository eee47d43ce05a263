package inject

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrUnsupported is returned by process operations the current platform
// cannot perform.
var ErrUnsupported = errors.New("operation not supported on this platform")

// Settings is handed to the SDK's initialisation export.
type Settings struct {
	BasePath      string
	DeveloperMode bool
}

// Module is a module loaded in a target process.
type Module struct {
	Name string
	Path string
	Base uintptr
}

// Process is an open handle on a target process.
type Process interface {
	PID() int

	// Modules lists the base names of modules loaded in the process.
	Modules() ([]string, error)

	// SetSearchPath sets the directory the process searches for DLLs.
	SetSearchPath(dir string) error

	// LoadModule loads the module at path into the process.
	LoadModule(path string) (Module, error)

	// CallExport runs the named export of m with a pointer to the encoded
	// settings, and waits for it to return.
	CallExport(m Module, export string, settings Settings) error

	Close() error
}

// ProcessFinder locates running processes by name.
type ProcessFinder interface {
	// FindByName returns open handles for every process whose executable
	// name, without extension, equals name ignoring case.
	FindByName(ctx context.Context, name string) ([]Process, error)
}

// OSError is a failed OS call with its native error code.
type OSError struct {
	Msg  string
	Code uint32
}

func (e *OSError) Error() string {
	return fmt.Sprintf("%s, Error Code %d", e.Msg, e.Code)
}

// SystemFinder finds processes with gopsutil and opens them with the
// platform backend.
type SystemFinder struct{}

// NewSystemFinder returns the finder for the running OS.
func NewSystemFinder() *SystemFinder {
	return &SystemFinder{}
}

// FindByName implements ProcessFinder.
func (SystemFinder) FindByName(ctx context.Context, name string) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var found []Process
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			continue // exited or inaccessible
		}
		if !sameProcessName(pname, name) {
			continue
		}
		h, err := openProcess(p)
		if err != nil {
			closeAll(found)
			return nil, err
		}
		found = append(found, h)
	}
	return found, nil
}

func sameProcessName(exe, want string) bool {
	base := strings.TrimSuffix(exe, filepath.Ext(exe))
	return strings.EqualFold(base, want) || strings.EqualFold(exe, want)
}

func closeAll(procs []Process) {
	for _, p := range procs {
		_ = p.Close()
	}
}
