//go:build !windows

package inject

import (
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

// procHandle can inspect a process but not load code into it.
type procHandle struct {
	p *process.Process
}

func openProcess(p *process.Process) (Process, error) {
	return &procHandle{p: p}, nil
}

func (h *procHandle) PID() int { return int(h.p.Pid) }

// Modules reports the files mapped into the process.
func (h *procHandle) Modules() ([]string, error) {
	maps, err := h.p.MemoryMaps(false)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, m := range *maps {
		if m.Path == "" || m.Path[0] == '[' {
			continue
		}
		name := filepath.Base(m.Path)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func (h *procHandle) SetSearchPath(string) error { return ErrUnsupported }

func (h *procHandle) LoadModule(string) (Module, error) { return Module{}, ErrUnsupported }

func (h *procHandle) CallExport(Module, string, Settings) error { return ErrUnsupported }

func (h *procHandle) Close() error { return nil }
