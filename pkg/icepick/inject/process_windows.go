//go:build windows

package inject

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
	procLoadLibraryW       = kernel32.NewProc("LoadLibraryW")
	procSetDllDirectoryW   = kernel32.NewProc("SetDllDirectoryW")
)

const (
	processAccess = windows.PROCESS_CREATE_THREAD |
		windows.PROCESS_QUERY_INFORMATION |
		windows.PROCESS_VM_OPERATION |
		windows.PROCESS_VM_WRITE |
		windows.PROCESS_VM_READ

	remoteCallTimeout = 30 * time.Second
)

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

type winProcess struct {
	pid    uint32
	handle windows.Handle
}

func openProcess(p *process.Process) (Process, error) {
	h, err := windows.OpenProcess(processAccess, false, uint32(p.Pid))
	if err != nil {
		return nil, osError("OpenProcess", err)
	}
	return &winProcess{pid: uint32(p.Pid), handle: h}, nil
}

func osError(op string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &OSError{Msg: op + ": " + errno.Error(), Code: uint32(errno)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (w *winProcess) PID() int { return int(w.pid) }

func (w *winProcess) Close() error {
	return windows.CloseHandle(w.handle)
}

// snapshot walks the toolhelp module list of the process.
func (w *winProcess) snapshot(fn func(e *windows.ModuleEntry32) bool) error {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, w.pid)
	if err != nil {
		return osError("CreateToolhelp32Snapshot", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Module32First(snap, &entry); err != nil {
		return osError("Module32First", err)
	}
	for {
		if !fn(&entry) {
			return nil
		}
		if err := windows.Module32Next(snap, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				return nil
			}
			return osError("Module32Next", err)
		}
	}
}

func (w *winProcess) Modules() ([]string, error) {
	var names []string
	err := w.snapshot(func(e *windows.ModuleEntry32) bool {
		names = append(names, windows.UTF16ToString(e.Module[:]))
		return true
	})
	return names, err
}

func (w *winProcess) findModule(name string) (Module, error) {
	var found Module
	err := w.snapshot(func(e *windows.ModuleEntry32) bool {
		if strings.EqualFold(windows.UTF16ToString(e.Module[:]), name) {
			found = Module{
				Name: windows.UTF16ToString(e.Module[:]),
				Path: windows.UTF16ToString(e.ExePath[:]),
				Base: e.ModBaseAddr,
			}
			return false
		}
		return true
	})
	if err != nil {
		return Module{}, err
	}
	if found.Base == 0 {
		return Module{}, fmt.Errorf("module %s is not loaded in process %d", name, w.pid)
	}
	return found, nil
}

// remoteAlloc copies data into freshly committed memory in the target.
func (w *winProcess) remoteAlloc(data []byte) (uintptr, error) {
	addr, _, err := procVirtualAllocEx.Call(
		uintptr(w.handle), 0, uintptr(len(data)),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE,
	)
	if addr == 0 {
		return 0, osError("VirtualAllocEx", err)
	}
	var written uintptr
	if err := windows.WriteProcessMemory(w.handle, addr, &data[0], uintptr(len(data)), &written); err != nil {
		w.remoteFree(addr)
		return 0, osError("WriteProcessMemory", err)
	}
	return addr, nil
}

func (w *winProcess) remoteFree(addr uintptr) {
	_, _, _ = procVirtualFreeEx.Call(uintptr(w.handle), addr, 0, windows.MEM_RELEASE)
}

// remoteCall runs fn(arg) on a new thread in the target and returns the
// thread's exit code.
func (w *winProcess) remoteCall(fn, arg uintptr) (uint32, error) {
	thread, _, err := procCreateRemoteThread.Call(uintptr(w.handle), 0, 0, fn, arg, 0, 0)
	if thread == 0 {
		return 0, osError("CreateRemoteThread", err)
	}
	defer windows.CloseHandle(windows.Handle(thread))

	event, err := windows.WaitForSingleObject(windows.Handle(thread), uint32(remoteCallTimeout.Milliseconds()))
	if err != nil {
		return 0, osError("WaitForSingleObject", err)
	}
	if event != windows.WAIT_OBJECT_0 {
		return 0, fmt.Errorf("remote call did not finish within %s", remoteCallTimeout)
	}

	var code uint32
	if ok, _, err := procGetExitCodeThread.Call(thread, uintptr(unsafe.Pointer(&code))); ok == 0 {
		return 0, osError("GetExitCodeThread", err)
	}
	return code, nil
}

func (w *winProcess) callWithString(fn uintptr, s string) (uint32, error) {
	wide, err := windows.UTF16FromString(s)
	if err != nil {
		return 0, err
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&wide[0])), len(wide)*2)
	addr, err := w.remoteAlloc(buf)
	if err != nil {
		return 0, err
	}
	defer w.remoteFree(addr)
	return w.remoteCall(fn, addr)
}

func (w *winProcess) SetSearchPath(dir string) error {
	if err := procSetDllDirectoryW.Find(); err != nil {
		return err
	}
	code, err := w.callWithString(procSetDllDirectoryW.Addr(), dir)
	if err != nil {
		return err
	}
	if code == 0 {
		return fmt.Errorf("SetDllDirectoryW(%s) failed in process %d", dir, w.pid)
	}
	return nil
}

func (w *winProcess) LoadModule(path string) (Module, error) {
	if err := procLoadLibraryW.Find(); err != nil {
		return Module{}, err
	}
	// The exit code holds only the low half of the HMODULE, so a non-zero
	// code just means success; the base comes from the module list.
	code, err := w.callWithString(procLoadLibraryW.Addr(), path)
	if err != nil {
		return Module{}, err
	}
	if code == 0 {
		return Module{}, fmt.Errorf("LoadLibraryW(%s) failed in process %d", path, w.pid)
	}
	return w.findModule(filepath.Base(path))
}

// exportAddress resolves export in the target by loading the same file here
// without running it and applying the offset to the remote base.
func exportAddress(m Module, export string) (uintptr, error) {
	local, err := windows.LoadLibraryEx(m.Path, 0, windows.DONT_RESOLVE_DLL_REFERENCES)
	if err != nil {
		return 0, osError("LoadLibraryEx", err)
	}
	defer windows.FreeLibrary(local)

	proc, err := windows.GetProcAddress(local, export)
	if err != nil {
		return 0, osError("GetProcAddress("+export+")", err)
	}
	return m.Base + (proc - uintptr(local)), nil
}

func (w *winProcess) CallExport(m Module, export string, settings Settings) error {
	fn, err := exportAddress(m, export)
	if err != nil {
		return err
	}

	pathAddr, err := w.remoteAlloc(EncodeString(settings.BasePath))
	if err != nil {
		return err
	}
	defer w.remoteFree(pathAddr)

	payload, err := EncodePayload(uint64(pathAddr), settings.DeveloperMode, ptrSize)
	if err != nil {
		return err
	}
	argAddr, err := w.remoteAlloc(payload)
	if err != nil {
		return err
	}
	defer w.remoteFree(argAddr)

	_, err = w.remoteCall(fn, argAddr)
	return err
}
