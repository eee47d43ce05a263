//go:build windows

package logging

import (
	"os"

	"golang.org/x/sys/windows"
)

// The whole file is locked by locking the maximum byte range from offset 0.
const lockAll = ^uint32(0)

func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockAll, lockAll, ol)
}

func unlockFile(f *os.File) {
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockAll, lockAll, ol)
}
