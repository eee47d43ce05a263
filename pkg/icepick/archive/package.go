package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
)

// ExportPath is where Package writes the archive for modDir.
func ExportPath(modsDir, modDir string) string {
	return filepath.Join(modsDir, filepath.Base(modDir)+Extension)
}

// Package zips modDir into modsDir/<name>.zip. A disabled marker is left
// out of the archive and is back in place when Package returns, whether or
// not packaging succeeded. An existing archive is never overwritten.
func Package(modsDir, modDir string) (err error) {
	exportPath := ExportPath(modsDir, modDir)
	marker := filepath.Join(modDir, mod.DisabledFile)

	info, err := os.Stat(modDir)
	if err != nil {
		return fmt.Errorf("packaging %s: %w", filepath.Base(modDir), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("packaging %s: not a directory", filepath.Base(modDir))
	}

	disabled := !mod.IsEnabled(modDir)
	if disabled {
		if err := os.Remove(marker); err != nil {
			return fmt.Errorf("lifting disabled marker: %w", err)
		}
		defer func() {
			if rerr := touch(marker); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring disabled marker: %w", rerr))
			}
		}()
	}

	out, err := os.OpenFile(exportPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("the file '%s' already exists", exportPath)
		}
		return err
	}

	if err := writeZip(out, modDir, exportPath); err != nil {
		out.Close()
		os.Remove(exportPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(exportPath)
		return err
	}

	logging.Get("archive").Info("packaged mod", "mod", filepath.Base(modDir), "archive", exportPath)
	return nil
}

type packEntry struct {
	rel  string
	path string
	dir  bool
}

// writeZip archives every file beneath root with forward-slash names
// relative to root, in sorted order. skip is left out so the archive does
// not contain itself.
func writeZip(w io.Writer, root, skip string) error {
	var (
		mu      sync.Mutex
		entries []packEntry
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root || p == skip {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		mu.Lock()
		entries = append(entries, packEntry{rel: filepath.ToSlash(rel), path: p, dir: d.IsDir()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addEntry(zw, e); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, e packEntry) error {
	info, err := os.Stat(e.path)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = e.rel
	if e.dir {
		hdr.Name += "/"
		_, err = zw.CreateHeader(hdr)
		return err
	}
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}

// Toggle flips modDir between enabled and disabled and returns the new
// state.
func Toggle(modDir string) (enabled bool, err error) {
	marker := filepath.Join(modDir, mod.DisabledFile)
	if !mod.IsEnabled(modDir) {
		if err := os.Remove(marker); err != nil {
			return false, fmt.Errorf("enabling %s: %w", filepath.Base(modDir), err)
		}
		return true, nil
	}
	if err := touch(marker); err != nil {
		return true, fmt.Errorf("disabling %s: %w", filepath.Base(modDir), err)
	}
	return false, nil
}

// SetEnabled makes modDir enabled or disabled, doing nothing if it already
// is.
func SetEnabled(modDir string, enabled bool) (changed bool, err error) {
	if mod.IsEnabled(modDir) == enabled {
		return false, nil
	}
	if _, err := Toggle(modDir); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes modDir and everything beneath it. It fails when modDir
// does not exist.
func Delete(modDir string) error {
	info, err := os.Stat(modDir)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", filepath.Base(modDir), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("deleting %s: not a directory", filepath.Base(modDir))
	}
	if err := os.RemoveAll(modDir); err != nil {
		return fmt.Errorf("deleting %s: %w", filepath.Base(modDir), err)
	}
	logging.Get("archive").Info("deleted mod", "mod", filepath.Base(modDir))
	return nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
