// Package archive imports mod and save archives into the game directory and
// packages mods back into archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
)

// Extension is the only archive extension Import acts on.
const Extension = ".zip"

// ImportType is what an archive was recognised as.
type ImportType int

const (
	Invalid ImportType = iota
	Mod
	Save
)

func (t ImportType) String() string {
	switch t {
	case Mod:
		return "mod"
	case Save:
		return "save"
	default:
		return "invalid"
	}
}

// Outcome is the result of one import.
type Outcome struct {
	Success bool       `json:"success"`
	Type    ImportType `json:"type"`
	Name    string     `json:"name"`
	Message string     `json:"message"`
}

// ErrNotValid is the failure when an archive holds neither a manifest nor a
// save file.
var ErrNotValid = errors.New("Mod was not a valid mod, nor a save file.") //nolint:staticcheck // user-facing sentence

// ConfirmOverwrite decides whether an existing mod directory may be
// replaced by an import of the same name.
type ConfirmOverwrite func(name string) bool

// Importer extracts archives into ModsDir or SavesDir.
type Importer struct {
	ModsDir  string
	SavesDir string

	// Confirm is asked before an existing mod is replaced. A nil Confirm
	// declines.
	Confirm ConfirmOverwrite
}

// Import installs the archive at src. It returns nil when src does not have
// the archive extension; every other result, including failures, is an
// Outcome.
func (im *Importer) Import(src string) *Outcome {
	if !strings.EqualFold(filepath.Ext(src), Extension) {
		return nil
	}

	log := logging.Get("archive")
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dest := filepath.Join(im.ModsDir, name)

	if _, err := os.Stat(dest); err == nil {
		if im.Confirm == nil || !im.Confirm(name) {
			log.Info("import declined, mod exists", "name", name)
			return &Outcome{Type: Invalid, Name: name, Message: fmt.Sprintf("A mod already exists in folder '%s'!", name)}
		}
		if err := os.RemoveAll(dest); err != nil {
			return failed(name, err)
		}
	}

	out, err := im.extract(src, dest, name)
	if err != nil {
		log.Warn("import failed", "archive", src, "error", err)
		return failed(name, err)
	}
	log.Info("imported archive", "archive", src, "type", out.Type)
	return out
}

func failed(name string, err error) *Outcome {
	return &Outcome{
		Type:    Invalid,
		Name:    name,
		Message: fmt.Sprintf("An exception occurred while importing mod '%s', %s", name, err),
	}
}

func (im *Importer) extract(src, dest, name string) (*Outcome, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	switch Classify(names) {
	case Mod:
		if err := extractAll(&zr.Reader, dest, true); err != nil {
			return nil, err
		}
		if err := os.Remove(filepath.Join(dest, mod.DisabledFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing stale marker: %w", err)
		}
		return &Outcome{Success: true, Type: Mod, Name: name, Message: name + " imported successfully!"}, nil

	case Save:
		if err := extractAll(&zr.Reader, im.SavesDir, false); err != nil {
			return nil, err
		}
		return &Outcome{Success: true, Type: Save, Name: name, Message: name + " imported to saves successfully!"}, nil

	default:
		return nil, ErrNotValid
	}
}

// Classify decides what an archive holds from its entry names. Only each
// entry's base name is considered. A manifest anywhere makes it a mod
// archive, even when save files are also present.
func Classify(entries []string) ImportType {
	result := Invalid
	for _, entry := range entries {
		base := path.Base(strings.ReplaceAll(entry, `\`, "/"))
		if strings.HasSuffix(entry, "/") {
			continue
		}
		if base == mod.ManifestFile {
			return Mod
		}
		if IsSaveFile(base) {
			result = Save
		}
	}
	return result
}

// IsSaveFile matches save names such as "profile.save.txt": more than two
// dot-separated parts and a .txt suffix.
func IsSaveFile(name string) bool {
	return len(strings.Split(name, ".")) > 2 && strings.HasSuffix(name, ".txt")
}

// extractAll writes every entry beneath dest. Entries that would land
// outside dest are rejected. When overwrite is false an existing file is an
// error.
func extractAll(zr *zip.Reader, dest string, overwrite bool) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target, overwrite); err != nil {
			return err
		}
	}
	return nil
}

func entryPath(root, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	target := filepath.Join(root, clean)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the destination directory", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	out, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("the file '%s' already exists", target)
		}
		return err
	}

	rc, err := f.Open()
	if err != nil {
		out.Close()
		return err
	}
	_, err = io.Copy(out, rc) //nolint:gosec // archives are user-chosen mod packages
	rc.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if !f.Modified.IsZero() {
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}
