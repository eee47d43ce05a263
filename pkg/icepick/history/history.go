package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history entry not found")

// Recorder records operations. *Store implements it.
type Recorder interface {
	Record(op Operation, success bool, message string, mods ...ModRecord) (*Entry, error)
}

// Store reads and writes entries in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a Store over dir. The directory is created on first write.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir is the directory entries are kept in.
func (s *Store) Dir() string {
	return s.dir
}

// Record writes a new entry.
func (s *Store) Record(op Operation, success bool, message string, mods ...ModRecord) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	entry := &Entry{
		ID:        newID(op, now),
		Timestamp: now,
		Operation: op,
		Mods:      mods,
		Success:   success,
		Message:   message,
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	if err := s.write(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

func (s *Store) write(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, entry.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// List returns entries newest first. A non-positive limit returns all.
// Unreadable files are skipped.
func (s *Store) List(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID. A unique ID prefix is accepted.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		switch {
		case entries[i].ID == id:
			return &entries[i], nil
		case strings.HasPrefix(entries[i].ID, id):
			if match != nil {
				return nil, fmt.Errorf("ambiguous entry ID %q", id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Clean removes entries recorded more than retentionDays ago and reports
// how many were removed. A non-positive retention keeps everything.
func (s *Store) Clean(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.ID+".json")); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) readAll() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil || e.ID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// newID builds IDs like "import-2026-06-15T10-30-00-1b4e28ba".
func newID(op Operation, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", op, at.Format("2006-01-02T15-04-05"), uuid.New().String()[:8])
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) Record(Operation, bool, string, ...ModRecord) (*Entry, error) { return nil, nil }
