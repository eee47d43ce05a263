// Package settings is a small persistent key/value store for user settings
// that are toggled at runtime rather than edited in the config file, such as
// developer mode.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key names.
const (
	KeyDeveloperMode = "developer_mode"
)

const (
	prefixSetting = "s:"
	schemaKey     = "m:__schema__"

	// CurrentSchemaVersion is written on open.
	CurrentSchemaVersion = 1
)

// ErrNotSet is returned by Get for a key with no value.
var ErrNotSet = errors.New("setting not set")

// Schema records the store layout version.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a badger-backed settings store.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}

	s := &Store{db: db}
	if s.Schema() == nil {
		if err := s.setSchema(&Schema{Version: CurrentSchemaVersion, UpdatedAt: time.Now().UTC()}); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// OpenInMemory opens a store that is never written to disk.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Schema returns the stored schema, or nil when none is recorded.
func (s *Store) Schema() *Schema {
	var schema *Schema
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})
	return schema
}

func (s *Store) setSchema(schema *Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
}

// Get decodes the value stored under key into v.
func (s *Store) Get(key string, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSetting + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotSet, key)
	}
	return err
}

// Set stores v under key.
func (s *Store) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixSetting+key), data)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixSetting + key))
	})
}

// All returns every setting as raw JSON, keyed by name.
func (s *Store) All() (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSetting)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), prefixSetting)
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[key] = json.RawMessage(val)
		}
		return nil
	})
	return out, err
}

// DeveloperMode reports the developer mode flag. An unset flag is false.
func (s *Store) DeveloperMode() (bool, error) {
	var on bool
	err := s.Get(KeyDeveloperMode, &on)
	if errors.Is(err, ErrNotSet) {
		return false, nil
	}
	return on, err
}

// SetDeveloperMode stores the developer mode flag.
func (s *Store) SetDeveloperMode(on bool) error {
	return s.Set(KeyDeveloperMode, on)
}
