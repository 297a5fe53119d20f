// Package store is the persistence port used by the runner: JSON records
// and text blobs addressed by slash-separated keys.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"cron-shell/internal/ioformats"
)

// ErrRunInProgress is returned by Lock when another process holds the lock.
var ErrRunInProgress = errors.New("another run is in progress")

type Store interface {
	// Load decodes the record at key into v. It reports false when the
	// record does not exist.
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
	SaveText(key, text string) error
	// Path is the human readable location of key, used in receipts.
	Path(key string) string
}

// FileStore keeps every key as a file below Root.
type FileStore struct {
	Root string
}

func NewFileStore(root string) *FileStore { return &FileStore{Root: root} }

func (s *FileStore) Path(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *FileStore) Load(key string, v any) (bool, error) {
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *FileStore) Save(key string, v any) error {
	b, err := ioformats.MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.write(key, b)
}

func (s *FileStore) SaveText(key, text string) error {
	return s.write(key, []byte(text))
}

// write overwrites in place; entries are independently keyed.
func (s *FileStore) write(key string, b []byte) error {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Lock takes a non-blocking advisory lock on the file at key. The returned
// func releases it.
func (s *FileStore) Lock(key string) (func() error, error) {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir for %s: %w", key, err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return fl.Unlock, nil
}

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemStore() *MemStore { return &MemStore{data: map[string][]byte{}} }

func (m *MemStore) Path(key string) string { return "mem://" + key }

func (m *MemStore) Load(key string, v any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (m *MemStore) Save(key string, v any) error {
	b, err := ioformats.MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.Put(key, b)
	return nil
}

func (m *MemStore) SaveText(key, text string) error {
	m.Put(key, []byte(text))
	return nil
}

// Put stores raw bytes under key, bypassing encoding.
func (m *MemStore) Put(key string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), b...)
}

// Get returns the raw bytes stored under key.
func (m *MemStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

// Keys lists stored keys with the given prefix, sorted.
func (m *MemStore) Keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
