package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	dragonball "github.com/wisslabs/go-dragonball"
)

// File is a KeyValueStore persisted as a single JSON document. Writes go
// through a temp file and rename so a crash mid-write cannot corrupt the
// previous state.
type File struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

var _ dragonball.KeyValueStore = (*File)(nil)

// NewFile loads the document at path, creating parent directories as needed.
// A missing file starts empty; an unreadable one is an error so callers do
// not silently lose a persisted session.
func NewFile(path string) (*File, error) {
	f := &File{path: path, values: map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create store directory")
		}
		return f, nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read store file")
	}

	if err := json.Unmarshal(raw, &f.values); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "store file is not valid JSON")
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	return value, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

// flush writes the document atomically. Callers must hold f.mu.
func (f *File) flush() error {
	encoded, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode store")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write store file")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace store file")
	}
	return nil
}
