// Package store provides KeyValueStore backends for session persistence:
// in-memory for tests and ephemeral sessions, a JSON file, and an embedded
// SQLite database through bun.
package store

import (
	"sync"

	dragonball "github.com/wisslabs/go-dragonball"
)

// Memory is a map-backed KeyValueStore. Sessions kept here do not survive a
// process restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ dragonball.KeyValueStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
