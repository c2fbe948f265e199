// Package credstore provides credential store implementations backing the
// session manager's persisted token.
package credstore

import (
	"sync"

	"github.com/taponn/taponn-api/internal/ports"
)

// Memory is an in-memory credential store. Used in tests and for
// ephemeral sessions that should not outlive the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.CredentialStore = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the stored value, or "" when the key is absent.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Set stores a value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
