// ABOUTME: In-memory Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool

	// Writes counts Set and Delete calls so tests can assert on persistence.
	Writes int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string]string),
	}
}

// NewMockStoreWith creates a MockStore seeded with the given values.
func NewMockStoreWith(values map[string]string) *MockStore {
	m := NewMockStore()
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get returns the value for key.
func (m *MockStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.values[key] = value
	m.Writes++
	return nil
}

// Delete removes key.
func (m *MockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	m.Writes++
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Value is a test helper returning the raw stored value ("" when absent).
func (m *MockStore) Value(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
