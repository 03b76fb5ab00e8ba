package session

import (
	"sync"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex

	// Error injection for testing
	GetError error
	PutError error

	Gets int
	Puts int
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{blobs: make(map[string][]byte)}
}

func (m *MockStore) Get(c Credentials) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetError != nil {
		return nil, m.GetError
	}
	blob, ok := m.blobs[c.Key()]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MockStore) Put(c Credentials, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	if m.PutError != nil {
		return m.PutError
	}
	m.blobs[c.Key()] = append([]byte(nil), blob...)
	return nil
}

func (m *MockStore) Delete(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[c.Key()]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, c.Key())
	return nil
}

// Len reports how many sessions are stored
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
