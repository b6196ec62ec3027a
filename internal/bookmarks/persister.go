package bookmarks

import (
	"context"
	"sync"
)

// StorageKey is the fixed key the serialized collection lives under,
// whatever the backing store.
const StorageKey = "github-bookmarks"

// Persister stores the whole serialized collection as one opaque value.
//
// Load returns (nil, nil) when nothing was ever saved.
// Save overwrites the previous value entirely.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryPersister keeps the value in memory. Used in tests and by the CLI dry runs.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	saves int
	err   error
}

// NewMemoryPersister returns a persister pre-loaded with data (may be nil).
func NewMemoryPersister(data []byte) *MemoryPersister {
	return &MemoryPersister{data: data}
}

func (m *MemoryPersister) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryPersister) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// FailWith makes every following Save return err (nil restores normal behaviour).
func (m *MemoryPersister) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Saves returns how many successful saves happened.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Bytes returns the last saved value.
func (m *MemoryPersister) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
