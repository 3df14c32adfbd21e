package storage

import (
	"errors"
	"sync"
)

// ErrSnapshotNotFound is returned by Load when nothing has been saved yet
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore holds a single serialized document that is replaced
// wholesale on every Save.
// All implementations must be thread-safe for concurrent access
type SnapshotStore interface {
	// Load returns the most recently saved document
	// Returns ErrSnapshotNotFound if nothing was saved
	Load() ([]byte, error)

	// Save overwrites the stored document
	Save(doc []byte) error

	// Close releases any underlying resources
	Close() error

	// Stats returns storage statistics
	Stats() StoreStats
}

// StoreStats contains statistics about a snapshot store
type StoreStats struct {
	Saves int // Number of successful saves since open
	Bytes int // Size of the current snapshot in bytes
}

// MemoryStore implements SnapshotStore in process memory.
// Nothing survives a restart; it backs tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex // Protects concurrent access
	doc   []byte       // Current snapshot, nil until first Save
	saves int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current snapshot
func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.doc == nil {
		return nil, ErrSnapshotNotFound
	}

	// Return a copy to prevent external modification
	result := make([]byte, len(m.doc))
	copy(result, m.doc)
	return result, nil
}

// Save replaces the snapshot with a copy of doc
func (m *MemoryStore) Save(doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(doc))
	copy(stored, doc)
	m.doc = stored
	m.saves++

	return nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error { return nil }

// Stats returns storage statistics
func (m *MemoryStore) Stats() StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return StoreStats{
		Saves: m.saves,
		Bytes: len(m.doc),
	}
}
