package storage

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// FileStore keeps the snapshot in a single file on disk.
//
// Save truncates and rewrites the file in place. There is no temporary file
// and rename, so a crash during Save can leave a partial document behind;
// Load then returns the partial bytes and the caller decides what to do.
type FileStore struct {
	path string

	mu    sync.Mutex // Serializes file access and guards stats
	saves int
	bytes int
}

// NewFileStore returns a store backed by path. The file is not touched
// until the first Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (f *FileStore) Path() string { return f.path }

// Load reads the whole file
func (f *FileStore) Load() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save overwrites the file with doc
func (f *FileStore) Save(doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.WriteFile(f.path, doc, 0o644); err != nil {
		return err
	}
	f.saves++
	f.bytes = len(doc)
	return nil
}

// Close is a no-op; the file is not held open between calls
func (f *FileStore) Close() error { return nil }

// Stats returns storage statistics
func (f *FileStore) Stats() StoreStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return StoreStats{Saves: f.saves, Bytes: f.bytes}
}
