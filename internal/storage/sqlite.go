package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the snapshot as a single row in a SQLite database.
// Each Save replaces the row inside one statement, so readers never see a
// half-written document.
type SQLiteStore struct {
	DB *sql.DB

	mu    sync.Mutex
	saves int
	bytes int
}

// OpenSQLite opens (or creates) the database at path and prepares the
// snapshot table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers; SQLite would otherwise report
	// "database is locked" under concurrent saves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &SQLiteStore{DB: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the stored document
func (s *SQLiteStore) Load() ([]byte, error) {
	row := s.DB.QueryRow(`SELECT document FROM history_snapshots WHERE id = 1`)

	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return []byte(doc), nil
}

// Save upserts the single snapshot row
func (s *SQLiteStore) Save(doc []byte) error {
	now := time.Now().Unix()

	_, err := s.DB.Exec(
		`INSERT INTO history_snapshots (id, document, saved_at)
		 VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, saved_at = excluded.saved_at`,
		string(doc), now,
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.saves++
	s.bytes = len(doc)
	s.mu.Unlock()
	return nil
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

// Stats returns storage statistics
func (s *SQLiteStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreStats{Saves: s.saves, Bytes: s.bytes}
}
