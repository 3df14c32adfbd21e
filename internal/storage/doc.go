// Package storage provides the persistence backends for the location
// history. Every backend stores exactly one document, the latest snapshot,
// and replaces it wholesale on each save.
//
// # Overview
//
// The tracker re-serializes its entire history after every mutation and
// hands the bytes to a SnapshotStore. The store knows nothing about the
// document format; decoding and validation live in the tracker package.
//
//	┌─────────────────────────────────────┐
//	│          tracker.State              │
//	│   (renders history on mutation)     │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│          SnapshotStore              │
//	│      Load / Save / Close            │
//	└─────────────────────────────────────┘
//	                 │
//	    ┌────────────┼────────────┐
//	    ▼            ▼            ▼
//	┌────────┐  ┌────────┐  ┌────────┐
//	│  File  │  │ SQLite │  │ Memory │
//	│ Store  │  │ Store  │  │ Store  │
//	└────────┘  └────────┘  └────────┘
//
// # Implementations
//
// FileStore: the default, one file (location_history.json)
//   - Full overwrite with os.WriteFile
//   - No atomic rename: a crash mid-write can corrupt the file
//   - Missing file reported as ErrSnapshotNotFound
//
// SQLiteStore: single-row table via the pure-Go modernc.org/sqlite driver
//   - Upsert per save, WAL journal
//   - Useful where the working directory is not a good place for state
//
// MemoryStore: process memory only
//   - Nothing survives restart
//   - Used by tests and ephemeral runs
//
// # Concurrency
//
// All stores are safe for concurrent use. The tracker additionally calls
// Save while holding its history guard, so saves arrive in mutation order.
//
// # Errors
//
// ErrSnapshotNotFound: nothing has been saved yet
//   - Returned by Load only
//   - Callers treat it as an empty history
//
// Any other error from Load or Save is an I/O or database failure and is
// returned unwrapped to the caller.
package storage
