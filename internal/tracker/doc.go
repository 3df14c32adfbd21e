// Package tracker holds the location state shared by every connection: the
// current report, a bounded history, and the persistence of that history.
//
// # Slots
//
// State keeps two independently guarded slots:
//
//	current   zero or one Report
//	history   up to HistoryCapacity Reports, oldest first
//
// Record writes current, then appends to history, taking one guard at a
// time. Concurrent readers can therefore observe a current report that is
// not yet the tail of history. This is accepted behavior; callers that need
// both should not assume they agree.
//
// # Guards
//
// A guard poisons itself when a panic unwinds through its critical
// section. Afterwards reads return ErrPoisoned, which the HTTP layer turns
// into a 500, and writes skip the poisoned slot and report the error to
// their caller while the client still sees success.
//
// # Persistence
//
// Every history mutation re-renders the full document
//
//	{"locations":[{"latitude":..,"longitude":..,"accuracy":..|null,"timestamp":"..","device_name":".."}]}
//
// and hands it to a storage.SnapshotStore while the history guard is held.
// New restores from the same store; any failure there starts an empty
// history.
package tracker
