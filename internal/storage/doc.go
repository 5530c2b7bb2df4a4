// Package storage persists failed telegram dispatches for operator visibility.
//
// It currently supports:
//   - "file": append-only JSON Lines
//   - "sqlite": a single SQLite database file (modernc.org/sqlite, no cgo)
//
// Recorder feeds a Store from notification.failed events on the bus.
package storage
