package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// FailureRecord is one failed dispatch. Keep it compact and schema-stable.
type FailureRecord struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Channel string    `json:"channel"`
	ChatID  string    `json:"chat_id,omitempty"`
	Method  string    `json:"method,omitempty"`
	Request string    `json:"request,omitempty"` // JSON-encoded payload
	Error   string    `json:"error"`
}
