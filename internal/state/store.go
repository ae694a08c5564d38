// internal/state/store.go
package state

import (
	"sync"
	"time"

	"github.com/tamzrod/automation-gateway/internal/board"
)

// Store is the single in-memory source of truth for the last-known board
// snapshot. One writer (the poller), many readers (REST, MQTT, health).
// Each update wholly replaces the previous snapshot: the device is
// authoritative and the gateway never merges partial state.
type Store struct {
	mu        sync.RWMutex
	snap      board.Snapshot
	updatedAt time.Time
}

// NewStore returns an empty store. Age reports as never-updated until the
// first Update.
func NewStore() *Store {
	return &Store{}
}

// Update atomically replaces the cached snapshot and its timestamp.
// Only the poller calls this.
func (s *Store) Update(snap board.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.updatedAt = time.Now()
}

// Read returns a copy of the most recent snapshot and how stale it is.
// Before the first update it returns ok=false.
func (s *Store) Read() (snap board.Snapshot, age time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.updatedAt.IsZero() {
		return board.Snapshot{}, 0, false
	}
	return s.snap.Clone(), time.Since(s.updatedAt), true
}
