package ringlog

import (
	"sync"

	"github.com/streambeat/streambeat/internal/model"
)

// Store is a fixed-capacity, insertion-ordered log store. New entries go to
// the front and the oldest entry is evicted once the capacity is reached.
// Entries are immutable once appended; snapshots are copies, never handles
// into the ring.
type Store struct {
	mu      sync.RWMutex
	entries []model.LogEntry
	next    int // index of the next write
	size    int
}

// New creates a store with the given fixed capacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{entries: make([]model.LogEntry, capacity)}
}

// Append inserts one entry, evicting the oldest entry when the store is full.
func (s *Store) Append(entry model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.size < len(s.entries) {
		s.size++
	}
}

// Snapshot returns a copy of the current entries, newest first.
func (s *Store) Snapshot() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LogEntry, s.size)
	for i := 0; i < s.size; i++ {
		idx := (s.next - 1 - i + len(s.entries)) % len(s.entries)
		out[i] = s.entries[idx]
	}
	return out
}

// Clear empties the store and returns the number of entries dropped.
// Recording the clear itself is the caller's responsibility.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := s.size
	for i := range s.entries {
		s.entries[i] = model.LogEntry{}
	}
	s.next = 0
	s.size = 0
	return dropped
}

// Len returns the current number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the fixed capacity set at construction.
func (s *Store) Capacity() int {
	return len(s.entries)
}
