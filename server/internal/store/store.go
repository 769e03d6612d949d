package store

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
)

// compactMin is the dead-prefix length below which Prune never copies.
const compactMin = 1024

// Entry is one immutable event log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      string         `json:"kind"`
	Severity  types.Severity `json:"severity"`
	Message   string         `json:"message"`
}

// Store is an append-only, time-ordered event log with age-based retention.
//
// Entries live in a slice; head marks the first live entry. Prune only moves
// head forward, and the backing array is compacted once the dead prefix is
// larger than the live tail, so retention costs amortized O(removed).
//
// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   []Entry
	head      int
	retention time.Duration
}

// New creates a Store that keeps entries for retention.
func New(retention time.Duration) *Store {
	return &Store{retention: retention}
}

// Retention returns the configured retention window.
func (s *Store) Retention() time.Duration { return s.retention }

// Append adds e to the end of the log. A timestamp older than the newest
// entry is raised to that entry's timestamp so the log stays chronological.
func (s *Store) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > s.head {
		if last := s.entries[n-1].Timestamp; e.Timestamp.Before(last) {
			e.Timestamp = last
		}
	}
	s.entries = append(s.entries, e)
}

// Prune discards every entry with a timestamp before now minus the retention
// window and returns how many were removed. Survivors keep their order.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.retention)
	live := s.entries[s.head:]
	n := sort.Search(len(live), func(i int) bool {
		return !live[i].Timestamp.Before(cutoff)
	})
	if n == 0 {
		return 0
	}

	for i := s.head; i < s.head+n; i++ {
		s.entries[i] = Entry{}
	}
	s.head += n

	if s.head >= compactMin && s.head > len(s.entries)-s.head {
		kept := make([]Entry, len(s.entries)-s.head, cap(s.entries)-s.head)
		copy(kept, s.entries[s.head:])
		s.entries = kept
		s.head = 0
	}
	return n
}

// List returns a copy of all live entries, oldest first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries)-s.head)
	copy(out, s.entries[s.head:])
	return out
}

// Since returns a copy of the entries with a timestamp at or after t.
func (s *Store) Since(t time.Time) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := s.entries[s.head:]
	i := sort.Search(len(live), func(i int) bool {
		return !live[i].Timestamp.Before(t)
	})
	out := make([]Entry, len(live)-i)
	copy(out, live[i:])
	return out
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) - s.head
}

// Flush writes every live entry to w as one JSON object per line.
func (s *Store) Flush(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, e := range s.List() {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("store: flush: %w", err)
		}
	}
	return nil
}
