// Package notify tracks per-table unread change counters. The hub feeds
// it through Store.Inc on every broadcast; the notifications endpoints
// read snapshots and reset counters when a screen is opened.
package notify

import "sync"

// Store keeps unread counts keyed by table name. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	counts map[string]int
	subs   []chan map[string]int
}

func NewStore() *Store {
	return &Store{counts: make(map[string]int)}
}

// Inc bumps the unread counter for a table and notifies subscribers.
func (s *Store) Inc(table string) {
	s.mu.Lock()
	s.counts[table]++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Reset clears the counter for a table and notifies subscribers.
func (s *Store) Reset(table string) {
	s.mu.Lock()
	delete(s.counts, table)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Snapshot returns a copy of the current counters.
func (s *Store) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Subscribe returns a channel that receives a counter snapshot after
// every change. A subscriber that falls behind misses intermediate
// snapshots; a full buffer drops the oldest pending snapshot so the
// newest is always the next read.
func (s *Store) Subscribe() <-chan map[string]int {
	ch := make(chan map[string]int, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) publish(snap map[string]int) {
	s.mu.Lock()
	subs := make([]chan map[string]int, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Buffer full of a stale snapshot: evict it, then retry once.
		// The second send can still lose to a concurrent publish, in
		// which case the winner is at least as fresh.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
