package selection

import (
	"strings"
	"sync"
	"time"
)

// DefaultLimit caps server-held selections.
const DefaultLimit = 10000

// Store keeps one Manager per session and doctype. Sessions that end without
// a logout are reclaimed by Sweep.
type Store struct {
	mu       sync.Mutex
	managers map[string]*Manager
	used     map[string]time.Time
	limit    int
	now      func() time.Time
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		managers: make(map[string]*Manager),
		used:     make(map[string]time.Time),
		limit:    limit,
		now:      time.Now,
	}
}

func key(session, doctype string) string {
	return session + "\x00" + doctype
}

// For returns the manager for session and doctype, creating it on first use.
func (s *Store) For(session, doctype string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(session, doctype)
	m, ok := s.managers[k]
	if !ok {
		m = NewManager(s.limit)
		s.managers[k] = m
	}
	s.used[k] = s.now()
	return m
}

// Drop forgets the selection for session and doctype.
func (s *Store) Drop(session, doctype string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(session, doctype)
	delete(s.managers, k)
	delete(s.used, k)
}

// DropSession forgets every selection held for session, e.g. on logout.
func (s *Store) DropSession(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := session + "\x00"
	for k := range s.managers {
		if strings.HasPrefix(k, prefix) {
			delete(s.managers, k)
			delete(s.used, k)
		}
	}
}

// Sweep drops selections not touched for longer than idle and reports how
// many were dropped.
func (s *Store) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for k, at := range s.used {
		if at.Before(cutoff) {
			delete(s.managers, k)
			delete(s.used, k)
			n++
		}
	}
	return n
}

// Len reports how many selections are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}
