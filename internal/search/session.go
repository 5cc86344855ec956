package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"kairos-gateway/internal/debounce"
)

// ErrSuperseded is returned to a query replaced by a newer one before it
// finished.
var ErrSuperseded = errors.New("search: superseded by a newer query")

// Session runs one caller's queries. Starting a query cancels the one in
// flight, so only the newest query's results are returned.
type Session struct {
	searcher *Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSession(s *Searcher) *Session {
	return &Session{searcher: s}
}

func (s *Session) Query(ctx context.Context, query string, doctypes []string) ([]Group, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	groups, err := s.searcher.Search(ctx, query, doctypes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	cancel()
	return groups, err
}

func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Sessions keeps one Session per key (the caller's session id).
type Sessions struct {
	searcher *Searcher
	mu       sync.Mutex
	byKey    map[string]*Session
	used     map[string]time.Time
	now      func() time.Time
}

func NewSessions(s *Searcher) *Sessions {
	return &Sessions{
		searcher: s,
		byKey:    make(map[string]*Session),
		used:     make(map[string]time.Time),
		now:      time.Now,
	}
}

func (ss *Sessions) For(key string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byKey[key]
	if !ok {
		s = NewSession(ss.searcher)
		ss.byKey[key] = s
	}
	ss.used[key] = ss.now()
	return s
}

func (ss *Sessions) Drop(key string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.byKey, key)
	delete(ss.used, key)
}

// Sweep drops sessions idle for longer than idle, keeping any with a query
// in flight, and reports how many were dropped.
func (ss *Sessions) Sweep(idle time.Duration) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	cutoff := ss.now().Add(-idle)
	n := 0
	for k, at := range ss.used {
		if at.Before(cutoff) && !ss.byKey[k].busy() {
			delete(ss.byKey, k)
			delete(ss.used, k)
			n++
		}
	}
	return n
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byKey)
}

// Live is a debounced search box: rapid Type calls collapse into one
// backend search for the last text, and superseded results are dropped.
type Live struct {
	d *debounce.Debouncer[string, []Group]
}

func NewLive(s *Searcher, delay time.Duration, doctypes []string, onResult func(query string, groups []Group, err error)) *Live {
	fn := func(ctx context.Context, q string) ([]Group, error) {
		return s.Search(ctx, q, doctypes)
	}
	return &Live{d: debounce.New(delay, fn, onResult)}
}

func (l *Live) Type(query string) { l.d.Trigger(query) }

// Close stops the pending timer and any in-flight search.
func (l *Live) Close() { l.d.Close() }
