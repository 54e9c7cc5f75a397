package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Option configures a Store.
type Option func(*Store)

// WithIdleTTL makes Sweep evict sessions idle for longer than d.
// Zero or negative keeps sessions for the life of the process.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// Store maps session keys to sessions. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{sessions: make(map[string]*Session)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IdleTTL returns the configured idle TTL, zero when eviction is off.
func (s *Store) IdleTTL() time.Duration { return s.idleTTL }

// GetOrCreate returns the session for key, creating it on first use.
// Concurrent calls for the same key always return the same session.
func (s *Store) GetOrCreate(key string) *Session {
	key = NormalizeKey(key)

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		sess.touch()
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[key]; ok {
		sess.touch()
		return sess
	}
	sess = newSession(key)
	s.sessions[key] = sess
	return sess
}

// Get returns the session for key without creating it.
func (s *Store) Get(key string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[NormalizeKey(key)]
	return sess, ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Keys returns the live session keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Sweep evicts sessions idle for longer than the TTL as of now and
// returns how many were removed. Sessions currently locked by a request
// are never evicted. A no-op without a TTL.
func (s *Store) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if !sess.LastActive().Before(cutoff) {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		delete(s.sessions, key)
		sess.mu.Unlock()
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. It returns
// immediately when no TTL is configured.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = s.idleTTL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(timeNow()); n > 0 {
				log.Debug().Int("evicted", n).Int("remaining", s.Len()).Msg("idle sessions swept")
			}
		}
	}
}
