// Package session keeps the per-conversation provisioning state and the
// pending confirmation for each session key.
//
// A Session is owned by exactly one key and is mutated only while its
// lock is held. The Store hands out sessions and never copies them.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// DefaultKey is used when a caller supplies an empty session key.
const DefaultKey = "default"

// NormalizeKey maps the empty key to DefaultKey.
func NormalizeKey(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}

// Session is one conversation: a configuration ledger plus at most one
// action awaiting confirmation.
//
// State, Pending, Propose and ClearPending require the caller to hold
// the session lock.
type Session struct {
	key string

	mu      sync.Mutex
	state   provisioning.ConfigState
	pending provisioning.Action

	// lastActive is unix nanoseconds, read by the sweeper without the lock.
	lastActive atomic.Int64
	created    time.Time
}

func newSession(key string) *Session {
	now := timeNow()
	s := &Session{key: key, created: now}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Key returns the session key.
func (s *Session) Key() string { return s.key }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.created }

// Lock acquires the session for one request and marks it active.
func (s *Session) Lock() {
	s.mu.Lock()
	s.touch()
}

// Unlock releases the session.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// State returns the live ledger. Mutations through it are visible to
// every later request on this session.
func (s *Session) State() *provisioning.ConfigState {
	return &s.state
}

// Pending returns the action awaiting confirmation, if any.
func (s *Session) Pending() (provisioning.Action, bool) {
	return s.pending, s.pending != ""
}

// Propose replaces the pending action.
func (s *Session) Propose(a provisioning.Action) {
	s.pending = a
}

// ClearPending drops the pending action.
func (s *Session) ClearPending() {
	s.pending = ""
}

// LastActive returns the time the session was last locked or fetched.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(timeNow().UnixNano())
}
