package catalog

import (
	"sync"
	"time"
)

// Session is one viewer's catalog state: the accumulated list, its names,
// the active controls and which cards are expanded.
type Session struct {
	ID          string
	Coordinator *Coordinator
	Trigger     *Trigger
	Resolver    *Resolver

	mu       sync.Mutex
	query    Query
	expanded map[string]bool
	lastSeen time.Time
	closed   bool
}

// NewSession wires a session around a coordinator and a resolver.
func NewSession(id string, coordinator *Coordinator, resolver *Resolver) *Session {
	return &Session{
		ID:          id,
		Coordinator: coordinator,
		Trigger:     NewTrigger(coordinator),
		Resolver:    resolver,
		query:       DefaultQuery(),
		expanded:    make(map[string]bool),
		lastSeen:    time.Now(),
	}
}

// Query returns the active controls.
func (s *Session) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery replaces the active controls.
func (s *Session) SetQuery(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// ToggleExpanded flips the expanded flag of a card and returns the new value.
func (s *Session) ToggleExpanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded[id] {
		delete(s.expanded, id)
		return false
	}
	s.expanded[id] = true
	return true
}

// Expanded reports whether a card is expanded.
func (s *Session) Expanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[id]
}

// Touch records activity.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// IdleSince reports whether the session has been idle for at least d.
func (s *Session) IdleSince(now time.Time, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) >= d
}

// Close tears the session down. In-flight fetches are discarded when they
// complete.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.Trigger.Close()
	s.Coordinator.Close()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SessionStore holds live sessions.
type SessionStore interface {
	Add(s *Session) error
	Get(id string) (*Session, bool)
	Remove(id string) (*Session, bool)
	Range(fn func(s *Session) bool)
	Len() int
}
