package sessions

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/contre95/vinylshelf/src/features/catalog"
)

// ErrAlreadyExists is returned when adding a session id twice.
var ErrAlreadyExists = errors.New("session already exists")

// InMemoryStore is an in-memory implementation of catalog.SessionStore
type InMemoryStore struct {
	items sync.Map // map[string]*catalog.Session
	count atomic.Int64
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add stores a new session
func (s *InMemoryStore) Add(sess *catalog.Session) error {
	if _, loaded := s.items.LoadOrStore(sess.ID, sess); loaded {
		return ErrAlreadyExists
	}
	s.count.Add(1)
	return nil
}

// Get returns a session by id
func (s *InMemoryStore) Get(id string) (*catalog.Session, bool) {
	value, ok := s.items.Load(id)
	if !ok {
		return nil, false
	}
	sess, ok := value.(*catalog.Session)
	return sess, ok
}

// Remove deletes a session and returns it
func (s *InMemoryStore) Remove(id string) (*catalog.Session, bool) {
	value, ok := s.items.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	s.count.Add(-1)
	sess, ok := value.(*catalog.Session)
	return sess, ok
}

// Range calls fn for every session until fn returns false
func (s *InMemoryStore) Range(fn func(sess *catalog.Session) bool) {
	s.items.Range(func(_, value any) bool {
		sess, ok := value.(*catalog.Session)
		if !ok {
			return true
		}
		return fn(sess)
	})
}

// Len returns the number of stored sessions
func (s *InMemoryStore) Len() int {
	return int(s.count.Load())
}

// Clear closes and removes every session
func (s *InMemoryStore) Clear() {
	s.items.Range(func(key, value any) bool {
		if _, ok := s.Remove(key.(string)); ok {
			if sess, ok := value.(*catalog.Session); ok {
				sess.Close()
			}
		}
		return true
	})
}
