// Package session holds the client's view of who is signed in.
//
// A Store is an explicit state container: callers create one per process and
// pass it to the auth provider and bootstrap guard. It performs no I/O.
package session

import (
	"sync"

	"github.com/mrms/resource-management/internal/core/domain"
)

// Session is a point-in-time copy of the store.
type Session struct {
	User            *domain.User
	IsAuthenticated bool
	IsInitialized   bool
}

// Consistent reports whether the authentication flag agrees with the
// presence of a user.
func (s Session) Consistent() bool {
	return s.IsAuthenticated == (s.User != nil)
}

// Listener observes every change. It receives the state after the change.
type Listener func(Session)

// Store is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	state     Session
	listeners []Listener
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state. The User pointer is copied
// too, so callers cannot mutate the stored user.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Consistent reports whether the current state satisfies
// IsAuthenticated == (User != nil).
func (s *Store) Consistent() bool {
	return s.Snapshot().Consistent()
}

// SetUser replaces the user. It does not touch IsAuthenticated.
func (s *Store) SetUser(u *domain.User) {
	s.update(func(st *Session) { st.User = cloneUser(u) })
}

func (s *Store) SetIsAuthenticated(v bool) {
	s.update(func(st *Session) { st.IsAuthenticated = v })
}

// SetIsInitialized latches the initialized flag. Once true it stays true:
// a later false is ignored and reported by returning false.
func (s *Store) SetIsInitialized(v bool) bool {
	accepted := true
	s.update(func(st *Session) {
		if st.IsInitialized && !v {
			accepted = false
			return
		}
		st.IsInitialized = v
	})
	return accepted
}

// SetSession stores u as the signed-in user in one step. A nil user is the
// same as Clear.
func (s *Store) SetSession(u *domain.User) {
	s.update(func(st *Session) {
		st.User = cloneUser(u)
		st.IsAuthenticated = u != nil
	})
}

// Clear signs the user out. IsInitialized is left alone.
func (s *Store) Clear() {
	s.SetSession(nil)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// update applies fn under the lock and notifies listeners once it is released,
// so a listener may read the store without deadlocking.
func (s *Store) update(fn func(*Session)) {
	s.mu.Lock()
	before := s.state
	fn(&s.state)
	changed := before != s.state
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		if l != nil {
			l(snap)
		}
	}
}

func (s *Store) snapshotLocked() Session {
	snap := s.state
	snap.User = cloneUser(s.state.User)
	return snap
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
