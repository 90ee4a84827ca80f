// Package state holds the observable authentication state for active
// sessions. A Store is the single source of truth for one principal's
// profile, authenticated flag, and loading flag; mutation is exclusive to
// the service layer, while HTTP handlers and event streams are read-only
// consumers.
package state

import (
	"sync"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
)

// Snapshot is an immutable view of a store at one point in time.
// Invariant: Authenticated implies Profile != nil. The converse does not
// hold; a profile may be published while the authenticated flag is still
// being finalized.
type Snapshot struct {
	Profile       *domainauth.Profile `json:"profile"`
	Authenticated bool                `json:"authenticated"`
	Loading       bool                `json:"loading"`
}

// Store is a mutex-guarded observable auth state container. Subscribers
// observe latest-value semantics: a slow consumer sees the most recent
// snapshot, not every intermediate one.
type Store struct {
	mu      sync.Mutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewStore creates an empty, unauthenticated store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan Snapshot)}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Profile returns the currently published profile, or nil.
func (s *Store) Profile() *domainauth.Profile {
	return s.Snapshot().Profile
}

// IsAuthenticated reports the authenticated flag.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().Authenticated
}

// IsLoading reports the loading flag.
func (s *Store) IsLoading() bool {
	return s.Snapshot().Loading
}

// SetLoading flips the loading flag and notifies subscribers.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.snap.Loading = loading
	s.notifyLocked()
	s.mu.Unlock()
}

// Publish replaces the profile wholesale and sets the authenticated flag.
// Publishing authenticated=true with a nil profile would break the store
// invariant, so the flag is forced false in that case.
func (s *Store) Publish(profile *domainauth.Profile, authenticated bool) {
	if profile == nil {
		authenticated = false
	}
	s.mu.Lock()
	s.snap.Profile = profile
	s.snap.Authenticated = authenticated
	s.notifyLocked()
	s.mu.Unlock()
}

// Clear drops the profile and authenticated flag, returning the store to
// the unauthenticated state. The loading flag is untouched.
func (s *Store) Clear() {
	s.Publish(nil, false)
}

// Reset clears all three fields. For test isolation only.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = Snapshot{}
	s.notifyLocked()
	s.mu.Unlock()
}

// CloseSubscribers closes every subscriber channel, ending any attached
// event streams. Used during shutdown.
func (s *Store) CloseSubscribers() {
	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}

// Subscribe registers a change listener and returns its channel together
// with a cancel function. The channel carries the latest snapshot; the
// current state is delivered immediately so subscribers need no separate
// initial read.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked pushes the current snapshot to every subscriber, replacing
// any undelivered snapshot so consumers always see the newest value.
func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.snap
	}
}
