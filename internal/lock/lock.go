// Package lock provides in-memory, TTL-bounded repository locks so two
// migration runs never mutate the same repository concurrently. Locks are
// advisory and process-local; expiry is checked lazily on access, so an
// abandoned lock frees itself once its TTL passes.
package lock

import (
	"sort"
	"sync"
	"time"
)

// DefaultTTL bounds how long an unreleased lock can block a repository
const DefaultTTL = 10 * time.Minute

// Lock records one active repository hold.
type Lock struct {
	Repository string    `json:"repository"`
	AcquiredAt time.Time `json:"acquiredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// expired reports whether the lock is past its TTL at now
func (l Lock) expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Service hands out repository locks. The zero value is not usable; construct
// with New.
type Service struct {
	mu    sync.Mutex
	locks map[string]Lock
	ttl   time.Duration
	clock func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default lock lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New creates a lock service with the default TTL and wall clock.
func New(opts ...Option) *Service {
	s := &Service{
		locks: make(map[string]Lock),
		ttl:   DefaultTTL,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire attempts to take the lock for a repository. It never blocks: the
// return value reports whether the caller now holds the lock. An expired
// lock held by an earlier run is evicted and re-granted.
func (s *Service) Acquire(repository string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if held, ok := s.locks[repository]; ok && !held.expired(now) {
		return false
	}

	s.locks[repository] = Lock{
		Repository: repository,
		AcquiredAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	return true
}

// IsLocked reports whether a repository currently holds an unexpired lock.
func (s *Service) IsLocked(repository string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.lookup(repository)
	return ok
}

// Release frees the lock for a repository. Releasing an unheld repository is
// a no-op.
func (s *Service) Release(repository string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, repository)
}

// Info returns the active lock for a repository, if one exists.
func (s *Service) Info(repository string) (Lock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookup(repository)
}

// Active returns all unexpired locks, sorted by repository.
func (s *Service) Active() []Lock {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	active := make([]Lock, 0, len(s.locks))
	for repository, held := range s.locks {
		if held.expired(now) {
			delete(s.locks, repository)
			continue
		}
		active = append(active, held)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Repository < active[j].Repository
	})
	return active
}

// ActiveCount returns the number of unexpired locks.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	count := 0
	for repository, held := range s.locks {
		if held.expired(now) {
			delete(s.locks, repository)
			continue
		}
		count++
	}
	return count
}

// Clear releases every lock. Intended for tests and shutdown paths.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locks = make(map[string]Lock)
}

// lookup finds an unexpired lock, evicting it first when the TTL has passed.
// Callers must hold mu.
func (s *Service) lookup(repository string) (Lock, bool) {
	held, ok := s.locks[repository]
	if !ok {
		return Lock{}, false
	}
	if held.expired(s.clock()) {
		delete(s.locks, repository)
		return Lock{}, false
	}
	return held, true
}
