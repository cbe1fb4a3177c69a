package cache

import (
	"sync"
	"time"
)

// Store holds one generation of derived data behind swap-on-refresh
// semantics: a refresh builds the next value entirely off to the side and
// Publish swaps it in atomically, so readers never observe a partially
// populated generation. The TTL only gates refresh scheduling; an expired
// generation keeps serving until a newer one replaces it (stale beats empty
// when upstream is down).
type Store[T any] struct {
	mu        sync.RWMutex
	value     T
	gen       Generation
	ttl       time.Duration
	populated bool
}

// Generation identifies one published value.
type Generation struct {
	Seq       uint64
	AsOf      time.Time
	Populated bool
}

// NewStore creates a store whose contents go stale after ttl.
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{ttl: ttl}
}

// Publish swaps in a new generation.
func (s *Store[T]) Publish(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.gen.Seq++
	s.gen.AsOf = time.Now()
	s.gen.Populated = true
	s.populated = true
}

// Current returns the published value and its generation handle. Callers
// doing multi-step reads hold on to the returned value for the whole pass;
// a concurrent Publish never mutates it.
func (s *Store[T]) Current() (T, Generation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.gen
}

// Fresh reports whether the current generation is inside its TTL.
func (s *Store[T]) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.populated && time.Since(s.gen.AsOf) < s.ttl
}

// TTL returns the configured time-to-live.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}
