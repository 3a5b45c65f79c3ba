package ttl

import "time"

// Set remembers keys for a fixed window after insertion.
type Set[K comparable] struct {
	c *Cache[K, struct{}]
}

// NewSet creates a set whose members expire window after they were added.
func NewSet[K comparable](window time.Duration, opts ...Option) *Set[K] {
	return &Set[K]{c: New[K, struct{}](window, opts...)}
}

// Add inserts k and reports whether it was newly added. A key that is still
// within its window is left untouched and its expiry is not extended.
func (s *Set[K]) Add(k K) bool {
	return s.c.PutIfAbsent(k, struct{}{})
}

// Contains reports whether k was added less than one window ago.
func (s *Set[K]) Contains(k K) bool {
	_, ok := s.c.Get(k)
	return ok
}

// Remove forgets k immediately.
func (s *Set[K]) Remove(k K) {
	s.c.Delete(k)
}

// Len counts live members.
func (s *Set[K]) Len() int {
	return s.c.Len()
}

// Retained counts stored members, including expired ones not yet swept.
func (s *Set[K]) Retained() int {
	return s.c.Retained()
}

// Sweep drops expired members.
func (s *Set[K]) Sweep() int {
	return s.c.Sweep()
}
