// Package hset implements sets of hashable elements, JVM style
package hset

import (
	"iter"
	"slices"

	"github.com/benbjohnson/immutable"
)

// Ordered is a set that remembers insertion order, with membership decided
// by an immutable.Hasher rather than by ==.
//
// It is append-only: iterating by index with Len and At observes elements
// added during the iteration.
type Ordered[A any] struct {
	hasher immutable.Hasher[A]
	items  []A
	// buckets maps a hash to the indexes in items that have it
	buckets map[uint32][]int
}

func NewOrdered[A any](hasher immutable.Hasher[A], elems ...A) *Ordered[A] {
	s := &Ordered[A]{
		hasher:  hasher,
		buckets: make(map[uint32][]int, len(elems)),
	}
	for _, elem := range elems {
		s.Add(elem)
	}
	return s
}

// Add inserts elem if no equal element is present, and reports whether it did
func (s *Ordered[A]) Add(elem A) bool {
	h := s.hasher.Hash(elem)
	for _, i := range s.buckets[h] {
		if s.hasher.Equal(s.items[i], elem) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], len(s.items))
	s.items = append(s.items, elem)
	return true
}

func (s *Ordered[A]) Contains(elem A) bool {
	for _, i := range s.buckets[s.hasher.Hash(elem)] {
		if s.hasher.Equal(s.items[i], elem) {
			return true
		}
	}
	return false
}

func (s *Ordered[A]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Ordered[A]) At(i int) A {
	return s.items[i]
}

func (s *Ordered[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		if s == nil {
			return
		}
		for _, elem := range s.items {
			if !yield(elem) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements, in insertion order
func (s *Ordered[A]) Slice() []A {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}
