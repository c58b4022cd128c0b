// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cow

import (
	"slices"
	"sort"
)

// SortedSet is an ordered set backed by a sorted slice.
//
// Description:
//
//	Elements are kept in ascending order of the comparison function. Two
//	elements comparing equal are the same element. Range queries over a
//	prefix-closed predicate run in O(log n).
//
// Performance:
//
//	| Operation | Complexity |
//	|-----------|------------|
//	| Contains  | O(log n)   |
//	| Add       | O(n)       |
//	| Clone     | O(1)       |
//	| Between   | O(log n)   |
type SortedSet[T any] struct {
	items []T
	cmp   func(a, b T) int
	owned bool
}

// NewSortedSet creates an empty set ordered by cmp.
func NewSortedSet[T any](cmp func(a, b T) int) *SortedSet[T] {
	return &SortedSet[T]{cmp: cmp, owned: true}
}

// Clone returns a set sharing the receiver's storage.
func (s *SortedSet[T]) Clone() *SortedSet[T] {
	return &SortedSet[T]{items: s.items, cmp: s.cmp}
}

// Share drops ownership so the next mutation copies.
func (s *SortedSet[T]) Share() {
	s.owned = false
}

// Len returns the number of elements.
func (s *SortedSet[T]) Len() int {
	return len(s.items)
}

// Contains reports whether v is in the set.
func (s *SortedSet[T]) Contains(v T) bool {
	_, found := slices.BinarySearchFunc(s.items, v, s.cmp)
	return found
}

// Add inserts v and reports whether the set changed.
func (s *SortedSet[T]) Add(v T) bool {
	i, found := slices.BinarySearchFunc(s.items, v, s.cmp)
	if found {
		return false
	}
	s.own(1)
	s.items = slices.Insert(s.items, i, v)
	return true
}

// Remove deletes v and reports whether the set changed.
func (s *SortedSet[T]) Remove(v T) bool {
	i, found := slices.BinarySearchFunc(s.items, v, s.cmp)
	if !found {
		return false
	}
	s.own(0)
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// Items returns the elements in order.
//
// The returned slice must not be modified. It stays valid until the next
// mutation of the set.
func (s *SortedSet[T]) Items() []T {
	return s.items[:len(s.items):len(s.items)]
}

// At returns the i-th smallest element.
func (s *SortedSet[T]) At(i int) T {
	return s.items[i]
}

// Between returns the elements e with from(e) true and to(e) false.
//
// Both predicates must be monotone over the order: once true for an element
// they are true for every larger element. This selects the half-open range
// [first e with from(e), first e with to(e)).
func (s *SortedSet[T]) Between(from, to func(T) bool) []T {
	lo := sort.Search(len(s.items), func(i int) bool { return from(s.items[i]) })
	hi := sort.Search(len(s.items), func(i int) bool { return to(s.items[i]) })
	if hi < lo {
		hi = lo
	}
	return s.items[lo:hi:hi]
}

// IsSubsetOf reports whether every element of s is in other.
//
// Both sets must share the same order. Runs in O(len(s) + len(other)).
func (s *SortedSet[T]) IsSubsetOf(other *SortedSet[T]) bool {
	if len(s.items) > len(other.items) {
		return false
	}
	j := 0
	for _, v := range s.items {
		for j < len(other.items) && s.cmp(other.items[j], v) < 0 {
			j++
		}
		if j == len(other.items) || s.cmp(other.items[j], v) != 0 {
			return false
		}
		j++
	}
	return true
}

// Equal reports whether both sets hold the same elements.
func (s *SortedSet[T]) Equal(other *SortedSet[T]) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for i := range s.items {
		if s.cmp(s.items[i], other.items[i]) != 0 {
			return false
		}
	}
	return true
}

// own makes the backing slice private, reserving room for extra elements.
func (s *SortedSet[T]) own(extra int) {
	if s.owned {
		return
	}
	items := make([]T, len(s.items), len(s.items)+extra)
	copy(items, s.items)
	s.items = items
	s.owned = true
}
