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

import "slices"

// MultiMap maps a key to a duplicate-free list of values.
//
// Value lists are never modified in place: adding a value allocates a new
// list for that key, so lists handed out by Get stay valid and clones only
// need to copy the outer map.
type MultiMap[K comparable, V comparable] struct {
	inner *Map[K, []V]
}

// NewMultiMap creates an empty multimap.
func NewMultiMap[K comparable, V comparable]() *MultiMap[K, V] {
	return &MultiMap[K, V]{inner: NewMap[K, []V]()}
}

// Clone returns a multimap sharing the receiver's storage.
func (m *MultiMap[K, V]) Clone() *MultiMap[K, V] {
	return &MultiMap[K, V]{inner: m.inner.Clone()}
}

// Share drops ownership so the next mutation copies.
func (m *MultiMap[K, V]) Share() {
	m.inner.Share()
}

// Add appends v to the values of k and reports whether it was new.
func (m *MultiMap[K, V]) Add(k K, v V) bool {
	vs, _ := m.inner.Get(k)
	if slices.Contains(vs, v) {
		return false
	}
	m.inner.Set(k, append(slices.Clip(vs), v))
	return true
}

// Get returns the values of k. The slice must not be modified.
func (m *MultiMap[K, V]) Get(k K) []V {
	vs, _ := m.inner.Get(k)
	return vs
}

// Has reports whether k has at least one value.
func (m *MultiMap[K, V]) Has(k K) bool {
	return len(m.Get(k)) > 0
}

// RemoveKey drops k and all its values, returning them.
func (m *MultiMap[K, V]) RemoveKey(k K) []V {
	vs, ok := m.inner.Get(k)
	if !ok {
		return nil
	}
	m.inner.Delete(k)
	return vs
}

// RemoveValue drops v from the values of k.
func (m *MultiMap[K, V]) RemoveValue(k K, v V) bool {
	vs, _ := m.inner.Get(k)
	i := slices.Index(vs, v)
	if i < 0 {
		return false
	}
	if len(vs) == 1 {
		m.inner.Delete(k)
		return true
	}
	next := make([]V, 0, len(vs)-1)
	next = append(next, vs[:i]...)
	next = append(next, vs[i+1:]...)
	m.inner.Set(k, next)
	return true
}

// Keys returns the keys in unspecified order.
func (m *MultiMap[K, V]) Keys() []K {
	return m.inner.Keys()
}

// Len returns the number of keys.
func (m *MultiMap[K, V]) Len() int {
	return m.inner.Len()
}
