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
	"cmp"
	"maps"
	"slices"
)

// Map is a copy-on-write hash map.
type Map[K comparable, V any] struct {
	m     map[K]V
	owned bool
}

// NewMap creates an empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V), owned: true}
}

// Clone returns a map sharing the receiver's storage.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{m: m.m}
}

// Share drops ownership so the next mutation copies.
func (m *Map[K, V]) Share() {
	m.owned = false
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.m[k]
	return ok
}

// Set stores v under k.
func (m *Map[K, V]) Set(k K, v V) {
	m.own()
	m.m[k] = v
}

// Delete removes k and reports whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	if _, ok := m.m[k]; !ok {
		return false
	}
	m.own()
	delete(m.m, k)
	return true
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.m)
}

// Range calls fn for every entry in unspecified order until fn returns false.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.m {
		if !fn(k, v) {
			return
		}
	}
}

// Keys returns the keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	return slices.Collect(maps.Keys(m.m))
}

func (m *Map[K, V]) own() {
	if m.owned {
		return
	}
	m.m = maps.Clone(m.m)
	if m.m == nil {
		m.m = make(map[K]V)
	}
	m.owned = true
}

// SortedKeys returns the keys of an ordered-key map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m *Map[K, V]) []K {
	keys := m.Keys()
	slices.Sort(keys)
	return keys
}
