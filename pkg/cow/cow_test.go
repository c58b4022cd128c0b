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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedSet_AddKeepsOrder(t *testing.T) {
	s := NewSortedSet(cmp.Compare[int])
	for _, v := range []int{5, 1, 3, 3, 9} {
		s.Add(v)
	}
	assert.Equal(t, []int{1, 3, 5, 9}, s.Items())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.False(t, s.Add(5), "duplicate add must not change the set")
}

func TestSortedSet_CloneIsolation(t *testing.T) {
	base := NewSortedSet(cmp.Compare[int])
	base.Add(1)
	base.Add(2)

	fork := base.Clone()
	base.Share()

	fork.Add(3)
	base.Add(0)

	assert.Equal(t, []int{0, 1, 2}, base.Items())
	assert.Equal(t, []int{1, 2, 3}, fork.Items())
}

func TestSortedSet_CloneDoesNotTouchRetiredSource(t *testing.T) {
	base := NewSortedSet(cmp.Compare[int])
	base.Add(10)
	base.Add(20)

	a := base.Clone()
	b := base.Clone()
	a.Remove(10)
	b.Add(15)

	assert.Equal(t, []int{10, 20}, base.Items())
	assert.Equal(t, []int{20}, a.Items())
	assert.Equal(t, []int{10, 15, 20}, b.Items())
}

func TestSortedSet_Between(t *testing.T) {
	s := NewSortedSet(cmp.Compare[int])
	for i := 0; i < 10; i++ {
		s.Add(i)
	}
	got := s.Between(func(v int) bool { return v >= 3 }, func(v int) bool { return v >= 6 })
	assert.Equal(t, []int{3, 4, 5}, got)

	empty := s.Between(func(v int) bool { return v >= 20 }, func(v int) bool { return v >= 30 })
	assert.Empty(t, empty)
}

func TestSortedSet_SubsetAndEqual(t *testing.T) {
	a := NewSortedSet(cmp.Compare[int])
	b := NewSortedSet(cmp.Compare[int])
	for _, v := range []int{1, 3} {
		a.Add(v)
	}
	for _, v := range []int{1, 2, 3} {
		b.Add(v)
	}
	assert.True(t, a.IsSubsetOf(b))
	assert.False(t, b.IsSubsetOf(a))
	assert.False(t, a.Equal(b))

	a.Add(2)
	assert.True(t, a.Equal(b))
}

func TestMap_CloneIsolation(t *testing.T) {
	base := NewMap[string, int]()
	base.Set("a", 1)

	fork := base.Clone()
	base.Share()
	fork.Set("b", 2)
	base.Delete("a")

	_, ok := base.Get("a")
	assert.False(t, ok)
	v, ok := fork.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"a", "b"}, SortedKeys(fork))
	assert.Equal(t, 0, base.Len())
}

func TestMultiMap(t *testing.T) {
	t.Run("add is duplicate free", func(t *testing.T) {
		m := NewMultiMap[string, int]()
		assert.True(t, m.Add("k", 1))
		assert.False(t, m.Add("k", 1))
		assert.True(t, m.Add("k", 2))
		assert.Equal(t, []int{1, 2}, m.Get("k"))
	})

	t.Run("clone isolation", func(t *testing.T) {
		base := NewMultiMap[string, int]()
		base.Add("k", 1)
		fork := base.Clone()
		base.Share()

		fork.Add("k", 2)
		assert.Equal(t, []int{1}, base.Get("k"))
		assert.Equal(t, []int{1, 2}, fork.Get("k"))
	})

	t.Run("remove", func(t *testing.T) {
		m := NewMultiMap[string, int]()
		m.Add("k", 1)
		m.Add("k", 2)
		assert.True(t, m.RemoveValue("k", 1))
		assert.Equal(t, []int{2}, m.Get("k"))
		assert.Equal(t, []int{2}, m.RemoveKey("k"))
		assert.False(t, m.Has("k"))
	})
}
