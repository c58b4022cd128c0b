// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// resultCache remembers the outcome of satisfiability tests within one
// classification run, keyed by the interned ID of the tested term.
//
// Description:
//
//	Fixed capacity with least-recently-used eviction. Front of order is the
//	most recent test.
//
// Thread Safety: All methods are safe for concurrent use.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	items    map[uint64]*list.Element
	order    *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cachedResult struct {
	key         uint64
	satisfiable bool
}

// CacheStats reports how the result cache performed.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// newResultCache creates a cache. A non-positive capacity selects 100.
func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &resultCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *resultCache) get(key uint64) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return false, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*cachedResult).satisfiable, true
}

func (c *resultCache) put(key uint64, satisfiable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cachedResult).satisfiable = satisfiable
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cachedResult).key)
			c.evictions.Add(1)
		}
	}
	c.items[key] = c.order.PushFront(&cachedResult{key: key, satisfiable: satisfiable})
}

func (c *resultCache) stats() CacheStats {
	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}
