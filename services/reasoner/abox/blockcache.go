// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package abox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianTableau/pkg/cow"
)

var blockCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tableau",
	Subsystem: "blocking",
	Name:      "cache_invalidations_total",
	Help:      "Cached blocking decisions dropped because an influencer changed",
})

// BlockInfo is a cached blocking decision.
type BlockInfo struct {
	// Blocked is false for a cached "no blocker".
	Blocked bool

	// Blocker is the node that blocks, when Blocked.
	Blocker NodeID
}

type blockEntry struct {
	info        BlockInfo
	influencers []NodeID
}

// BlockCache remembers blocking decisions per node.
//
// Description:
//
//	Each entry lists the influencer nodes whose state it was computed from.
//	A reverse multimap from influencer to dependent nodes lets Invalidate
//	drop every affected entry when an influencer changes. Reverse entries are
//	not cleaned up when an entry is replaced, so invalidation may drop more
//	than necessary but never less.
//
// Thread Safety: NOT safe for concurrent use. Copy-on-write with its ABox.
type BlockCache struct {
	entries    *cow.Map[NodeID, blockEntry]
	dependents *cow.MultiMap[NodeID, NodeID]
}

// NewBlockCache creates an empty cache.
func NewBlockCache() *BlockCache {
	return &BlockCache{
		entries:    cow.NewMap[NodeID, blockEntry](),
		dependents: cow.NewMultiMap[NodeID, NodeID](),
	}
}

func (c *BlockCache) clone() *BlockCache {
	return &BlockCache{
		entries:    c.entries.Clone(),
		dependents: c.dependents.Clone(),
	}
}

func (c *BlockCache) share() {
	c.entries.Share()
	c.dependents.Share()
}

// Get returns the cached decision for id.
func (c *BlockCache) Get(id NodeID) (BlockInfo, bool) {
	e, ok := c.entries.Get(id)
	return e.info, ok
}

// Put caches a decision. The node itself always counts as an influencer.
func (c *BlockCache) Put(id NodeID, info BlockInfo, influencers []NodeID) {
	c.entries.Set(id, blockEntry{info: info, influencers: influencers})
	c.dependents.Add(id, id)
	for _, inf := range influencers {
		c.dependents.Add(inf, id)
	}
}

// Invalidate drops every entry influenced by the given node and returns how
// many entries were dropped.
func (c *BlockCache) Invalidate(influencer NodeID) int {
	dropped := 0
	for _, dep := range c.dependents.RemoveKey(influencer) {
		if c.entries.Delete(dep) {
			dropped++
		}
	}
	if dropped > 0 {
		blockCacheInvalidations.Add(float64(dropped))
	}
	return dropped
}

// Len returns the number of cached decisions.
func (c *BlockCache) Len() int {
	return c.entries.Len()
}
