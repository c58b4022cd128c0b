// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package blocking decides which tree nodes are blocked by an ancestor.
//
// A blocked node keeps its existential terms unexpanded, which is what makes
// completion terminate on cyclic terminologies. Decisions are cached in the
// ABox's BlockCache and dropped whenever a node they were derived from
// changes.
package blocking

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
)

// ErrUnknownStrategy is returned by FinderFor for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown blocking strategy")

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "blocking",
		Name:      "cache_hits_total",
		Help:      "Blocking decisions answered from the cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "blocking",
		Name:      "cache_misses_total",
		Help:      "Blocking decisions derived by the finder",
	})

	blockedNodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "blocking",
		Name:      "blocked_total",
		Help:      "Derived blocking decisions that found a blocker, by kind",
	}, []string{"kind"})
)

// FinderFor maps a configured strategy name to a Finder.
//
// Description:
//
//	"auto" selects pairwise blocking when the role box declares a symmetric
//	role and subset blocking otherwise. The other accepted names are
//	"subset", "equality" and "pairwise".
func FinderFor(name string, hasSymmetricRoles bool) (Finder, error) {
	switch name {
	case "", "auto":
		if hasSymmetricRoles {
			return PairwiseFinder{}, nil
		}
		return SubsetFinder{}, nil
	case "subset":
		return SubsetFinder{}, nil
	case "equality":
		return EqualityFinder{}, nil
	case "pairwise":
		return PairwiseFinder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Strategy answers blocking queries for the nodes of an ABox.
//
// Description:
//
//	Strategy is stateless; decisions live in the ABox's BlockCache so every
//	branch keeps its own. A node is blocked directly when the Finder finds a
//	blocker, or indirectly when its parent is blocked. Named and datatype
//	nodes are never blocked.
//
// Thread Safety: Safe for concurrent use on distinct ABoxes.
type Strategy struct {
	finder Finder
	logger *slog.Logger
}

// NewStrategy creates a Strategy. A nil logger uses slog.Default().
func NewStrategy(finder Finder, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{
		finder: finder,
		logger: logger.With(slog.String("component", "blocking"), slog.String("finder", finder.Name())),
	}
}

// Finder returns the configured finder.
func (s *Strategy) Finder() Finder { return s.finder }

// IsBlocked reports whether id is blocked in a.
func (s *Strategy) IsBlocked(a *abox.ABox, id abox.NodeID) bool {
	_, ok := s.GetBlocker(a, id)
	return ok
}

// GetBlocker returns the node blocking id, directly or through an ancestor.
//
// Description:
//
//	The cache is consulted first. On a miss the decision is derived and
//	stored, including an explicit "not blocked". Every ancestor on the
//	walk is registered as an influencer, so a change to any of them drops
//	the entry.
//
// Outputs:
//
//	abox.NodeID - The blocker, when blocked.
//	bool - Whether id is blocked.
func (s *Strategy) GetBlocker(a *abox.ABox, id abox.NodeID) (abox.NodeID, bool) {
	id = a.Resolve(id)
	n := a.Node(id)
	if !candidate(n) {
		return 0, false
	}
	if info, ok := a.Blocks().Get(id); ok {
		cacheHits.Inc()
		return info.Blocker, info.Blocked
	}
	cacheMisses.Inc()

	chain := Ancestors(a, id)
	if len(chain) > 0 {
		if blocker, ok := s.GetBlocker(a, chain[0]); ok {
			s.store(a, id, abox.BlockInfo{Blocked: true, Blocker: blocker}, chain)
			blockedNodes.WithLabelValues("indirect").Inc()
			return blocker, true
		}
	}

	blocker, influencers, ok := s.finder.FindBlocker(a, id)
	s.store(a, id, abox.BlockInfo{Blocked: ok, Blocker: blocker}, append(slices.Clone(chain), influencers...))
	if ok {
		blockedNodes.WithLabelValues("direct").Inc()
		s.logger.Debug("node blocked",
			slog.Uint64("node", uint64(id)),
			slog.Uint64("blocker", uint64(blocker)))
	}
	return blocker, ok
}

func (s *Strategy) store(a *abox.ABox, id abox.NodeID, info abox.BlockInfo, influencers []abox.NodeID) {
	if a.IsFrozen() {
		return
	}
	slices.Sort(influencers)
	a.Blocks().Put(id, info, slices.Compact(influencers))
}
