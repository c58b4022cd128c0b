// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package blocking

import (
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Finder searches the ancestors of a node for one that blocks it directly.
//
// Description:
//
//	Implementations only decide direct blocking. Indirect blocking and
//	caching are handled by Strategy.
//
// Outputs:
//
//	blocker - The blocking ancestor when ok.
//	influencers - Nodes whose labels the decision was computed from, besides
//	              the node itself.
//	ok - Whether a blocker was found.
type Finder interface {
	Name() string
	FindBlocker(v abox.View, id abox.NodeID) (blocker abox.NodeID, influencers []abox.NodeID, ok bool)
}

// Ancestors returns the generating ancestors of id, nearest first.
//
// The walk follows merges and stops after the first named node, which is a
// root of the completion forest. It also stops on a repeated node.
func Ancestors(v abox.View, id abox.NodeID) []abox.NodeID {
	id = v.Resolve(id)
	n := v.Node(id)
	if n == nil {
		return nil
	}
	seen := map[abox.NodeID]bool{id: true}
	var out []abox.NodeID
	for p := n.Parent(); p != 0; {
		p = v.Resolve(p)
		pn := v.Node(p)
		if pn == nil || seen[p] {
			break
		}
		seen[p] = true
		out = append(out, p)
		if !pn.IsAnonymous() {
			break
		}
		p = pn.Parent()
	}
	return out
}

// candidate reports whether n may block another node.
func candidate(n *abox.Node) bool {
	return n != nil && n.IsAnonymous() && !n.IsDatatype()
}

// SubsetFinder blocks x by the nearest anonymous ancestor y with L(x) ⊆ L(y).
// It is sound for logics without inverse roles.
type SubsetFinder struct{}

// Name implements Finder.
func (SubsetFinder) Name() string { return "subset" }

// FindBlocker implements Finder.
func (SubsetFinder) FindBlocker(v abox.View, id abox.NodeID) (abox.NodeID, []abox.NodeID, bool) {
	return labelSearch(v, id, func(x, y *abox.Node) bool {
		return x.Terms().IsSubsetOf(y.Terms())
	})
}

// EqualityFinder blocks x by the nearest anonymous ancestor with the same
// label.
type EqualityFinder struct{}

// Name implements Finder.
func (EqualityFinder) Name() string { return "equality" }

// FindBlocker implements Finder.
func (EqualityFinder) FindBlocker(v abox.View, id abox.NodeID) (abox.NodeID, []abox.NodeID, bool) {
	return labelSearch(v, id, func(x, y *abox.Node) bool {
		return x.Terms().Equal(y.Terms())
	})
}

func labelSearch(v abox.View, id abox.NodeID, covers func(x, y *abox.Node) bool) (abox.NodeID, []abox.NodeID, bool) {
	x := v.Node(id)
	chain := Ancestors(v, id)
	for i, a := range chain {
		y := v.Node(a)
		if candidate(y) && covers(x, y) {
			return a, chain[:i+1], true
		}
	}
	return 0, chain, false
}

// PairwiseFinder blocks x by an ancestor y when x and y have equal labels,
// their parents have equal labels, and the edges from each parent carry the
// same roles. Used when symmetric roles make subset blocking unsound.
type PairwiseFinder struct{}

// Name implements Finder.
func (PairwiseFinder) Name() string { return "pairwise" }

// FindBlocker implements Finder.
func (PairwiseFinder) FindBlocker(v abox.View, id abox.NodeID) (abox.NodeID, []abox.NodeID, bool) {
	id = v.Resolve(id)
	x := v.Node(id)
	chain := Ancestors(v, id)
	if len(chain) == 0 {
		return 0, nil, false
	}
	xp := chain[0]
	xRoles := edgeRoles(x, xp)
	for i, a := range chain {
		y := v.Node(a)
		if !candidate(y) || i+1 >= len(chain) {
			continue
		}
		yp := chain[i+1]
		if !x.Terms().Equal(y.Terms()) {
			continue
		}
		if !v.Node(xp).Terms().Equal(v.Node(yp).Terms()) {
			continue
		}
		if slices.Equal(xRoles, edgeRoles(y, yp)) {
			return a, chain[:i+2], true
		}
	}
	return 0, chain, false
}

// edgeRoles returns the sorted roles of the edges from parent into n.
func edgeRoles(n *abox.Node, parent abox.NodeID) []term.Role {
	var out []term.Role
	for _, l := range n.Incoming() {
		if l.Peer == parent {
			out = append(out, l.Role)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
