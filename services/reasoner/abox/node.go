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
	"cmp"
	"strings"

	"github.com/AleutianAI/AleutianTableau/pkg/cow"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// token marks the ABox generation allowed to mutate a node in place.
type token struct{ n uint64 }

// TermSet is a read-only view of a node's terms in term order.
type TermSet struct {
	s *cow.SortedSet[*term.Term]
}

// Contains reports whether t is in the set.
func (ts TermSet) Contains(t *term.Term) bool { return ts.s.Contains(t) }

// Len returns the number of terms.
func (ts TermSet) Len() int { return ts.s.Len() }

// Items returns the terms in order. Must not be modified.
func (ts TermSet) Items() []*term.Term { return ts.s.Items() }

// OfKind returns the terms of kind k, a contiguous range of the set.
func (ts TermSet) OfKind(k term.Kind) []*term.Term {
	return ts.s.Between(term.KindFrom(k), term.KindAfter(k))
}

// IsSubsetOf reports whether every term of ts is in other.
func (ts TermSet) IsSubsetOf(other TermSet) bool { return ts.s.IsSubsetOf(other.s) }

// Equal reports whether both sets hold the same terms.
func (ts TermSet) Equal(other TermSet) bool { return ts.s.Equal(other.s) }

// String renders the set as "{t1, t2}".
func (ts TermSet) String() string {
	parts := make([]string, 0, ts.Len())
	for _, t := range ts.Items() {
		parts = append(parts, t.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Node is a vertex of the completion graph.
//
// Nodes have no exported mutators: every change goes through the owning
// ABox, which handles copy-on-write and invalidation.
type Node struct {
	id       NodeID
	owner    *token
	datatype bool
	parent   NodeID

	names *cow.SortedSet[string]
	terms *cow.SortedSet[*term.Term]
	links *cow.SortedSet[Link]
}

func newNode(id NodeID, owner *token, datatype bool) *Node {
	return &Node{
		id:       id,
		owner:    owner,
		datatype: datatype,
		names:    cow.NewSortedSet(strings.Compare),
		terms:    cow.NewSortedSet(term.Compare),
		links:    cow.NewSortedSet(compareLinks),
	}
}

func (n *Node) clone(owner *token) *Node {
	return &Node{
		id:       n.id,
		owner:    owner,
		datatype: n.datatype,
		parent:   n.parent,
		names:    n.names.Clone(),
		terms:    n.terms.Clone(),
		links:    n.links.Clone(),
	}
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID { return n.id }

// IsDatatype reports whether the node stands for a data value.
func (n *Node) IsDatatype() bool { return n.datatype }

// IsAnonymous reports whether the node has no individual name.
func (n *Node) IsAnonymous() bool { return n.names.Len() == 0 }

// Parent returns the node whose existential generated this node, or zero.
// The ID may have been merged; resolve it through the ABox.
func (n *Node) Parent() NodeID { return n.parent }

// Names returns the individual names or literal values, sorted.
func (n *Node) Names() []string { return n.names.Items() }

// Terms returns the node's term set.
func (n *Node) Terms() TermSet { return TermSet{s: n.terms} }

// Contains reports whether t is in the node's term set.
func (n *Node) Contains(t *term.Term) bool { return n.terms.Contains(t) }

// Outgoing returns the edges leaving the node.
func (n *Node) Outgoing() []Link {
	return n.links.Between(
		func(l Link) bool { return l.Dir >= Outgoing },
		func(l Link) bool { return l.Dir > Outgoing },
	)
}

// Incoming returns the edges entering the node.
func (n *Node) Incoming() []Link {
	return n.links.Between(
		func(l Link) bool { return l.Dir >= Incoming },
		func(l Link) bool { return l.Dir > Incoming },
	)
}

// Successors returns the targets of outgoing edges labelled exactly r.
func (n *Node) Successors(r term.Role) []NodeID {
	return peers(n.links.Between(
		func(l Link) bool { return l.Dir > Outgoing || (l.Dir == Outgoing && l.Role >= r) },
		func(l Link) bool { return l.Dir > Outgoing || (l.Dir == Outgoing && l.Role > r) },
	))
}

// Predecessors returns the sources of incoming edges labelled exactly r.
func (n *Node) Predecessors(r term.Role) []NodeID {
	return peers(n.links.Between(
		func(l Link) bool { return l.Dir > Incoming || (l.Dir == Incoming && l.Role >= r) },
		func(l Link) bool { return l.Dir > Incoming || (l.Dir == Incoming && l.Role > r) },
	))
}

// LinkTo returns the outgoing edge to peer with role r, if present.
func (n *Node) LinkTo(peer NodeID, r term.Role) (Link, bool) {
	want := Link{Dir: Outgoing, Role: r, Peer: peer}
	for _, l := range n.Outgoing() {
		if compareLinks(l, want) == 0 {
			return l, true
		}
	}
	return Link{}, false
}

// Direction is the orientation of an edge relative to its node.
type Direction uint8

const (
	Outgoing Direction = iota
	Incoming
)

// Link is one edge of a node's link map.
type Link struct {
	Dir  Direction
	Role term.Role
	Peer NodeID

	// Asserted is true for edges stated by the ontology, false for edges
	// created by completion.
	Asserted bool

	// Cause is the existential that generated a derived edge, or nil.
	Cause *term.Term
}

// compareLinks orders links by direction, role and peer. Asserted and Cause
// are not part of an edge's identity.
func compareLinks(a, b Link) int {
	if c := cmp.Compare(a.Dir, b.Dir); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Role), string(b.Role)); c != 0 {
		return c
	}
	return cmp.Compare(a.Peer, b.Peer)
}

func peers(links []Link) []NodeID {
	out := make([]NodeID, len(links))
	for i, l := range links {
		out[i] = l.Peer
	}
	return out
}
