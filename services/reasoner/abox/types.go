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
	"fmt"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// NodeID identifies a node. Zero means "no node".
type NodeID uint32

// TermEntry identifies one term on one node.
type TermEntry struct {
	Node NodeID
	Term *term.Term
}

// String renders the entry as "node:term".
func (e TermEntry) String() string {
	return fmt.Sprintf("%d:%s", e.Node, e.Term)
}

// CompareEntries orders entries by node and then by term.
func CompareEntries(a, b TermEntry) int {
	if c := cmp.Compare(a.Node, b.Node); c != 0 {
		return c
	}
	return term.Compare(a.Term, b.Term)
}

// MergeInfo reports the outcome of an operation that may merge nodes.
type MergeInfo struct {
	// Current is the node that now holds the result.
	Current NodeID

	// Merged lists nodes removed by merging into another node.
	Merged []NodeID

	// Changed is true when any term, name, or link was added.
	Changed bool
}

// IsMerged reports whether any node was merged away.
func (m MergeInfo) IsMerged() bool {
	return len(m.Merged) > 0
}

// combine folds a later result into m.
func (m *MergeInfo) combine(next MergeInfo) {
	m.Current = next.Current
	m.Merged = append(m.Merged, next.Merged...)
	m.Changed = m.Changed || next.Changed
}

// View is the read-only capability over an ABox.
type View interface {
	// Factory returns the term factory of the ABox.
	Factory() *term.Factory

	// Node returns the live node for id after following merges, or nil.
	Node(id NodeID) *Node

	// NodeIDs returns the live node IDs in ascending order.
	NodeIDs() []NodeID

	// NamedNode returns the node standing for an individual or literal.
	NamedNode(name string, datatype bool) (NodeID, bool)

	// Resolve follows merges from id to the live node that absorbed it.
	Resolve(id NodeID) NodeID

	// AreDifferent reports whether two nodes are asserted distinct.
	AreDifferent(a, b NodeID) bool

	// Len returns the number of live nodes.
	Len() int

	// Generation increases on every mutation.
	Generation() uint64
}
