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
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// MergeNodes forces x and y to denote the same element.
//
// Description:
//
//	The node with the lower ID survives. The survivor receives the union of
//	terms, names and links; every edge that pointed at the removed node is
//	redirected to the survivor. The merge is recorded so Resolve maps the
//	removed ID to the survivor, dependency entries move to the survivor, and
//	blocking decisions influenced by either node are dropped. Nominals
//	brought in by the merge may force further merges, which are followed.
//
// Outputs:
//
//	MergeInfo - Survivor as Current and every removed node in Merged.
//	error - *MergeError when the nodes are asserted different, when one is a
//	        data value and the other is not, or when they carry different
//	        literal values.
func (a *ABox) MergeNodes(x, y NodeID) (MergeInfo, error) {
	x, y = a.Resolve(x), a.Resolve(y)
	info := MergeInfo{Current: x}
	if x == y {
		return info, nil
	}
	survivor, removed := min(x, y), max(x, y)
	info.Current = survivor

	if err := a.checkMergeable(survivor, removed); err != nil {
		return info, err
	}

	s, err := a.mut(survivor)
	if err != nil {
		return info, err
	}
	r := a.Node(removed)

	// A merged tree node keeps a generating ancestor only while it stays
	// anonymous; named nodes are roots.
	if s.names.Len() == 0 && r.names.Len() == 0 {
		if s.parent == 0 {
			s.parent = r.parent
		}
	} else {
		s.parent = 0
	}
	for _, t := range r.terms.Items() {
		s.terms.Add(t)
	}
	for _, name := range r.names.Items() {
		s.names.Add(name)
		a.names.Set(nameKey{name: name, datatype: r.datatype}, survivor)
	}
	if err := a.redirectLinks(r, removed, survivor); err != nil {
		return info, err
	}
	a.migrateDifferent(removed, survivor)

	a.nodes.Delete(removed)
	a.merged.Set(removed, survivor)
	a.dirty.Delete(removed)
	a.deps.MigrateNode(removed, survivor)
	a.blocks.Invalidate(removed)
	a.touch(survivor)

	info.Merged = append(info.Merged, removed)
	info.Changed = true

	// Nominals carried over from the removed node may name further nodes.
	for _, t := range slices.Clone(a.Node(survivor).Terms().OfKind(term.KindNominal)) {
		mi, err := a.settleNominal(info.Current, t)
		info.combine(mi)
		if err != nil {
			return info, err
		}
	}
	return info, nil
}

func (a *ABox) checkMergeable(x, y NodeID) error {
	nx, ny := a.Node(x), a.Node(y)
	if nx == nil || ny == nil {
		return &MergeError{A: x, B: y, Reason: "node missing"}
	}
	if nx.datatype != ny.datatype {
		return &MergeError{A: x, B: y, Reason: "data value merged with individual"}
	}
	if a.AreDifferent(x, y) {
		return &MergeError{A: x, B: y, Reason: "asserted different"}
	}
	if nx.datatype && nx.names.Len() > 0 && ny.names.Len() > 0 {
		return &MergeError{A: x, B: y, Reason: "distinct literal values"}
	}
	return nil
}

// redirectLinks moves the edges of the removed node onto the survivor and
// rewrites the mirror edge on every peer.
func (a *ABox) redirectLinks(r *Node, removed, survivor NodeID) error {
	s, err := a.mut(survivor)
	if err != nil {
		return err
	}
	for _, l := range r.links.Items() {
		peer := l.Peer
		if peer == removed {
			peer = survivor
		}
		moved := l
		moved.Peer = peer
		upsertLink(s, moved)

		if peer == survivor {
			// Edge between the two merged nodes becomes a self loop.
			mirror := Link{Dir: 1 - l.Dir, Role: l.Role, Peer: survivor, Asserted: l.Asserted, Cause: l.Cause}
			s.links.Remove(Link{Dir: 1 - l.Dir, Role: l.Role, Peer: removed})
			upsertLink(s, mirror)
			continue
		}
		p, err := a.mut(peer)
		if err != nil {
			return err
		}
		p.links.Remove(Link{Dir: 1 - l.Dir, Role: l.Role, Peer: removed})
		upsertLink(p, Link{Dir: 1 - l.Dir, Role: l.Role, Peer: survivor, Asserted: l.Asserted, Cause: l.Cause})
		a.touch(peer)
		if p.parent == removed {
			p.parent = survivor
		}
	}
	return nil
}

func (a *ABox) migrateDifferent(removed, survivor NodeID) {
	for _, other := range a.different.RemoveKey(removed) {
		a.different.RemoveValue(other, removed)
		a.different.Add(other, survivor)
		a.different.Add(survivor, other)
	}
}
