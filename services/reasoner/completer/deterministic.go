// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package completer

import (
	"log/slog"
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/branch"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// TBoxCompleter applies the terminology to a node.
//
// Description:
//
//	Universal terms and internalised general inclusions are added to every
//	individual node. Atoms in the label are lazily unfolded: for A ⊑ C the
//	term C is added once A is present, justified by A. A named node also
//	unfolds the nominal of each of its names, so {a} ⊑ C applies to a.
//	Data value nodes are left alone.
type TBoxCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *TBoxCompleter) Name() string { return "tbox" }

// CompleteNode implements Completer.
func (c *TBoxCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	if n.IsDatatype() {
		return Continue
	}
	tb := c.ctx.TBox
	f := a.Factory()

	global := append(append([]*term.Term(nil), tb.Universal()...), tb.General()...)
	if !containsAll(n, global) {
		info, ok := c.ctx.addDeterministic(tn, id, global)
		if !ok {
			return RecheckBranch
		}
		if info.IsMerged() {
			return RecheckNode
		}
	}

restart:
	for {
		n = a.Node(id)
		for _, t := range n.Terms().Items() {
			if !t.IsAtomic() {
				break
			}
			implied := tb.Unfold(t)
			if len(implied) == 0 || containsAll(n, implied) {
				continue
			}
			info, ok := c.ctx.addDeterministic(tn, id, implied, abox.TermEntry{Node: id, Term: t})
			if !ok {
				return RecheckBranch
			}
			if info.IsMerged() {
				return RecheckNode
			}
			continue restart
		}
		for _, name := range n.Names() {
			implied := tb.Unfold(f.Nominal(name))
			if len(implied) == 0 || containsAll(n, implied) {
				continue
			}
			info, ok := c.ctx.addDeterministic(tn, id, implied)
			if !ok {
				return RecheckBranch
			}
			if info.IsMerged() {
				return RecheckNode
			}
			continue restart
		}
		return Continue
	}
}

// IntersectionCompleter adds the operands of every intersection in the
// label.
type IntersectionCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *IntersectionCompleter) Name() string { return "intersection" }

// CompleteNode implements Completer.
//
// Description:
//
//	Scans the intersections of the node. When one has a missing operand all
//	operands are added, justified by the intersection, and the scan starts
//	over on the updated label. A merge ends the call with RecheckNode.
func (c *IntersectionCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
restart:
	for {
		n := a.Node(id)
		if n == nil {
			return RecheckBranch
		}
		for _, t := range n.Terms().OfKind(term.KindIntersection) {
			if containsAll(n, t.Operands()) {
				continue
			}
			info, ok := c.ctx.addDeterministic(tn, id, t.Operands(), abox.TermEntry{Node: id, Term: t})
			if !ok {
				return RecheckBranch
			}
			if info.IsMerged() {
				return RecheckNode
			}
			continue restart
		}
		return Continue
	}
}

// RoleRestrictionCompleter adds declared domains and ranges.
//
// Description:
//
//	For every incoming edge the ranges of its role are added to the node;
//	for every outgoing edge the domains. An edge created by an existential
//	records that existential as the justification. Terms from an asserted
//	edge have no parent and become governing terms.
type RoleRestrictionCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *RoleRestrictionCompleter) Name() string { return "role_restriction" }

// CompleteNode implements Completer.
func (c *RoleRestrictionCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	rb := c.ctx.RBox
	changed := false

	// apply reports false when the pass must stop.
	apply := func(l abox.Link, terms []*term.Term) (State, bool) {
		if len(terms) == 0 || containsAll(n, terms) {
			return Continue, true
		}
		var parents []abox.TermEntry
		if l.Cause != nil {
			owner := l.Peer
			if l.Dir == abox.Outgoing {
				owner = id
			}
			parents = []abox.TermEntry{{Node: owner, Term: l.Cause}}
		}
		info, ok := c.ctx.addDeterministic(tn, id, terms, parents...)
		switch {
		case !ok:
			return RecheckBranch, false
		case info.IsMerged():
			return RecheckNode, false
		}
		changed = changed || info.Changed
		n = a.Node(id)
		return Continue, true
	}

	for _, l := range n.Incoming() {
		if st, ok := apply(l, rb.Ranges(l.Role)); !ok {
			return st
		}
	}
	for _, l := range n.Outgoing() {
		if st, ok := apply(l, rb.Domains(l.Role)); !ok {
			return st
		}
	}
	if changed {
		return RecheckNode
	}
	return Continue
}

// AllCompleter propagates universal restrictions to successors.
//
// Description:
//
//	For ∀r.C on x, C is added to every successor of x through r or a
//	sub-role s of r. For every transitive role w with s ⊑ w ⊑ r the
//	restriction ∀w.C is added as well, so it travels along w-chains.
type AllCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *AllCompleter) Name() string { return "all" }

// CompleteNode implements Completer.
func (c *AllCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	f := a.Factory()
	rb := c.ctx.RBox
	for _, t := range slices.Clone(n.Terms().OfKind(term.KindAll)) {
		cause := abox.TermEntry{Node: id, Term: t}
		for _, s := range rb.SubRoles(t.Role()) {
			succ := n.Successors(s)
			if len(succ) == 0 {
				continue
			}
			terms := []*term.Term{t.Filler()}
			for _, w := range rb.SuperRoles(s) {
				if rb.IsTransitive(w) && rb.IsSubRole(w, t.Role()) {
					terms = append(terms, f.All(w, t.Filler()))
				}
			}
			for _, y := range succ {
				info, ok := c.ctx.addDeterministic(tn, y, terms, cause)
				if !ok || info.IsMerged() {
					return RecheckBranch
				}
			}
		}
	}
	return Continue
}

// FunctionalCompleter merges the successors of functional roles.
type FunctionalCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *FunctionalCompleter) Name() string { return "functional" }

// CompleteNode implements Completer.
//
// Description:
//
//	When x has several successors through a functional role r (counting
//	edges labelled with sub-roles of r), they are merged into one. A merge
//	that is impossible makes the branch inconsistent.
func (c *FunctionalCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	b := tn.Branch()
	a := b.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	for _, r := range c.ctx.RBox.Roles() {
		if !c.ctx.RBox.IsFunctional(r) {
			continue
		}
		succ := c.ctx.successors(n, r)
		if len(succ) < 2 {
			continue
		}
		for _, other := range succ[1:] {
			if _, err := a.MergeNodes(succ[0], other); err != nil {
				b.MarkInconsistent(branch.Clash{Node: a.Resolve(succ[0]), Reason: err.Error()})
				return RecheckBranch
			}
		}
		c.ctx.Logger.Debug("merged functional successors",
			slog.Uint64("node", uint64(id)),
			slog.String("role", string(r)),
			slog.Int("count", len(succ)))
		return RecheckBranch
	}
	return Continue
}
