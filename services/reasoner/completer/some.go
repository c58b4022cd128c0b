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

// SomeCompleter is the generating rule for existential restrictions.
//
// Description:
//
//	For ∃r.C on x the completer first asks the blocking strategy whether x
//	is blocked; a blocked node keeps its existentials unexpanded.
//
//	For a functional r, an existing r-successor is reused and receives C.
//	A successor is created only when there is none.
//
//	For any other role, a successor that already contains C satisfies the
//	restriction. Otherwise a new successor is always created; existing
//	successors are never reused, since they may be witnesses for other
//	restrictions.
//
//	At most one node is generated per call. Generating returns RecheckNode.
type SomeCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *SomeCompleter) Name() string { return "some" }

// CompleteNode implements Completer.
func (c *SomeCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	checkedBlock := false
	for _, t := range slices.Clone(n.Terms().OfKind(term.KindSome)) {
		n = a.Node(id)
		r, filler := t.Role(), t.Filler()
		succ := c.ctx.successors(n, r)
		functional := c.ctx.RBox.IsFunctional(r)
		if !functional && c.satisfied(a, succ, filler) {
			continue
		}
		if functional && len(succ) > 0 && c.satisfied(a, succ[:1], filler) {
			continue
		}

		if !checkedBlock {
			if c.ctx.Blocking != nil && c.ctx.Blocking.IsBlocked(a, id) {
				return Continue
			}
			checkedBlock = true
		}
		cause := abox.TermEntry{Node: id, Term: t}

		if functional && len(succ) > 0 {
			info, ok := c.ctx.addDeterministic(tn, succ[0], []*term.Term{filler}, cause)
			if !ok {
				return RecheckBranch
			}
			if info.IsMerged() {
				return RecheckBranch
			}
			continue
		}
		return c.generate(tn, id, t, cause)
	}
	return Continue
}

// satisfied reports whether one of succ contains filler. ⊤ is satisfied by
// any successor.
func (c *SomeCompleter) satisfied(a *abox.ABox, succ []abox.NodeID, filler *term.Term) bool {
	if len(succ) > 0 && filler == a.Factory().Top() {
		return true
	}
	for _, s := range succ {
		if n := a.Node(s); n != nil && n.Contains(filler) {
			return true
		}
	}
	return false
}

func (c *SomeCompleter) generate(tn *branch.TreeNode, id abox.NodeID, t *term.Term, cause abox.TermEntry) State {
	a := tn.ABox()
	datatype := c.ctx.RBox.IsDataProperty(t.Role())
	succ, err := a.CreateSuccessor(id, t.Role(), datatype, t)
	if err != nil {
		tn.Branch().MarkInconsistent(branch.Clash{Node: id, Reason: err.Error()})
		return RecheckBranch
	}
	c.ctx.Logger.Debug("generated successor",
		slog.Uint64("node", uint64(id)),
		slog.Uint64("successor", uint64(succ)),
		slog.String("term", t.String()))

	if t.Filler() != a.Factory().Top() {
		info, ok := c.ctx.addDeterministic(tn, succ, []*term.Term{t.Filler()}, cause)
		if !ok {
			return RecheckBranch
		}
		if info.IsMerged() {
			return RecheckBranch
		}
	}
	return RecheckNode
}
