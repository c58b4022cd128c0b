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

// UnionCompleter splits the branch on the first unsatisfied disjunction.
//
// Description:
//
//	A union is satisfied when one of its disjuncts is in the label. An
//	implication A ⇒ B is treated as ¬A ⊔ B. For an unsatisfied one, each
//	disjunct becomes a non-deterministic ConceptAdd and the list is
//	committed: the current branch takes the first committable disjunct and
//	the others are forked and pushed on the agenda, so the first of them is
//	explored next after the current branch fails.
//
//	When no disjunct can be committed on the current branch it is marked
//	inconsistent.
type UnionCompleter struct {
	ctx *Context
}

// Name implements Completer.
func (c *UnionCompleter) Name() string { return "union" }

// CompleteNode implements Completer.
func (c *UnionCompleter) CompleteNode(tn *branch.TreeNode, id abox.NodeID) State {
	a := tn.ABox()
	n := a.Node(id)
	if n == nil {
		return RecheckBranch
	}
	f := a.Factory()

	candidates := slices.Clone(n.Terms().OfKind(term.KindUnion))
	candidates = append(candidates, n.Terms().OfKind(term.KindImplies)...)
	for _, t := range candidates {
		disjuncts := t.Operands()
		if t.Kind() == term.KindImplies {
			disjuncts = []*term.Term{f.Negate(t.Sub()), t.Sup()}
		}
		if slices.ContainsFunc(disjuncts, n.Contains) {
			continue
		}
		return c.split(tn, id, t, disjuncts)
	}
	return Continue
}

func (c *UnionCompleter) split(tn *branch.TreeNode, id abox.NodeID, t *term.Term, disjuncts []*term.Term) State {
	actions := make(branch.ActionList, len(disjuncts))
	for i, d := range disjuncts {
		actions[i] = branch.ConceptAdd{Node: id, Terms: []*term.Term{d}}
	}
	created := actions.Commit(tn, c.ctx.Checker)

	var forks []*branch.TreeNode
	for _, ci := range created {
		if ci.Node != tn {
			forks = append(forks, ci.Node)
		}
	}
	slices.Reverse(forks)
	tn.Tree().Push(forks...)

	c.ctx.Logger.Debug("split on disjunction",
		slog.Uint64("node", uint64(id)),
		slog.String("term", t.String()),
		slog.Int("alternatives", len(created)))

	if len(created) == 0 || created[0].Node != tn {
		tn.Branch().MarkInconsistent(branch.Clash{
			Node:   tn.ABox().Resolve(id),
			Reason: "no satisfiable disjunct",
			Terms:  []*term.Term{t},
		})
		return RecheckBranch
	}
	if created[0].Merge.IsMerged() {
		return RecheckBranch
	}
	return RecheckNode
}
