// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package completer implements the tableau expansion rules.
//
// Each Completer applies one rule to one node of a branch and tells the
// driver how to continue through a State. Deterministic rules write to the
// branch directly; the union rule splits the branch through a
// branch.ActionList.
package completer

import (
	"log/slog"
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/blocking"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/branch"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/rbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/tbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// State tells the driver what to do after a completer ran.
type State uint8

const (
	// Continue moves on to the next completer for the same node.
	Continue State = iota

	// RecheckNode restarts the completer list on the (resolved) node.
	RecheckNode

	// RecheckBranch abandons the current pass over the branch. Used after
	// merges that touch other nodes and when the branch became
	// inconsistent.
	RecheckBranch
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Continue:
		return "continue"
	case RecheckNode:
		return "recheck_node"
	case RecheckBranch:
		return "recheck_branch"
	default:
		return "unknown"
	}
}

// Completer applies one expansion rule to one node.
type Completer interface {
	Name() string
	CompleteNode(tn *branch.TreeNode, id abox.NodeID) State
}

// Context carries what every completer reads. It is shared, read-only, by
// all completers of one reasoner.
type Context struct {
	TBox     *tbox.TBox
	RBox     *rbox.RBox
	Blocking *blocking.Strategy
	Checker  branch.ConsistencyChecker
	Logger   *slog.Logger
}

// Default returns the completers in the order the driver applies them:
// terminology first, then the deterministic rules, then the union split,
// and the generating rule last.
func Default(ctx *Context) []Completer {
	return []Completer{
		&TBoxCompleter{ctx: ctx},
		&IntersectionCompleter{ctx: ctx},
		&RoleRestrictionCompleter{ctx: ctx},
		&AllCompleter{ctx: ctx},
		&FunctionalCompleter{ctx: ctx},
		&UnionCompleter{ctx: ctx},
		&SomeCompleter{ctx: ctx},
	}
}

// addDeterministic writes terms to id with the given justification.
//
// Description:
//
//	Terms already present are skipped. When the checker proves the addition
//	clashes, or the addition forces an impossible merge, the branch is
//	marked inconsistent.
//
// Outputs:
//
//	abox.MergeInfo - Node now holding the terms, and whether it changed.
//	bool - False when the branch became inconsistent.
func (c *Context) addDeterministic(tn *branch.TreeNode, id abox.NodeID, terms []*term.Term, parents ...abox.TermEntry) (abox.MergeInfo, bool) {
	b := tn.Branch()
	a := b.ABox()
	act := branch.ConceptAdd{Node: id, Terms: terms, Parents: parents, Deterministic: true}
	if !act.IsShouldCommit(b, nil) {
		return abox.MergeInfo{Current: a.Resolve(id)}, !b.IsInconsistent()
	}
	if !c.Checker.IsExtraConsistent(a, id, terms) {
		b.MarkInconsistent(branch.Clash{Node: a.Resolve(id), Reason: "addition clashes with label", Terms: terms})
		return abox.MergeInfo{Current: a.Resolve(id)}, false
	}
	info, err := act.Commit(b)
	if err != nil {
		c.Logger.Debug("deterministic addition failed",
			slog.Uint64("node", uint64(id)),
			slog.String("error", err.Error()))
		return info, false
	}
	return info, true
}

// successors returns the distinct nodes reached from n through r or any
// sub-role of r.
func (c *Context) successors(n *abox.Node, r term.Role) []abox.NodeID {
	var out []abox.NodeID
	for _, s := range c.RBox.SubRoles(r) {
		for _, id := range n.Successors(s) {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

func containsAll(n *abox.Node, ts []*term.Term) bool {
	for _, t := range ts {
		if !n.Contains(t) {
			return false
		}
	}
	return true
}
