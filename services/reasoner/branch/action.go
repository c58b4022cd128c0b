// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package branch

import (
	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Action is one change a rule wants to make to a branch.
//
// Description:
//
//	Actions follow a two phase protocol. IsShouldCommit is a cheap filter
//	that returns false only when the action certainly changes nothing or
//	provably clashes; true is not a consistency guarantee. Commit performs
//	the change.
//
//	The set of actions is closed: ConceptAdd and NoOp.
type Action interface {
	IsShouldCommit(b *Branch, checker ConsistencyChecker) bool
	Commit(b *Branch) (abox.MergeInfo, error)
	action()
}

// ConceptAdd adds terms to a node.
type ConceptAdd struct {
	Node  abox.NodeID
	Terms []*term.Term

	// Parents justify the terms when Deterministic is set.
	Parents []abox.TermEntry

	// Deterministic is false for a chosen disjunct. Chosen terms are
	// recorded as governing terms and get no parents: an alternative that
	// was picked is not derived from anything. A deterministic addition
	// without parents follows from axioms or assertions alone and is
	// recorded as governing too.
	Deterministic bool
}

func (ConceptAdd) action() {}

// IsShouldCommit implements Action.
func (c ConceptAdd) IsShouldCommit(b *Branch, checker ConsistencyChecker) bool {
	if b.inconsistent {
		return false
	}
	a := b.abox
	n := a.Node(c.Node)
	if n == nil {
		return false
	}
	f := a.Factory()
	fresh := make([]*term.Term, 0, len(c.Terms))
	for _, t := range c.Terms {
		if nt := f.ToNNF(t); !n.Contains(nt) {
			fresh = append(fresh, nt)
		}
	}
	if len(fresh) == 0 {
		return false
	}
	return checker == nil || checker.IsExtraConsistent(a, n.ID(), fresh)
}

// Commit implements Action.
//
// Outputs:
//
//	abox.MergeInfo - The node now holding the terms.
//	error - A merge failure. The branch is marked inconsistent.
func (c ConceptAdd) Commit(b *Branch) (abox.MergeInfo, error) {
	a := b.abox
	info, err := a.AddUnfoldedDescriptions(c.Node, c.Terms)
	if err != nil {
		b.MarkInconsistent(Clash{Node: a.Resolve(c.Node), Reason: err.Error()})
		return info, err
	}
	deps := a.Dependencies()
	f := a.Factory()
	for _, t := range c.Terms {
		entry := abox.TermEntry{Node: info.Current, Term: f.ToNNF(t)}
		if !c.Deterministic || len(c.Parents) == 0 {
			deps.AddGoverningTerm(entry)
			continue
		}
		for _, p := range c.Parents {
			deps.AddParent(entry, abox.TermEntry{Node: a.Resolve(p.Node), Term: p.Term})
		}
	}
	return info, nil
}

// NoOp is the alternative that keeps a branch as it is.
type NoOp struct{}

func (NoOp) action() {}

// IsShouldCommit implements Action. A NoOp is committable on any
// consistent branch.
func (NoOp) IsShouldCommit(b *Branch, _ ConsistencyChecker) bool {
	return !b.inconsistent
}

// Commit implements Action.
func (NoOp) Commit(*Branch) (abox.MergeInfo, error) {
	return abox.MergeInfo{}, nil
}

// CreationInfo describes one committed alternative.
type CreationInfo struct {
	Node   *TreeNode
	Action Action
	Merge  abox.MergeInfo
}

// ActionList is a set of alternatives for one non-deterministic step.
type ActionList []Action

// Commit applies the committable alternatives to base and its forks.
//
// Description:
//
//	Alternatives are filtered with IsShouldCommit. The first committable
//	one reuses base. For each further one the base ABox is cloned before
//	anything is written, so every alternative starts from the same state;
//	the first of them becomes a KindBranch child of base and the rest
//	KindFork children. Alternatives whose commit fails are dropped. The new
//	nodes are not pushed on the agenda.
//
// Outputs:
//
//	[]CreationInfo - Committed alternatives. When base survives it is
//	                 first. Empty when nothing was committable.
func (l ActionList) Commit(base *TreeNode, checker ConsistencyChecker) []CreationInfo {
	var todo []Action
	for _, act := range l {
		if act.IsShouldCommit(base.branch, checker) {
			todo = append(todo, act)
		}
	}
	if len(todo) == 0 {
		return nil
	}

	forks := make([]*Branch, len(todo)-1)
	for i := range forks {
		forks[i] = base.branch.fork()
	}

	var out []CreationInfo
	if info, err := todo[0].Commit(base.branch); err == nil {
		out = append(out, CreationInfo{Node: base, Action: todo[0], Merge: info})
	}
	kind := KindBranch
	for i, act := range todo[1:] {
		b := forks[i]
		info, err := act.Commit(b)
		if err != nil {
			continue
		}
		n := base.tree.newNode(kind, base, b)
		kind = KindFork
		out = append(out, CreationInfo{Node: n, Action: act, Merge: info})
	}
	return out
}
