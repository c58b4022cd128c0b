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
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
)

// Kind says how a tree node came to exist.
type Kind uint8

const (
	// KindRoot is the tree's initial node.
	KindRoot Kind = iota

	// KindBranch is the first alternative split off a node.
	KindBranch

	// KindFork is any further alternative, a sibling of the KindBranch child.
	KindFork
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindBranch:
		return "branch"
	case KindFork:
		return "fork"
	default:
		return "unknown"
	}
}

// TreeNode is one node of the decision tree.
//
// Thread Safety: NOT safe for concurrent use.
type TreeNode struct {
	id       uint64
	kind     Kind
	parent   *TreeNode
	children []*TreeNode
	depth    int
	branch   *Branch
	tree     *Tree
}

// ID is unique within the tree. The root is 1.
func (n *TreeNode) ID() uint64 { return n.id }

// Kind returns how the node was created.
func (n *TreeNode) Kind() Kind { return n.kind }

// Parent returns the node this one was split from, nil for the root.
func (n *TreeNode) Parent() *TreeNode { return n.parent }

// Children returns the live alternatives split from this node.
func (n *TreeNode) Children() []*TreeNode { return slices.Clone(n.children) }

// Depth is the number of splits between the root and n.
func (n *TreeNode) Depth() int { return n.depth }

// Branch returns the node's branch.
func (n *TreeNode) Branch() *Branch { return n.branch }

// ABox is shorthand for n.Branch().ABox().
func (n *TreeNode) ABox() *abox.ABox { return n.branch.abox }

// Tree returns the tree n belongs to.
func (n *TreeNode) Tree() *Tree { return n.tree }

// Stats are counters over the life of a tree.
type Stats struct {
	Nodes     int
	Branches  int
	Forks     int
	Abandoned int
	MaxDepth  int
}

// Tree is the decision tree with its agenda of open alternatives.
//
// Description:
//
//	The agenda is LIFO, which makes the search depth first: the most
//	recently split alternative is explored next.
//
// Thread Safety: NOT safe for concurrent use.
type Tree struct {
	root   *TreeNode
	agenda []*TreeNode
	nextID uint64
	stats  Stats
}

// NewTree creates a tree whose root branch owns a.
func NewTree(a *abox.ABox) *Tree {
	t := &Tree{}
	t.root = t.newNode(KindRoot, nil, New(a))
	return t
}

func (t *Tree) newNode(kind Kind, parent *TreeNode, b *Branch) *TreeNode {
	t.nextID++
	n := &TreeNode{id: t.nextID, kind: kind, parent: parent, branch: b, tree: t}
	if parent != nil {
		n.depth = parent.depth + 1
		parent.children = append(parent.children, n)
	}
	t.stats.Nodes++
	switch kind {
	case KindBranch:
		t.stats.Branches++
	case KindFork:
		t.stats.Forks++
	}
	t.stats.MaxDepth = max(t.stats.MaxDepth, n.depth)
	return n
}

// Root returns the root node.
func (t *Tree) Root() *TreeNode { return t.root }

// Push adds open alternatives to the agenda. The last one pushed is
// explored first.
func (t *Tree) Push(nodes ...*TreeNode) {
	t.agenda = append(t.agenda, nodes...)
}

// Pop removes the most recently pushed alternative.
func (t *Tree) Pop() (*TreeNode, bool) {
	if len(t.agenda) == 0 {
		return nil, false
	}
	n := t.agenda[len(t.agenda)-1]
	t.agenda[len(t.agenda)-1] = nil
	t.agenda = t.agenda[:len(t.agenda)-1]
	return n, true
}

// Pending returns the number of alternatives on the agenda.
func (t *Tree) Pending() int { return len(t.agenda) }

// Abandon detaches a closed node from its parent so its ABox can be
// collected. Abandoning the root only updates the counters.
func (t *Tree) Abandon(n *TreeNode) {
	t.stats.Abandoned++
	if n.parent == nil {
		return
	}
	n.parent.children = slices.DeleteFunc(n.parent.children, func(c *TreeNode) bool { return c == n })
}

// Stats returns the counters.
func (t *Tree) Stats() Stats { return t.stats }
