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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// rejectChecker refuses any extra term listed in reject.
type rejectChecker struct {
	reject map[*term.Term]bool
}

func (rejectChecker) IsConsistent(abox.View, abox.NodeID) (bool, Clash) { return true, Clash{} }

func (c rejectChecker) IsExtraConsistent(_ abox.View, _ abox.NodeID, extra []*term.Term) bool {
	for _, t := range extra {
		if c.reject[t] {
			return false
		}
	}
	return true
}

func setup(t *testing.T) (*term.Factory, *Tree, abox.NodeID) {
	t.Helper()
	f := term.NewFactory()
	a := abox.New(f)
	x, err := a.GetOrAddNamedNode("x", false)
	require.NoError(t, err)
	_, err = a.AddUnfoldedDescription(x, f.Or(f.Class("A"), f.Class("B"), f.Class("C")))
	require.NoError(t, err)
	return f, NewTree(a), x
}

func TestConceptAdd_IsShouldCommit(t *testing.T) {
	f, tree, x := setup(t)
	b := tree.Root().Branch()
	A := f.Class("A")

	assert.True(t, ConceptAdd{Node: x, Terms: []*term.Term{A}}.IsShouldCommit(b, nil))
	assert.False(t, ConceptAdd{Node: x, Terms: []*term.Term{f.Or(A, f.Class("B"), f.Class("C"))}}.IsShouldCommit(b, nil),
		"nothing new")
	assert.False(t, ConceptAdd{Node: 404, Terms: []*term.Term{A}}.IsShouldCommit(b, nil))
	assert.False(t, ConceptAdd{Node: x, Terms: []*term.Term{A}}.IsShouldCommit(b, rejectChecker{reject: map[*term.Term]bool{A: true}}))

	b.MarkInconsistent(Clash{Node: x, Reason: "test"})
	assert.False(t, ConceptAdd{Node: x, Terms: []*term.Term{A}}.IsShouldCommit(b, nil))
	assert.False(t, NoOp{}.IsShouldCommit(b, nil))
}

func TestConceptAdd_CommitDependencies(t *testing.T) {
	f, tree, x := setup(t)
	b := tree.Root().Branch()
	A, D := f.Class("A"), f.Class("D")
	cause := abox.TermEntry{Node: x, Term: f.Or(A, f.Class("B"), f.Class("C"))}

	info, err := ConceptAdd{Node: x, Terms: []*term.Term{A}}.Commit(b)
	require.NoError(t, err)
	assert.True(t, info.Changed)
	deps := b.ABox().Dependencies()
	entryA := abox.TermEntry{Node: x, Term: A}
	assert.True(t, deps.IsGoverning(entryA, nil), "a chosen disjunct governs")
	assert.False(t, deps.HasParents(entryA, nil), "no parents across a choice")

	_, err = ConceptAdd{Node: x, Terms: []*term.Term{D}, Parents: []abox.TermEntry{entryA, cause}, Deterministic: true}.Commit(b)
	require.NoError(t, err)
	entryD := abox.TermEntry{Node: x, Term: D}
	assert.False(t, deps.IsGoverning(entryD, nil))
	assert.Equal(t, []abox.TermEntry{entryA}, deps.NodeRoots(x, nil))
	assert.ElementsMatch(t, []abox.TermEntry{entryA, cause}, deps.Parents(entryD, false, nil))

	E := f.Class("E")
	_, err = ConceptAdd{Node: x, Terms: []*term.Term{E}, Deterministic: true}.Commit(b)
	require.NoError(t, err)
	entryE := abox.TermEntry{Node: x, Term: E}
	assert.True(t, deps.IsGoverning(entryE, nil), "an unjustified deterministic addition governs")
	assert.False(t, deps.HasParents(entryE, nil))
}

func TestConceptAdd_CommitMergeFailure(t *testing.T) {
	f := term.NewFactory()
	a := abox.New(f)
	x, _ := a.GetOrAddNamedNode("x", false)
	y, _ := a.GetOrAddNamedNode("y", false)
	require.NoError(t, a.AssertDifferent(x, y))
	b := New(a)

	_, err := ConceptAdd{Node: x, Terms: []*term.Term{f.Nominal("y")}}.Commit(b)
	assert.ErrorIs(t, err, abox.ErrMergeConflict)
	assert.True(t, b.IsInconsistent())
	assert.Equal(t, x, b.Clash().Node)
}

func TestActionList_Commit(t *testing.T) {
	f, tree, x := setup(t)
	A, B, C := f.Class("A"), f.Class("B"), f.Class("C")
	root := tree.Root()

	list := ActionList{
		ConceptAdd{Node: x, Terms: []*term.Term{A}},
		ConceptAdd{Node: x, Terms: []*term.Term{B}},
		ConceptAdd{Node: x, Terms: []*term.Term{C}},
	}
	created := list.Commit(root, nil)
	require.Len(t, created, 3)

	assert.Same(t, root, created[0].Node, "the base is reused and first")
	assert.Equal(t, KindBranch, created[1].Node.Kind())
	assert.Equal(t, KindFork, created[2].Node.Kind())
	assert.Same(t, root, created[1].Node.Parent())
	assert.Equal(t, 1, created[2].Node.Depth())

	// Every alternative sees only its own choice.
	for i, want := range []*term.Term{A, B, C} {
		n := created[i].Node.ABox().Node(x)
		for _, other := range []*term.Term{A, B, C} {
			assert.Equal(t, other == want, n.Contains(other), "alternative %d term %s", i, other)
		}
	}

	// Further writes stay isolated.
	_, err := created[1].Node.ABox().AddUnfoldedDescription(x, f.Class("E"))
	require.NoError(t, err)
	assert.False(t, created[2].Node.ABox().Node(x).Contains(f.Class("E")))
	assert.False(t, root.ABox().Node(x).Contains(f.Class("E")))

	stats := tree.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 1, stats.Branches)
	assert.Equal(t, 1, stats.Forks)
}

func TestActionList_CommitFiltering(t *testing.T) {
	f, tree, x := setup(t)
	A, B := f.Class("A"), f.Class("B")
	root := tree.Root()
	checker := rejectChecker{reject: map[*term.Term]bool{A: true}}

	t.Run("single committable reuses base", func(t *testing.T) {
		created := ActionList{
			ConceptAdd{Node: x, Terms: []*term.Term{A}},
			ConceptAdd{Node: x, Terms: []*term.Term{B}},
		}.Commit(root, checker)
		require.Len(t, created, 1)
		assert.Same(t, root, created[0].Node)
		assert.True(t, root.ABox().Node(x).Contains(B))
		assert.Empty(t, root.Children())
	})

	t.Run("nothing committable", func(t *testing.T) {
		created := ActionList{ConceptAdd{Node: x, Terms: []*term.Term{B}}}.Commit(root, checker)
		assert.Empty(t, created)
	})
}

func TestActionList_CommitDropsFailedFork(t *testing.T) {
	f := term.NewFactory()
	a := abox.New(f)
	x, _ := a.GetOrAddNamedNode("x", false)
	y, _ := a.GetOrAddNamedNode("y", false)
	require.NoError(t, a.AssertDifferent(x, y))
	tree := NewTree(a)

	created := ActionList{
		ConceptAdd{Node: x, Terms: []*term.Term{f.Nominal("y")}},
		ConceptAdd{Node: x, Terms: []*term.Term{f.Class("A")}},
		NoOp{},
	}.Commit(tree.Root(), nil)

	require.Len(t, created, 2)
	assert.True(t, tree.Root().Branch().IsInconsistent(), "failed base commit marks it")
	assert.Equal(t, KindBranch, created[0].Node.Kind(), "first surviving extra is the branch child")
	assert.Equal(t, KindFork, created[1].Node.Kind())
	assert.IsType(t, NoOp{}, created[1].Action)
}

func TestTree_Agenda(t *testing.T) {
	_, tree, x := setup(t)
	f := tree.Root().ABox().Factory()
	created := ActionList{
		ConceptAdd{Node: x, Terms: []*term.Term{f.Class("A")}},
		ConceptAdd{Node: x, Terms: []*term.Term{f.Class("B")}},
		ConceptAdd{Node: x, Terms: []*term.Term{f.Class("C")}},
	}.Commit(tree.Root(), nil)
	tree.Push(created[1].Node, created[2].Node)
	assert.Equal(t, 2, tree.Pending())

	n, ok := tree.Pop()
	require.True(t, ok)
	assert.Same(t, created[2].Node, n, "last in, first out")
	tree.Abandon(n)
	assert.Len(t, tree.Root().Children(), 1)

	_, _ = tree.Pop()
	_, ok = tree.Pop()
	assert.False(t, ok)
	assert.Equal(t, 1, tree.Stats().Abandoned)
}

func TestClash_String(t *testing.T) {
	f := term.NewFactory()
	assert.Equal(t, "no clash", Clash{}.String())
	c := Clash{Node: 3, Reason: "complementary terms", Terms: []*term.Term{f.Class("A"), f.Not(f.Class("A"))}}
	assert.Equal(t, "node 3: complementary terms [A, ¬A]", c.String())
}
