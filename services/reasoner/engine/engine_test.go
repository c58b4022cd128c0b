// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/blocking"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/rbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/tbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

type kbBuilder struct {
	f  *term.Factory
	tb *tbox.TBox
	rb *rbox.RBox
	a  *abox.ABox
}

func newKB() *kbBuilder {
	f := term.NewFactory()
	rb := rbox.New()
	return &kbBuilder{
		f:  f,
		tb: tbox.New(f),
		rb: rb,
		a:  abox.New(f, abox.WithSymmetric(rb.IsSymmetric)),
	}
}

func (k *kbBuilder) individual(t *testing.T, name string, terms ...*term.Term) abox.NodeID {
	t.Helper()
	id, err := k.a.GetOrAddNamedNode(name, false)
	require.NoError(t, err)
	_, err = k.a.AddUnfoldedDescriptions(id, terms)
	require.NoError(t, err)
	return id
}

func (k *kbBuilder) reasoner(t *testing.T, budget BudgetConfig) *Reasoner {
	t.Helper()
	r, err := New(KnowledgeBase{Factory: k.f, TBox: k.tb, RBox: k.rb, ABox: k.a}, Options{
		Budget:   budget,
		Blocking: "auto",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return r
}

func modelNode(t *testing.T, res Result, name string) *abox.Node {
	t.Helper()
	require.True(t, res.Consistent)
	require.NotNil(t, res.Model)
	id, ok := res.Model.NamedNode(name, false)
	require.True(t, ok, "individual %s missing from model", name)
	return res.Model.Node(id)
}

func TestScenario_InclusionUnfolds(t *testing.T) {
	k := newKB()
	A, B, C := k.f.Class("A"), k.f.Class("B"), k.f.Class("C")
	require.NoError(t, k.tb.AddInclusion(A, k.f.And(B, C)))
	k.individual(t, "a", A)

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)

	n := modelNode(t, res, "a")
	assert.True(t, n.Contains(A))
	assert.True(t, n.Contains(B))
	assert.True(t, n.Contains(C))
	assert.True(t, res.Clash.IsZero())
	assert.Greater(t, res.Steps, int64(0))
}

func TestScenario_SomeCreatesFreshSuccessor(t *testing.T) {
	k := newKB()
	D := k.f.Class("D")
	a := k.individual(t, "a", k.f.Some("r", D))
	s := k.individual(t, "s")
	require.NoError(t, k.a.AddLink(a, s, "r", true, nil))

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)

	n := modelNode(t, res, "a")
	succ := n.Successors("r")
	require.Len(t, succ, 2)
	assert.Equal(t, 3, res.Model.Len())
	assert.False(t, res.Model.Node(s).Contains(D))

	fresh := succ[0]
	if fresh == s {
		fresh = succ[1]
	}
	assert.True(t, res.Model.Node(fresh).Contains(D))
	assert.True(t, res.Model.Node(fresh).IsAnonymous())
}

func TestScenario_FunctionalReusesSuccessor(t *testing.T) {
	k := newKB()
	require.NoError(t, k.rb.AddRole("r", rbox.Functional))
	D := k.f.Class("D")
	a := k.individual(t, "a", k.f.Some("r", D))
	s := k.individual(t, "s")
	require.NoError(t, k.a.AddLink(a, s, "r", true, nil))

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)

	require.True(t, res.Consistent)
	assert.Equal(t, 2, res.Model.Len(), "no node may be created")
	assert.True(t, modelNode(t, res, "s").Contains(D))
	assert.Equal(t, []abox.NodeID{s}, modelNode(t, res, "a").Successors("r"))
}

func TestScenario_ContradictionCreatesNothing(t *testing.T) {
	k := newKB()
	A := k.f.Class("A")
	a := k.individual(t, "a", k.f.And(A, k.f.Not(A)))

	r := k.reasoner(t, DefaultBudgetConfig())
	res, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Consistent)
	assert.Nil(t, res.Model)
	assert.Equal(t, a, res.Clash.Node)
	assert.Equal(t, 1, res.Tree.Nodes)
	assert.Equal(t, 1, r.KnowledgeBase().ABox.Len())

	ok, err := r.IsConsistent(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReasoner_UnionBacktracks(t *testing.T) {
	k := newKB()
	A, B := k.f.Class("A"), k.f.Class("B")
	k.individual(t, "a", k.f.Or(A, B), k.f.Not(A))

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)
	n := modelNode(t, res, "a")
	assert.True(t, n.Contains(B))
	assert.False(t, n.Contains(A))
}

func TestReasoner_AllBranchesClose(t *testing.T) {
	k := newKB()
	A, B := k.f.Class("A"), k.f.Class("B")
	k.individual(t, "a", k.f.Or(A, B), k.f.Not(A), k.f.Not(B))

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Consistent)
	assert.False(t, res.Clash.IsZero())
}

func TestReasoner_DisjunctionExploresForks(t *testing.T) {
	k := newKB()
	A, B, C := k.f.Class("A"), k.f.Class("B"), k.f.Class("C")
	require.NoError(t, k.tb.AddDisjoint(A, C))
	require.NoError(t, k.tb.AddDisjoint(B, C))
	k.individual(t, "a", k.f.Or(A, B, C), k.f.Not(C))
	k.individual(t, "b", k.f.Or(A, C), C)

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)
	require.True(t, res.Consistent)
	assert.Greater(t, res.Tree.Nodes, 1)
	assert.True(t, modelNode(t, res, "b").Contains(C))
}

func TestReasoner_CyclicInclusionTerminates(t *testing.T) {
	k := newKB()
	A := k.f.Class("A")
	require.NoError(t, k.tb.AddInclusion(A, k.f.Some("r", A)))
	k.individual(t, "a", A)

	res, err := k.reasoner(t, DefaultBudgetConfig()).Check(context.Background())
	require.NoError(t, err)
	require.True(t, res.Consistent)
	assert.Equal(t, 3, res.Model.Len(), "second anonymous node is blocked by the first")
}

func TestReasoner_Queries(t *testing.T) {
	k := newKB()
	A, B, C, E := k.f.Class("A"), k.f.Class("B"), k.f.Class("C"), k.f.Class("E")
	require.NoError(t, k.tb.AddInclusion(A, B))
	require.NoError(t, k.tb.AddInclusion(B, C))
	require.NoError(t, k.tb.AddInclusion(E, k.f.And(A, k.f.Not(C))))
	k.individual(t, "a", A)
	r := k.reasoner(t, DefaultBudgetConfig())
	ctx := context.Background()

	t.Run("satisfiable", func(t *testing.T) {
		ok, err := r.IsSatisfiable(ctx, A)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsSatisfiable(ctx, E)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("subsumption", func(t *testing.T) {
		ok, err := r.IsSubsumedBy(ctx, A, C)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsSubsumedBy(ctx, C, A)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = r.IsSubsumedBy(ctx, k.f.And(A, B), B)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("instance", func(t *testing.T) {
		ok, err := r.IsInstanceOf(ctx, "a", C)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsInstanceOf(ctx, "a", E)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = r.IsInstanceOf(ctx, "nobody", k.f.Top())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("knowledge base untouched", func(t *testing.T) {
		assert.Equal(t, 1, r.KnowledgeBase().ABox.Len())
		assert.True(t, r.KnowledgeBase().ABox.IsFrozen())
	})
}

func TestReasoner_NominalInclusion(t *testing.T) {
	ctx := context.Background()
	newNominalKB := func(t *testing.T) *kbBuilder {
		k := newKB()
		C, D := k.f.Class("C"), k.f.Class("D")
		require.NoError(t, k.tb.AddInclusion(k.f.Nominal("a"), C))
		require.NoError(t, k.tb.AddInclusion(k.f.Or(k.f.Nominal("b"), k.f.Nominal("c")), D))
		return k
	}

	t.Run("instance", func(t *testing.T) {
		k := newNominalKB(t)
		k.individual(t, "a")
		k.individual(t, "c")
		r := k.reasoner(t, DefaultBudgetConfig())

		ok, err := r.IsInstanceOf(ctx, "a", k.f.Class("C"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsInstanceOf(ctx, "c", k.f.Class("D"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsInstanceOf(ctx, "c", k.f.Class("C"))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = r.IsSubsumedBy(ctx, k.f.Nominal("a"), k.f.Class("C"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("contradicted by assertion", func(t *testing.T) {
		k := newNominalKB(t)
		a := k.individual(t, "a", k.f.Not(k.f.Class("C")))

		res, err := k.reasoner(t, DefaultBudgetConfig()).Check(ctx)
		require.NoError(t, err)
		assert.False(t, res.Consistent)
		assert.Equal(t, a, res.Clash.Node)
	})

	t.Run("reached through a merge", func(t *testing.T) {
		k := newNominalKB(t)
		k.individual(t, "x", k.f.Some("r", k.f.Nominal("b")), k.f.All("r", k.f.Not(k.f.Class("D"))))

		ok, err := k.reasoner(t, DefaultBudgetConfig()).IsConsistent(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReasoner_ConcurrentQueries(t *testing.T) {
	k := newKB()
	A, B := k.f.Class("A"), k.f.Class("B")
	require.NoError(t, k.tb.AddInclusion(A, k.f.Or(B, k.f.Some("r", B))))
	k.individual(t, "a", A)
	r := k.reasoner(t, DefaultBudgetConfig())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.IsConsistent(context.Background())
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestReasoner_Errors(t *testing.T) {
	t.Run("invalid knowledge base", func(t *testing.T) {
		_, err := New(KnowledgeBase{}, DefaultOptions())
		assert.ErrorIs(t, err, ErrInvalidKnowledgeBase)
	})

	t.Run("unknown blocking strategy", func(t *testing.T) {
		k := newKB()
		_, err := New(KnowledgeBase{Factory: k.f, TBox: k.tb, RBox: k.rb, ABox: k.a}, Options{Blocking: "psychic"})
		assert.ErrorIs(t, err, blocking.ErrUnknownStrategy)
	})

	t.Run("nil context", func(t *testing.T) {
		k := newKB()
		r := k.reasoner(t, DefaultBudgetConfig())
		//nolint:staticcheck // nil context is the case under test
		_, err := r.IsConsistent(nil)
		assert.ErrorIs(t, err, ErrNilContext)
	})

	t.Run("cancelled context", func(t *testing.T) {
		k := newKB()
		k.individual(t, "a", k.f.Class("A"))
		r := k.reasoner(t, DefaultBudgetConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Check(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("step budget", func(t *testing.T) {
		k := newKB()
		A := k.f.Class("A")
		require.NoError(t, k.tb.AddInclusion(A, k.f.Some("r", A)))
		k.individual(t, "a", A)
		r := k.reasoner(t, BudgetConfig{MaxSteps: 3})

		_, err := r.Check(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStepLimitExceeded)
		assert.ErrorIs(t, err, ErrBudgetExhausted)

		var ce *CheckError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "consistency", ce.Op)
		assert.NotEmpty(t, ce.RunID)
	})
}

func TestBudget(t *testing.T) {
	t.Run("node limit", func(t *testing.T) {
		b := NewBudget(BudgetConfig{MaxNodes: 2})
		assert.NoError(t, b.RecordStep(2, 1))
		assert.ErrorIs(t, b.RecordStep(3, 1), ErrNodeLimitExceeded)
		assert.Equal(t, "nodes", b.ExhaustedBy())
		assert.ErrorIs(t, b.RecordStep(0, 0), ErrNodeLimitExceeded, "exhaustion is sticky")
		assert.Contains(t, b.String(), "EXHAUSTED by nodes")
	})

	t.Run("branch limit", func(t *testing.T) {
		b := NewBudget(BudgetConfig{MaxBranches: 1})
		assert.ErrorIs(t, b.RecordStep(1, 2), ErrBranchLimitExceeded)
	})

	t.Run("time limit", func(t *testing.T) {
		b := NewBudget(BudgetConfig{TimeLimit: time.Nanosecond})
		time.Sleep(time.Millisecond)
		assert.ErrorIs(t, b.RecordStep(1, 1), ErrTimeLimitExceeded)
	})

	t.Run("zero disables limits", func(t *testing.T) {
		b := NewBudget(BudgetConfig{})
		for range 100 {
			require.NoError(t, b.RecordStep(1_000_000, 1_000_000))
		}
		assert.Equal(t, int64(100), b.Steps())
		assert.Empty(t, b.ExhaustedBy())
	})
}
