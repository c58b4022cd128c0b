// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package term

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTerms builds a varied set of terms covering every kind.
func sampleTerms(f *Factory) []*Term {
	a, b, c := f.Class("A"), f.Class("B"), f.Class("C")
	x := f.Nominal("x")
	lit := f.Literal("42")
	return []*Term{
		f.Top(), f.Bottom(), a, b, c, x, lit,
		f.Not(a), f.Not(x), f.Not(f.Not(b)),
		f.And(a, b), f.And(a, b, c), f.And(b, c),
		f.Or(a, b), f.Or(a, f.Not(c)),
		f.Some("r", a), f.Some("r", b), f.Some("s", a),
		f.All("r", a), f.All("s", f.Or(a, b)),
		f.Implies(a, b), f.Implies(b, a), f.Implies(f.Or(a, b), c),
		f.Some("r", f.And(a, f.All("s", c))),
	}
}

func TestFactory_Canonical(t *testing.T) {
	f := NewFactory()

	t.Run("structurally equal terms are identical", func(t *testing.T) {
		assert.Same(t, f.Class("A"), f.Class("A"))
		assert.Same(t, f.Some("r", f.Class("A")), f.Some("r", f.Class("A")))
		assert.Same(t, f.And(f.Class("A"), f.Class("B")), f.And(f.Class("B"), f.Class("A")))
		assert.NotSame(t, f.Some("r", f.Class("A")), f.All("r", f.Class("A")))
		assert.NotSame(t, f.Nominal("a"), f.Literal("a"))
	})

	t.Run("degenerate junctions", func(t *testing.T) {
		assert.Same(t, f.Top(), f.And())
		assert.Same(t, f.Bottom(), f.Or())
		assert.Same(t, f.Class("A"), f.And(f.Class("A"), f.Class("A")))
	})

	t.Run("operands are sorted", func(t *testing.T) {
		u := f.Or(f.Some("r", f.Class("Z")), f.Class("B"), f.Class("A"))
		require.Len(t, u.Operands(), 3)
		assert.True(t, slices.IsSortedFunc(u.Operands(), Compare))
		assert.Equal(t, "A", u.Operands()[0].Name())
	})
}

func TestFactory_ConcurrentInterning(t *testing.T) {
	f := NewFactory()
	const workers = 16
	results := make([]*Term, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.Some("r", f.And(f.Class("A"), f.Not(f.Class("B"))))
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	f := NewFactory()
	terms := sampleTerms(f)

	for _, a := range terms {
		for _, b := range terms {
			ab, ba := Compare(a, b), Compare(b, a)
			if a == b {
				assert.Zero(t, ab, "%s vs itself", a)
				continue
			}
			assert.NotZero(t, ab, "%s vs %s", a, b)
			assert.Equal(t, ab < 0, ba > 0, "antisymmetry %s vs %s", a, b)
			for _, c := range terms {
				if ab < 0 && Compare(b, c) < 0 {
					assert.Negative(t, Compare(a, c), "transitivity %s < %s < %s", a, b, c)
				}
			}
		}
	}
}

func TestCompare_KindRanks(t *testing.T) {
	f := NewFactory()
	ordered := []*Term{
		f.Top(), f.Bottom(), f.Class("Z"), f.Nominal("a"), f.Not(f.Class("A")),
		f.And(f.Class("A"), f.Class("B")), f.Or(f.Class("A"), f.Class("B")),
		f.Some("a", f.Class("A")), f.All("a", f.Class("A")), f.Implies(f.Class("A"), f.Class("B")),
	}
	assert.True(t, slices.IsSortedFunc(ordered, Compare))
	assert.Negative(t, Compare(f.Nominal("z"), f.Literal("a")), "individuals sort before literals")
}

func TestSimplify_Identities(t *testing.T) {
	f := NewFactory()
	a, b, c := f.Class("A"), f.Class("B"), f.Class("C")

	tests := []struct {
		name string
		in   *Term
		want *Term
	}{
		{"implies top", f.Implies(f.Top(), a), a},
		{"implies bottom", f.Implies(f.Bottom(), a), f.Top()},
		{"implies self", f.Implies(a, a), f.Top()},
		{"implies to top", f.Implies(a, f.Top()), f.Top()},
		{"implies union", f.Implies(f.Or(a, b), c), f.And(f.Implies(a, c), f.Implies(b, c))},
		{"implies union absorbs", f.Implies(f.Or(a, b), b), f.Implies(a, b)},
		{"not top", f.Not(f.Top()), f.Bottom()},
		{"not bottom", f.Not(f.Bottom()), f.Top()},
		{"and absorbs bottom", f.And(a, f.Bottom()), f.Bottom()},
		{"and drops top", f.And(a, f.Top()), a},
		{"or absorbs top", f.Or(a, f.Top()), f.Top()},
		{"or drops bottom", f.Or(a, f.Bottom()), a},
		{"flatten and", f.And(a, f.And(b, c)), f.And(a, b, c)},
		{"flatten or", f.Or(f.Or(a, b), c), f.Or(a, b, c)},
		{"nested inside some", f.Some("r", f.And(a, f.Top())), f.Some("r", a)},
		{"atom unchanged", a, a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, f.Simplify(tt.in), "got %s", f.Simplify(tt.in))
		})
	}
}

func TestSimplify_Idempotent(t *testing.T) {
	f := NewFactory()
	for _, tm := range sampleTerms(f) {
		once := f.Simplify(tm)
		assert.Same(t, once, f.Simplify(once), "simplify(%s)", tm)
	}
}

func TestToNNF(t *testing.T) {
	f := NewFactory()
	a, b := f.Class("A"), f.Class("B")

	t.Run("de morgan", func(t *testing.T) {
		got := f.ToNNF(f.Not(f.And(a, b)))
		assert.Same(t, f.Or(f.ToNNF(f.Not(a)), f.ToNNF(f.Not(b))), got)

		got = f.ToNNF(f.Not(f.Or(a, b)))
		assert.Same(t, f.And(f.ToNNF(f.Not(a)), f.ToNNF(f.Not(b))), got)
	})

	t.Run("quantifier duality", func(t *testing.T) {
		assert.Same(t, f.All("r", f.ToNNF(f.Not(a))), f.ToNNF(f.Not(f.Some("r", a))))
		assert.Same(t, f.Some("r", f.ToNNF(f.Not(a))), f.ToNNF(f.Not(f.All("r", a))))
	})

	t.Run("atoms unchanged under negation", func(t *testing.T) {
		assert.Same(t, f.Not(a), f.ToNNF(f.Not(a)))
		assert.Same(t, f.Not(f.Nominal("x")), f.ToNNF(f.Not(f.Nominal("x"))))
		assert.Same(t, a, f.ToNNF(f.Not(f.Not(a))))
	})

	t.Run("negated implication", func(t *testing.T) {
		assert.Same(t, f.And(a, f.Not(b)), f.ToNNF(f.Not(f.Implies(a, b))))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, tm := range sampleTerms(f) {
			once := f.ToNNF(tm)
			assert.Same(t, once, f.ToNNF(once), "nnf(%s)", tm)
			assertNNF(t, once)
		}
	})
}

// assertNNF fails when a negation applies to anything but an atom.
func assertNNF(t *testing.T, tm *Term) {
	t.Helper()
	if tm.Kind() == KindNegation {
		assert.True(t, tm.IsNegatedAtom(), "negation of non-atom in %s", tm)
		return
	}
	for _, op := range tm.Operands() {
		assertNNF(t, op)
	}
}

func TestSyntacticChecks(t *testing.T) {
	f := NewFactory()
	a, b, c := f.Class("A"), f.Class("B"), f.Class("C")

	assert.True(t, f.IsSyntacticNegation(f.Not(a), a))
	assert.True(t, f.IsSyntacticNegation(f.All("r", f.Not(a)), f.Some("r", a)))
	assert.False(t, f.IsSyntacticNegation(a, b))

	subs := []struct {
		name     string
		sub, sup *Term
		want     bool
	}{
		{"reflexive", a, a, true},
		{"top", a, f.Top(), true},
		{"bottom", f.Bottom(), a, true},
		{"conjunct", f.And(a, b), a, true},
		{"conjunct subset", f.And(a, b, c), f.And(a, c), true},
		{"disjunct", a, f.Or(a, b), true},
		{"disjunct subset", f.Or(a, b), f.Or(a, b, c), true},
		{"conjunct in disjunction", f.And(a, b), f.Or(b, c), true},
		{"undetermined", a, b, false},
		{"undetermined reverse", a, f.And(a, b), false},
	}
	for _, tt := range subs {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsSyntacticSubClass(tt.sub, tt.sup))
		})
	}
}

func TestUnsupportedTermError(t *testing.T) {
	err := error(&UnsupportedTermError{Kind: Kind(99), Op: "nnf"})
	assert.True(t, errors.Is(err, ErrUnsupportedTerm))
	assert.Contains(t, err.Error(), "kind(99)")

	f := NewFactory()
	bogus := &Term{kind: Kind(99)}
	want := &UnsupportedTermError{Kind: Kind(99), Op: "simplify"}
	assert.PanicsWithError(t, want.Error(), func() { f.ToNNF(bogus) })
}

func TestTerm_String(t *testing.T) {
	f := NewFactory()
	tm := f.Some("r", f.And(f.Class("A"), f.Not(f.Nominal("x"))))
	assert.Equal(t, "∃r.(A ⊓ ¬{x})", tm.String())
	assert.Equal(t, `"42"`, f.Literal("42").String())
	assert.Equal(t, "(A ⊑ B)", f.Implies(f.Class("A"), f.Class("B")).String())
}
