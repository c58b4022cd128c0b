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

// ToNNF returns the negation normal form of t.
//
// Description:
//
//	Simplifies t, pushes every negation inward until it only applies to
//	classes and nominals, then simplifies the result:
//	  ¬¬A → A              ¬(A ⊓ B) → ¬A ⊔ ¬B     ¬(A ⊔ B) → ¬A ⊓ ¬B
//	  ¬∃r.A → ∀r.¬A        ¬∀r.A → ∃r.¬A          ¬(A ⊑ B) → A ⊓ ¬B
//	  ¬⊤ → ⊥               ¬⊥ → ⊤
//	Classes and nominals are unchanged under negation: ¬A stays ¬A.
//	ToNNF(ToNNF(t)) == ToNNF(t). Results are cached on the input term.
//
// Outputs:
//
//	*Term - The canonical NNF term.
//
// Panics with *UnsupportedTermError on a kind it does not know.
//
// Thread Safety: Safe for concurrent use.
func (f *Factory) ToNNF(t *Term) *Term {
	if cached := t.nnf.Load(); cached != nil {
		return cached
	}
	r := f.Simplify(f.nnf(f.Simplify(t), false))
	t.nnf.Store(r)
	r.nnf.Store(r)
	return r
}

// Negate returns the NNF of ¬t.
func (f *Factory) Negate(t *Term) *Term {
	return f.ToNNF(f.Not(t))
}

func (f *Factory) nnf(t *Term, neg bool) *Term {
	switch t.kind {
	case KindTop:
		if neg {
			return f.bottom
		}
		return t
	case KindBottom:
		if neg {
			return f.top
		}
		return t
	case KindClass, KindNominal:
		if neg {
			return f.Not(t)
		}
		return t
	case KindNegation:
		return f.nnf(t.ops[0], !neg)
	case KindIntersection, KindUnion:
		parts := make([]*Term, len(t.ops))
		for i, op := range t.ops {
			parts[i] = f.nnf(op, neg)
		}
		if (t.kind == KindIntersection) != neg {
			return f.And(parts...)
		}
		return f.Or(parts...)
	case KindSome:
		if neg {
			return f.All(t.role, f.nnf(t.ops[0], true))
		}
		return f.Some(t.role, f.nnf(t.ops[0], false))
	case KindAll:
		if neg {
			return f.Some(t.role, f.nnf(t.ops[0], true))
		}
		return f.All(t.role, f.nnf(t.ops[0], false))
	case KindImplies:
		if neg {
			return f.And(f.nnf(t.ops[0], false), f.nnf(t.ops[1], true))
		}
		return f.Implies(f.nnf(t.ops[0], false), f.nnf(t.ops[1], false))
	}
	panic(&UnsupportedTermError{Kind: t.kind, Op: "nnf"})
}

// IsSyntacticNegation reports whether a is syntactically the negation of b.
//
// False means "not determined", not "not a negation".
func (f *Factory) IsSyntacticNegation(a, b *Term) bool {
	return f.ToNNF(a) == f.Negate(b)
}

// IsSyntacticSubClass reports whether a ⊑ b follows from the structure of
// the two terms alone.
//
// Description:
//
//	Fast path ahead of a full tableau subsumption test. Both terms are put in
//	NNF and then checked for: equality, b = ⊤, a = ⊥, b being a conjunct of
//	a, every conjunct of b being a conjunct of a, a being a disjunct of b,
//	every disjunct of a being a disjunct of b, and a conjunct of a being a
//	disjunct of b.
//
// Outputs:
//
//	bool - True when subsumption is certain. False means "not determined".
func (f *Factory) IsSyntacticSubClass(a, b *Term) bool {
	na, nb := f.ToNNF(a), f.ToNNF(b)
	if na == nb || nb == f.top || na == f.bottom {
		return true
	}
	if na.kind == KindIntersection {
		if containsSorted(na.ops, nb) {
			return true
		}
		if nb.kind == KindIntersection && subsetSorted(nb.ops, na.ops) {
			return true
		}
		if nb.kind == KindUnion {
			for _, c := range na.ops {
				if containsSorted(nb.ops, c) {
					return true
				}
			}
		}
	}
	if nb.kind == KindUnion {
		if containsSorted(nb.ops, na) {
			return true
		}
		if na.kind == KindUnion && subsetSorted(na.ops, nb.ops) {
			return true
		}
	}
	return false
}
