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

// Simplify rewrites t bottom-up with the structural identities.
//
// Description:
//
//	Applied identities:
//	  Implies(⊤, A) → A          Implies(⊥, A) → ⊤
//	  Implies(A, A) → ⊤          Implies(A, ⊤) → ⊤
//	  Implies(A ⊔ B, C) → Implies(A, C) ⊓ Implies(B, C)
//	  ¬⊤ → ⊥                     ¬⊥ → ⊤
//	  ⊤ and ⊥ absorption in intersections and unions
//	  flattening of nested intersections and nested unions
//
//	Simplify(Simplify(t)) == Simplify(t).
//
// Outputs:
//
//	*Term - The canonical simplified term.
func (f *Factory) Simplify(t *Term) *Term {
	switch t.kind {
	case KindTop, KindBottom, KindClass, KindNominal:
		return t
	case KindNegation:
		op := f.Simplify(t.ops[0])
		switch op.kind {
		case KindTop:
			return f.bottom
		case KindBottom:
			return f.top
		}
		return f.Not(op)
	case KindIntersection, KindUnion:
		parts := make([]*Term, len(t.ops))
		for i, op := range t.ops {
			parts[i] = f.Simplify(op)
		}
		return f.junction(t.kind, parts)
	case KindSome:
		return f.Some(t.role, f.Simplify(t.ops[0]))
	case KindAll:
		return f.All(t.role, f.Simplify(t.ops[0]))
	case KindImplies:
		return f.simplifyImplies(f.Simplify(t.ops[0]), f.Simplify(t.ops[1]))
	}
	panic(&UnsupportedTermError{Kind: t.kind, Op: "simplify"})
}

// junction combines already simplified parts into an intersection or union,
// absorbing the unit and zero elements and flattening same-kind parts.
func (f *Factory) junction(kind Kind, parts []*Term) *Term {
	unit, zero := f.top, f.bottom
	if kind == KindUnion {
		unit, zero = f.bottom, f.top
	}
	flat := make([]*Term, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == zero:
			return zero
		case p == unit:
			continue
		case p.kind == kind:
			flat = append(flat, p.ops...)
		default:
			flat = append(flat, p)
		}
	}
	if kind == KindUnion {
		return f.Or(flat...)
	}
	return f.And(flat...)
}

func (f *Factory) simplifyImplies(sub, sup *Term) *Term {
	switch {
	case sub == f.top:
		return sup
	case sub == f.bottom, sub == sup, sup == f.top:
		return f.top
	case sub.kind == KindUnion:
		parts := make([]*Term, len(sub.ops))
		for i, d := range sub.ops {
			parts[i] = f.simplifyImplies(d, sup)
		}
		return f.junction(KindIntersection, parts)
	}
	return f.Implies(sub, sup)
}
