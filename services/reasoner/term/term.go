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
	"strconv"
	"strings"
	"sync/atomic"
)

// Kind identifies the constructor of a term.
//
// The numeric value is the position of the kind in the total term order.
type Kind uint8

const (
	KindTop Kind = iota
	KindBottom
	KindClass
	KindNominal
	KindNegation
	KindIntersection
	KindUnion
	KindSome
	KindAll
	KindImplies
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTop:
		return "top"
	case KindBottom:
		return "bottom"
	case KindClass:
		return "class"
	case KindNominal:
		return "nominal"
	case KindNegation:
		return "negation"
	case KindIntersection:
		return "intersection"
	case KindUnion:
		return "union"
	case KindSome:
		return "some"
	case KindAll:
		return "all"
	case KindImplies:
		return "implies"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Role names a binary relation. Role semantics live in the RBox.
type Role string

// Term is a canonical concept expression.
//
// Terms are only created through a Factory. Two terms built from equal
// structure by the same factory are the same pointer.
type Term struct {
	kind    Kind
	id      uint64
	name    string
	literal bool
	role    Role
	ops     []*Term

	// nnf caches ToNNF of this term.
	nnf atomic.Pointer[Term]
}

// Kind returns the constructor of t.
func (t *Term) Kind() Kind { return t.kind }

// ID returns the factory-assigned identity of t.
//
// IDs are unique among live terms of one factory. They carry no ordering
// meaning; use Compare for ordering.
func (t *Term) ID() uint64 { return t.id }

// Name returns the class name, or the individual name or literal value of a
// nominal. Empty for other kinds.
func (t *Term) Name() string { return t.name }

// IsLiteral reports whether a nominal denotes a literal value.
func (t *Term) IsLiteral() bool { return t.literal }

// Role returns the role of a Some or All term.
func (t *Term) Role() Role { return t.role }

// Operand returns the operand of a Negation, or the filler of Some and All.
func (t *Term) Operand() *Term {
	if len(t.ops) == 0 {
		return nil
	}
	return t.ops[0]
}

// Filler returns the filler of a Some or All term.
func (t *Term) Filler() *Term { return t.Operand() }

// Operands returns the operands in term order. Must not be modified.
func (t *Term) Operands() []*Term { return t.ops[:len(t.ops):len(t.ops)] }

// Sub returns the left-hand side of an Implies term.
func (t *Term) Sub() *Term {
	if t.kind != KindImplies {
		return nil
	}
	return t.ops[0]
}

// Sup returns the right-hand side of an Implies term.
func (t *Term) Sup() *Term {
	if t.kind != KindImplies {
		return nil
	}
	return t.ops[1]
}

// IsAtomic reports whether t is Top, Bottom, a class or a nominal.
func (t *Term) IsAtomic() bool {
	return t.kind <= KindNominal
}

// IsNegatedAtom reports whether t is the negation of a class or nominal.
func (t *Term) IsNegatedAtom() bool {
	return t.kind == KindNegation && t.ops[0].IsAtomic()
}

// String renders t in description logic notation.
func (t *Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	switch t.kind {
	case KindTop:
		b.WriteString("⊤")
	case KindBottom:
		b.WriteString("⊥")
	case KindClass:
		b.WriteString(t.name)
	case KindNominal:
		if t.literal {
			b.WriteString(strconv.Quote(t.name))
			return
		}
		b.WriteString("{")
		b.WriteString(t.name)
		b.WriteString("}")
	case KindNegation:
		b.WriteString("¬")
		t.ops[0].write(b)
	case KindIntersection, KindUnion:
		sep := " ⊓ "
		if t.kind == KindUnion {
			sep = " ⊔ "
		}
		b.WriteString("(")
		for i, op := range t.ops {
			if i > 0 {
				b.WriteString(sep)
			}
			op.write(b)
		}
		b.WriteString(")")
	case KindSome, KindAll:
		if t.kind == KindSome {
			b.WriteString("∃")
		} else {
			b.WriteString("∀")
		}
		b.WriteString(string(t.role))
		b.WriteString(".")
		t.ops[0].write(b)
	case KindImplies:
		b.WriteString("(")
		t.ops[0].write(b)
		b.WriteString(" ⊑ ")
		t.ops[1].write(b)
		b.WriteString(")")
	default:
		b.WriteString(t.kind.String())
	}
}
