// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tbox stores concept inclusions in the three shapes the completers
// consume.
//
// Every inclusion sub ⊑ sup is normalised through Simplify and ToNNF and then
// filed as one of:
//
//   - unfoldable: sub is a class or nominal, so sup is added lazily to
//     nodes that already contain sub
//   - universal: sub is ⊤, so sup holds on every node
//   - general: anything else, internalised as an Implies term on every node
package tbox

import (
	"errors"
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// ErrFrozen is returned when modifying a frozen TBox.
var ErrFrozen = errors.New("tbox is frozen")

// TBox is the terminological box.
//
// Thread Safety: Safe for concurrent reads after Freeze.
type TBox struct {
	f *term.Factory

	unfold    map[*term.Term][]*term.Term
	universal []*term.Term
	general   []*term.Term
	classes   map[string]struct{}
	axioms    int
	frozen    bool
}

// New creates an empty TBox whose terms come from f.
func New(f *term.Factory) *TBox {
	return &TBox{
		f:       f,
		unfold:  make(map[*term.Term][]*term.Term),
		classes: make(map[string]struct{}),
	}
}

// Freeze makes the TBox read-only.
func (b *TBox) Freeze() { b.frozen = true }

// AddInclusion records sub ⊑ sup.
//
// Description:
//
//	The inclusion is normalised as Implies(sub, sup). Trivial inclusions
//	vanish, inclusions whose left side is a union split into one inclusion
//	per disjunct, and each remaining part is filed by its left side.
//
// Outputs:
//
//	error - ErrFrozen after Freeze.
func (b *TBox) AddInclusion(sub, sup *term.Term) error {
	if b.frozen {
		return ErrFrozen
	}
	b.axioms++
	b.collectClasses(sub)
	b.collectClasses(sup)

	n := b.f.ToNNF(b.f.Implies(sub, sup))
	parts := []*term.Term{n}
	if n.Kind() == term.KindIntersection {
		parts = n.Operands()
	}
	for _, p := range parts {
		b.file(p)
	}
	return nil
}

// AddEquivalent records x ≡ y as two inclusions.
func (b *TBox) AddEquivalent(x, y *term.Term) error {
	if err := b.AddInclusion(x, y); err != nil {
		return err
	}
	return b.AddInclusion(y, x)
}

// AddDisjoint records that x and y share no instances.
func (b *TBox) AddDisjoint(x, y *term.Term) error {
	return b.AddInclusion(x, b.f.Not(y))
}

func (b *TBox) file(p *term.Term) {
	switch {
	case p == b.f.Top():
		return
	case p.Kind() != term.KindImplies:
		if !slices.Contains(b.universal, p) {
			b.universal = append(b.universal, p)
		}
	case p.Sub().Kind() == term.KindClass || p.Sub().Kind() == term.KindNominal:
		sub := p.Sub()
		if !slices.Contains(b.unfold[sub], p.Sup()) {
			b.unfold[sub] = append(b.unfold[sub], p.Sup())
		}
	default:
		if !slices.Contains(b.general, p) {
			b.general = append(b.general, p)
		}
	}
}

// Unfold returns the terms implied by the atom t.
func (b *TBox) Unfold(t *term.Term) []*term.Term {
	return b.unfold[t]
}

// Universal returns the terms that hold on every node.
func (b *TBox) Universal() []*term.Term {
	return b.universal
}

// General returns the internalised inclusions as Implies terms.
func (b *TBox) General() []*term.Term {
	return b.general
}

// Classes returns every class name mentioned by an inclusion, sorted.
func (b *TBox) Classes() []string {
	out := make([]string, 0, len(b.classes))
	for c := range b.classes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of inclusions added.
func (b *TBox) Len() int { return b.axioms }

// Factory returns the term factory of this TBox.
func (b *TBox) Factory() *term.Factory { return b.f }

// NoteClass records a class name seen outside an inclusion, e.g. in an
// assertion, so it takes part in classification.
func (b *TBox) NoteClass(name string) {
	b.classes[name] = struct{}{}
}

func (b *TBox) collectClasses(t *term.Term) {
	if t.Kind() == term.KindClass {
		b.classes[t.Name()] = struct{}{}
		return
	}
	for _, op := range t.Operands() {
		b.collectClasses(op)
	}
}
