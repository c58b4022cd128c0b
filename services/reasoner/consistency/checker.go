// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package consistency detects clashes in node labels.
package consistency

import (
	"slices"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/branch"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Clash reasons reported by Checker.
const (
	ReasonBottom        = "bottom"
	ReasonComplement    = "complementary terms"
	ReasonNegatedName   = "node negates its own name"
	ReasonLiteralValues = "distinct literal values"
	ReasonValueKind     = "data value on individual"
)

// Checker finds clashes within a single node label.
//
// Description:
//
//	A label clashes when it contains ⊥, a term together with its negation,
//	a negated nominal naming the node itself, more than one literal value,
//	or a nominal of the wrong kind for the node (an individual on a data
//	value node, or the reverse).
//
// Thread Safety: Safe for concurrent use; Checker has no state.
type Checker struct{}

var _ branch.ConsistencyChecker = Checker{}

// IsConsistent implements branch.ConsistencyChecker.
func (Checker) IsConsistent(v abox.View, id abox.NodeID) (bool, branch.Clash) {
	n := v.Node(id)
	if n == nil {
		return true, branch.Clash{}
	}
	id = n.ID()
	terms := n.Terms()
	f := v.Factory()

	if terms.Contains(f.Bottom()) {
		return false, branch.Clash{Node: id, Reason: ReasonBottom, Terms: []*term.Term{f.Bottom()}}
	}
	for _, neg := range terms.OfKind(term.KindNegation) {
		op := neg.Operand()
		if terms.Contains(op) {
			return false, branch.Clash{Node: id, Reason: ReasonComplement, Terms: []*term.Term{op, neg}}
		}
		if op.Kind() == term.KindNominal && op.IsLiteral() == n.IsDatatype() && slices.Contains(n.Names(), op.Name()) {
			return false, branch.Clash{Node: id, Reason: ReasonNegatedName, Terms: []*term.Term{neg}}
		}
	}

	var literal *term.Term
	for _, nom := range terms.OfKind(term.KindNominal) {
		if nom.IsLiteral() != n.IsDatatype() {
			return false, branch.Clash{Node: id, Reason: ReasonValueKind, Terms: []*term.Term{nom}}
		}
		if !nom.IsLiteral() {
			continue
		}
		if literal != nil {
			return false, branch.Clash{Node: id, Reason: ReasonLiteralValues, Terms: []*term.Term{literal, nom}}
		}
		literal = nom
	}
	return true, branch.Clash{}
}

// IsExtraConsistent implements branch.ConsistencyChecker.
//
// Description:
//
//	Checks the extra terms against the node label and against each other
//	without writing anything. Only syntactic clashes are detected, so true
//	does not guarantee consistency.
func (Checker) IsExtraConsistent(v abox.View, id abox.NodeID, extra []*term.Term) bool {
	n := v.Node(id)
	if n == nil {
		return false
	}
	f := v.Factory()
	nnf := make([]*term.Term, len(extra))
	for i, t := range extra {
		nnf[i] = f.ToNNF(t)
	}
	has := func(t *term.Term) bool {
		return n.Contains(t) || slices.Contains(nnf, t)
	}
	for _, t := range nnf {
		if t == f.Bottom() {
			return false
		}
		switch t.Kind() {
		case term.KindNegation, term.KindClass, term.KindNominal:
			if has(f.Negate(t)) {
				return false
			}
		}
		if t.Kind() == term.KindNominal && t.IsLiteral() != n.IsDatatype() {
			return false
		}
	}
	return true
}
