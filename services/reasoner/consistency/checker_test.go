// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

func TestChecker_IsConsistent(t *testing.T) {
	f := term.NewFactory()
	A, B := f.Class("A"), f.Class("B")

	tests := []struct {
		name       string
		named      string
		datatype   bool
		terms      []*term.Term
		wantOK     bool
		wantReason string
	}{
		{name: "empty", wantOK: true},
		{name: "unrelated atoms", terms: []*term.Term{A, f.Not(B)}, wantOK: true},
		{name: "bottom", terms: []*term.Term{A, f.Bottom()}, wantReason: ReasonBottom},
		{name: "complement", terms: []*term.Term{A, f.Not(A)}, wantReason: ReasonComplement},
		{name: "negated own name", named: "x", terms: []*term.Term{f.Not(f.Nominal("x"))}, wantReason: ReasonNegatedName},
		{name: "negated other name", named: "x", terms: []*term.Term{f.Not(f.Nominal("y"))}, wantOK: true},
		{name: "unsplit disjunction is not a clash", terms: []*term.Term{f.Or(A, B), f.Not(A), f.Not(B)}, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := abox.New(f)
			var id abox.NodeID
			var err error
			if tt.named != "" {
				id, err = a.GetOrAddNamedNode(tt.named, tt.datatype)
			} else {
				id, err = a.CreateNode(tt.datatype)
			}
			require.NoError(t, err)
			_, err = a.AddUnfoldedDescriptions(id, tt.terms)
			require.NoError(t, err)

			ok, clash := Checker{}.IsConsistent(a, id)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantReason, clash.Reason)
				assert.Equal(t, id, clash.Node)
			} else {
				assert.True(t, clash.IsZero())
			}
		})
	}
}

func TestChecker_IsExtraConsistent(t *testing.T) {
	f := term.NewFactory()
	A, B := f.Class("A"), f.Class("B")
	a := abox.New(f)
	x, _ := a.CreateNode(false)
	_, err := a.AddUnfoldedDescription(x, A)
	require.NoError(t, err)

	c := Checker{}
	assert.True(t, c.IsExtraConsistent(a, x, []*term.Term{B}))
	assert.False(t, c.IsExtraConsistent(a, x, []*term.Term{f.Not(A)}), "clash with the label")
	assert.False(t, c.IsExtraConsistent(a, x, []*term.Term{B, f.Not(B)}), "clash among the extras")
	assert.False(t, c.IsExtraConsistent(a, x, []*term.Term{f.Bottom()}))
	assert.False(t, c.IsExtraConsistent(a, x, []*term.Term{f.Literal("1")}), "data value on an individual")
	assert.False(t, c.IsExtraConsistent(a, 999, []*term.Term{B}), "missing node")
	assert.False(t, c.IsExtraConsistent(a, x, []*term.Term{f.Not(f.Not(f.Not(A)))}), "extras are normalised")
}
