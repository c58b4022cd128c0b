// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

var quiet = Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

const family = `
name: family
roles:
  - name: hasChild
    properties: [object]
    domain: Parent
  - name: hasDescendant
    properties: [transitive]
  - name: age
    properties: [functional, data]
axioms:
  - kind: subroles-are-separate
  - kind: subrole
    subrole: hasChild
    role: hasDescendant
  - kind: subclass
    sub: Mother
    sup: {and: [Parent, Female]}
  - kind: equivalent
    classes: [Parent, {some: {role: hasChild, concept: Thing}}]
  - kind: disjoint
    classes: [Male, Female]
assertions:
  - kind: type
    individual: alice
    concept: Mother
  - kind: relation
    subject: alice
    role: hasChild
    object: bob
  - kind: value
    subject: bob
    role: age
    value: "7"
  - kind: different
    individuals: [alice, bob]
`

func TestParse_Family(t *testing.T) {
	o, err := Parse([]byte(family), quiet)
	require.NoError(t, err)

	assert.Equal(t, "family", o.Name)
	f := o.Factory

	assert.True(t, o.RBox.IsSubRole("hasChild", "hasDescendant"))
	assert.True(t, o.RBox.IsTransitive("hasDescendant"))
	assert.True(t, o.RBox.IsFunctional("age"))
	assert.True(t, o.RBox.IsDataProperty("age"))
	assert.Equal(t, []*term.Term{f.Class("Parent")}, o.RBox.Domains("hasChild"))

	assert.Contains(t, o.TBox.Unfold(f.Class("Mother")), f.And(f.Class("Parent"), f.Class("Female")))
	assert.Contains(t, o.TBox.Classes(), "Male")

	alice, ok := o.ABox.NamedNode("alice", false)
	require.True(t, ok)
	bob, ok := o.ABox.NamedNode("bob", false)
	require.True(t, ok)
	seven, ok := o.ABox.NamedNode("7", true)
	require.True(t, ok)

	assert.True(t, o.ABox.Node(alice).Contains(f.Class("Mother")))
	assert.Equal(t, []abox.NodeID{bob}, o.ABox.Node(alice).Successors("hasChild"))
	assert.Equal(t, []abox.NodeID{seven}, o.ABox.Node(bob).Successors("age"))
	assert.True(t, o.ABox.Node(seven).IsDatatype())
	assert.True(t, o.ABox.AreDifferent(alice, bob))

	require.Len(t, o.Skipped, 1)
	var ae *AxiomError
	require.True(t, errors.As(o.Skipped[0], &ae))
	assert.Equal(t, "axioms", ae.Section)
	assert.Equal(t, 0, ae.Index)
	assert.ErrorIs(t, ae, ErrUnsupportedAxiom)
}

func TestParse_StrictAxioms(t *testing.T) {
	opts := quiet
	opts.StrictAxioms = true
	_, err := Parse([]byte(family), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedAxiom)
}

func TestParse_UnsupportedConstructor(t *testing.T) {
	doc := `
axioms:
  - kind: subclass
    sub: A
    sup: {min: {n: 2, role: r}}
  - kind: subclass
    sub: A
    sup: B
`
	o, err := Parse([]byte(doc), quiet)
	require.NoError(t, err)
	assert.Len(t, o.Skipped, 1)
	assert.Equal(t, 1, o.TBox.Len())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"role without name", "roles:\n  - properties: [functional]\n"},
		{"bad property", "roles:\n  - name: r\n    properties: [reflexive]\n"},
		{"axiom without kind", "axioms:\n  - sub: A\n    sup: B\n"},
		{"type without concept", "assertions:\n  - kind: type\n    individual: a\n"},
		{"relation without object", "assertions:\n  - kind: relation\n    subject: a\n    role: r\n"},
		{"unknown assertion", "assertions:\n  - kind: negative-relation\n"},
		{"single individual", "assertions:\n  - kind: same\n    individuals: [a]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), quiet)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}

	_, err := Parse([]byte("axioms: [unterminated"), quiet)
	assert.Error(t, err)
}

func TestParse_RoleKindConflict(t *testing.T) {
	doc := `
roles:
  - name: r
    properties: [object, data]
`
	_, err := Parse([]byte(doc), quiet)
	var ae *AxiomError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "roles", ae.Section)
}

func TestParse_SameContradiction(t *testing.T) {
	doc := `
assertions:
  - kind: different
    individuals: [a, b]
  - kind: same
    individuals: [a, b]
`
	o, err := Parse([]byte(doc), quiet)
	require.NoError(t, err)
	a, _ := o.ABox.NamedNode("a", false)
	assert.True(t, o.ABox.Node(a).Contains(o.Factory.Bottom()))
}

func TestParse_TypeForcesImpossibleMerge(t *testing.T) {
	doc := `
assertions:
  - kind: different
    individuals: [a, b]
  - kind: type
    individual: a
    concept: {oneOf: [b]}
`
	o, err := Parse([]byte(doc), quiet)
	require.NoError(t, err)
	a, ok := o.ABox.NamedNode("a", false)
	require.True(t, ok)
	b, ok := o.ABox.NamedNode("b", false)
	require.True(t, ok)
	assert.NotEqual(t, a, b, "different individuals stay apart")
	assert.True(t, o.ABox.Node(a).Contains(o.Factory.Bottom()))
}

func TestConcept_Decode(t *testing.T) {
	f := term.NewFactory()
	b := &builder{o: &Ontology{Factory: f}, logger: slog.Default()}

	tests := []struct {
		src  string
		want *term.Term
	}{
		{"Thing", f.Top()},
		{"Nothing", f.Bottom()},
		{"A", f.Class("A")},
		{"{class: A}", f.Class("A")},
		{"{not: A}", f.Not(f.Class("A"))},
		{"{and: [A, B]}", f.And(f.Class("A"), f.Class("B"))},
		{"{or: [A, {not: B}]}", f.Or(f.Class("A"), f.Not(f.Class("B")))},
		{"{some: {role: r, concept: A}}", f.Some("r", f.Class("A"))},
		{"{some: {role: r}}", f.Some("r", f.Top())},
		{"{all: {role: r, concept: A}}", f.All("r", f.Class("A"))},
		{"{oneOf: [a, b]}", f.Or(f.Nominal("a"), f.Nominal("b"))},
		{"{value: {role: r, individual: a}}", f.Some("r", f.Nominal("a"))},
		{"{implies: [A, B]}", f.Implies(f.Class("A"), f.Class("B"))},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var c Concept
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &c))
			got, err := b.concept(&c)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}

	var c Concept
	assert.Error(t, yaml.Unmarshal([]byte("{and: [A], or: [B]}"), &c))
	assert.Error(t, yaml.Unmarshal([]byte("{implies: [A]}"), &c))
	assert.Error(t, yaml.Unmarshal([]byte("[A, B]"), &c))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(family), 0o600))

	o, err := Load(path, quiet)
	require.NoError(t, err)
	assert.Equal(t, path, o.Source)

	_, err = Load(filepath.Join(dir, "missing.yaml"), quiet)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.json")
	doc := `{"name": "j", "axioms": [{"kind": "subclass", "sub": "A", "sup": {"not": "B"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	o, err := Load(path, quiet)
	require.NoError(t, err)
	f := o.Factory
	assert.Contains(t, o.TBox.Unfold(f.Class("A")), f.Not(f.Class("B")))
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.yaml", "nested/b.yaml", "nested/deeper/c.yaml", "nested/skip.txt"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("name: x\n"), 0o600))
	}

	got, err := Glob([]string{filepath.Join(dir, "**", "*.yaml"), filepath.Join(dir, "a.yaml")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yaml"),
		filepath.Join(dir, "nested", "deeper", "c.yaml"),
	}, got)

	_, err = Glob([]string{filepath.Join(dir, "*.owl")})
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = Glob([]string{filepath.Join(dir, "[")})
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "kb.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("name: a\n"), 0o600))

	var mu sync.Mutex
	var batches [][]string
	w, err := NewWatcher([]string{watched}, 20*time.Millisecond, func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, paths)
	}, quiet.Logger)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(other, []byte("name: b\n"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("name: c\n"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("name: d\n"), 0o600))

	abs, err := filepath.Abs(watched)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, b := range batches {
		assert.Equal(t, []string{abs}, b)
	}

	w.Stop()
	w.Stop()
}

func TestOntology_ParseConcept(t *testing.T) {
	o, err := Parse([]byte(family), quiet)
	require.NoError(t, err)
	f := o.Factory

	got, err := o.ParseConcept("Mother")
	require.NoError(t, err)
	assert.Same(t, f.Class("Mother"), got)

	got, err = o.ParseConcept("{some: {role: hasChild, concept: {not: Male}}}")
	require.NoError(t, err)
	assert.Same(t, f.Some("hasChild", f.Not(f.Class("Male"))), got)

	_, err = o.ParseConcept("{min: 2}")
	assert.ErrorIs(t, err, ErrUnsupportedAxiom)

	_, err = o.ParseConcept("{and: [A")
	assert.Error(t, err)
}
