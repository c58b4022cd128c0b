// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/engine"
)

const familyDoc = `
name: family
roles:
  - name: hasChild
axioms:
  - kind: subclass
    sub: Mother
    sup: {and: [Parent, Female]}
  - kind: equivalent
    classes: [Parent, {some: {role: hasChild}}]
assertions:
  - kind: type
    individual: alice
    concept: Mother
  - kind: relation
    subject: alice
    role: hasChild
    object: bob
`

const brokenDoc = `
name: broken
axioms:
  - kind: disjoint
    classes: [Male, Female]
assertions:
  - kind: type
    individual: pat
    concept: {and: [Male, Female]}
`

// execute runs the CLI with quiet logging and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "family.yaml", familyDoc)
	bad := writeDoc(t, dir, "nested/broken.yaml", brokenDoc)

	t.Run("consistent", func(t *testing.T) {
		out, err := execute(t, "check", good)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "yes\t"+good+"\n"), out)
		assert.Contains(t, out, "stats\t")
	})

	t.Run("inconsistent via glob", func(t *testing.T) {
		out, err := execute(t, "check", filepath.Join(dir, "**", "*.yaml"))
		assert.ErrorIs(t, err, errNegative)
		assert.Contains(t, out, "yes\t"+good)
		assert.Contains(t, out, "no\t"+bad)
		assert.Contains(t, out, "individual pat")
	})

	t.Run("no match", func(t *testing.T) {
		_, err := execute(t, "check", filepath.Join(dir, "*.owl"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, errNegative)
	})
}

func TestCheck_ContradictoryTypeAssertion(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "apart.yaml", `
assertions:
  - kind: different
    individuals: [a, b]
  - kind: type
    individual: a
    concept: {oneOf: [b]}
`)
	out, err := execute(t, "check", path)
	assert.ErrorIs(t, err, errNegative)
	assert.Contains(t, out, "no\t"+path)
	assert.Contains(t, out, "individual a")
}

func TestCheck_StepBudget(t *testing.T) {
	t.Setenv("TABLEAU_MAX_STEPS", "1")
	path := writeDoc(t, t.TempDir(), "family.yaml", familyDoc)
	_, err := execute(t, "check", path)
	assert.ErrorIs(t, err, engine.ErrStepLimitExceeded)
}

func TestClassify(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "family.yaml", familyDoc)
	out, err := execute(t, "classify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sub\tMother\tFemale\n")
	assert.Contains(t, out, "sub\tMother\tParent\n")
	assert.Contains(t, out, "sub\tParent\tThing\n")
	assert.Contains(t, out, "classes=3")
}

func TestSubsumes(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "family.yaml", familyDoc)

	out, err := execute(t, "subsumes", path, "Mother", "Parent")
	require.NoError(t, err)
	assert.Equal(t, "yes\tMother ⊑ Parent\n", out)

	out, err = execute(t, "subsumes", path, "Parent", "Mother")
	assert.ErrorIs(t, err, errNegative)
	assert.Equal(t, "no\tParent ⊑ Mother\n", out)

	_, err = execute(t, "subsumes", path, "Mother")
	assert.Error(t, err)
}

func TestInstance(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "family.yaml", familyDoc)

	_, err := execute(t, "instance", path, "alice", "Parent")
	require.NoError(t, err)

	_, err = execute(t, "instance", path, "bob", "Parent")
	assert.ErrorIs(t, err, errNegative)

	_, err = execute(t, "instance", path, "alice", "{min: 2}")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNegative)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := writeDoc(t, dir, "tableau.yaml", "blocking:\n  strategy: telepathic\n")
	path := writeDoc(t, dir, "family.yaml", familyDoc)
	_, err := execute(t, "--config", cfg, "check", path)
	assert.Error(t, err)
}

func TestChildrenOf(t *testing.T) {
	tax := &engine.Taxonomy{
		Parents: map[string][]string{
			"A": {"B", "D"},
			"B": {"C"},
			"D": {"C"},
			"C": {engine.ThingName},
		},
		Equivalents: map[string][]string{"B": {"D"}, "D": {"B"}},
	}
	assert.Equal(t, map[string][]string{
		"B":              {"A"},
		"C":              {"B"},
		engine.ThingName: {"C"},
	}, childrenOf(tax))
}
