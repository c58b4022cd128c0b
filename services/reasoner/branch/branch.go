// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package branch holds the decision tree explored by the tableau driver.
//
// Every tree node owns a Branch: one copy-on-write ABox plus its
// inconsistency state. Non-deterministic rules express their alternatives
// as an ActionList; committing the list reuses the current branch for the
// first alternative and forks cheap clones for the rest.
package branch

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Clash describes why a branch is inconsistent.
type Clash struct {
	// Node is the node the contradiction was found on, 0 when unknown.
	Node abox.NodeID

	// Reason is a short human readable description.
	Reason string

	// Terms are the contradicting terms, when the clash is term based.
	Terms []*term.Term
}

// IsZero reports whether c carries no information.
func (c Clash) IsZero() bool {
	return c.Node == 0 && c.Reason == "" && len(c.Terms) == 0
}

// String renders the clash for logs.
func (c Clash) String() string {
	if c.IsZero() {
		return "no clash"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "node %d: %s", c.Node, c.Reason)
	if len(c.Terms) > 0 {
		parts := make([]string, len(c.Terms))
		for i, t := range c.Terms {
			parts[i] = t.String()
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(parts, ", "))
	}
	return sb.String()
}

// ConsistencyChecker detects clashes. Completers and branch actions consult
// it before and after writing terms.
type ConsistencyChecker interface {
	// IsConsistent checks the label of one node.
	IsConsistent(v abox.View, id abox.NodeID) (bool, Clash)

	// IsExtraConsistent reports whether adding extra to the node could be
	// consistent. False means the addition provably clashes.
	IsExtraConsistent(v abox.View, id abox.NodeID, extra []*term.Term) bool
}

// Branch is one alternative of the search: an ABox and whether it has
// been found inconsistent.
//
// Thread Safety: NOT safe for concurrent use.
type Branch struct {
	abox         *abox.ABox
	inconsistent bool
	clash        Clash
}

// New wraps a as a consistent branch.
func New(a *abox.ABox) *Branch {
	return &Branch{abox: a}
}

// ABox returns the branch's completion graph.
func (b *Branch) ABox() *abox.ABox { return b.abox }

// IsInconsistent reports whether a clash was recorded.
func (b *Branch) IsInconsistent() bool { return b.inconsistent }

// Clash returns the recorded clash.
func (b *Branch) Clash() Clash { return b.clash }

// MarkInconsistent records c. The first clash wins.
func (b *Branch) MarkInconsistent(c Clash) {
	if b.inconsistent {
		return
	}
	b.inconsistent = true
	b.clash = c
}

// fork returns a consistent copy sharing structure with b.
func (b *Branch) fork() *Branch {
	return &Branch{abox: b.abox.Clone()}
}
