// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package term implements the concept expressions manipulated by the tableau.
//
// # Canonical Terms
//
// Terms are immutable and hash-consed by a Factory: building a structurally
// equal term twice yields the same pointer. Equality is pointer equality and
// *Term is usable as a map key. The factory holds its entries weakly, so terms
// no longer referenced anywhere are collected and their table slots pruned.
//
// # Total Order
//
// Compare orders terms first by Kind and then by structure. Every term set in
// the reasoner is sorted by this order, which is what lets a node enumerate
// "all Some terms" or "all Intersection terms" as a contiguous range.
//
//	Top < Bottom < Class < Nominal < Negation < Intersection < Union < Some < All < Implies
//
// # Normal Forms
//
// Simplify applies the absorption and flattening identities. ToNNF pushes
// negation down to atoms and nominals. Both are idempotent, and ToNNF results
// are cached on the term.
//
// # Thread Safety
//
// Factory is safe for concurrent use. Terms are immutable.
package term
