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
	"cmp"
	"slices"
	"strings"
)

// Compare orders terms totally.
//
// Description:
//
//	Terms are ordered by Kind first. Within a kind: classes by name, nominals
//	by individuals before literals and then by name, Some and All by role then
//	filler, and the remaining kinds by their operand lists lexicographically
//	(a proper prefix sorts first). Distinct canonical terms never compare
//	equal, so Compare(a, b) == 0 exactly when a == b.
//
// Outputs:
//
//	int - negative when a < b, zero when equal, positive when a > b.
func Compare(a, b *Term) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case KindClass:
		return strings.Compare(a.name, b.name)
	case KindNominal:
		if a.literal != b.literal {
			if a.literal {
				return 1
			}
			return -1
		}
		return strings.Compare(a.name, b.name)
	case KindSome, KindAll:
		if c := strings.Compare(string(a.role), string(b.role)); c != 0 {
			return c
		}
		return Compare(a.ops[0], b.ops[0])
	default:
		return slices.CompareFunc(a.ops, b.ops, Compare)
	}
}

// KindFrom returns a predicate selecting terms of kind k or later in the
// total order. It is the lower bound of a kind range query.
func KindFrom(k Kind) func(*Term) bool {
	return func(t *Term) bool { return t.kind >= k }
}

// KindAfter returns a predicate selecting terms strictly after kind k in the
// total order. It is the upper bound of a kind range query.
func KindAfter(k Kind) func(*Term) bool {
	return func(t *Term) bool { return t.kind > k }
}

// containsSorted reports whether t is in ops, which must be in term order.
func containsSorted(ops []*Term, t *Term) bool {
	_, found := slices.BinarySearchFunc(ops, t, Compare)
	return found
}

// subsetSorted reports whether every element of a is in b. Both sorted.
func subsetSorted(a, b []*Term) bool {
	for _, t := range a {
		if !containsSorted(b, t) {
			return false
		}
	}
	return true
}
