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
	"encoding/binary"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"weak"
)

// termKey identifies a term by its structure. Operands are identified by
// their factory IDs, which are stable while the operand is alive.
type termKey struct {
	kind    Kind
	name    string
	literal bool
	role    Role
	ops     string
}

// Factory interns terms.
//
// Description:
//
//	Every constructor returns the canonical instance for its structural
//	input. Entries are weak: once a term is unreachable it is collected and
//	a runtime cleanup removes its slot. Parents hold their operands strongly,
//	so an operand never dies while a term built from it is alive.
//
// Thread Safety: Safe for concurrent use.
type Factory struct {
	mu     sync.Mutex
	table  map[termKey]weak.Pointer[Term]
	nextID atomic.Uint64

	top    *Term
	bottom *Term
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	f := &Factory{table: make(map[termKey]weak.Pointer[Term])}
	f.top = f.intern(termKey{kind: KindTop}, func() *Term { return &Term{kind: KindTop} })
	f.bottom = f.intern(termKey{kind: KindBottom}, func() *Term { return &Term{kind: KindBottom} })
	return f
}

// Len returns the number of table slots, live or awaiting cleanup.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table)
}

// Top returns the universal concept.
func (f *Factory) Top() *Term { return f.top }

// Bottom returns the empty concept.
func (f *Factory) Bottom() *Term { return f.bottom }

// Class returns the named concept.
func (f *Factory) Class(name string) *Term {
	return f.intern(termKey{kind: KindClass, name: name}, func() *Term {
		return &Term{kind: KindClass, name: name}
	})
}

// Nominal returns the singleton concept of a named individual.
func (f *Factory) Nominal(individual string) *Term {
	return f.intern(termKey{kind: KindNominal, name: individual}, func() *Term {
		return &Term{kind: KindNominal, name: individual}
	})
}

// Literal returns the singleton concept of a literal value.
func (f *Factory) Literal(value string) *Term {
	return f.intern(termKey{kind: KindNominal, name: value, literal: true}, func() *Term {
		return &Term{kind: KindNominal, name: value, literal: true}
	})
}

// Not returns the negation of t.
func (f *Factory) Not(t *Term) *Term {
	return f.composite(KindNegation, "", []*Term{t})
}

// And returns the intersection of ts.
//
// Operands are deduplicated and sorted. No operands yields Top and a single
// operand is returned unchanged.
func (f *Factory) And(ts ...*Term) *Term {
	ops := normalizeOperands(ts)
	switch len(ops) {
	case 0:
		return f.top
	case 1:
		return ops[0]
	}
	return f.composite(KindIntersection, "", ops)
}

// Or returns the union of ts.
//
// Operands are deduplicated and sorted. No operands yields Bottom and a single
// operand is returned unchanged.
func (f *Factory) Or(ts ...*Term) *Term {
	ops := normalizeOperands(ts)
	switch len(ops) {
	case 0:
		return f.bottom
	case 1:
		return ops[0]
	}
	return f.composite(KindUnion, "", ops)
}

// Some returns the existential restriction ∃r.t.
func (f *Factory) Some(r Role, t *Term) *Term {
	return f.composite(KindSome, r, []*Term{t})
}

// All returns the universal restriction ∀r.t.
func (f *Factory) All(r Role, t *Term) *Term {
	return f.composite(KindAll, r, []*Term{t})
}

// Implies returns the general concept inclusion sub ⊑ sup.
func (f *Factory) Implies(sub, sup *Term) *Term {
	return f.composite(KindImplies, "", []*Term{sub, sup})
}

func (f *Factory) composite(kind Kind, role Role, ops []*Term) *Term {
	buf := make([]byte, 0, 8*len(ops))
	for _, op := range ops {
		buf = binary.BigEndian.AppendUint64(buf, op.id)
	}
	key := termKey{kind: kind, role: role, ops: string(buf)}
	return f.intern(key, func() *Term {
		return &Term{kind: kind, role: role, ops: ops}
	})
}

func (f *Factory) intern(key termKey, build func() *Term) *Term {
	f.mu.Lock()
	defer f.mu.Unlock()

	if wp, ok := f.table[key]; ok {
		if t := wp.Value(); t != nil {
			return t
		}
	}
	t := build()
	t.id = f.nextID.Add(1)
	f.table[key] = weak.Make(t)
	runtime.AddCleanup(t, f.evict, key)
	return t
}

// evict removes a slot whose term has been collected. A slot that has been
// re-filled by a newer live term is kept.
func (f *Factory) evict(key termKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if wp, ok := f.table[key]; ok && wp.Value() == nil {
		delete(f.table, key)
	}
}

func normalizeOperands(ts []*Term) []*Term {
	ops := slices.Clone(ts)
	slices.SortFunc(ops, Compare)
	return slices.Compact(ops)
}
