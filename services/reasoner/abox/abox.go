// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package abox

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/AleutianAI/AleutianTableau/pkg/cow"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// nameKey separates individual names from literal values.
type nameKey struct {
	name     string
	datatype bool
}

// idSource hands out NodeIDs to every ABox of one lineage.
type idSource struct {
	last atomic.Uint32
}

func (s *idSource) next() NodeID {
	return NodeID(s.last.Add(1))
}

// tokenSource numbers ownership tokens for debugging output.
var tokenSource atomic.Uint64

func newToken() *token {
	return &token{n: tokenSource.Add(1)}
}

// Option configures an ABox.
type Option func(*ABox)

// WithSymmetric sets the predicate deciding which roles are symmetric.
// Links with a symmetric role are mirrored by AddLink.
func WithSymmetric(isSymmetric func(term.Role) bool) Option {
	return func(a *ABox) {
		a.isSymmetric = isSymmetric
	}
}

// ABox is the mutable completion graph of one branch.
type ABox struct {
	f           *term.Factory
	isSymmetric func(term.Role) bool

	tok    *token
	frozen bool
	ids    *idSource

	nodes     *cow.Map[NodeID, *Node]
	names     *cow.Map[nameKey, NodeID]
	merged    *cow.Map[NodeID, NodeID]
	different *cow.MultiMap[NodeID, NodeID]
	dirty     *cow.Map[NodeID, struct{}]
	deps      *DependencyMap
	blocks    *BlockCache

	generation uint64
}

// New creates an empty ABox whose terms come from f.
func New(f *term.Factory, opts ...Option) *ABox {
	a := &ABox{
		f:         f,
		tok:       newToken(),
		ids:       &idSource{},
		nodes:     cow.NewMap[NodeID, *Node](),
		names:     cow.NewMap[nameKey, NodeID](),
		merged:    cow.NewMap[NodeID, NodeID](),
		different: cow.NewMultiMap[NodeID, NodeID](),
		dirty:     cow.NewMap[NodeID, struct{}](),
		deps:      NewDependencyMap(),
		blocks:    NewBlockCache(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ View = (*ABox)(nil)

// Factory returns the term factory.
func (a *ABox) Factory() *term.Factory { return a.f }

// Clone returns an independent copy in O(1).
//
// Description:
//
//	Both the receiver and the copy receive fresh ownership tokens, so
//	neither mutates shared nodes in place. A frozen receiver is not
//	modified at all, which makes concurrent clones of it safe.
//
// Outputs:
//
//	*ABox - The copy. Never frozen.
func (a *ABox) Clone() *ABox {
	if !a.frozen {
		a.tok = newToken()
		a.share()
	}
	return &ABox{
		f:           a.f,
		isSymmetric: a.isSymmetric,
		tok:         newToken(),
		ids:         a.ids,
		nodes:       a.nodes.Clone(),
		names:       a.names.Clone(),
		merged:      a.merged.Clone(),
		different:   a.different.Clone(),
		dirty:       a.dirty.Clone(),
		deps:        a.deps.clone(),
		blocks:      a.blocks.clone(),
		generation:  a.generation,
	}
}

// Snapshot returns a frozen copy. It does not observe later mutations of a.
func (a *ABox) Snapshot() View {
	c := a.Clone()
	c.Freeze()
	return c
}

// Freeze makes the ABox read-only.
func (a *ABox) Freeze() {
	if a.frozen {
		return
	}
	a.frozen = true
	a.tok = nil
	a.share()
}

// IsFrozen reports whether Freeze was called.
func (a *ABox) IsFrozen() bool { return a.frozen }

func (a *ABox) share() {
	a.nodes.Share()
	a.names.Share()
	a.merged.Share()
	a.different.Share()
	a.dirty.Share()
	a.deps.share()
	a.blocks.share()
}

// Dependencies returns the dependency map of this ABox.
func (a *ABox) Dependencies() *DependencyMap { return a.deps }

// Blocks returns the blocking cache of this ABox.
func (a *ABox) Blocks() *BlockCache { return a.blocks }

// Generation increases on every mutation.
func (a *ABox) Generation() uint64 { return a.generation }

// Len returns the number of live nodes.
func (a *ABox) Len() int { return a.nodes.Len() }

// Resolve follows merges from id to the live node that absorbed it.
func (a *ABox) Resolve(id NodeID) NodeID {
	for {
		next, ok := a.merged.Get(id)
		if !ok {
			return id
		}
		id = next
	}
}

// Node returns the live node for id after following merges, or nil.
func (a *ABox) Node(id NodeID) *Node {
	n, _ := a.nodes.Get(a.Resolve(id))
	return n
}

// NodeIDs returns the live node IDs in ascending order.
func (a *ABox) NodeIDs() []NodeID {
	ids := a.nodes.Keys()
	slices.Sort(ids)
	return ids
}

// NamedNode returns the node standing for an individual or literal.
func (a *ABox) NamedNode(name string, datatype bool) (NodeID, bool) {
	id, ok := a.names.Get(nameKey{name: name, datatype: datatype})
	if !ok {
		return 0, false
	}
	return a.Resolve(id), true
}

// AreDifferent reports whether two nodes are asserted distinct.
func (a *ABox) AreDifferent(x, y NodeID) bool {
	x, y = a.Resolve(x), a.Resolve(y)
	return slices.Contains(a.different.Get(x), y)
}

// TakeDirty returns the live nodes changed since the previous call, in
// ascending order, and resets the set.
func (a *ABox) TakeDirty() []NodeID {
	if a.dirty.Len() == 0 {
		return nil
	}
	seen := make(map[NodeID]bool, a.dirty.Len())
	out := make([]NodeID, 0, a.dirty.Len())
	a.dirty.Range(func(id NodeID, _ struct{}) bool {
		id = a.Resolve(id)
		if !seen[id] && a.nodes.Has(id) {
			seen[id] = true
			out = append(out, id)
		}
		return true
	})
	slices.Sort(out)
	a.dirty = cow.NewMap[NodeID, struct{}]()
	return out
}

// touch records a change to id: bumps the generation, marks the node dirty
// and drops blocking decisions it influenced.
func (a *ABox) touch(id NodeID) {
	a.generation++
	a.dirty.Set(id, struct{}{})
	a.blocks.Invalidate(id)
}

// mut returns a node of this ABox that may be written in place.
func (a *ABox) mut(id NodeID) (*Node, error) {
	if a.frozen {
		return nil, ErrFrozen
	}
	id = a.Resolve(id)
	n, ok := a.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	if n.owner != a.tok {
		n = n.clone(a.tok)
		a.nodes.Set(id, n)
	}
	return n, nil
}

// CreateNode adds an anonymous node.
func (a *ABox) CreateNode(datatype bool) (NodeID, error) {
	if a.frozen {
		return 0, ErrFrozen
	}
	id := a.ids.next()
	a.nodes.Set(id, newNode(id, a.tok, datatype))
	a.touch(id)
	return id, nil
}

// GetOrAddNamedNode returns the node standing for an individual (or, with
// datatype set, a literal value), creating it when absent.
func (a *ABox) GetOrAddNamedNode(name string, datatype bool) (NodeID, error) {
	if id, ok := a.NamedNode(name, datatype); ok {
		return id, nil
	}
	id, err := a.CreateNode(datatype)
	if err != nil {
		return 0, err
	}
	n, err := a.mut(id)
	if err != nil {
		return 0, err
	}
	n.names.Add(name)
	a.names.Set(nameKey{name: name, datatype: datatype}, id)
	return id, nil
}

// CreateSuccessor adds an anonymous node reached from parent through role.
//
// Description:
//
//	The new node records parent as its generating ancestor. The edge is
//	derived and remembers cause, the existential that produced it.
func (a *ABox) CreateSuccessor(parent NodeID, role term.Role, datatype bool, cause *term.Term) (NodeID, error) {
	parent = a.Resolve(parent)
	if !a.nodes.Has(parent) {
		return 0, fmt.Errorf("%w: %d", ErrNodeNotFound, parent)
	}
	id, err := a.CreateNode(datatype)
	if err != nil {
		return 0, err
	}
	n, err := a.mut(id)
	if err != nil {
		return 0, err
	}
	n.parent = parent
	if err := a.AddLink(parent, id, role, false, cause); err != nil {
		return 0, err
	}
	return id, nil
}

// AddLink adds the edge from -role-> to, and its mirror for symmetric roles.
//
// Outputs:
//
//	error - ErrNodeNotFound when either end is missing.
func (a *ABox) AddLink(from, to NodeID, role term.Role, asserted bool, cause *term.Term) error {
	from, to = a.Resolve(from), a.Resolve(to)
	if err := a.addEdge(from, to, role, asserted, cause); err != nil {
		return err
	}
	if a.isSymmetric != nil && a.isSymmetric(role) && from != to {
		return a.addEdge(to, from, role, asserted, cause)
	}
	return nil
}

func (a *ABox) addEdge(from, to NodeID, role term.Role, asserted bool, cause *term.Term) error {
	src, err := a.mut(from)
	if err != nil {
		return err
	}
	dst, err := a.mut(to)
	if err != nil {
		return err
	}
	out := Link{Dir: Outgoing, Role: role, Peer: to, Asserted: asserted, Cause: cause}
	in := Link{Dir: Incoming, Role: role, Peer: from, Asserted: asserted, Cause: cause}
	changed := upsertLink(src, out)
	changed = upsertLink(dst, in) || changed
	if changed {
		a.touch(from)
		a.touch(to)
	}
	return nil
}

// upsertLink adds l, upgrading an existing derived edge to asserted.
func upsertLink(n *Node, l Link) bool {
	if n.links.Add(l) {
		return true
	}
	if !l.Asserted {
		return false
	}
	for _, existing := range n.links.Items() {
		if compareLinks(existing, l) == 0 && !existing.Asserted {
			n.links.Remove(existing)
			n.links.Add(l)
			return true
		}
	}
	return false
}

// AddUnfoldedDescription adds t, in NNF, to the node id.
//
// Description:
//
//	Adding a nominal {x} forces the node to be x, so the node is merged with
//	the named node of x. The result names the node now holding t.
//
// Outputs:
//
//	MergeInfo - Current node, merged nodes, and whether anything changed.
//	error - *MergeError when a forced merge is impossible. The ABox may be
//	        partially updated; the caller abandons the branch.
func (a *ABox) AddUnfoldedDescription(id NodeID, t *term.Term) (MergeInfo, error) {
	id = a.Resolve(id)
	t = a.f.ToNNF(t)
	info := MergeInfo{Current: id}

	n, err := a.mut(id)
	if err != nil {
		return info, err
	}
	if n.terms.Add(t) {
		info.Changed = true
		a.touch(id)
	}
	if t.Kind() == term.KindNominal {
		mi, err := a.settleNominal(id, t)
		info.combine(mi)
		if err != nil {
			return info, err
		}
	}
	return info, nil
}

// AddUnfoldedDescriptions adds every term, following the node through any
// merge the additions cause.
func (a *ABox) AddUnfoldedDescriptions(id NodeID, ts []*term.Term) (MergeInfo, error) {
	info := MergeInfo{Current: a.Resolve(id)}
	for _, t := range ts {
		mi, err := a.AddUnfoldedDescription(info.Current, t)
		info.combine(mi)
		if err != nil {
			return info, err
		}
	}
	return info, nil
}

// settleNominal merges id with the named node the nominal t denotes.
func (a *ABox) settleNominal(id NodeID, t *term.Term) (MergeInfo, error) {
	target, err := a.GetOrAddNamedNode(t.Name(), t.IsLiteral())
	if err != nil {
		return MergeInfo{Current: id}, err
	}
	return a.MergeNodes(id, target)
}

// AssertDifferent records that x and y denote distinct individuals.
func (a *ABox) AssertDifferent(x, y NodeID) error {
	if a.frozen {
		return ErrFrozen
	}
	x, y = a.Resolve(x), a.Resolve(y)
	if x == y {
		return &MergeError{A: x, B: y, Reason: "node asserted different from itself"}
	}
	a.different.Add(x, y)
	a.different.Add(y, x)
	a.generation++
	return nil
}
