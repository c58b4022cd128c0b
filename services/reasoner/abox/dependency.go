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
	"slices"

	"github.com/AleutianAI/AleutianTableau/pkg/cow"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Resolver maps a possibly merged NodeID to its live node.
type Resolver func(NodeID) NodeID

// DependencyMap records why derived terms were added.
//
// Description:
//
//	A parent edge child → parent says the child entry was added because of
//	the parent entry. Governing entries are terms added without a
//	deterministic justification, typically the chosen disjunct of a branch,
//	and serve as backtracking anchors. Entries are only ever added.
//
//	Keys are stored under the node they were recorded on. When that node is
//	merged away, MigrateNode moves its keys to the survivor. Values may still
//	name merged nodes, so every query canonicalises through a Resolver.
//
// Thread Safety: NOT safe for concurrent use. Copy-on-write with its ABox.
type DependencyMap struct {
	parents   *cow.MultiMap[TermEntry, TermEntry]
	children  *cow.MultiMap[TermEntry, TermEntry]
	governing *cow.Map[TermEntry, struct{}]
	byNode    *cow.MultiMap[NodeID, *term.Term]
}

// NewDependencyMap creates an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{
		parents:   cow.NewMultiMap[TermEntry, TermEntry](),
		children:  cow.NewMultiMap[TermEntry, TermEntry](),
		governing: cow.NewMap[TermEntry, struct{}](),
		byNode:    cow.NewMultiMap[NodeID, *term.Term](),
	}
}

func (d *DependencyMap) clone() *DependencyMap {
	return &DependencyMap{
		parents:   d.parents.Clone(),
		children:  d.children.Clone(),
		governing: d.governing.Clone(),
		byNode:    d.byNode.Clone(),
	}
}

func (d *DependencyMap) share() {
	d.parents.Share()
	d.children.Share()
	d.governing.Share()
	d.byNode.Share()
}

// AddParent records that entry was derived from parent.
func (d *DependencyMap) AddParent(entry, parent TermEntry) {
	if entry == parent {
		return
	}
	if d.parents.Add(entry, parent) {
		d.children.Add(parent, entry)
		d.byNode.Add(entry.Node, entry.Term)
		d.byNode.Add(parent.Node, parent.Term)
	}
}

// AddGoverningTerm marks entry as a backtracking anchor.
func (d *DependencyMap) AddGoverningTerm(entry TermEntry) {
	d.governing.Set(entry, struct{}{})
	d.byNode.Add(entry.Node, entry.Term)
}

// IsGoverning reports whether entry is a backtracking anchor.
func (d *DependencyMap) IsGoverning(entry TermEntry, resolve Resolver) bool {
	return d.governing.Has(canonical(entry, resolve))
}

// HasParents reports whether any justification was recorded for entry.
func (d *DependencyMap) HasParents(entry TermEntry, resolve Resolver) bool {
	return d.parents.Has(canonical(entry, resolve))
}

// Parents returns the entries entry was derived from.
//
// Description:
//
//	With recursive set the walk follows parents of parents. The walk keeps a
//	visited set keyed by canonical entry, so cycles introduced by merges
//	terminate. The start entry is never part of the result.
//
// Outputs:
//
//	[]TermEntry - Canonical entries sorted by node and term.
func (d *DependencyMap) Parents(entry TermEntry, recursive bool, resolve Resolver) []TermEntry {
	return d.walk(d.parents, entry, recursive, resolve)
}

// Children returns the entries derived from entry, optionally transitively.
func (d *DependencyMap) Children(entry TermEntry, recursive bool, resolve Resolver) []TermEntry {
	return d.walk(d.children, entry, recursive, resolve)
}

func (d *DependencyMap) walk(edges *cow.MultiMap[TermEntry, TermEntry], entry TermEntry, recursive bool, resolve Resolver) []TermEntry {
	start := canonical(entry, resolve)
	visited := map[TermEntry]bool{start: true}
	var out []TermEntry
	queue := []TermEntry{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges.Get(cur) {
			next = canonical(next, resolve)
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			if recursive {
				queue = append(queue, next)
			}
		}
	}
	slices.SortFunc(out, CompareEntries)
	return out
}

// NodeRoots returns the governing entries that the terms of node depend on,
// directly or through parents. Governing entries on node itself count.
func (d *DependencyMap) NodeRoots(node NodeID, resolve Resolver) []TermEntry {
	node = resolveID(node, resolve)
	seen := make(map[TermEntry]bool)
	var out []TermEntry
	add := func(e TermEntry) {
		if !seen[e] && d.governing.Has(e) {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, t := range d.byNode.Get(node) {
		e := TermEntry{Node: node, Term: t}
		add(e)
		for _, p := range d.Parents(e, true, resolve) {
			add(p)
		}
	}
	slices.SortFunc(out, CompareEntries)
	return out
}

// MigrateNode moves every entry recorded on from to to.
func (d *DependencyMap) MigrateNode(from, to NodeID) {
	for _, t := range d.byNode.RemoveKey(from) {
		old := TermEntry{Node: from, Term: t}
		moved := TermEntry{Node: to, Term: t}
		for _, p := range d.parents.RemoveKey(old) {
			if p != moved {
				d.parents.Add(moved, p)
			}
		}
		for _, c := range d.children.RemoveKey(old) {
			if c != moved {
				d.children.Add(moved, c)
			}
		}
		if d.governing.Delete(old) {
			d.governing.Set(moved, struct{}{})
		}
		d.byNode.Add(to, t)
	}
}

func canonical(e TermEntry, resolve Resolver) TermEntry {
	return TermEntry{Node: resolveID(e.Node, resolve), Term: e.Term}
}

func resolveID(id NodeID, resolve Resolver) NodeID {
	if resolve == nil {
		return id
	}
	return resolve(id)
}
