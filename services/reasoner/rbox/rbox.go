// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rbox holds role declarations: the role hierarchy, role
// characteristics, and domain and range restrictions.
//
// # Lifecycle
//
//  1. Build with AddRole, AddSubRole, AddDomain and AddRange.
//  2. Call Freeze once ingestion is complete.
//  3. Query from any number of goroutines.
//
// Queries before Freeze are allowed from the building goroutine only.
package rbox

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Sentinel errors for role box operations.
var (
	// ErrFrozen is returned when modifying a frozen role box.
	ErrFrozen = errors.New("role box is frozen")

	// ErrRoleKindConflict is returned when a role is declared both an object
	// property and a data property.
	ErrRoleKindConflict = errors.New("role declared both object and data property")

	// ErrEmptyRole is returned for a role with an empty name.
	ErrEmptyRole = errors.New("empty role name")
)

// Property is a role characteristic.
type Property uint8

const (
	Functional Property = 1 << iota
	Transitive
	Symmetric
	DataProperty
	ObjectProperty
)

// String returns the property name.
func (p Property) String() string {
	var names []string
	for _, c := range []struct {
		p    Property
		name string
	}{
		{Functional, "functional"},
		{Transitive, "transitive"},
		{Symmetric, "symmetric"},
		{DataProperty, "data"},
		{ObjectProperty, "object"},
	} {
		if p&c.p != 0 {
			names = append(names, c.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseProperty maps a property name to its flag.
func ParseProperty(s string) (Property, bool) {
	switch strings.ToLower(s) {
	case "functional":
		return Functional, true
	case "transitive":
		return Transitive, true
	case "symmetric":
		return Symmetric, true
	case "data", "dataproperty", "datatype":
		return DataProperty, true
	case "object", "objectproperty":
		return ObjectProperty, true
	}
	return 0, false
}

type roleInfo struct {
	props   Property
	supers  []term.Role
	domains []*term.Term
	ranges  []*term.Term
}

// RBox is the role box.
//
// Thread Safety: Safe for concurrent reads after Freeze. Building is
// single-goroutine.
type RBox struct {
	roles  map[term.Role]*roleInfo
	frozen bool

	// closure caches the reflexive-transitive super roles per role. Filled
	// lazily and guarded by mu, since readers run concurrently after Freeze.
	mu      sync.RWMutex
	closure map[term.Role][]term.Role
}

// New creates an empty role box.
func New() *RBox {
	return &RBox{
		roles:   make(map[term.Role]*roleInfo),
		closure: make(map[term.Role][]term.Role),
	}
}

// Freeze makes the role box read-only.
func (b *RBox) Freeze() { b.frozen = true }

// IsFrozen reports whether Freeze was called.
func (b *RBox) IsFrozen() bool { return b.frozen }

func (b *RBox) info(r term.Role) (*roleInfo, error) {
	if b.frozen {
		return nil, ErrFrozen
	}
	if r == "" {
		return nil, ErrEmptyRole
	}
	ri, ok := b.roles[r]
	if !ok {
		ri = &roleInfo{}
		b.roles[r] = ri
	}
	return ri, nil
}

// AddRole declares r with the given characteristics.
func (b *RBox) AddRole(r term.Role, props ...Property) error {
	if _, err := b.info(r); err != nil {
		return err
	}
	for _, p := range props {
		if err := b.SetRoleProperty(r, p); err != nil {
			return err
		}
	}
	return nil
}

// SetRoleProperty adds characteristic p to r.
func (b *RBox) SetRoleProperty(r term.Role, p Property) error {
	ri, err := b.info(r)
	if err != nil {
		return err
	}
	next := ri.props | p
	if next&DataProperty != 0 && next&ObjectProperty != 0 {
		return fmt.Errorf("%w: %s", ErrRoleKindConflict, r)
	}
	ri.props = next
	return nil
}

// AddSubRole declares sub ⊑ sup.
func (b *RBox) AddSubRole(sub, sup term.Role) error {
	ri, err := b.info(sub)
	if err != nil {
		return err
	}
	if _, err := b.info(sup); err != nil {
		return err
	}
	if !slices.Contains(ri.supers, sup) {
		ri.supers = append(ri.supers, sup)
	}
	b.mu.Lock()
	clear(b.closure)
	b.mu.Unlock()
	return nil
}

// AddDomain declares that every r-subject is an instance of t.
func (b *RBox) AddDomain(r term.Role, t *term.Term) error {
	ri, err := b.info(r)
	if err != nil {
		return err
	}
	if !slices.Contains(ri.domains, t) {
		ri.domains = append(ri.domains, t)
	}
	return nil
}

// AddRange declares that every r-object is an instance of t.
func (b *RBox) AddRange(r term.Role, t *term.Term) error {
	ri, err := b.info(r)
	if err != nil {
		return err
	}
	if !slices.Contains(ri.ranges, t) {
		ri.ranges = append(ri.ranges, t)
	}
	return nil
}

// Roles returns the declared roles in name order.
func (b *RBox) Roles() []term.Role {
	out := make([]term.Role, 0, len(b.roles))
	for r := range b.roles {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// SuperRoles returns every role s with r ⊑ s, r included, in name order.
func (b *RBox) SuperRoles(r term.Role) []term.Role {
	b.mu.RLock()
	cached, ok := b.closure[r]
	b.mu.RUnlock()
	if ok {
		return cached
	}

	seen := map[term.Role]bool{r: true}
	stack := []term.Role{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ri, ok := b.roles[cur]; ok {
			for _, s := range ri.supers {
				if !seen[s] {
					seen[s] = true
					stack = append(stack, s)
				}
			}
		}
	}
	out := make([]term.Role, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)

	b.mu.Lock()
	b.closure[r] = out
	b.mu.Unlock()
	return out
}

// SubRoles returns every role s with s ⊑ r, r included, in name order.
func (b *RBox) SubRoles(r term.Role) []term.Role {
	out := []term.Role{r}
	for s := range b.roles {
		if s != r && b.IsSubRole(s, r) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// IsSubRole reports whether sub ⊑ sup holds in the reflexive-transitive
// closure of the declared hierarchy.
func (b *RBox) IsSubRole(sub, sup term.Role) bool {
	if sub == sup {
		return true
	}
	_, found := slices.BinarySearch(b.SuperRoles(sub), sup)
	return found
}

func (b *RBox) has(r term.Role, p Property) bool {
	ri, ok := b.roles[r]
	return ok && ri.props&p != 0
}

// IsFunctional reports whether r or one of its super roles is functional.
func (b *RBox) IsFunctional(r term.Role) bool {
	for _, s := range b.SuperRoles(r) {
		if b.has(s, Functional) {
			return true
		}
	}
	return false
}

// IsTransitive reports whether r is transitive.
func (b *RBox) IsTransitive(r term.Role) bool { return b.has(r, Transitive) }

// IsSymmetric reports whether r is symmetric.
func (b *RBox) IsSymmetric(r term.Role) bool { return b.has(r, Symmetric) }

// IsDataProperty reports whether r or one of its super roles is a data
// property.
func (b *RBox) IsDataProperty(r term.Role) bool {
	for _, s := range b.SuperRoles(r) {
		if b.has(s, DataProperty) {
			return true
		}
	}
	return false
}

// HasSymmetricRoles reports whether any role is symmetric.
func (b *RBox) HasSymmetricRoles() bool {
	for _, ri := range b.roles {
		if ri.props&Symmetric != 0 {
			return true
		}
	}
	return false
}

// Domains returns the domain restrictions of r and of its super roles.
func (b *RBox) Domains(r term.Role) []*term.Term {
	return b.collect(r, func(ri *roleInfo) []*term.Term { return ri.domains })
}

// Ranges returns the range restrictions of r and of its super roles.
func (b *RBox) Ranges(r term.Role) []*term.Term {
	return b.collect(r, func(ri *roleInfo) []*term.Term { return ri.ranges })
}

func (b *RBox) collect(r term.Role, pick func(*roleInfo) []*term.Term) []*term.Term {
	var out []*term.Term
	for _, s := range b.SuperRoles(r) {
		ri, ok := b.roles[s]
		if !ok {
			continue
		}
		for _, t := range pick(ri) {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	slices.SortFunc(out, term.Compare)
	return out
}
