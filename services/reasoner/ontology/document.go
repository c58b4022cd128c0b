// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ontology reads ontology documents and builds the knowledge base
// the reasoner works on.
//
// A document is YAML (JSON is accepted as a YAML subset):
//
//	name: family
//	roles:
//	  - name: hasParent
//	    properties: [object]
//	    range: Person
//	  - name: hasAncestor
//	    properties: [transitive]
//	    super: []
//	axioms:
//	  - kind: subclass
//	    sub: Parent
//	    sup: {some: {role: hasChild, concept: Person}}
//	  - kind: disjoint
//	    classes: [Male, Female]
//	assertions:
//	  - kind: type
//	    individual: alice
//	    concept: Female
//	  - kind: relation
//	    subject: alice
//	    role: hasChild
//	    object: bob
//
// Concepts are either a scalar (a class name, Thing or Nothing) or a map
// with exactly one key: class, not, and, or, some, all, oneOf, value or
// implies.
package ontology

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Axiom kinds understood by the builder.
const (
	AxiomSubClass   = "subclass"
	AxiomEquivalent = "equivalent"
	AxiomDisjoint   = "disjoint"
	AxiomDomain     = "domain"
	AxiomRange      = "range"
	AxiomSubRole    = "subrole"
)

// Assertion kinds understood by the builder.
const (
	AssertType      = "type"
	AssertRelation  = "relation"
	AssertValue     = "value"
	AssertDifferent = "different"
	AssertSame      = "same"
)

// Document is the decoded form of one ontology file.
type Document struct {
	Name       string      `yaml:"name"`
	Roles      []RoleDecl  `yaml:"roles" validate:"dive"`
	Axioms     []Axiom     `yaml:"axioms" validate:"dive"`
	Assertions []Assertion `yaml:"assertions" validate:"dive"`
}

// RoleDecl declares a role with its characteristics.
type RoleDecl struct {
	Name       string   `yaml:"name" validate:"required"`
	Properties []string `yaml:"properties" validate:"dive,oneof=functional transitive symmetric data dataproperty datatype object objectproperty"`
	Super      []string `yaml:"super" validate:"dive,required"`
	Domain     *Concept `yaml:"domain"`
	Range      *Concept `yaml:"range"`
}

// Axiom is one terminological statement. Which fields apply depends on
// Kind.
type Axiom struct {
	Kind    string    `yaml:"kind" validate:"required"`
	Sub     *Concept  `yaml:"sub"`
	Sup     *Concept  `yaml:"sup"`
	Classes []Concept `yaml:"classes"`
	Role    string    `yaml:"role"`
	SubRole string    `yaml:"subrole"`
	Concept *Concept  `yaml:"concept"`
}

// Assertion is one statement about individuals.
type Assertion struct {
	Kind        string   `yaml:"kind" validate:"required,oneof=type relation value different same"`
	Individual  string   `yaml:"individual" validate:"required_if=Kind type"`
	Concept     *Concept `yaml:"concept" validate:"required_if=Kind type"`
	Subject     string   `yaml:"subject" validate:"required_if=Kind relation,required_if=Kind value"`
	Role        string   `yaml:"role" validate:"required_if=Kind relation,required_if=Kind value"`
	Object      string   `yaml:"object" validate:"required_if=Kind relation"`
	Value       string   `yaml:"value" validate:"required_if=Kind value"`
	Individuals []string `yaml:"individuals" validate:"omitempty,min=2,dive,required"`
}

// Restriction is the operand of some and all.
type Restriction struct {
	Role    string   `yaml:"role"`
	Concept *Concept `yaml:"concept"`
}

// ValueRestriction is ∃role.{individual} or ∃role.{literal}.
type ValueRestriction struct {
	Role       string `yaml:"role"`
	Individual string `yaml:"individual"`
	Literal    string `yaml:"literal"`
}

// Concept is a concept expression as written in a document.
//
// Exactly one field is set after decoding. Unknown constructors decode
// without error and are reported when the concept is built, so one
// unsupported axiom can be skipped without rejecting the document.
type Concept struct {
	Name    string
	Not     *Concept
	And     []Concept
	Or      []Concept
	Some    *Restriction
	All     *Restriction
	OneOf   []string
	Value   *ValueRestriction
	Implies []Concept

	// Unsupported names a constructor the builder does not understand.
	Unsupported string
}

// UnmarshalYAML decodes a scalar class name or a single-key map.
func (c *Concept) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		c.Name = n.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: concept must be a name or a map", n.Line)
	}
	if len(n.Content) != 2 {
		return fmt.Errorf("line %d: concept map must have exactly one key, got %d", n.Line, len(n.Content)/2)
	}

	key, val := n.Content[0].Value, n.Content[1]
	switch key {
	case "class":
		return val.Decode(&c.Name)
	case "not":
		c.Not = &Concept{}
		return val.Decode(c.Not)
	case "and":
		return val.Decode(&c.And)
	case "or":
		return val.Decode(&c.Or)
	case "some":
		c.Some = &Restriction{}
		return val.Decode(c.Some)
	case "all":
		c.All = &Restriction{}
		return val.Decode(c.All)
	case "oneOf":
		return val.Decode(&c.OneOf)
	case "value":
		c.Value = &ValueRestriction{}
		return val.Decode(c.Value)
	case "implies":
		if err := val.Decode(&c.Implies); err != nil {
			return err
		}
		if len(c.Implies) != 2 {
			return fmt.Errorf("line %d: implies takes two concepts", n.Line)
		}
		return nil
	}
	c.Unsupported = key
	return nil
}
