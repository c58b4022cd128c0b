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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/rbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/tbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// Names of the top and bottom concepts in documents.
const (
	ThingName   = "Thing"
	NothingName = "Nothing"
)

// Options controls how documents are turned into an ontology.
type Options struct {
	// StrictAxioms makes unsupported axioms fatal instead of skipped.
	StrictAxioms bool

	// Logger receives warnings about skipped axioms. Nil uses slog.Default.
	Logger *slog.Logger
}

// Ontology is a loaded knowledge base. The four parts share Factory.
type Ontology struct {
	Name    string
	Source  string
	Factory *term.Factory
	TBox    *tbox.TBox
	RBox    *rbox.RBox
	ABox    *abox.ABox

	// Skipped holds one *AxiomError per unsupported axiom that was left out.
	Skipped []error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and builds the ontology document at path.
func Load(path string, opts Options) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ontology: %w", err)
	}
	o, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o.Source = path
	return o, nil
}

// Parse decodes, validates and builds one ontology document.
//
// Description:
//
//	Roles are declared first, so role characteristics are known before any
//	axiom mentions the role. Then axioms, then assertions.
//
// Outputs:
//
//	*Ontology - The knowledge base, not yet frozen.
//	error - Decoding failure, ErrInvalidDocument, or an *AxiomError.
func Parse(data []byte, opts Options) (*Ontology, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding ontology: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Build(&doc, opts)
}

// Build turns a decoded document into an ontology.
func Build(doc *Document, opts Options) (*Ontology, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &builder{
		opts:   opts,
		logger: logger.With(slog.String("component", "ontology"), slog.String("ontology", doc.Name)),
	}
	f := term.NewFactory()
	rb := rbox.New()
	b.o = &Ontology{
		Name:    doc.Name,
		Factory: f,
		TBox:    tbox.New(f),
		RBox:    rb,
		ABox:    abox.New(f, abox.WithSymmetric(rb.IsSymmetric)),
	}

	for i, r := range doc.Roles {
		if err := b.role(r); err != nil {
			return nil, &AxiomError{Section: "roles", Index: i, Kind: r.Name, Err: err}
		}
	}
	for i, ax := range doc.Axioms {
		if err := b.skipOrFail(b.axiom(ax), "axioms", i, ax.Kind); err != nil {
			return nil, err
		}
	}
	for i, as := range doc.Assertions {
		if err := b.skipOrFail(b.assertion(as), "assertions", i, as.Kind); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("ontology built",
		slog.Int("roles", len(doc.Roles)),
		slog.Int("axioms", b.o.TBox.Len()),
		slog.Int("individuals", b.o.ABox.Len()),
		slog.Int("skipped", len(b.o.Skipped)))
	return b.o, nil
}

type builder struct {
	o      *Ontology
	opts   Options
	logger *slog.Logger
}

func (b *builder) skipOrFail(err error, section string, i int, kind string) error {
	if err == nil {
		return nil
	}
	ae := &AxiomError{Section: section, Index: i, Kind: kind, Err: err}
	if !errors.Is(err, ErrUnsupportedAxiom) || b.opts.StrictAxioms {
		return ae
	}
	b.logger.Warn("skipping unsupported axiom",
		slog.String("section", section),
		slog.Int("index", i),
		slog.String("kind", kind),
		slog.String("error", err.Error()))
	b.o.Skipped = append(b.o.Skipped, ae)
	return nil
}

func (b *builder) role(r RoleDecl) error {
	var props []rbox.Property
	for _, name := range r.Properties {
		p, ok := rbox.ParseProperty(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
		}
		props = append(props, p)
	}
	rb := b.o.RBox
	if err := rb.AddRole(term.Role(r.Name), props...); err != nil {
		return err
	}
	for _, s := range r.Super {
		if err := rb.AddSubRole(term.Role(r.Name), term.Role(s)); err != nil {
			return err
		}
	}
	if r.Domain != nil {
		t, err := b.concept(r.Domain)
		if err != nil {
			return err
		}
		if err := rb.AddDomain(term.Role(r.Name), t); err != nil {
			return err
		}
	}
	if r.Range != nil {
		t, err := b.concept(r.Range)
		if err != nil {
			return err
		}
		if err := rb.AddRange(term.Role(r.Name), t); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) axiom(ax Axiom) error {
	tb := b.o.TBox
	switch ax.Kind {
	case AxiomSubClass:
		sub, sup, err := b.pair(ax.Sub, ax.Sup)
		if err != nil {
			return err
		}
		return tb.AddInclusion(sub, sup)

	case AxiomEquivalent, AxiomDisjoint:
		ts, err := b.concepts(ax.Classes)
		if err != nil {
			return err
		}
		if len(ts) < 2 {
			return fmt.Errorf("%s needs at least two classes", ax.Kind)
		}
		for i := range ts {
			for j := i + 1; j < len(ts); j++ {
				if ax.Kind == AxiomEquivalent {
					err = tb.AddEquivalent(ts[i], ts[j])
				} else {
					err = tb.AddDisjoint(ts[i], ts[j])
				}
				if err != nil {
					return err
				}
			}
			if ax.Kind == AxiomEquivalent {
				// Equivalence with the first class implies the rest.
				break
			}
		}
		return nil

	case AxiomDomain, AxiomRange:
		if ax.Role == "" || ax.Concept == nil {
			return fmt.Errorf("%s needs role and concept", ax.Kind)
		}
		t, err := b.concept(ax.Concept)
		if err != nil {
			return err
		}
		if ax.Kind == AxiomDomain {
			return b.o.RBox.AddDomain(term.Role(ax.Role), t)
		}
		return b.o.RBox.AddRange(term.Role(ax.Role), t)

	case AxiomSubRole:
		if ax.SubRole == "" || ax.Role == "" {
			return errors.New("subrole needs subrole and role")
		}
		return b.o.RBox.AddSubRole(term.Role(ax.SubRole), term.Role(ax.Role))
	}
	return fmt.Errorf("%w: kind %q", ErrUnsupportedAxiom, ax.Kind)
}

func (b *builder) assertion(as Assertion) error {
	a := b.o.ABox
	switch as.Kind {
	case AssertType:
		t, err := b.concept(as.Concept)
		if err != nil {
			return err
		}
		b.noteClasses(as.Concept)
		id, err := a.GetOrAddNamedNode(as.Individual, false)
		if err != nil {
			return err
		}
		_, err = a.AddUnfoldedDescription(id, t)
		return b.contradiction(as.Kind, id, err)

	case AssertRelation, AssertValue:
		from, err := a.GetOrAddNamedNode(as.Subject, false)
		if err != nil {
			return err
		}
		datatype := as.Kind == AssertValue
		target := as.Object
		if datatype {
			target = as.Value
			if err := b.o.RBox.SetRoleProperty(term.Role(as.Role), rbox.DataProperty); err != nil {
				return err
			}
		}
		to, err := a.GetOrAddNamedNode(target, datatype)
		if err != nil {
			return err
		}
		if datatype {
			// The literal node carries its own value as a nominal.
			if _, err := a.AddUnfoldedDescription(to, b.o.Factory.Literal(target)); err != nil {
				return err
			}
		}
		return a.AddLink(from, to, term.Role(as.Role), true, nil)

	case AssertDifferent, AssertSame:
		ids := make([]abox.NodeID, 0, len(as.Individuals))
		for _, name := range as.Individuals {
			id, err := a.GetOrAddNamedNode(name, false)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				var err error
				if as.Kind == AssertDifferent {
					err = a.AssertDifferent(ids[i], ids[j])
				} else {
					_, err = a.MergeNodes(ids[i], ids[j])
				}
				if err := b.contradiction(as.Kind, ids[i], err); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return fmt.Errorf("%w: assertion kind %q", ErrUnsupportedAxiom, as.Kind)
}

// contradiction turns a merge conflict raised by an assertion into ⊥ on
// the node, leaving it for the consistency check to report. Other errors
// pass through.
func (b *builder) contradiction(kind string, id abox.NodeID, err error) error {
	if !errors.Is(err, abox.ErrMergeConflict) {
		return err
	}
	b.logger.Warn("contradictory assertion",
		slog.String("kind", kind),
		slog.String("error", err.Error()))
	_, err = b.o.ABox.AddUnfoldedDescription(id, b.o.Factory.Bottom())
	return err
}

func (b *builder) pair(x, y *Concept) (*term.Term, *term.Term, error) {
	if x == nil || y == nil {
		return nil, nil, errors.New("subclass needs sub and sup")
	}
	tx, err := b.concept(x)
	if err != nil {
		return nil, nil, err
	}
	ty, err := b.concept(y)
	if err != nil {
		return nil, nil, err
	}
	return tx, ty, nil
}

func (b *builder) concepts(cs []Concept) ([]*term.Term, error) {
	out := make([]*term.Term, 0, len(cs))
	for i := range cs {
		t, err := b.concept(&cs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// concept translates a document concept into an interned term.
func (b *builder) concept(c *Concept) (*term.Term, error) {
	f := b.o.Factory
	switch {
	case c == nil:
		return nil, errors.New("missing concept")
	case c.Unsupported != "":
		return nil, fmt.Errorf("%w: concept constructor %q", ErrUnsupportedAxiom, c.Unsupported)
	case c.Name == ThingName:
		return f.Top(), nil
	case c.Name == NothingName:
		return f.Bottom(), nil
	case c.Name != "":
		return f.Class(c.Name), nil
	case c.Not != nil:
		t, err := b.concept(c.Not)
		if err != nil {
			return nil, err
		}
		return f.Not(t), nil
	case c.And != nil:
		ts, err := b.concepts(c.And)
		if err != nil {
			return nil, err
		}
		return f.And(ts...), nil
	case c.Or != nil:
		ts, err := b.concepts(c.Or)
		if err != nil {
			return nil, err
		}
		return f.Or(ts...), nil
	case c.Some != nil, c.All != nil:
		r := c.Some
		if r == nil {
			r = c.All
		}
		if r.Role == "" {
			return nil, errors.New("restriction needs a role")
		}
		filler := f.Top()
		if r.Concept != nil {
			t, err := b.concept(r.Concept)
			if err != nil {
				return nil, err
			}
			filler = t
		}
		if c.Some != nil {
			return f.Some(term.Role(r.Role), filler), nil
		}
		return f.All(term.Role(r.Role), filler), nil
	case c.OneOf != nil:
		ts := make([]*term.Term, 0, len(c.OneOf))
		for _, ind := range c.OneOf {
			ts = append(ts, f.Nominal(ind))
		}
		return f.Or(ts...), nil
	case c.Value != nil:
		v := c.Value
		switch {
		case v.Role == "":
			return nil, errors.New("value needs a role")
		case v.Literal != "":
			if err := b.o.RBox.SetRoleProperty(term.Role(v.Role), rbox.DataProperty); err != nil {
				return nil, err
			}
			return f.Some(term.Role(v.Role), f.Literal(v.Literal)), nil
		case v.Individual != "":
			return f.Some(term.Role(v.Role), f.Nominal(v.Individual)), nil
		}
		return nil, errors.New("value needs an individual or a literal")
	case c.Implies != nil:
		ts, err := b.concepts(c.Implies)
		if err != nil {
			return nil, err
		}
		return f.Implies(ts[0], ts[1]), nil
	}
	return nil, errors.New("empty concept")
}

// noteClasses registers class names used in assertions for classification.
func (b *builder) noteClasses(c *Concept) {
	if c == nil {
		return
	}
	if c.Name != "" && c.Name != ThingName && c.Name != NothingName {
		b.o.TBox.NoteClass(c.Name)
	}
	if c.Not != nil {
		b.noteClasses(c.Not)
	}
	for i := range c.And {
		b.noteClasses(&c.And[i])
	}
	for i := range c.Or {
		b.noteClasses(&c.Or[i])
	}
}

// ParseConcept reads a concept expression written the way concepts are
// written inside documents, either a bare class name or a one-key mapping
// such as "{and: [A, {not: B}]}". The term is interned in o's factory.
func (o *Ontology) ParseConcept(expr string) (*term.Term, error) {
	var c Concept
	if err := yaml.Unmarshal([]byte(expr), &c); err != nil {
		return nil, fmt.Errorf("parse concept %q: %w", expr, err)
	}
	b := &builder{o: o, logger: slog.Default()}
	t, err := b.concept(&c)
	if err != nil {
		return nil, fmt.Errorf("concept %q: %w", expr, err)
	}
	return t, nil
}
