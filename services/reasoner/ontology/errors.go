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
)

var (
	// ErrUnsupportedAxiom is returned for an axiom or concept constructor
	// the reasoner cannot represent. Skipped with a warning unless
	// StrictAxioms is set.
	ErrUnsupportedAxiom = errors.New("unsupported axiom")

	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("invalid ontology document")

	// ErrUnknownProperty is returned for a role characteristic with no
	// meaning.
	ErrUnknownProperty = errors.New("unknown role property")
)

// AxiomError locates a failed axiom or assertion within a document.
type AxiomError struct {
	// Section is "axioms", "assertions" or "roles".
	Section string

	// Index is the position within the section.
	Index int

	// Kind is the declared kind of the entry.
	Kind string

	Err error
}

func (e *AxiomError) Error() string {
	return fmt.Sprintf("%s[%d] (%s): %v", e.Section, e.Index, e.Kind, e.Err)
}

func (e *AxiomError) Unwrap() error {
	return e.Err
}
