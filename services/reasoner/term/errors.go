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
	"errors"
	"fmt"
)

// ErrUnsupportedTerm is the sentinel matched by UnsupportedTermError.
var ErrUnsupportedTerm = errors.New("unsupported term")

// UnsupportedTermError reports a term kind a transformation cannot handle.
//
// Normal forms panic with this error: it signals a programming-contract
// violation, not a property of the ontology. The engine recovers it at the
// top of a check and reports a reasoner-internal error.
type UnsupportedTermError struct {
	Kind Kind
	Op   string
}

func (e *UnsupportedTermError) Error() string {
	return fmt.Sprintf("%s: %s in %s", ErrUnsupportedTerm, e.Kind, e.Op)
}

func (e *UnsupportedTermError) Unwrap() error {
	return ErrUnsupportedTerm
}
