// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for reasoning operations.
var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrInvalidKnowledgeBase is returned when a knowledge base is missing
	// a component.
	ErrInvalidKnowledgeBase = errors.New("knowledge base requires factory, tbox, rbox and abox")

	// ErrInternal wraps a broken invariant inside the engine. It indicates a
	// bug, not a problem with the input.
	ErrInternal = errors.New("reasoner internal error")

	// ErrBudgetExhausted is returned when any budget limit is reached.
	ErrBudgetExhausted = errors.New("reasoning budget exhausted")

	// ErrTimeLimitExceeded is returned when the wall clock limit is reached.
	ErrTimeLimitExceeded = fmt.Errorf("%w: time limit exceeded", ErrBudgetExhausted)

	// ErrStepLimitExceeded is returned when too many completer steps ran.
	ErrStepLimitExceeded = fmt.Errorf("%w: step limit exceeded", ErrBudgetExhausted)

	// ErrNodeLimitExceeded is returned when a branch grew too many nodes.
	ErrNodeLimitExceeded = fmt.Errorf("%w: node limit exceeded", ErrBudgetExhausted)

	// ErrBranchLimitExceeded is returned when the decision tree grew too
	// large.
	ErrBranchLimitExceeded = fmt.Errorf("%w: branch limit exceeded", ErrBudgetExhausted)

	// ErrUnknownClass is returned when a query names a class the ontology
	// does not mention.
	ErrUnknownClass = errors.New("unknown class")
)

// CheckError reports a failed reasoning operation.
type CheckError struct {
	// Op is the query that failed, e.g. "consistency".
	Op string

	// RunID identifies the run in logs and traces.
	RunID string

	// Err is the underlying cause.
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s check %s: %v", e.Op, e.RunID, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
