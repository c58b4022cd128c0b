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
	"errors"
	"fmt"
)

// Sentinel errors for ABox operations.
var (
	// ErrNodeNotFound is returned when an ID resolves to no live node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrFrozen is returned when modifying a frozen ABox.
	ErrFrozen = errors.New("abox is frozen")

	// ErrMergeConflict is returned when two nodes are forced equal but a
	// hard constraint keeps them apart. Within a branch this is a clash.
	ErrMergeConflict = errors.New("merge conflict")
)

// MergeError describes why two nodes could not be merged.
type MergeError struct {
	A, B   NodeID
	Reason string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s: nodes %d and %d: %s", ErrMergeConflict, e.A, e.B, e.Reason)
}

func (e *MergeError) Unwrap() error {
	return ErrMergeConflict
}
