// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package abox implements the completion graph explored by the tableau.
//
// # Model
//
// An ABox is a graph of nodes. Each node carries a totally ordered set of
// concept terms, the individual names (or literal values) it stands for, and
// a link map of role-labelled edges to other nodes. Alongside the graph the
// ABox keeps a DependencyMap recording why each derived term was added, and
// a BlockCache remembering blocking decisions.
//
// # Copy-on-Write
//
// Clone is O(1). Every node is owned by exactly one ABox generation token;
// cloning retires the token of the source and gives both copies fresh ones,
// so the next write to any node in either copy clones that node first. Node
// clones are O(1) as well since their sets are copy-on-write.
//
//	fork := base.Clone()
//	fork.AddUnfoldedDescription(id, t) // base still sees the old node
//
// # Identity
//
// NodeIDs are never reused within one lineage: clones share one ID source.
// Merging removes one of two nodes; Resolve maps a removed ID to the node
// that absorbed it.
//
// # Thread Safety
//
// An ABox is NOT safe for concurrent use. A frozen ABox (see Freeze) is
// read-only and may be cloned from many goroutines at once.
package abox
