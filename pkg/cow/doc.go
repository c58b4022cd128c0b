// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cow provides copy-on-write collections used by the tableau state.
//
// # Ownership Model
//
// Every container tracks whether it owns its backing storage. Clone returns a
// new container that shares the storage of the receiver and does not own it,
// and it never writes to the receiver. A container that does not own its
// storage copies it on the first mutation; subsequent mutations are in place.
//
// A container whose storage has been handed to a clone must not be mutated in
// place afterwards. Callers either retire the source (it is never written
// again) or call Share on it, which drops ownership so the next write copies.
//
//	base := cow.NewMap[string, int]()
//	base.Set("a", 1)
//	fork := base.Clone()
//	base.Share()
//	fork.Set("b", 2) // copies, base is untouched
//
// # Thread Safety
//
// Containers are NOT safe for concurrent mutation. Clone on a container that
// is no longer written is safe from multiple goroutines, since it only reads.
package cow
