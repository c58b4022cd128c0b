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
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// BudgetConfig bounds the work of one check. Zero disables a limit.
type BudgetConfig struct {
	MaxSteps    int           // Completer invocations
	MaxNodes    int           // Live nodes in one branch
	MaxBranches int           // Decision tree nodes
	TimeLimit   time.Duration // Wall clock limit
}

// DefaultBudgetConfig returns sensible defaults.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxSteps:    1_000_000,
		MaxNodes:    100_000,
		MaxBranches: 100_000,
		TimeLimit:   time.Minute,
	}
}

// Budget tracks resource consumption of one check.
//
// Description:
//
//	Steps are counted by the driver after every completer invocation, which
//	is where the completer state machine hands control back. Nodes and
//	branches are sampled at the same point. Once a limit is hit the budget
//	stays exhausted.
//
// Thread Safety: Safe for concurrent use.
type Budget struct {
	config    BudgetConfig
	startTime time.Time

	steps atomic.Int64

	mu          sync.Mutex
	exhausted   bool
	exhaustedBy string
	err         error
}

// NewBudget creates a budget whose clock starts now.
func NewBudget(config BudgetConfig) *Budget {
	return &Budget{
		config:    config,
		startTime: time.Now(),
	}
}

// Config returns the budget configuration.
func (b *Budget) Config() BudgetConfig {
	return b.config
}

// Steps returns the number of recorded steps.
func (b *Budget) Steps() int64 {
	return b.steps.Load()
}

// Elapsed returns the time since the budget was created.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// RecordStep counts one completer invocation and checks every limit.
//
// Inputs:
//
//	nodes - Live nodes in the current branch.
//	branches - Nodes in the decision tree.
//
// Outputs:
//
//	error - Nil, or an error wrapping ErrBudgetExhausted.
func (b *Budget) RecordStep(nodes, branches int) error {
	b.steps.Add(1)
	return b.checkLimits(nodes, branches)
}

// ExhaustedBy returns the limit that was hit, empty if none.
func (b *Budget) ExhaustedBy() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exhaustedBy
}

func (b *Budget) checkLimits(nodes, branches int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exhausted {
		return b.err
	}
	fail := func(by string, err error) error {
		b.exhausted = true
		b.exhaustedBy = by
		b.err = err
		return err
	}

	if b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit {
		return fail("time", ErrTimeLimitExceeded)
	}
	if b.config.MaxSteps > 0 && b.steps.Load() > int64(b.config.MaxSteps) {
		return fail("steps", ErrStepLimitExceeded)
	}
	if b.config.MaxNodes > 0 && nodes > b.config.MaxNodes {
		return fail("nodes", ErrNodeLimitExceeded)
	}
	if b.config.MaxBranches > 0 && branches > b.config.MaxBranches {
		return fail("branches", ErrBranchLimitExceeded)
	}
	return nil
}

// String returns a human-readable budget status.
func (b *Budget) String() string {
	status := ""
	if by := b.ExhaustedBy(); by != "" {
		status = fmt.Sprintf(" [EXHAUSTED by %s]", by)
	}
	return fmt.Sprintf("Budget{steps=%d/%d, time=%v/%v}%s",
		b.Steps(), b.config.MaxSteps,
		b.Elapsed().Round(time.Millisecond), b.config.TimeLimit,
		status)
}
