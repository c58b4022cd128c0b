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
	"context"
	"log/slog"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/branch"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/completer"
)

// Result is the outcome of one tableau run.
type Result struct {
	// Consistent is true when an open, fully expanded branch was found.
	Consistent bool

	// Model is the completed ABox of the open branch. Nil when inconsistent.
	Model *abox.ABox

	// Clash is the clash that closed the last branch. Zero when consistent.
	Clash branch.Clash

	// Tree holds the decision tree counters.
	Tree branch.Stats

	// Steps is the number of completer invocations.
	Steps int64
}

// driver runs completers over a decision tree until a branch reaches a
// fixpoint or every branch closes.
type driver struct {
	completers []completer.Completer
	checker    branch.ConsistencyChecker
	budget     *Budget
	logger     *slog.Logger
}

// run explores the tree rooted at a.
//
// Description:
//
//	The agenda is popped depth first. Each popped alternative is expanded
//	until it either closes or completes. A closed alternative is abandoned
//	and the next one popped. The first alternative to complete is a model.
//
// Inputs:
//
//	ctx - Cancellation is checked after every completer step.
//	a - The initial ABox. Owned by the run from here on.
//
// Outputs:
//
//	Result - The outcome.
//	error - Budget exhaustion or context cancellation.
func (d *driver) run(ctx context.Context, a *abox.ABox) (Result, error) {
	tree := branch.NewTree(a)
	tree.Push(tree.Root())

	var res Result
	for {
		tn, ok := tree.Pop()
		if !ok {
			res.Tree = tree.Stats()
			res.Steps = d.budget.Steps()
			return res, nil
		}

		complete, err := d.expand(ctx, tn)
		if err != nil {
			res.Tree = tree.Stats()
			res.Steps = d.budget.Steps()
			return res, err
		}
		if complete {
			return Result{
				Consistent: true,
				Model:      tn.ABox(),
				Tree:       tree.Stats(),
				Steps:      d.budget.Steps(),
			}, nil
		}

		res.Clash = tn.Branch().Clash()
		d.logger.Debug("branch closed",
			slog.Uint64("tree_node", tn.ID()),
			slog.String("kind", tn.Kind().String()),
			slog.Int("depth", tn.Depth()),
			slog.String("clash", res.Clash.String()),
			slog.Int("pending", tree.Pending()))
		tree.Abandon(tn)
	}
}

// expand applies completers to tn until its branch closes or a full pass
// over all nodes leaves the ABox generation unchanged.
//
// Outputs:
//
//	bool - True when the branch is complete and open.
//	error - Budget exhaustion or context cancellation.
func (d *driver) expand(ctx context.Context, tn *branch.TreeNode) (bool, error) {
	b := tn.Branch()
	a := tn.ABox()

	if !d.checkDirty(b) {
		return false, nil
	}

	for {
		gen := a.Generation()
		restart := false

	pass:
		for _, id := range a.NodeIDs() {
			if a.Node(id) == nil {
				continue
			}
			for i := 0; i < len(d.completers); {
				c := d.completers[i]
				state := c.CompleteNode(tn, id)
				completerSteps.WithLabelValues(c.Name(), state.String()).Inc()

				if err := ctx.Err(); err != nil {
					return false, err
				}
				if err := d.budget.RecordStep(a.Len(), tn.Tree().Stats().Nodes); err != nil {
					return false, err
				}
				if !d.checkDirty(b) {
					return false, nil
				}

				switch state {
				case completer.Continue:
					i++
				case completer.RecheckNode:
					id = a.Resolve(id)
					if a.Node(id) == nil {
						continue pass
					}
					i = 0
				case completer.RecheckBranch:
					restart = true
					break pass
				}
			}
		}

		if !restart && a.Generation() == gen {
			return true, nil
		}
	}
}

// checkDirty runs the clash check on every node changed since the last
// call and closes the branch on the first clash. It reports whether the
// branch is still open.
func (d *driver) checkDirty(b *branch.Branch) bool {
	if b.IsInconsistent() {
		return false
	}
	a := b.ABox()
	for _, id := range a.TakeDirty() {
		if ok, clash := d.checker.IsConsistent(a, id); !ok {
			b.MarkInconsistent(clash)
			return false
		}
	}
	return true
}
