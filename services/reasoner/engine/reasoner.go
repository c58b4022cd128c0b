// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine drives the tableau completers to answer reasoning queries.
//
// Every query clones the knowledge base's ABox, adds whatever the query
// needs (a fresh instance of a concept, a negated type assertion), and runs
// a depth-first search over the decision tree. A query is answered by
// whether some branch completes without a clash.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/abox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/blocking"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/branch"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/completer"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/consistency"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/rbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/tbox"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// KnowledgeBase bundles the parts a reasoner works on. All four share one
// term factory.
type KnowledgeBase struct {
	Factory *term.Factory
	TBox    *tbox.TBox
	RBox    *rbox.RBox
	ABox    *abox.ABox
}

// Options configures a Reasoner.
type Options struct {
	// Budget bounds each individual check.
	Budget BudgetConfig

	// Blocking names the blocking strategy: auto, subset, equality or
	// pairwise. Empty means auto.
	Blocking string

	// Logger receives engine logs. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns options with the default budget and automatic
// blocking.
func DefaultOptions() Options {
	return Options{Budget: DefaultBudgetConfig(), Blocking: "auto"}
}

// Reasoner answers queries over one knowledge base.
//
// Description:
//
//	New freezes the TBox, RBox and ABox of the knowledge base. Queries work
//	on clones of the frozen ABox, so any number of queries may run at once.
//
// Thread Safety: Safe for concurrent use.
type Reasoner struct {
	kb         KnowledgeBase
	opts       Options
	completers []completer.Completer
	checker    consistency.Checker
	logger     *slog.Logger
}

// New creates a reasoner for kb.
//
// Inputs:
//
//	kb - The knowledge base. Frozen by this call.
//	opts - Configuration. The zero value is usable.
//
// Outputs:
//
//	*Reasoner - The reasoner.
//	error - ErrInvalidKnowledgeBase, or blocking.ErrUnknownStrategy.
func New(kb KnowledgeBase, opts Options) (*Reasoner, error) {
	if kb.Factory == nil || kb.TBox == nil || kb.RBox == nil || kb.ABox == nil {
		return nil, ErrInvalidKnowledgeBase
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "reasoner"))

	finder, err := blocking.FinderFor(opts.Blocking, kb.RBox.HasSymmetricRoles())
	if err != nil {
		return nil, err
	}

	kb.TBox.Freeze()
	kb.RBox.Freeze()
	kb.ABox.Freeze()

	r := &Reasoner{kb: kb, opts: opts, logger: logger}
	r.completers = completer.Default(&completer.Context{
		TBox:     kb.TBox,
		RBox:     kb.RBox,
		Blocking: blocking.NewStrategy(finder, logger),
		Checker:  r.checker,
		Logger:   logger,
	})
	logger.Debug("reasoner ready",
		slog.String("blocking", finder.Name()),
		slog.Int("tbox_axioms", kb.TBox.Len()),
		slog.Int("individuals", kb.ABox.Len()))
	return r, nil
}

// KnowledgeBase returns the frozen knowledge base.
func (r *Reasoner) KnowledgeBase() KnowledgeBase { return r.kb }

// Check runs a consistency check and returns the full result.
//
// Outputs:
//
//	Result - Includes the model of an open branch or the final clash.
//	error - A *CheckError wrapping the cause.
func (r *Reasoner) Check(ctx context.Context) (Result, error) {
	return r.run(ctx, "consistency", nil)
}

// IsConsistent reports whether the knowledge base has a model.
func (r *Reasoner) IsConsistent(ctx context.Context) (bool, error) {
	res, err := r.Check(ctx)
	if err != nil {
		return false, err
	}
	return res.Consistent, nil
}

// IsSatisfiable reports whether c can have an instance in some model of the
// knowledge base.
//
// Description:
//
//	A fresh anonymous node labelled c is added to a clone of the ABox, and
//	the result is consistent exactly when c is satisfiable.
func (r *Reasoner) IsSatisfiable(ctx context.Context, c *term.Term) (bool, error) {
	res, err := r.run(ctx, "satisfiability", func(a *abox.ABox, span trace.Span) error {
		span.SetAttributes(attribute.String("concept", c.String()))
		id, err := a.CreateNode(false)
		if err != nil {
			return err
		}
		_, err = a.AddUnfoldedDescription(id, c)
		return err
	})
	if err != nil {
		return false, err
	}
	return res.Consistent, nil
}

// IsSubsumedBy reports whether every instance of sub is an instance of sup.
//
// Description:
//
//	Structural subsumption is checked first and answers without a tableau
//	run when it succeeds. Otherwise sub ⊑ sup holds exactly when
//	sub ⊓ ¬sup is unsatisfiable.
func (r *Reasoner) IsSubsumedBy(ctx context.Context, sub, sup *term.Term) (bool, error) {
	if r.kb.Factory.IsSyntacticSubClass(sub, sup) {
		syntacticShortcuts.Inc()
		return true, nil
	}
	f := r.kb.Factory
	sat, err := r.IsSatisfiable(ctx, f.And(sub, f.Not(sup)))
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// IsInstanceOf reports whether the named individual is entailed to be an
// instance of c.
//
// Description:
//
//	¬c is asserted on the individual in a clone of the ABox. The individual
//	is an instance of c exactly when that clone is inconsistent. Unknown
//	individuals are created, so only tautologies hold for them.
func (r *Reasoner) IsInstanceOf(ctx context.Context, individual string, c *term.Term) (bool, error) {
	res, err := r.run(ctx, "instance", func(a *abox.ABox, span trace.Span) error {
		span.SetAttributes(
			attribute.String("individual", individual),
			attribute.String("concept", c.String()),
		)
		id, err := a.GetOrAddNamedNode(individual, false)
		if err != nil {
			return err
		}
		_, err = a.AddUnfoldedDescription(id, r.kb.Factory.Not(c))
		return err
	})
	if err != nil {
		return false, err
	}
	return !res.Consistent, nil
}

// run performs one traced, budgeted tableau run.
func (r *Reasoner) run(ctx context.Context, op string, prepare func(*abox.ABox, trace.Span) error) (res Result, err error) {
	if ctx == nil {
		return Result{}, &CheckError{Op: op, Err: ErrNilContext}
	}
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID), slog.String("op", op))

	ctx, span := tracer.Start(ctx, "engine.Reasoner."+op,
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("op", op),
		),
	)
	defer span.End()

	start := time.Now()
	budget := NewBudget(r.opts.Budget)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("reasoner panic",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrInternal, p)
		}

		outcome := "consistent"
		switch {
		case err != nil && errors.Is(err, ErrBudgetExhausted):
			outcome = "exhausted"
		case err != nil:
			outcome = "error"
		case !res.Consistent:
			outcome = "inconsistent"
		}
		nodes := 0
		if res.Model != nil {
			nodes = res.Model.Len()
		}
		recordCheck(ctx, op, outcome, time.Since(start), res.Tree.Nodes, nodes)

		span.SetAttributes(
			attribute.String("outcome", outcome),
			attribute.Int64("steps", budget.Steps()),
			attribute.Int("tree_nodes", res.Tree.Nodes),
		)
		if err != nil {
			err = &CheckError{Op: op, RunID: runID, Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, "check failed")
			logger.Warn("check failed",
				slog.String("error", err.Error()),
				slog.String("budget", budget.String()))
			return
		}
		logger.Debug("check finished",
			slog.String("outcome", outcome),
			slog.Int64("steps", res.Steps),
			slog.Int("tree_nodes", res.Tree.Nodes),
			slog.Duration("duration", time.Since(start)))
	}()

	a := r.kb.ABox.Clone()
	if prepare != nil {
		if perr := prepare(a, span); perr != nil {
			// A nominal in the query forced an impossible merge.
			if errors.Is(perr, abox.ErrMergeConflict) {
				return Result{Clash: branch.Clash{Reason: perr.Error()}}, nil
			}
			return Result{}, perr
		}
	}

	d := &driver{
		completers: r.completers,
		checker:    r.checker,
		budget:     budget,
		logger:     logger,
	}
	return d.run(ctx, a)
}
