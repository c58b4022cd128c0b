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
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/term"
)

// ThingName is the name under which the top concept appears in a taxonomy.
const ThingName = "Thing"

// ClassifierConfig bounds a classification run.
type ClassifierConfig struct {
	// MaxConcurrency limits parallel tests. Zero uses GOMAXPROCS.
	MaxConcurrency int

	// CacheSize is the capacity of the satisfiability result cache.
	CacheSize int
}

// Taxonomy is the subsumption hierarchy of the named classes.
type Taxonomy struct {
	// RunID identifies the classification run.
	RunID string

	// Classes lists the satisfiable classes, sorted.
	Classes []string

	// Unsatisfiable lists the classes equivalent to Nothing, sorted.
	Unsatisfiable []string

	// Parents maps each satisfiable class to its direct named superclasses.
	// Classes without one have ThingName as their only parent.
	Parents map[string][]string

	// Equivalents maps a class to the other classes it is equivalent to.
	// Classes without equivalents are absent.
	Equivalents map[string][]string

	// Cache reports how often a satisfiability test was answered from the
	// result cache.
	Cache CacheStats
}

// Classifier computes the taxonomy of a reasoner's knowledge base.
//
// Thread Safety: Safe for concurrent use. Each Classify call has its own
// cache.
type Classifier struct {
	r      *Reasoner
	cfg    ClassifierConfig
	logger *slog.Logger
}

// NewClassifier creates a classifier over r.
func NewClassifier(r *Reasoner, cfg ClassifierConfig) *Classifier {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = runtime.GOMAXPROCS(0)
	}
	return &Classifier{
		r:      r,
		cfg:    cfg,
		logger: r.logger.With(slog.String("component", "classifier")),
	}
}

// classification holds the per-run state shared by the parallel tests.
type classification struct {
	r      *Reasoner
	cache  *resultCache
	flight singleflight.Group
}

// satisfiable answers one satisfiability test, consulting the cache first
// and collapsing concurrent tests of the same term into one run.
func (c *classification) satisfiable(ctx context.Context, t *term.Term) (bool, error) {
	if sat, ok := c.cache.get(t.ID()); ok {
		return sat, nil
	}
	v, err, _ := c.flight.Do(strconv.FormatUint(t.ID(), 10), func() (any, error) {
		sat, err := c.r.IsSatisfiable(ctx, t)
		if err != nil {
			return false, err
		}
		c.cache.put(t.ID(), sat)
		return sat, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (c *classification) subsumed(ctx context.Context, sub, sup *term.Term) (bool, error) {
	f := c.r.kb.Factory
	if f.IsSyntacticSubClass(sub, sup) {
		syntacticShortcuts.Inc()
		return true, nil
	}
	sat, err := c.satisfiable(ctx, f.And(sub, f.Not(sup)))
	return !sat, err
}

// Classify tests every named class for satisfiability and every ordered
// pair of satisfiable classes for subsumption, then reduces the result to
// direct parents.
//
// Outputs:
//
//	*Taxonomy - The hierarchy.
//	error - A *CheckError from the first failed test, or ctx.Err().
func (c *Classifier) Classify(ctx context.Context) (*Taxonomy, error) {
	if ctx == nil {
		return nil, &CheckError{Op: "classification", Err: ErrNilContext}
	}
	runID := uuid.NewString()
	names := c.r.kb.TBox.Classes()
	f := c.r.kb.Factory

	ctx, span := tracer.Start(ctx, "engine.Classifier.Classify",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("classes", len(names)),
			attribute.Int("max_concurrency", c.cfg.MaxConcurrency),
		),
	)
	defer span.End()
	start := time.Now()

	run := &classification{r: c.r, cache: newResultCache(c.cfg.CacheSize)}

	sat := make([]bool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, name := range names {
		g.Go(func() error {
			ok, err := run.satisfiable(gctx, f.Class(name))
			sat[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, c.fail(span, runID, err)
	}

	tax := &Taxonomy{
		RunID:       runID,
		Parents:     make(map[string][]string),
		Equivalents: make(map[string][]string),
	}
	for i, name := range names {
		if sat[i] {
			tax.Classes = append(tax.Classes, name)
		} else {
			tax.Unsatisfiable = append(tax.Unsatisfiable, name)
		}
	}

	live := tax.Classes
	subs := make([][]bool, len(live))
	for i := range subs {
		subs[i] = make([]bool, len(live))
		subs[i][i] = true
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i := range live {
		for j := range live {
			if i == j {
				continue
			}
			g.Go(func() error {
				ok, err := run.subsumed(gctx, f.Class(live[i]), f.Class(live[j]))
				subs[i][j] = ok
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, c.fail(span, runID, err)
	}

	reduce(tax, subs)
	tax.Cache = run.cache.stats()

	span.SetAttributes(
		attribute.Int("unsatisfiable", len(tax.Unsatisfiable)),
		attribute.Int64("cache_hits", tax.Cache.Hits),
	)
	c.logger.Info("classification finished",
		slog.String("run_id", runID),
		slog.Int("classes", len(names)),
		slog.Int("unsatisfiable", len(tax.Unsatisfiable)),
		slog.Int64("cache_hits", tax.Cache.Hits),
		slog.Int64("cache_misses", tax.Cache.Misses),
		slog.Duration("duration", time.Since(start)))
	return tax, nil
}

func (c *Classifier) fail(span trace.Span, runID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "classification failed")
	c.logger.Warn("classification failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()))
	return &CheckError{Op: "classification", RunID: runID, Err: err}
}

// reduce turns the full subsumption matrix over tax.Classes into direct
// parents and equivalence groups.
func reduce(tax *Taxonomy, subs [][]bool) {
	live := tax.Classes
	equiv := func(i, j int) bool { return subs[i][j] && subs[j][i] }

	for i, name := range live {
		for j := range live {
			if i != j && equiv(i, j) {
				tax.Equivalents[name] = append(tax.Equivalents[name], live[j])
			}
		}

		var parents []string
		for j := range live {
			if !subs[i][j] || equiv(i, j) {
				continue
			}
			direct := true
			for k := range live {
				if k == j || !subs[i][k] || equiv(i, k) || equiv(k, j) {
					continue
				}
				if subs[k][j] {
					direct = false
					break
				}
			}
			if direct {
				parents = append(parents, live[j])
			}
		}
		if len(parents) == 0 {
			parents = []string{ThingName}
		}
		slices.Sort(parents)
		tax.Parents[name] = parents
	}
}
