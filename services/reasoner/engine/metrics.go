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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for reasoning operations.
var (
	tracer = otel.Tracer("aleutian.tableau.engine")
	meter  = otel.Meter("aleutian.tableau.engine")
)

// Prometheus metrics for the completion driver.
var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "engine",
		Name:      "checks_total",
		Help:      "Completed reasoning checks by query and outcome",
	}, []string{"op", "outcome"})

	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tableau",
		Subsystem: "engine",
		Name:      "check_duration_seconds",
		Help:      "Duration of reasoning checks",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"op"})

	completerSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "engine",
		Name:      "completer_steps_total",
		Help:      "Completer invocations by completer and resulting state",
	}, []string{"completer", "state"})

	syntacticShortcuts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tableau",
		Subsystem: "engine",
		Name:      "syntactic_shortcuts_total",
		Help:      "Subsumption queries answered without a tableau run",
	})
)

// OpenTelemetry instruments, exported through whatever meter provider the
// telemetry package installed.
var (
	branchesExplored metric.Int64Histogram
	nodesCreated     metric.Int64Histogram
	checkLatency     metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the otel instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		branchesExplored, err = meter.Int64Histogram(
			"tableau_branches_explored",
			metric.WithDescription("Decision tree nodes created per check"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"tableau_nodes",
			metric.WithDescription("Live nodes in the final branch of a check"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checkLatency, err = meter.Float64Histogram(
			"tableau_check_duration_seconds",
			metric.WithDescription("Duration of reasoning checks"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCheck records one finished check in both metric systems.
func recordCheck(ctx context.Context, op, outcome string, duration time.Duration, branches, nodes int) {
	checksTotal.WithLabelValues(op, outcome).Inc()
	checkDuration.WithLabelValues(op).Observe(duration.Seconds())

	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	checkLatency.Record(ctx, duration.Seconds(), attrs)
	branchesExplored.Record(ctx, int64(branches), attrs)
	nodesCreated.Record(ctx, int64(nodes), attrs)
}
