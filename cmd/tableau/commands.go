// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianTableau/pkg/logging"
	"github.com/AleutianAI/AleutianTableau/pkg/ux"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/config"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/engine"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/ontology"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/telemetry"
)

// errNegative signals a well-formed "no" answer. It is never printed.
var errNegative = errors.New("negative answer")

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	out      *ux.Printer
	shutdown func(context.Context) error
}

// flags holds the persistent flag values.
type flags struct {
	configPath  string
	metricsAddr string
	logLevel    string
	logDir      string
	plain       bool
}

// newRootCmd builds the command tree writing results to stdout.
func newRootCmd(stdout io.Writer) *cobra.Command {
	var (
		f flags
		a = &app{}
	)

	rootCmd := &cobra.Command{
		Use:   "tableau",
		Short: "Consistency checking and classification for description logic ontologies",
		Long: `tableau decides consistency, satisfiability, subsumption and instance
queries over ontologies written as YAML or JSON documents, using a
tableau completion engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), f, stdout)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(context.WithoutCancel(cmd.Context()))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML or JSON configuration file")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	pf.StringVar(&f.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	pf.StringVar(&f.logDir, "log-dir", "", "also write JSON logs to this directory")
	pf.BoolVar(&f.plain, "plain", false, "tab-separated output even on a terminal")

	rootCmd.AddCommand(
		newCheckCmd(a),
		newClassifyCmd(a),
		newSubsumesCmd(a),
		newInstanceCmd(a),
	)
	return rootCmd
}

// setup loads configuration and starts logging, telemetry and the metrics
// endpoint.
func (a *app) setup(ctx context.Context, f flags, stdout io.Writer) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Observability.LogLevel = f.logLevel
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Observability.LogLevel)
	if err != nil {
		return err
	}
	format := logging.FormatAuto
	if cfg.Observability.LogJSON {
		format = logging.FormatJSON
	}
	a.logger, err = logging.New(logging.Config{
		Level:   level,
		Format:  format,
		LogDir:  f.logDir,
		Service: cfg.Observability.ServiceName,
	})
	if err != nil {
		return err
	}

	if f.plain {
		a.out = ux.NewPlainPrinter(stdout)
	} else {
		a.out = ux.NewPrinter(stdout)
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = cfg.Observability.ServiceName
	tcfg.TraceExporter = cfg.Observability.TraceExporter
	tcfg.MetricExporter = cfg.Observability.MetricExporter
	a.shutdown, err = telemetry.Init(ctx, tcfg)
	if err != nil {
		return err
	}

	if f.metricsAddr != "" {
		addr, err := telemetry.ServeMetrics(ctx, f.metricsAddr, a.logger.Slog())
		if err != nil {
			return err
		}
		a.logger.Slog().Info("serving metrics", slog.String("addr", addr))
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}

// load reads one ontology with the configured ingestion options.
func (a *app) load(path string) (*ontology.Ontology, error) {
	o, err := ontology.Load(path, ontology.Options{
		StrictAxioms: a.cfg.Ingestion.StrictAxioms,
		Logger:       a.logger.Slog(),
	})
	if err != nil {
		return nil, err
	}
	if n := len(o.Skipped); n > 0 {
		a.out.Warning(fmt.Sprintf("%s: skipped %d unsupported axiom(s)", path, n))
	}
	return o, nil
}

// reasoner builds a reasoner over o with the configured budget and
// blocking strategy.
func (a *app) reasoner(o *ontology.Ontology) (*engine.Reasoner, error) {
	return engine.New(engine.KnowledgeBase{
		Factory: o.Factory,
		TBox:    o.TBox,
		RBox:    o.RBox,
		ABox:    o.ABox,
	}, engine.Options{
		Budget:   a.cfg.EngineBudget(),
		Blocking: a.cfg.Blocking.Strategy,
		Logger:   a.logger.Slog(),
	})
}
