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
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/engine"
	"github.com/AleutianAI/AleutianTableau/services/reasoner/ontology"
)

func newCheckCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check <file|glob>...",
		Short: "Check that each ontology is consistent",
		Long: `Check loads every matching ontology file and decides whether it is
consistent. Patterns may use ** to match nested directories. With --watch
the files are checked again whenever they change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := ontology.Glob(args)
			if err != nil {
				return err
			}
			a.out.Title("Consistency")
			failed, err := a.checkFiles(cmd.Context(), files)
			if err != nil {
				return err
			}
			if watch {
				return a.watch(cmd.Context(), files)
			}
			if failed {
				return errNegative
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check files when they change")
	return cmd
}

// checkFiles checks each file and reports whether any was inconsistent.
// Load errors are fatal. Budget exhaustion is reported per file.
func (a *app) checkFiles(ctx context.Context, files []string) (bool, error) {
	failed := false
	for _, path := range files {
		ok, err := a.checkFile(ctx, path)
		if err != nil {
			return failed, err
		}
		failed = failed || !ok
	}
	return failed, nil
}

func (a *app) checkFile(ctx context.Context, path string) (bool, error) {
	o, err := a.load(path)
	if err != nil {
		return false, err
	}
	r, err := a.reasoner(o)
	if err != nil {
		return false, err
	}
	res, err := r.Check(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	detail := ""
	if !res.Consistent {
		detail = describeClash(o, res)
	}
	a.out.Verdict(path, res.Consistent, detail)
	a.out.Stats(map[string]int64{
		"steps":     res.Steps,
		"branches":  int64(res.Tree.Branches),
		"forks":     int64(res.Tree.Forks),
		"abandoned": int64(res.Tree.Abandoned),
	})
	return res.Consistent, nil
}

// describeClash names the individual and terms of a clash when known.
func describeClash(o *ontology.Ontology, res engine.Result) string {
	c := res.Clash
	if c.IsZero() {
		return "no open branch"
	}
	var parts []string
	if c.Reason != "" {
		parts = append(parts, c.Reason)
	}
	if n := o.ABox.Node(c.Node); n != nil && !n.IsAnonymous() {
		parts = append(parts, "individual "+strings.Join(n.Names(), "="))
	}
	if len(c.Terms) > 0 {
		ts := make([]string, len(c.Terms))
		for i, t := range c.Terms {
			ts[i] = t.String()
		}
		parts = append(parts, strings.Join(ts, ", "))
	}
	return strings.Join(parts, "; ")
}

// watch re-checks changed files until ctx is cancelled.
func (a *app) watch(ctx context.Context, files []string) error {
	logger := a.logger.Slog().With(slog.String("component", "watch"))
	w, err := ontology.NewWatcher(files, ontology.DefaultDebounce, func(changed []string) {
		for _, path := range changed {
			if _, err := a.checkFile(ctx, path); err != nil {
				a.out.Verdict(path, false, err.Error())
			}
		}
	}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching for changes", slog.Int("files", len(files)))
	<-ctx.Done()
	return nil
}
