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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/engine"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Compute the class hierarchy of an ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.load(args[0])
			if err != nil {
				return err
			}
			r, err := a.reasoner(o)
			if err != nil {
				return err
			}
			tax, err := engine.NewClassifier(r, a.cfg.ClassifierConfig()).Classify(cmd.Context())
			if err != nil {
				return err
			}

			a.out.Title("Taxonomy")
			a.out.Tree(engine.ThingName, childrenOf(tax), tax.Equivalents)
			if len(tax.Unsatisfiable) > 0 {
				a.out.Box("Unsatisfiable", strings.Join(tax.Unsatisfiable, "\n"), true)
			}
			a.out.Stats(map[string]int64{
				"classes":       int64(len(tax.Classes)),
				"unsatisfiable": int64(len(tax.Unsatisfiable)),
				"cache_hits":    tax.Cache.Hits,
				"cache_misses":  tax.Cache.Misses,
			})
			return nil
		},
	}
}

// childrenOf inverts the parent map. Of each group of equivalent classes
// only the alphabetically first is listed, the others are shown as its
// equivalents.
func childrenOf(tax *engine.Taxonomy) map[string][]string {
	hidden := make(map[string]bool)
	for name, eq := range tax.Equivalents {
		for _, other := range eq {
			if other < name {
				hidden[name] = true
				break
			}
		}
	}

	children := make(map[string][]string)
	for child, parents := range tax.Parents {
		if hidden[child] {
			continue
		}
		seen := make(map[string]bool)
		for _, p := range parents {
			if hidden[p] {
				p = representative(p, tax.Equivalents[p])
			}
			if !seen[p] {
				seen[p] = true
				children[p] = append(children[p], child)
			}
		}
	}
	for p := range children {
		sort.Strings(children[p])
	}
	return children
}

func representative(name string, eq []string) string {
	best := name
	for _, other := range eq {
		if other < best {
			best = other
		}
	}
	return best
}
