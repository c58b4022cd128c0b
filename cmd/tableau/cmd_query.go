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
	"fmt"

	"github.com/spf13/cobra"
)

// Concept arguments are class names or one-key mappings in document
// syntax, e.g. '{and: [Parent, {not: Male}]}'.

func newSubsumesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subsumes <file> <sub> <sup>",
		Short: "Decide whether every instance of sub is an instance of sup",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.load(args[0])
			if err != nil {
				return err
			}
			sub, err := o.ParseConcept(args[1])
			if err != nil {
				return err
			}
			sup, err := o.ParseConcept(args[2])
			if err != nil {
				return err
			}
			r, err := a.reasoner(o)
			if err != nil {
				return err
			}
			ok, err := r.IsSubsumedBy(cmd.Context(), sub, sup)
			if err != nil {
				return err
			}
			a.out.Verdict(fmt.Sprintf("%s ⊑ %s", sub, sup), ok, "")
			if !ok {
				return errNegative
			}
			return nil
		},
	}
}

func newInstanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "instance <file> <individual> <concept>",
		Short: "Decide whether an individual is an instance of a concept",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.load(args[0])
			if err != nil {
				return err
			}
			c, err := o.ParseConcept(args[2])
			if err != nil {
				return err
			}
			r, err := a.reasoner(o)
			if err != nil {
				return err
			}
			ok, err := r.IsInstanceOf(cmd.Context(), args[1], c)
			if err != nil {
				return err
			}
			a.out.Verdict(fmt.Sprintf("%s : %s", args[1], c), ok, "")
			if !ok {
				return errNegative
			}
			return nil
		},
	}
}
