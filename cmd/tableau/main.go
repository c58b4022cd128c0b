// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tableau checks and classifies description logic ontologies.
//
// Usage:
//
//	tableau check family.yaml 'ontologies/**/*.yaml'
//	tableau check --watch family.yaml
//	tableau classify family.yaml
//	tableau subsumes family.yaml Mother Parent
//	tableau instance family.yaml alice '{some: {role: hasChild, concept: Thing}}'
//
// Exit status is 0 for a positive answer, 1 for a negative one (an
// inconsistent ontology, a failed subsumption or instance test) and 2 for
// errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:]))
}

// run executes the command line and maps the outcome to an exit status.
func run(ctx context.Context, args []string) int {
	cmd := newRootCmd(os.Stdout)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNegative):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
}
