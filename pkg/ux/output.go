// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders reasoner results for the tableau CLI.
//
// A Printer writes either styled output (colors, icons, boxes) for a
// terminal or tab-separated plain lines for scripts. Both carry the same
// information.
package ux

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title    lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

// Printer writes results to one writer.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter returns a Printer for w. Output is plain unless w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{w: w, plain: plain}
}

// NewPlainPrinter returns a Printer that never styles.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, plain: true}
}

// Plain reports whether output is unstyled.
func (p *Printer) Plain() bool { return p.plain }

// Title prints a heading. Plain output omits it.
func (p *Printer) Title(text string) {
	if p.plain {
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Verdict prints a yes/no answer for subject.
func (p *Printer) Verdict(subject string, ok bool, detail string) {
	if p.plain {
		word := "no"
		if ok {
			word = "yes"
		}
		if detail != "" {
			fmt.Fprintf(p.w, "%s\t%s\t%s\n", word, subject, detail)
		} else {
			fmt.Fprintf(p.w, "%s\t%s\n", word, subject)
		}
		return
	}
	icon, style := IconSuccess, Styles.Success
	if !ok {
		icon, style = IconError, Styles.Error
	}
	line := fmt.Sprintf("%s %s", icon.Render(), style.Render(subject))
	if detail != "" {
		line += " " + Styles.Muted.Render("("+detail+")")
	}
	fmt.Fprintln(p.w, line)
}

// Warning prints a non-fatal problem.
func (p *Printer) Warning(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "warn\t%s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Box prints text in a rounded box, or as "title: content" when plain.
func (p *Printer) Box(title, content string, failed bool) {
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", title, strings.ReplaceAll(content, "\n", "; "))
		return
	}
	style, titleStyle := Styles.Box, Styles.Title
	if failed {
		style, titleStyle = Styles.ErrorBox, Styles.Error.Bold(true)
	}
	fmt.Fprintln(p.w, style.Width(60).Render(titleStyle.Render(title)+"\n"+content))
}

// Stats prints key=value pairs in key order.
func (p *Printer) Stats(values map[string]int64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if p.plain {
			parts = append(parts, fmt.Sprintf("%s=%d", k, values[k]))
		} else {
			parts = append(parts, Styles.Bold.Render(fmt.Sprintf("%d", values[k]))+" "+Styles.Muted.Render(k))
		}
	}
	if p.plain {
		fmt.Fprintf(p.w, "stats\t%s\n", strings.Join(parts, " "))
		return
	}
	fmt.Fprintln(p.w, strings.Join(parts, "  "))
}

// Tree prints a taxonomy as an indented hierarchy under root. children maps
// a class to its direct subclasses. Equivalent classes are shown next to
// their representative.
func (p *Printer) Tree(root string, children, equivalents map[string][]string) {
	if p.plain {
		p.plainTree(children)
		return
	}
	seen := make(map[string]bool)
	var walk func(name string, depth int)
	walk = func(name string, depth int) {
		label := name
		if eq := equivalents[name]; len(eq) > 0 {
			label += " " + Styles.Muted.Render("≡ "+strings.Join(eq, ", "))
		}
		if depth == 0 {
			fmt.Fprintln(p.w, Styles.Title.Render(label))
		} else {
			fmt.Fprintf(p.w, "%s%s %s\n", strings.Repeat("  ", depth-1), IconBullet.Render(), label)
		}
		if seen[name] {
			return
		}
		seen[name] = true
		for _, c := range children[name] {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}

// plainTree prints one "child<TAB>parent" line per edge.
func (p *Printer) plainTree(children map[string][]string) {
	parents := make([]string, 0, len(children))
	for k := range children {
		parents = append(parents, k)
	}
	sort.Strings(parents)
	for _, parent := range parents {
		for _, child := range children[parent] {
			fmt.Fprintf(p.w, "sub\t%s\t%s\n", child, parent)
		}
	}
}
