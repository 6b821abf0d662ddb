// Package ui renders validation reports for the terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
)

// Printer writes reports as sectioned, optionally colored text.
type Printer struct {
	out io.Writer
	st  styles
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer, mode ColorMode) *Printer {
	return &Printer{out: out, st: newStyles(UseColor(mode, out))}
}

// Print renders the whole report: header, sections, summary and totals.
func (p *Printer) Print(r *engine.Report) {
	p.st.header.Fprintf(p.out, "=== Validating marketplace configuration ===\n")
	p.st.muted.Fprintf(p.out, "Repository: %s\n", r.Root)

	for _, s := range r.Sections {
		fmt.Fprintln(p.out)
		p.st.header.Fprintf(p.out, "%s...\n", s.Title)
		for _, f := range s.Findings {
			p.finding(f)
		}
	}

	fmt.Fprintln(p.out)
	if r.Fatal != nil {
		p.st.fail.Fprintf(p.out, "✗ Validation aborted: %v\n", r.Fatal)
		return
	}

	p.summary(r.Summary)
	p.totals(r)
}

func (p *Printer) finding(f engine.Finding) {
	switch f.Level {
	case engine.LevelOK:
		p.st.ok.Fprintf(p.out, "  OK: %s\n", f.Message)
	case engine.LevelWarning:
		p.st.warning.Fprintf(p.out, "  WARNING: %s\n", f.Message)
	case engine.LevelError:
		p.st.fail.Fprintf(p.out, "  ERROR: %s\n", f.Message)
	case engine.LevelFatal:
		p.st.fail.Fprintf(p.out, "  FATAL: %s\n", f.Message)
	default:
		fmt.Fprintf(p.out, "  %s\n", f.Message)
	}
}

func (p *Printer) summary(s *engine.Summary) {
	if s == nil {
		return
	}
	p.st.header.Fprintf(p.out, "=== Summary ===\n")
	fmt.Fprintf(p.out, "Skills registered: %d\n", s.Skills)
	if s.Mode == manifest.AgentsDirectory {
		fmt.Fprintf(p.out, "Agents registered: %d (directory mode: %s)\n", s.Agents, s.AgentsDir)
	} else {
		fmt.Fprintf(p.out, "Agents registered: %d\n", s.Agents)
	}
	version := s.Version
	if version == "" {
		version = "(not set)"
	}
	fmt.Fprintf(p.out, "Plugin version: %s\n", version)
}

func (p *Printer) totals(r *engine.Report) {
	errs, warns := r.Errors(), r.Warnings()
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Errors: %d\n", errs)
	fmt.Fprintf(p.out, "Warnings: %d\n", warns)
	fmt.Fprintln(p.out)

	switch {
	case errs > 0:
		p.st.fail.Fprintf(p.out, "✗ Validation failed with %d error(s)\n", errs)
	case warns > 0:
		p.st.warning.Fprintf(p.out, "✓ Validation passed with %d warning(s)\n", warns)
	default:
		p.st.ok.Fprintf(p.out, "✓ Validation passed\n")
	}
}
