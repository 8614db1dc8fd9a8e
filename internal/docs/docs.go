// Package docs renders a Markdown parameter reference for a resolved schema.
// Descriptions may carry inline HTML, which is converted to Markdown.
package docs

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
)

// TargetName is the emit target name of the reference.
const TargetName = "markdown"

func init() {
	emit.Register(Target{})
}

// Target emits the reference as <base>.md.
type Target struct{}

// Name implements emit.Target.
func (Target) Name() string { return TargetName }

// Options are the markdown target settings under emit.markdown.
type Options struct {
	// Sources includes the modulation source tables (default true)
	Sources bool `mapstructure:"sources"`
	// Paths adds a column with the dotted path of each entry
	Paths bool `mapstructure:"paths"`
}

// DefaultOptions returns the default markdown options.
func DefaultOptions() Options {
	return Options{Sources: true}
}

// Emit implements emit.Target.
func (Target) Emit(doc *core.Document, opts emit.Options) ([]emit.Artifact, error) {
	o := DefaultOptions()
	if err := emit.DecodeOptions(emit.Section(opts.Extra, TargetName), &o); err != nil {
		return nil, err
	}
	content, err := Generate(doc, o)
	if err != nil {
		return nil, err
	}
	base := opts.Basename
	if base == "" {
		base = strings.ToLower(doc.Top.VarName)
	}
	return []emit.Artifact{{Name: base + ".md", Content: content}}, nil
}

// Generate renders the reference for doc.
func Generate(doc *core.Document, opts Options) ([]byte, error) {
	if err := emit.CheckDocument(doc); err != nil {
		return nil, err
	}

	w := &writer{opts: opts, title: cases.Title(language.English)}
	top := doc.Top

	w.printf("# %s\n\n", top.Name)
	if doc.File != "" {
		w.printf("Generated from `%s`.\n\n", doc.File)
	}
	w.printf("| | |\n|---|---|\n")
	w.printf("| Interface | %s |\n", w.title.String(doc.Interface.String()))
	w.printf("| Parameters | %d |\n", len(doc.Params))
	w.printf("| Sources | %d |\n\n", len(doc.Sources))

	if err := w.module(top, 2); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	buf   bytes.Buffer
	opts  Options
	title cases.Caser
}

func (w *writer) printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *writer) module(m *core.Module, depth int) error {
	for _, inst := range m.Instances {
		heading := m.Name
		if m.Repeated() {
			heading = inst.Namespace
		}
		if depth > 2 {
			w.printf("%s %s\n\n", strings.Repeat("#", min(depth, 6)), heading)
			w.printf("Parameters %s, sources %s.\n\n", inst.Params, inst.Sources)
		}

		if err := w.params(inst.Parameters()); err != nil {
			return err
		}
		if w.opts.Sources {
			if err := w.sources(inst.SourceEntries()); err != nil {
				return err
			}
		}
		for _, sub := range inst.Modules() {
			if err := w.module(sub, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) params(params []*core.Parameter) error {
	if len(params) == 0 {
		return nil
	}
	cols := []string{"ID", "Name", "Identifier", "Default", "Steps", "Format", "Flags", "Description"}
	if w.opts.Paths {
		cols = append(cols, "Path")
	}
	w.header(w.title.String(core.EntryParam.String()+"s"), cols)

	for _, p := range params {
		desc, err := description(p.Description)
		if err != nil {
			return fmt.Errorf("param %s: %w", p.Path, err)
		}
		row := []string{
			fmt.Sprint(p.ID), p.Name, code(p.Identifier), code(p.Default), code(p.Steps),
			code(p.Format), strings.Join(flags(p), ", "), desc,
		}
		if w.opts.Paths {
			row = append(row, code(p.Path))
		}
		w.row(row)
	}
	w.printf("\n")
	return nil
}

func (w *writer) sources(sources []*core.Source) error {
	if len(sources) == 0 {
		return nil
	}
	cols := []string{"ID", "Name", "Identifier", "Range", "Description"}
	if w.opts.Paths {
		cols = append(cols, "Path")
	}
	w.header(w.title.String(core.EntrySource.String()+"s"), cols)

	for _, s := range sources {
		desc, err := description(s.Description)
		if err != nil {
			return fmt.Errorf("source %s: %w", s.Path, err)
		}
		rng := "0..1"
		if s.Bidirectional {
			rng = "-1..1"
		}
		row := []string{fmt.Sprint(s.ID), s.Name, code(s.Identifier), rng, desc}
		if w.opts.Paths {
			row = append(row, code(s.Path))
		}
		w.row(row)
	}
	w.printf("\n")
	return nil
}

func (w *writer) header(caption string, cols []string) {
	w.printf("**%s**\n\n", caption)
	w.printf("| %s |\n", strings.Join(cols, " | "))
	w.printf("|%s\n", strings.Repeat("---|", len(cols)))
}

func (w *writer) row(cells []string) {
	for i, c := range cells {
		cells[i] = cell(c)
	}
	w.printf("| %s |\n", strings.Join(cells, " | "))
}

// description converts inline HTML to Markdown; plain text is returned as is.
func description(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s, nil
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("converting description: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// cell makes s safe inside a table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}

func flags(p *core.Parameter) []string {
	var out []string
	if p.Smoothing() {
		out = append(out, "smooth")
	}
	if p.Multiply {
		out = append(out, "multiply")
	}
	if !p.Constrain {
		out = append(out, "unconstrained")
	}
	if p.Modulatable {
		out = append(out, "modulatable")
	}
	if p.Automatable {
		out = append(out, "automatable")
	}
	return out
}
