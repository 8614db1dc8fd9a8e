// Package golang emits Go source for a schema document.
//
// Two files are produced. The layout file declares one struct per module
// class with the parameters as synthrt.Param fields, the id range of every
// instance and a constructor that fills in the metadata. The rules file
// declares the commit and tick procedures on the top-level struct.
package golang

import (
	"fmt"
	"path"
	"strings"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/rules"
)

// TargetName is the registry name of this target.
const TargetName = "go"

func init() {
	emit.Register(Target{})
}

// Target emits Go source.
type Target struct{}

// Name implements emit.Target.
func (Target) Name() string { return TargetName }

// Options are the settings read from emit.go in the project config.
type Options struct {
	// Receiver is the receiver name of generated methods.
	Receiver string `mapstructure:"receiver"`
	// RangeType is the name of the id range type.
	RangeType string `mapstructure:"range_type"`
	// EmitRangeType declares RangeType in the layout file. Disable it when
	// several schemas share one package.
	EmitRangeType bool `mapstructure:"emit_range_type"`
}

// DefaultOptions returns the settings used when the config has none.
func DefaultOptions() Options {
	return Options{
		Receiver:      "s",
		RangeType:     "IDRange",
		EmitRangeType: true,
	}
}

type generator struct {
	doc  *core.Document
	plan *rules.Plan
	acc  *accessors
	opts Options

	pkg     string
	top     string
	recv    string
	rt      string
	rtPath  string
	rtAlias string
}

// Emit implements emit.Target.
func (Target) Emit(doc *core.Document, opts emit.Options) ([]emit.Artifact, error) {
	if err := emit.CheckDocument(doc); err != nil {
		return nil, err
	}

	o := DefaultOptions()
	if err := emit.DecodeOptions(emit.Section(opts.Extra, TargetName), &o); err != nil {
		return nil, err
	}

	g, err := newGenerator(doc, opts, o)
	if err != nil {
		return nil, err
	}

	layout, err := g.layout()
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	procs, err := g.rules()
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	base := opts.Basename
	if base == "" {
		base = strings.ToLower(doc.Top.VarName)
	}
	return []emit.Artifact{
		{Name: base + "_layout.go", Content: layout},
		{Name: base + "_rules.go", Content: procs},
	}, nil
}

func newGenerator(doc *core.Document, opts emit.Options, o Options) (*generator, error) {
	acc, err := collectAccessors(doc)
	if err != nil {
		return nil, err
	}

	g := &generator{
		doc:    doc,
		plan:   rules.NewPlan(doc),
		acc:    acc,
		opts:   o,
		pkg:    opts.Package,
		top:    doc.Top.ClassName,
		recv:   o.Receiver,
		rtPath: opts.RuntimeImport,
	}
	if g.pkg == "" {
		g.pkg = strings.ToLower(doc.Top.VarName)
	}
	if g.rtPath == "" {
		g.rtPath = emit.DefaultRuntimeImport
	}
	g.rt = "synthrt"
	if path.Base(g.rtPath) != g.rt {
		g.rtAlias = g.rt
	}

	for _, name := range []string{g.pkg, g.recv, g.top, g.opts.RangeType} {
		if _, err := exported(name); err != nil {
			return nil, err
		}
	}
	if reservedLocals[g.recv] {
		return nil, fmt.Errorf("%w: receiver %q is used by generated locals", ErrInvalidIdentifier, g.recv)
	}
	return g, nil
}

// reservedLocals are the local names generated method bodies declare.
var reservedLocals = map[string]bool{
	"ctx": true, "id": true, "v": true, "p": true, "m": true, "r": true, "fn": true,
}

func (g *generator) header(p *printer) {
	src := g.doc.File
	if src == "" {
		src = "schema"
	}
	p.line("// Code generated by paramgen from %s. DO NOT EDIT.", src)
	p.writeln()
	p.line("package %s", g.pkg)
	p.writeln()
}

func (g *generator) imports(p *printer, paths ...string) {
	p.line("import (")
	p.indent()
	for _, ip := range paths {
		if ip == g.rtPath && g.rtAlias != "" {
			p.line("%s %q", g.rtAlias, ip)
			continue
		}
		p.line("%q", ip)
	}
	p.dedent()
	p.line(")")
	p.writeln()
}
