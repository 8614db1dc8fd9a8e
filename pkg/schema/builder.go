// Package schema builds the resolved schema tree from parsed markup.
//
// Build walks the markup tree once in document order. Every module instance
// derives a child scope, every param and source gets the next id of its own
// counter, and display templates are resolved against the scope they appear
// in. Missing names are reported as diagnostics and only drop the offending
// subtree; the rest of the document still compiles.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/markup"
	"github.com/leapstack-labs/paramgen/pkg/scope"
)

// Element tags.
const (
	TagModule = "module"
	TagParam  = "param"
	TagSource = "source"
	TagIndex  = "index"
)

// Module-only attributes.
const (
	AttrNamespace      = "namespace"
	AttrShortNamespace = "short-namespace"
	AttrClassName      = "class-name"
	AttrCount          = "count"
)

// Sentinel errors returned by Build.
var (
	ErrNoTopModule      = errors.New("root element must be a module")
	ErrUnknownInterface = errors.New("unknown interface type")
	ErrRepeatedTop      = errors.New("top-level module cannot repeat")
)

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger diagnostics are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithFile records the schema file name on the document and its diagnostics.
func WithFile(name string) Option {
	return func(b *builder) {
		b.file = name
	}
}

// allocator hands out the two dense id sequences of one compile run.
type allocator struct {
	params  int
	sources int
}

func (a *allocator) param() int {
	id := a.params
	a.params++
	return id
}

func (a *allocator) source() int {
	id := a.sources
	a.sources++
	return id
}

type builder struct {
	logger *slog.Logger
	file   string
	ids    *allocator
	doc    *core.Document
}

// Build resolves a parsed document. The root element must be the top-level
// module; its interface attribute selects the runtime variant. The top-level
// module is always a singleton since generated code has one root struct.
func Build(ctx context.Context, root *markup.Node, opts ...Option) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &builder{
		logger: slog.New(slog.DiscardHandler),
		ids:    &allocator{},
	}
	for _, opt := range opts {
		opt(b)
	}

	if root == nil || root.Tag != TagModule {
		tag := "<nil>"
		if root != nil {
			tag = root.Tag
		}
		return nil, fmt.Errorf("%w: found <%s>", ErrNoTopModule, tag)
	}

	iface, ok := core.ParseInterfaceType(root.AttrOr(AttrInterface, ""))
	if !ok {
		return nil, fmt.Errorf("%w %q at %s", ErrUnknownInterface, root.Attrs[AttrInterface], root.Pos)
	}
	if c, err := strconv.Atoi(root.AttrOr(AttrCount, "0")); err == nil && c > 0 {
		return nil, fmt.Errorf("%w: count %d at %s", ErrRepeatedTop, c, root.Pos)
	}

	b.doc = &core.Document{File: b.file, Interface: iface}
	b.doc.Top = b.module(root, scope.Root())

	b.logger.Debug("schema built",
		"file", b.file,
		"interface", iface.String(),
		"params", len(b.doc.Params),
		"sources", len(b.doc.Sources),
		"diagnostics", len(b.doc.Diagnostics))

	return b.doc, nil
}

func (b *builder) module(n *markup.Node, parent scope.Scope) *core.Module {
	name, ok := b.requireName(n)
	if !ok {
		return nil
	}

	m := &core.Module{
		Name:           name,
		ShortName:      scope.Format(n.AttrOr(AttrShortName, name), parent, scope.Fields{Name: name}),
		Namespace:      n.AttrOr(AttrNamespace, "{name} {index}"),
		ShortNamespace: n.AttrOr(AttrShortNamespace, "{short-name} {index}"),
		VarName:        n.AttrOr(AttrVarName, scope.VarSlug(name)),
		ClassName:      n.AttrOr(AttrClassName, scope.ClassSlug(name)+"Parameters"),
		Count:          b.count(n),
		Pos:            n.Pos,
	}

	sm := scope.Module{
		Fields:         scope.Fields{Name: m.Name, ShortName: m.ShortName},
		VarName:        m.VarName,
		Namespace:      m.Namespace,
		ShortNamespace: m.ShortNamespace,
		Count:          m.Count,
	}

	for i := range max(m.Count, 1) {
		s := parent.Enter(sm, i)
		inst := &core.Instance{
			Index:          i,
			Namespace:      s.Namespace,
			ShortNamespace: s.ShortNamespace,
			Path:           s.Path,
		}

		paramStart, sourceStart := b.ids.params, b.ids.sources
		for _, child := range n.Elements() {
			switch child.Tag {
			case TagModule:
				if sub := b.module(child, s); sub != nil {
					inst.Entries = append(inst.Entries, core.Entry{Kind: core.EntryModule, Module: sub})
				}
			case TagParam:
				if p := b.param(child, s); p != nil {
					inst.Entries = append(inst.Entries, core.Entry{Kind: core.EntryParam, Param: p})
				}
			case TagSource:
				if src := b.source(child, s); src != nil {
					inst.Entries = append(inst.Entries, core.Entry{Kind: core.EntrySource, Source: src})
				}
			}
		}
		inst.Params = core.IDRange{Start: paramStart, End: b.ids.params}
		inst.Sources = core.IDRange{Start: sourceStart, End: b.ids.sources}

		m.Instances = append(m.Instances, inst)
	}

	return m
}

func (b *builder) count(n *markup.Node) int {
	raw, ok := n.Attr(AttrCount)
	if !ok {
		return 0
	}
	c, err := strconv.Atoi(raw)
	if err != nil || c < 0 {
		b.report(n, core.DiagInvalidCount, core.SeverityWarning,
			fmt.Sprintf("<%s> count %q is not a non-negative integer; treating as 0", n.Tag, raw))
		return 0
	}
	return c
}

func (b *builder) param(n *markup.Node, s scope.Scope) *core.Parameter {
	if _, ok := b.requireName(n); !ok {
		return nil
	}

	attrs := DefaultParamAttrs().Merge(OverrideFromNode(n))

	var overlays []core.Overlay
	for _, child := range n.Elements() {
		if child.Tag != TagIndex {
			continue
		}
		expr := child.AttrOr(AttrIf, "")
		applied := scope.ParseCondition(expr).Eval(s.Vars)
		if applied {
			attrs = attrs.Merge(OverrideFromNode(child))
		}
		overlays = append(overlays, core.Overlay{Condition: expr, Applied: applied, Pos: child.Pos})
	}

	if attrs.VarName == "" {
		attrs.VarName = scope.VarSlug(attrs.Name)
	}

	name := scope.Format(attrs.Name, s, scope.Fields{})
	shortName := scope.Format(attrs.ShortName, s, scope.Fields{Name: name})
	fields := scope.Fields{Name: name, ShortName: shortName}

	p := &core.Parameter{
		ID:              b.ids.param(),
		Name:            name,
		ShortName:       shortName,
		Identifier:      scope.Format(attrs.Identifier, s, fields),
		ShortIdentifier: scope.Format(attrs.ShortIdentifier, s, fields),
		VarName:         attrs.VarName,
		Description:     scope.Format(attrs.Description, s, fields),
		Default:         attrs.Default,
		Steps:           attrs.Steps,
		Transform:       NormalizeType(attrs.Transform),
		Format:          NormalizeFormat(attrs.Format),
		Smooth:          IsTrue(attrs.Smooth),
		Multiply:        IsSet(attrs.Multiply),
		Constrain:       IsTrue(attrs.Constrain),
		Modulatable:     IsTrue(attrs.Modulatable),
		Automatable:     IsTrue(attrs.Automatable),
		Interface:       attrs.Interface,
		Path:            s.Qualify(attrs.VarName),
		Overlays:        overlays,
		Pos:             n.Pos,
	}
	b.doc.Params = append(b.doc.Params, p)
	return p
}

func (b *builder) source(n *markup.Node, s scope.Scope) *core.Source {
	rawName, ok := b.requireName(n)
	if !ok {
		return nil
	}

	name := scope.Format(rawName, s, scope.Fields{})
	shortName := scope.Format(n.AttrOr(AttrShortName, "{name}"), s, scope.Fields{Name: name})
	fields := scope.Fields{Name: name, ShortName: shortName}
	varName := n.AttrOr(AttrVarName, scope.VarSlug(rawName))

	src := &core.Source{
		ID:              b.ids.source(),
		Name:            name,
		ShortName:       shortName,
		Identifier:      scope.Format(n.AttrOr(AttrIdentifier, "{namespace} {name}"), s, fields),
		ShortIdentifier: scope.Format(n.AttrOr(AttrShortIdentifier, "{short-namespace} {short-name}"), s, fields),
		VarName:         varName,
		Description:     scope.Format(n.AttrOr(AttrDescription, ""), s, fields),
		Bidirectional:   IsSet(n.AttrOr(AttrBidirectional, "false")),
		Interface:       n.AttrOr(AttrInterface, ""),
		Path:            s.Qualify(varName),
		Pos:             n.Pos,
	}
	b.doc.Sources = append(b.doc.Sources, src)
	return src
}

// requireName returns the name attribute, reporting MissingRequiredName when
// it is absent or empty.
func (b *builder) requireName(n *markup.Node) (string, bool) {
	name := n.AttrOr(AttrName, "")
	if name == "" {
		b.report(n, core.DiagMissingRequiredName, core.SeverityError,
			fmt.Sprintf("<%s> has no name; element and its children skipped", n.Tag))
		return "", false
	}
	return name, true
}

func (b *builder) report(n *markup.Node, code string, sev core.Severity, msg string) {
	d := core.Diagnostic{
		Code:     code,
		Severity: sev,
		Message:  msg,
		Pos:      n.Pos,
	}
	b.doc.Diagnostics = append(b.doc.Diagnostics, d)
	b.logger.Warn("schema diagnostic",
		"file", b.file,
		"code", code,
		"pos", n.Pos.String(),
		"message", msg)
}
