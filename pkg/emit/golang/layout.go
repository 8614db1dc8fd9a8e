package golang

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// structField is one field of a generated struct.
type structField struct {
	name  string
	typ   string
	entry core.Entry
}

// structDef is the generated struct of one module class.
type structDef struct {
	class  string
	module *core.Module
	fields []structField
}

// kindOrder lists fields sources first, then params, then nested modules.
var kindOrder = []core.EntryKind{core.EntrySource, core.EntryParam, core.EntryModule}

func (g *generator) instanceFields(m *core.Module, inst *core.Instance) ([]structField, error) {
	seen := map[string]bool{fieldParams: true, fieldSources: true}
	var fields []structField
	for _, kind := range kindOrder {
		for _, e := range inst.Entries {
			if e.Kind != kind {
				continue
			}
			name, err := exported(e.VarName())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", inst.Path, err)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w %q in %s", ErrDuplicateField, name, m.ClassName)
			}
			seen[name] = true
			fields = append(fields, structField{name: name, typ: g.fieldType(e), entry: e})
		}
	}
	return fields, nil
}

func (g *generator) fieldType(e core.Entry) string {
	switch e.Kind {
	case core.EntryParam:
		return g.rt + ".Param"
	case core.EntrySource:
		return g.rt + ".Source"
	default:
		if e.Module.Repeated() {
			return fmt.Sprintf("[%d]%s", e.Module.Count, e.Module.ClassName)
		}
		return e.Module.ClassName
	}
}

// structs returns one definition per class, nested classes first.
func (g *generator) structs() ([]*structDef, error) {
	var defs []*structDef
	byClass := make(map[string]*structDef)

	for _, m := range g.doc.Modules() {
		var fields []structField
		for k, inst := range m.Instances {
			f, err := g.instanceFields(m, inst)
			if err != nil {
				return nil, err
			}
			if k == 0 {
				fields = f
				continue
			}
			if !sameLayout(fields, f) {
				return nil, fmt.Errorf("%w: %s instance %d", ErrInstanceMismatch, m.ClassName, k)
			}
		}

		if prev, ok := byClass[m.ClassName]; ok {
			if !sameLayout(prev.fields, fields) {
				return nil, fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateType, m.ClassName, prev.module.Pos, m.Pos)
			}
			continue
		}
		def := &structDef{class: m.ClassName, module: m, fields: fields}
		byClass[m.ClassName] = def
		defs = append(defs, def)
	}
	return defs, nil
}

func sameLayout(a, b []structField) bool {
	return slices.EqualFunc(a, b, func(x, y structField) bool {
		return x.name == y.name && x.typ == y.typ
	})
}

func (g *generator) layout() ([]byte, error) {
	defs, err := g.structs()
	if err != nil {
		return nil, err
	}

	p := newPrinter()
	g.header(p)
	g.imports(p, g.rtPath)

	p.line("// %s is the number of parameters.", g.top+"ParamCount")
	p.line("const %sParamCount = %d", g.top, len(g.doc.Params))
	p.writeln()
	p.line("// %s is the number of modulation sources.", g.top+"SourceCount")
	p.line("const %sSourceCount = %d", g.top, len(g.doc.Sources))
	p.writeln()

	if g.opts.EmitRangeType {
		g.rangeType(p)
	}

	for _, def := range defs {
		g.structType(p, def)
	}

	g.dispatch(p, "ParamByID", "Param", "parameter", g.acc.params)
	g.dispatch(p, "SourceByID", "Source", "modulation source", g.acc.sources)

	if err := g.constructor(p); err != nil {
		return nil, err
	}
	return p.Bytes()
}

func (g *generator) rangeType(p *printer) {
	r := g.opts.RangeType
	p.line("// %s is a half-open range of ids [Start, End).", r)
	p.open("type %s struct", r)
	p.line("Start int")
	p.line("End   int")
	p.close("")
	p.writeln()
	p.line("// Len returns the number of ids in the range.")
	p.line("func (r %s) Len() int { return r.End - r.Start }", r)
	p.writeln()
	p.line("// Contains reports whether id lies in the range.")
	p.line("func (r %s) Contains(id int) bool { return id >= r.Start && id < r.End }", r)
	p.writeln()
	p.line("// Each calls fn for every id in the range, in order.")
	p.open("func (r %s) Each(fn func(id int))", r)
	p.open("for id := r.Start; id < r.End; id++")
	p.line("fn(id)")
	p.close("")
	p.close("")
	p.writeln()
}

func (g *generator) structType(p *printer, def *structDef) {
	m := def.module
	if m.Repeated() {
		p.line("// %s holds one of the %d %s instances.", def.class, m.Count, m.Name)
	} else {
		p.line("// %s holds the %s parameters.", def.class, m.Name)
	}
	p.open("type %s struct", def.class)
	for _, f := range def.fields {
		p.line("%s %s", f.name, f.typ)
	}
	if len(def.fields) > 0 {
		p.writeln()
	}
	p.line("%s %s", fieldParams, g.opts.RangeType)
	p.line("%s %s", fieldSources, g.opts.RangeType)
	p.close("")
	p.writeln()
}

// dispatch writes a switch from global id to the owning field.
func (g *generator) dispatch(p *printer, fn, typ, what string, exprs []string) {
	p.line("// %s returns the %s with the given id, or nil.", fn, what)
	p.open("func (%s *%s) %s(id int) *%s.%s", g.recv, g.top, fn, g.rt, typ)
	if len(exprs) > 0 {
		p.line("switch id {")
		for id, expr := range exprs {
			p.line("case %d:", id)
			p.indent()
			p.line("return &%s.%s", g.recv, expr)
			p.dedent()
		}
		p.line("}")
	}
	p.line("return nil")
	p.close("")
	p.writeln()
}

func (g *generator) constructor(p *printer) error {
	top := g.doc.Top
	p.line("// New%s returns the parameter tree with every value at its default.", g.top)
	p.open("func New%s() *%s", g.top, g.top)
	p.write("return &" + g.top)
	if err := g.instanceLiteral(p, top, top.Instances[0]); err != nil {
		return err
	}
	p.writeln()
	p.close("")
	return nil
}

func (g *generator) instanceLiteral(p *printer, m *core.Module, inst *core.Instance) error {
	fields, err := g.instanceFields(m, inst)
	if err != nil {
		return err
	}

	p.write("{")
	p.writeln()
	p.indent()
	for _, f := range fields {
		p.write(f.name + ": ")
		switch f.entry.Kind {
		case core.EntryParam:
			if err := g.paramLiteral(p, f.entry.Param); err != nil {
				return err
			}
		case core.EntrySource:
			g.sourceLiteral(p, f.entry.Source)
		case core.EntryModule:
			if err := g.moduleLiteral(p, f.entry.Module); err != nil {
				return err
			}
		}
		p.write(",")
		p.writeln()
	}
	p.line("%s: %s{Start: %d, End: %d},", fieldParams, g.opts.RangeType, inst.Params.Start, inst.Params.End)
	p.line("%s: %s{Start: %d, End: %d},", fieldSources, g.opts.RangeType, inst.Sources.Start, inst.Sources.End)
	p.dedent()
	p.write("}")
	return nil
}

func (g *generator) moduleLiteral(p *printer, m *core.Module) error {
	if !m.Repeated() {
		p.write(m.ClassName)
		return g.instanceLiteral(p, m, m.Instances[0])
	}
	p.writef("[%d]%s{", m.Count, m.ClassName)
	p.writeln()
	p.indent()
	for _, inst := range m.Instances {
		if err := g.instanceLiteral(p, m, inst); err != nil {
			return err
		}
		p.write(",")
		p.writeln()
	}
	p.dedent()
	p.write("}")
	return nil
}

func (g *generator) paramLiteral(p *printer, param *core.Parameter) error {
	def, ok := param.DefaultValue()
	if !ok {
		return fmt.Errorf("%w: %s default %q", ErrInvalidValue, param.Path, param.Default)
	}
	steps, ok := param.StepCount()
	if !ok {
		return fmt.Errorf("%w: %s steps %q", ErrInvalidValue, param.Path, param.Steps)
	}
	d := formatFloat(def)

	p.write(g.rt + ".Param{")
	p.writeln()
	p.indent()
	p.line("ID: %d,", param.ID)
	p.line("Name: %s,", strconv.Quote(param.Name))
	p.line("ShortName: %s,", strconv.Quote(param.ShortName))
	p.line("Identifier: %s,", strconv.Quote(param.Identifier))
	p.line("ShortIdentifier: %s,", strconv.Quote(param.ShortIdentifier))
	if param.Description != "" {
		p.line("Description: %s,", strconv.Quote(param.Description))
	}
	p.line("Default: %s,", d)
	p.line("Steps: %d,", steps)
	p.line("Transform: %s,", strconv.Quote(param.Transform))
	p.line("Format: %s,", strconv.Quote(param.Format))
	p.line("Smooth: %t,", param.Smooth)
	p.line("Multiply: %t,", param.Multiply)
	p.line("Constrain: %t,", param.Constrain)
	p.line("Modulatable: %t,", param.Modulatable)
	p.line("Automatable: %t,", param.Automatable)
	p.line("Value: %s,", d)
	p.line("Goal: %s,", d)
	p.line("Access: %s,", d)
	p.dedent()
	p.write("}")
	return nil
}

func (g *generator) sourceLiteral(p *printer, src *core.Source) {
	p.write(g.rt + ".Source{")
	p.writeln()
	p.indent()
	p.line("ID: %d,", src.ID)
	p.line("Name: %s,", strconv.Quote(src.Name))
	p.line("ShortName: %s,", strconv.Quote(src.ShortName))
	p.line("Identifier: %s,", strconv.Quote(src.Identifier))
	p.line("ShortIdentifier: %s,", strconv.Quote(src.ShortIdentifier))
	if src.Description != "" {
		p.line("Description: %s,", strconv.Quote(src.Description))
	}
	p.line("Bidirectional: %t,", src.Bidirectional)
	p.dedent()
	p.write("}")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
