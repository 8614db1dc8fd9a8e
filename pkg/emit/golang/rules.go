package golang

import (
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/rules"
)

// procs holds the generated method names of each parameter.
type procs struct {
	commit []string
	update []string
}

func (g *generator) procNames() procs {
	commits := newProcNames("commit")
	updates := newProcNames("update")
	pr := procs{
		commit: make([]string, len(g.plan.Params)),
		update: make([]string, len(g.plan.Params)),
	}
	for _, r := range g.plan.Params {
		pr.commit[r.ID] = commits.name(g.acc.params[r.ID], r.ID)
		if r.Smoothing {
			pr.update[r.ID] = updates.name(g.acc.params[r.ID], r.ID)
		}
	}
	return pr
}

func (g *generator) rules() ([]byte, error) {
	names := g.procNames()

	p := newPrinter()
	g.header(p)
	g.imports(p, g.rtPath)

	g.setParameterValue(p, names)
	for _, r := range g.plan.Params {
		g.commitProc(p, r, names.commit[r.ID])
	}

	if g.plan.HasTick() {
		g.updateProc(p, names)
		if g.plan.Interface == core.InterfaceModulation {
			g.refreshProc(p)
		}
		for _, r := range g.plan.Smoothing() {
			g.tickProc(p, r, names.update[r.ID])
		}
	}
	return p.Bytes()
}

func (g *generator) setParameterValue(p *printer, names procs) {
	p.line("// SetParameterValue commits value v to parameter id. It reports false")
	p.line("// when id is unknown.")
	p.open("func (%s *%s) SetParameterValue(ctx %s.Context, id int, v float64) bool", g.recv, g.top, g.rt)
	if len(g.plan.Params) > 0 {
		p.line("switch id {")
		for _, r := range g.plan.Params {
			p.line("case %d:", r.ID)
			p.indent()
			p.line("%s.%s(ctx, v)", g.recv, names.commit[r.ID])
			p.dedent()
		}
		p.line("default:")
		p.indent()
		p.line("return false")
		p.dedent()
		p.line("}")
		p.line("return true")
	} else {
		p.line("return false")
	}
	p.close("")
	p.writeln()
}

func (g *generator) commitProc(p *printer, r rules.ParamRule, name string) {
	expr := g.acc.params[r.ID]
	p.line("// %s: %s", name, r.Path)
	p.open("func (%s *%s) %s(ctx %s.Context, v float64)", g.recv, g.top, name, g.rt)
	p.line("p := &%s.%s", g.recv, expr)
	if r.Smoothing {
		p.open("if ctx.Active()")
		p.line("p.Goal = v")
		p.line("p.Changing = true")
		p.line("return")
		p.close("")
	}
	p.line("p.Value = v")
	p.line("p.Goal = v")
	p.line("p.Access = v")
	p.line("p.Increment = 0")
	p.line("p.Changing = false")
	if r.Binding != "" {
		p.line("%s(v)", r.Binding)
	}
	p.close("")
	p.writeln()
}

func (g *generator) updateProc(p *printer, names procs) {
	p.line("// Update runs one control tick.")
	p.open("func (%s *%s) Update(ctx %s.Context)", g.recv, g.top, g.rt)
	if g.plan.Interface == core.InterfaceModulation {
		p.line("%s.RefreshSources()", g.recv)
	}
	for _, r := range g.plan.Smoothing() {
		p.line("%s.%s(ctx)", g.recv, names.update[r.ID])
	}
	p.close("")
	p.writeln()
}

func (g *generator) refreshProc(p *printer) {
	p.line("// RefreshSources reads every bound modulation source.")
	p.open("func (%s *%s) RefreshSources()", g.recv, g.top)
	for _, r := range g.plan.Sources {
		p.line("%s.%s.Set(%s())", g.recv, g.acc.sources[r.ID], r.Binding)
	}
	p.close("")
	p.writeln()
}

func (g *generator) tickProc(p *printer, r rules.ParamRule, name string) {
	expr := g.acc.params[r.ID]
	p.open("func (%s *%s) %s(ctx %s.Context)", g.recv, g.top, name, g.rt)
	p.open("if !ctx.Necessary(%d)", r.ID)
	p.line("return")
	p.close("")
	p.line("p := &%s.%s", g.recv, expr)
	p.line("p.Value += p.Increment")

	if !r.Modulatable {
		p.line("p.Access = p.Value")
		if r.Binding != "" {
			p.line("%s(p.Access)", r.Binding)
		}
		p.close("")
		p.writeln()
		return
	}

	p.line("v := p.Value")
	if r.Modulate {
		p.open("for _, m := range ctx.Modulations(%d)", r.ID)
		if r.Multiply {
			p.line("v *= %s.MultiplyFactor(m.Amount, m.Source.Normalized)", g.rt)
		} else {
			p.line("v += m.Amount * m.Source.Value")
		}
		p.close("")
	}
	if r.Constrain {
		p.line("v = %s.Clamp(v)", g.rt)
	}
	p.line("p.Access = v")
	if r.Binding != "" {
		p.line("%s(v)", r.Binding)
	}
	p.close("")
	p.writeln()
}
