// Package rules derives the runtime update rules of a schema.
//
// A Plan is the language-neutral description of what every parameter does
// on an edit commit and on each control tick. Emitters turn it into source
// text; Machine executes it directly.
//
// Each parameter is a two-state machine:
//
//	Idle      --commit while active-->   Smoothing (goal set, changing raised)
//	any       --commit while inactive--> Idle (value = goal = access, increment 0)
//
// Parameters that do not smooth (stepped, or smooth="false") have no tick
// pass and always commit synchronously.
package rules

import (
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/synthrt"
)

// ParamRule is the update behavior of one parameter.
type ParamRule struct {
	ID   int
	Path string
	// Smoothing parameters get a tick pass and commit asynchronously while
	// the host is active.
	Smoothing bool
	// Modulatable parameters publish through the modulation and clamp steps.
	Modulatable bool
	// Modulate is set when bound sources are combined into the value.
	Modulate  bool
	Multiply  bool
	Constrain bool
	// Binding is the host expression invoked with the published value.
	Binding string
}

// SourceRule refreshes one source from its host binding.
type SourceRule struct {
	ID            int
	Path          string
	Bidirectional bool
	Binding       string
}

// Plan is the complete rule set of a document.
type Plan struct {
	Interface core.InterfaceType
	Params    []ParamRule
	// Sources lists the bound sources refreshed each tick. Only the
	// modulation interface refreshes sources.
	Sources []SourceRule
}

// HasTick reports whether the plan has per-tick procedures. Documents
// without an interface type only get commit procedures.
func (p *Plan) HasTick() bool {
	return p.Interface != core.InterfaceNone
}

// Smoothing returns the rules that have a tick pass.
func (p *Plan) Smoothing() []ParamRule {
	var out []ParamRule
	for _, r := range p.Params {
		if r.Smoothing {
			out = append(out, r)
		}
	}
	return out
}

// NewPlan derives the rules of doc.
func NewPlan(doc *core.Document) *Plan {
	plan := &Plan{Interface: doc.Interface}

	for _, p := range doc.Params {
		plan.Params = append(plan.Params, ParamRule{
			ID:          p.ID,
			Path:        p.Path,
			Smoothing:   p.Smoothing(),
			Modulatable: p.Modulatable,
			Modulate:    p.Modulatable && doc.Interface == core.InterfaceModulation,
			Multiply:    p.Multiply,
			Constrain:   p.Constrain,
			Binding:     p.Interface,
		})
	}

	if doc.Interface == core.InterfaceModulation {
		for _, s := range doc.Sources {
			if s.Interface == "" {
				continue
			}
			plan.Sources = append(plan.Sources, SourceRule{
				ID:            s.ID,
				Path:          s.Path,
				Bidirectional: s.Bidirectional,
				Binding:       s.Interface,
			})
		}
	}
	return plan
}

// Commit applies an edit of value v. It returns true when the value was
// published synchronously, in which case the binding receives v.
func (r ParamRule) Commit(p *synthrt.Param, active bool, v float64) bool {
	if r.Smoothing && active {
		p.Goal = v
		p.Changing = true
		return false
	}
	p.Value = v
	p.Goal = v
	p.Access = v
	p.Increment = 0
	p.Changing = false
	return true
}

// Tick advances the parameter by one control cycle and returns the
// published value. Callers skip parameters the host does not mark necessary.
func (r ParamRule) Tick(p *synthrt.Param, mods []synthrt.Modulation) float64 {
	p.Value += p.Increment
	if !r.Modulatable {
		p.Access = p.Value
		return p.Access
	}

	v := p.Value
	if r.Modulate {
		for _, m := range mods {
			if r.Multiply {
				v *= synthrt.MultiplyFactor(m.Amount, m.Source.Normalized)
			} else {
				v += m.Amount * m.Source.Value
			}
		}
	}
	if r.Constrain {
		v = synthrt.Clamp(v)
	}
	p.Access = v
	return v
}

// Refresh stores a host reading x into the source. Bidirectional sources
// read normalized signals and derive Value = x*2-1.
func (r SourceRule) Refresh(s *synthrt.Source, x float64) {
	s.Normalized = x
	if r.Bidirectional {
		s.Value = x*2 - 1
		return
	}
	s.Value = x
}
