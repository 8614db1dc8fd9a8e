package rules

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/synthrt"
)

// ErrUnknownParam is returned for ids outside the document.
var ErrUnknownParam = errors.New("unknown parameter id")

// ErrUnknownSource is returned for source ids outside the document.
var ErrUnknownSource = errors.New("unknown source id")

// Machine executes a Plan in process. It behaves exactly like the emitted
// code and backs the simulator.
type Machine struct {
	plan    *Plan
	params  []*synthrt.Param
	sources []*synthrt.Source
	sinks   map[string]func(float64)
	inputs  map[string]func() float64
}

// NewMachine creates a machine for doc with every parameter at its default.
func NewMachine(doc *core.Document) *Machine {
	m := &Machine{
		plan:   NewPlan(doc),
		sinks:  make(map[string]func(float64)),
		inputs: make(map[string]func() float64),
	}
	for _, p := range doc.Params {
		m.params = append(m.params, RuntimeParam(p))
	}
	for _, s := range doc.Sources {
		m.sources = append(m.sources, RuntimeSource(s))
	}
	return m
}

// RuntimeParam converts resolved metadata into a live parameter at its
// default value. Non-numeric defaults and steps become 0.
func RuntimeParam(p *core.Parameter) *synthrt.Param {
	def, _ := p.DefaultValue()
	steps, _ := p.StepCount()
	rp := &synthrt.Param{
		ID:              p.ID,
		Name:            p.Name,
		ShortName:       p.ShortName,
		Identifier:      p.Identifier,
		ShortIdentifier: p.ShortIdentifier,
		Description:     p.Description,
		Default:         def,
		Steps:           steps,
		Transform:       p.Transform,
		Format:          p.Format,
		Smooth:          p.Smooth,
		Multiply:        p.Multiply,
		Constrain:       p.Constrain,
		Modulatable:     p.Modulatable,
		Automatable:     p.Automatable,
	}
	rp.Reset()
	return rp
}

// RuntimeSource converts resolved metadata into a live source.
func RuntimeSource(s *core.Source) *synthrt.Source {
	return &synthrt.Source{
		ID:              s.ID,
		Name:            s.Name,
		ShortName:       s.ShortName,
		Identifier:      s.Identifier,
		ShortIdentifier: s.ShortIdentifier,
		Description:     s.Description,
		Bidirectional:   s.Bidirectional,
	}
}

// Plan returns the rules the machine runs.
func (m *Machine) Plan() *Plan { return m.plan }

// Params returns the live parameters indexed by id.
func (m *Machine) Params() []*synthrt.Param { return m.params }

// Sources returns the live sources indexed by id.
func (m *Machine) Sources() []*synthrt.Source { return m.sources }

// Param returns the live parameter with the given id.
func (m *Machine) Param(id int) (*synthrt.Param, error) {
	if id < 0 || id >= len(m.params) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParam, id)
	}
	return m.params[id], nil
}

// Source returns the live source with the given id.
func (m *Machine) Source(id int) (*synthrt.Source, error) {
	if id < 0 || id >= len(m.sources) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}
	return m.sources[id], nil
}

// Bind registers the receiver of a parameter binding expression.
func (m *Machine) Bind(expr string, fn func(float64)) {
	m.sinks[expr] = fn
}

// Input registers the reader behind a source binding expression.
func (m *Machine) Input(expr string, fn func() float64) {
	m.inputs[expr] = fn
}

// SetParameterValue commits value v to parameter id.
func (m *Machine) SetParameterValue(ctx synthrt.Context, id int, v float64) error {
	p, err := m.Param(id)
	if err != nil {
		return err
	}
	r := m.plan.Params[id]
	if r.Commit(p, ctx.Active(), v) {
		m.publish(r.Binding, v)
	}
	return nil
}

// Update runs one control tick: sources are refreshed, then every smoothing
// parameter the host marks necessary is advanced.
func (m *Machine) Update(ctx synthrt.Context) {
	if !m.plan.HasTick() {
		return
	}
	m.RefreshSources()
	for _, r := range m.plan.Params {
		if !r.Smoothing || !ctx.Necessary(r.ID) {
			continue
		}
		v := r.Tick(m.params[r.ID], ctx.Modulations(r.ID))
		m.publish(r.Binding, v)
	}
}

// RefreshSources reads every bound source from its registered input.
// Sources without a registered input keep their current signal.
func (m *Machine) RefreshSources() {
	for _, r := range m.plan.Sources {
		read, ok := m.inputs[r.Binding]
		if !ok {
			continue
		}
		r.Refresh(m.sources[r.ID], read())
	}
}

func (m *Machine) publish(binding string, v float64) {
	if binding == "" {
		return
	}
	if fn, ok := m.sinks[binding]; ok {
		fn(v)
	}
}
