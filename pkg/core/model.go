package core

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// InterfaceType selects the runtime update variant of a document.
type InterfaceType string

// Interface type constants.
const (
	InterfaceNone       InterfaceType = ""
	InterfaceModulation InterfaceType = "modulation"
	InterfaceNormal     InterfaceType = "normal"
)

// ParseInterfaceType validates an interface attribute value.
func ParseInterfaceType(s string) (InterfaceType, bool) {
	switch t := InterfaceType(s); t {
	case InterfaceNone, InterfaceModulation, InterfaceNormal:
		return t, true
	}
	return InterfaceNone, false
}

func (t InterfaceType) String() string {
	if t == InterfaceNone {
		return "none"
	}
	return string(t)
}

// IDRange is a half-open range of ids [Start, End).
type IDRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of ids in the range.
func (r IDRange) Len() int { return r.End - r.Start }

// Contains reports whether id lies in the range.
func (r IDRange) Contains(id int) bool { return id >= r.Start && id < r.End }

func (r IDRange) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Document is the resolved schema tree produced by one compile run.
// It is read-only once built.
type Document struct {
	// File is the schema file the document came from, if any
	File string
	// Top is the top-level module
	Top *Module
	// Interface selects the runtime update variant
	Interface InterfaceType
	// Params is indexed by parameter id
	Params []*Parameter
	// Sources is indexed by source id
	Sources []*Source
	// Diagnostics reported while building
	Diagnostics []Diagnostic
}

// Param returns the parameter with the given id, or nil.
func (d *Document) Param(id int) *Parameter {
	if id < 0 || id >= len(d.Params) {
		return nil
	}
	return d.Params[id]
}

// Source returns the source with the given id, or nil.
func (d *Document) Source(id int) *Source {
	if id < 0 || id >= len(d.Sources) {
		return nil
	}
	return d.Sources[id]
}

// HasErrors reports whether any diagnostic has error severity.
func (d *Document) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Modules returns every module of the tree in post-order, so nested
// modules precede the modules that contain them. A module repeated inside
// several instances of its parent is listed once per parent instance.
func (d *Document) Modules() []*Module {
	if d.Top == nil {
		return nil
	}
	var out []*Module
	var visit func(m *Module)
	visit = func(m *Module) {
		for _, inst := range m.Instances {
			for _, child := range inst.Modules() {
				visit(child)
			}
		}
		out = append(out, m)
	}
	visit(d.Top)
	return out
}

// Module is a named, possibly repeated group of entries.
type Module struct {
	Name           string
	ShortName      string
	Namespace      string // namespace template
	ShortNamespace string // short namespace template
	VarName        string
	ClassName      string
	// Count is the repeat count; 0 means singleton
	Count     int
	Instances []*Instance
	Pos       token.Position
}

// Repeated reports whether the module is an array of instances.
func (m *Module) Repeated() bool { return m.Count > 0 }

// ParamRange returns the parameter ids consumed by all instances.
func (m *Module) ParamRange() IDRange {
	return spanOf(m.Instances, func(i *Instance) IDRange { return i.Params })
}

// SourceRange returns the source ids consumed by all instances.
func (m *Module) SourceRange() IDRange {
	return spanOf(m.Instances, func(i *Instance) IDRange { return i.Sources })
}

func spanOf(instances []*Instance, get func(*Instance) IDRange) IDRange {
	if len(instances) == 0 {
		return IDRange{}
	}
	return IDRange{Start: get(instances[0]).Start, End: get(instances[len(instances)-1]).End}
}

// Instance is one repetition of a module.
type Instance struct {
	Index          int
	Namespace      string // resolved long namespace
	ShortNamespace string // resolved short namespace
	Path           string
	Params         IDRange
	Sources        IDRange
	// Entries are the direct children in document order
	Entries []Entry
}

// Parameters returns the direct parameters of the instance.
func (i *Instance) Parameters() []*Parameter {
	var out []*Parameter
	for _, e := range i.Entries {
		if e.Param != nil {
			out = append(out, e.Param)
		}
	}
	return out
}

// SourceEntries returns the direct sources of the instance.
func (i *Instance) SourceEntries() []*Source {
	var out []*Source
	for _, e := range i.Entries {
		if e.Source != nil {
			out = append(out, e.Source)
		}
	}
	return out
}

// Modules returns the direct nested modules of the instance.
func (i *Instance) Modules() []*Module {
	var out []*Module
	for _, e := range i.Entries {
		if e.Module != nil {
			out = append(out, e.Module)
		}
	}
	return out
}

// EntryKind identifies what an Entry holds.
type EntryKind int

// Entry kinds.
const (
	EntryParam EntryKind = iota
	EntrySource
	EntryModule
)

func (k EntryKind) String() string {
	switch k {
	case EntryParam:
		return "param"
	case EntrySource:
		return "source"
	case EntryModule:
		return "module"
	default:
		return "unknown"
	}
}

// Entry is one child of an instance. Exactly one pointer is set.
type Entry struct {
	Kind   EntryKind
	Param  *Parameter
	Source *Source
	Module *Module
}

// VarName returns the variable name of whichever entity the entry holds.
func (e Entry) VarName() string {
	switch e.Kind {
	case EntryParam:
		return e.Param.VarName
	case EntrySource:
		return e.Source.VarName
	case EntryModule:
		return e.Module.VarName
	}
	return ""
}

// Parameter is an adjustable value with display and behavior metadata.
type Parameter struct {
	ID              int
	Name            string
	ShortName       string
	Identifier      string
	ShortIdentifier string
	VarName         string
	Description     string
	Default         string
	Steps           string
	Transform       string
	Format          string
	Smooth          bool
	Multiply        bool
	Constrain       bool
	Modulatable     bool
	Automatable     bool
	// Interface is the host binding expression; empty when unbound
	Interface string
	Path      string
	// Overlays are the conditional overlays seen while resolving
	Overlays []Overlay
	Pos      token.Position
}

// Overlay records one conditional attribute overlay of a parameter.
type Overlay struct {
	Condition string
	Applied   bool
	Pos       token.Position
}

// Smoothing reports whether the parameter glides toward its goal each tick.
// Only continuous (steps "0") parameters with smoothing enabled do.
func (p *Parameter) Smoothing() bool {
	return p.Steps == "0" && p.Smooth
}

// StepCount parses Steps. Non-numeric values report ok=false.
func (p *Parameter) StepCount() (int, bool) {
	n, err := strconv.Atoi(p.Steps)
	return n, err == nil && n >= 0
}

// DefaultValue parses Default as a float.
func (p *Parameter) DefaultValue() (float64, bool) {
	v, err := strconv.ParseFloat(p.Default, 64)
	return v, err == nil
}

// Source is a modulation signal with its own id space.
type Source struct {
	ID              int
	Name            string
	ShortName       string
	Identifier      string
	ShortIdentifier string
	VarName         string
	Description     string
	Bidirectional   bool
	// Interface is the host binding expression; empty when unbound
	Interface string
	Path      string
	Pos       token.Position
}
