// Package scope resolves names while descending a schema tree.
//
// A Scope accumulates the namespace display strings, the dotted storage path
// and the variable bindings of every enclosing module instance. Format expands
// display templates against a scope, and Condition evaluates overlay guards
// against its variables. Everything here is pure string manipulation.
package scope

import (
	"maps"
	"strconv"
	"strings"
)

// Scope is the naming context of one module instance.
type Scope struct {
	Path           string            // dotted storage path, "synth.osc[1]"
	Namespace      string            // long display namespace, "Synth Osc 2"
	ShortNamespace string            // short display namespace, "Syn O2"
	Index          int               // 0-based repeat index
	Count          int               // repeat count; 0 outside a repeat
	Vars           map[string]string // module var-name -> stringified index
}

// Root returns the empty scope above the top-level module.
func Root() Scope {
	return Scope{Vars: map[string]string{}}
}

// Repeated reports whether the scope belongs to a repeated module instance.
func (s Scope) Repeated() bool {
	return s.Count > 0
}

// IndexString returns the 1-based instance number, or "" outside a repeat.
func (s Scope) IndexString() string {
	if !s.Repeated() {
		return ""
	}
	return strconv.Itoa(s.Index + 1)
}

// IString returns the 0-based instance number, or "" outside a repeat.
func (s Scope) IString() string {
	if !s.Repeated() {
		return ""
	}
	return strconv.Itoa(s.Index)
}

// Var returns the value bound to a module variable.
func (s Scope) Var(name string) (string, bool) {
	v, ok := s.Vars[name]
	return v, ok
}

// Module describes the module whose instance is being entered.
type Module struct {
	Fields
	VarName        string
	Namespace      string // template, "{name} {index}" by default
	ShortNamespace string // template, "{short-name} {index}" by default
	Count          int
}

// Enter derives the scope of instance i of m. The module's namespace
// templates are formatted with the instance's {index}/{i} and appended to the
// inherited ones, the path gains "var" or "var[i]", and the module variable is
// bound to i. A singleton is instance 0.
func (s Scope) Enter(m Module, i int) Scope {
	at := s
	at.Count = m.Count
	at.Index = i
	if !at.Repeated() {
		at.Index = 0
	}

	child := Scope{
		Path:           joinPath(s.Path, m.VarName, at),
		Namespace:      joinDisplay(s.Namespace, Format(m.Namespace, at, m.Fields)),
		ShortNamespace: joinDisplay(s.ShortNamespace, Format(m.ShortNamespace, at, m.Fields)),
		Index:          at.Index,
		Count:          at.Count,
		Vars:           make(map[string]string, len(s.Vars)+1),
	}
	maps.Copy(child.Vars, s.Vars)
	child.Vars[m.VarName] = strconv.Itoa(at.Index)
	return child
}

// Qualify returns the fully qualified path of an entry named varName.
func (s Scope) Qualify(varName string) string {
	if s.Path == "" {
		return varName
	}
	return s.Path + "." + varName
}

func joinPath(parent, varName string, at Scope) string {
	seg := varName
	if at.Repeated() {
		seg += "[" + strconv.Itoa(at.Index) + "]"
	}
	if parent == "" {
		return seg
	}
	return parent + "." + seg
}

func joinDisplay(parent, own string) string {
	switch {
	case parent == "":
		return own
	case own == "":
		return parent
	default:
		return parent + " " + own
	}
}

// Fields are the entity values a template may reference.
type Fields struct {
	Name      string
	ShortName string
}

// trim is the whitespace cleanup applied to every formatted value.
func trim(s string) string {
	return strings.TrimSpace(s)
}
