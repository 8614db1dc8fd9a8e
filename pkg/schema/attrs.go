package schema

import (
	"strings"

	"github.com/leapstack-labs/paramgen/pkg/markup"
)

// Attribute names understood on param and source elements.
const (
	AttrName            = "name"
	AttrShortName       = "short-name"
	AttrIdentifier      = "identifier"
	AttrShortIdentifier = "short-identifier"
	AttrVarName         = "var-name"
	AttrDescription     = "description"
	AttrDefault         = "default"
	AttrSteps           = "steps"
	AttrTransform       = "transform"
	AttrFormat          = "format"
	AttrSmooth          = "smooth"
	AttrMultiply        = "multiply"
	AttrConstrain       = "constrain"
	AttrModulatable     = "modulatable"
	AttrAutomatable     = "automatable"
	AttrInterface       = "interface"
	AttrBidirectional   = "bidirectional"
	AttrIf              = "if"
)

// ParamAttrs is the unresolved attribute record of a parameter. Display
// fields are still templates.
type ParamAttrs struct {
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
	Smooth          string
	Multiply        string
	Constrain       string
	Modulatable     string
	Automatable     string
	Interface       string
}

// DefaultParamAttrs returns the parameter defaults. Name and VarName have
// none; the builder derives VarName from the name.
func DefaultParamAttrs() ParamAttrs {
	return ParamAttrs{
		ShortName:       "{name}",
		Identifier:      "{namespace} {name}",
		ShortIdentifier: "{short-namespace} {short-name}",
		Default:         "0",
		Steps:           "0",
		Transform:       "Default",
		Format:          "Default",
		Smooth:          "true",
		Multiply:        "false",
		Constrain:       "true",
		Modulatable:     "true",
		Automatable:     "true",
	}
}

// ParamOverride is a partial ParamAttrs. A nil field leaves the
// underlying value alone.
type ParamOverride struct {
	Name            *string
	ShortName       *string
	Identifier      *string
	ShortIdentifier *string
	VarName         *string
	Description     *string
	Default         *string
	Steps           *string
	Transform       *string
	Format          *string
	Smooth          *string
	Multiply        *string
	Constrain       *string
	Modulatable     *string
	Automatable     *string
	Interface       *string
}

type paramField struct {
	key      string
	value    func(*ParamAttrs) *string
	override func(*ParamOverride) **string
}

var paramFields = []paramField{
	{AttrName, func(a *ParamAttrs) *string { return &a.Name }, func(o *ParamOverride) **string { return &o.Name }},
	{AttrShortName, func(a *ParamAttrs) *string { return &a.ShortName }, func(o *ParamOverride) **string { return &o.ShortName }},
	{AttrIdentifier, func(a *ParamAttrs) *string { return &a.Identifier }, func(o *ParamOverride) **string { return &o.Identifier }},
	{AttrShortIdentifier, func(a *ParamAttrs) *string { return &a.ShortIdentifier }, func(o *ParamOverride) **string { return &o.ShortIdentifier }},
	{AttrVarName, func(a *ParamAttrs) *string { return &a.VarName }, func(o *ParamOverride) **string { return &o.VarName }},
	{AttrDescription, func(a *ParamAttrs) *string { return &a.Description }, func(o *ParamOverride) **string { return &o.Description }},
	{AttrDefault, func(a *ParamAttrs) *string { return &a.Default }, func(o *ParamOverride) **string { return &o.Default }},
	{AttrSteps, func(a *ParamAttrs) *string { return &a.Steps }, func(o *ParamOverride) **string { return &o.Steps }},
	{AttrTransform, func(a *ParamAttrs) *string { return &a.Transform }, func(o *ParamOverride) **string { return &o.Transform }},
	{AttrFormat, func(a *ParamAttrs) *string { return &a.Format }, func(o *ParamOverride) **string { return &o.Format }},
	{AttrSmooth, func(a *ParamAttrs) *string { return &a.Smooth }, func(o *ParamOverride) **string { return &o.Smooth }},
	{AttrMultiply, func(a *ParamAttrs) *string { return &a.Multiply }, func(o *ParamOverride) **string { return &o.Multiply }},
	{AttrConstrain, func(a *ParamAttrs) *string { return &a.Constrain }, func(o *ParamOverride) **string { return &o.Constrain }},
	{AttrModulatable, func(a *ParamAttrs) *string { return &a.Modulatable }, func(o *ParamOverride) **string { return &o.Modulatable }},
	{AttrAutomatable, func(a *ParamAttrs) *string { return &a.Automatable }, func(o *ParamOverride) **string { return &o.Automatable }},
	{AttrInterface, func(a *ParamAttrs) *string { return &a.Interface }, func(o *ParamOverride) **string { return &o.Interface }},
}

// OverrideFromNode collects the parameter attributes explicitly present on n.
func OverrideFromNode(n *markup.Node) ParamOverride {
	var o ParamOverride
	for _, f := range paramFields {
		if v, ok := n.Attr(f.key); ok {
			*f.override(&o) = &v
		}
	}
	return o
}

// Merge returns a copy of a with every field set in o replaced.
func (a ParamAttrs) Merge(o ParamOverride) ParamAttrs {
	for _, f := range paramFields {
		if v := *f.override(&o); v != nil {
			*f.value(&a) = *v
		}
	}
	return a
}

// IsTrue reports whether a default-true flag is on: anything but "false".
func IsTrue(v string) bool { return v != "false" }

// IsSet reports whether a default-false flag is on: only "true".
func IsSet(v string) bool { return v == "true" }

var bracketReplacer = strings.NewReplacer("[", "<", "]", ">")

// NormalizeType rewrites the bracket shorthand of transform and format names:
// "Linear[0,1]" -> "Linear<0,1>".
func NormalizeType(s string) string {
	return bracketReplacer.Replace(s)
}

// NormalizeFormat normalizes a format name. Group formats additionally get
// their bare word list quoted: "Group[Sine, Saw]" -> `Group<"Sine", "Saw">`.
func NormalizeFormat(s string) string {
	s = NormalizeType(s)
	if !strings.Contains(s, "Group") {
		return s
	}
	open := strings.IndexByte(s, '<')
	closing := strings.LastIndexByte(s, '>')
	if open < 0 || closing < open {
		return s
	}
	items := strings.Split(s[open+1:closing], ",")
	for i, item := range items {
		item = strings.TrimSpace(item)
		if !strings.HasPrefix(item, `"`) {
			item = `"` + item + `"`
		}
		items[i] = item
	}
	return s[:open+1] + strings.Join(items, ", ") + s[closing:]
}
