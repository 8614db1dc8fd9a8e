// Package manifest emits the resolved parameter tree as a JSON or YAML
// metadata file that UI layers load to build editors and labels.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
)

// Target names.
const (
	JSON = "json"
	YAML = "yaml"
)

func init() {
	emit.Register(Target{format: JSON})
	emit.Register(Target{format: YAML})
}

// Manifest is the serialized form of a document.
type Manifest struct {
	Name      string     `json:"name" yaml:"name"`
	File      string     `json:"file,omitempty" yaml:"file,omitempty"`
	Interface string     `json:"interface" yaml:"interface"`
	Params    []Param    `json:"params" yaml:"params"`
	Sources   []Source   `json:"sources" yaml:"sources"`
	Modules   []Instance `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Param is the metadata of one parameter.
type Param struct {
	ID              int      `json:"id" yaml:"id"`
	Path            string   `json:"path" yaml:"path"`
	Name            string   `json:"name" yaml:"name"`
	ShortName       string   `json:"short_name" yaml:"short_name"`
	Identifier      string   `json:"identifier" yaml:"identifier"`
	ShortIdentifier string   `json:"short_identifier" yaml:"short_identifier"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Default         float64  `json:"default" yaml:"default"`
	Steps           int      `json:"steps" yaml:"steps"`
	Transform       string   `json:"transform" yaml:"transform"`
	Format          string   `json:"format" yaml:"format"`
	Flags           []string `json:"flags,omitempty" yaml:"flags,omitempty,flow"`
	Binding         string   `json:"binding,omitempty" yaml:"binding,omitempty"`
}

// Source is the metadata of one modulation source.
type Source struct {
	ID              int    `json:"id" yaml:"id"`
	Path            string `json:"path" yaml:"path"`
	Name            string `json:"name" yaml:"name"`
	ShortName       string `json:"short_name" yaml:"short_name"`
	Identifier      string `json:"identifier" yaml:"identifier"`
	ShortIdentifier string `json:"short_identifier" yaml:"short_identifier"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	Bidirectional   bool   `json:"bidirectional" yaml:"bidirectional"`
	Binding         string `json:"binding,omitempty" yaml:"binding,omitempty"`
}

// Instance is one module instance with its id ranges.
type Instance struct {
	Path      string       `json:"path" yaml:"path"`
	Class     string       `json:"class" yaml:"class"`
	Namespace string       `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Params    core.IDRange `json:"params" yaml:"params,flow"`
	Sources   core.IDRange `json:"sources" yaml:"sources,flow"`
	Modules   []Instance   `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Options are the settings read from emit.json or emit.yaml.
type Options struct {
	// Indent is the indentation width.
	Indent int `mapstructure:"indent"`
	// Tree includes the module instance tree.
	Tree bool `mapstructure:"tree"`
}

// Target writes manifests in one format.
type Target struct {
	format string
}

// Name implements emit.Target.
func (t Target) Name() string { return t.format }

// Emit implements emit.Target.
func (t Target) Emit(doc *core.Document, opts emit.Options) ([]emit.Artifact, error) {
	if err := emit.CheckDocument(doc); err != nil {
		return nil, err
	}
	o := Options{Indent: 2, Tree: true}
	if err := emit.DecodeOptions(emit.Section(opts.Extra, t.format), &o); err != nil {
		return nil, err
	}

	m := Build(doc, o.Tree)
	var (
		content []byte
		err     error
	)
	switch t.format {
	case JSON:
		content, err = encodeJSON(m, o.Indent)
	default:
		content, err = encodeYAML(m, o.Indent)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s manifest: %w", t.format, err)
	}

	base := opts.Basename
	if base == "" {
		base = doc.Top.VarName
	}
	return []emit.Artifact{{Name: base + "." + t.format, Content: content}}, nil
}

// Build converts doc into a Manifest. Non-numeric defaults and steps are
// written as 0; lint reports them.
func Build(doc *core.Document, tree bool) *Manifest {
	m := &Manifest{
		Name:      doc.Top.Name,
		File:      doc.File,
		Interface: doc.Interface.String(),
		Params:    make([]Param, 0, len(doc.Params)),
		Sources:   make([]Source, 0, len(doc.Sources)),
	}
	for _, p := range doc.Params {
		def, _ := p.DefaultValue()
		steps, _ := p.StepCount()
		m.Params = append(m.Params, Param{
			ID:              p.ID,
			Path:            p.Path,
			Name:            p.Name,
			ShortName:       p.ShortName,
			Identifier:      p.Identifier,
			ShortIdentifier: p.ShortIdentifier,
			Description:     p.Description,
			Default:         def,
			Steps:           steps,
			Transform:       p.Transform,
			Format:          p.Format,
			Flags:           flags(p),
			Binding:         p.Interface,
		})
	}
	for _, s := range doc.Sources {
		m.Sources = append(m.Sources, Source{
			ID:              s.ID,
			Path:            s.Path,
			Name:            s.Name,
			ShortName:       s.ShortName,
			Identifier:      s.Identifier,
			ShortIdentifier: s.ShortIdentifier,
			Description:     s.Description,
			Bidirectional:   s.Bidirectional,
			Binding:         s.Interface,
		})
	}
	if tree {
		for _, inst := range doc.Top.Instances {
			m.Modules = append(m.Modules, instance(doc.Top, inst))
		}
	}
	return m
}

func instance(mod *core.Module, inst *core.Instance) Instance {
	out := Instance{
		Path:      inst.Path,
		Class:     mod.ClassName,
		Namespace: inst.Namespace,
		Params:    inst.Params,
		Sources:   inst.Sources,
	}
	for _, sub := range inst.Modules() {
		for _, si := range sub.Instances {
			out.Modules = append(out.Modules, instance(sub, si))
		}
	}
	return out
}

// flags lists the boolean attributes that are set, in a fixed order.
func flags(p *core.Parameter) []string {
	var out []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"smooth", p.Smooth},
		{"multiply", p.Multiply},
		{"constrain", p.Constrain},
		{"modulatable", p.Modulatable},
		{"automatable", p.Automatable},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

func encodeJSON(m *Manifest, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeYAML(m *Manifest, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(max(indent, 2))
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
