package golang

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// Errors reported while naming generated declarations.
var (
	ErrInvalidIdentifier = errors.New("not a valid Go identifier")
	ErrDuplicateField    = errors.New("duplicate field name")
	ErrDuplicateType     = errors.New("conflicting type definitions")
	ErrInstanceMismatch  = errors.New("module instances differ in layout")
	ErrInvalidValue      = errors.New("value is not numeric")
	ErrRepeatedTop       = errors.New("top-level module cannot repeat")
)

// Field names reserved for the id ranges of every generated struct.
const (
	fieldParams  = "Params"
	fieldSources = "Sources"
)

// exported turns a var-name into an exported Go identifier:
// "filterCutoff" -> "FilterCutoff", "_2Pole" -> "P_2Pole".
func exported(varName string) (string, error) {
	if varName == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	r := []rune(varName)
	switch {
	case unicode.IsLower(r[0]):
		r[0] = unicode.ToUpper(r[0])
	case !unicode.IsUpper(r[0]):
		r = append([]rune{'P'}, r...)
	}
	name := string(r)
	if !token.IsIdentifier(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, varName)
	}
	return name, nil
}

// accessors maps ids to Go selector expressions relative to the top struct,
// e.g. "Osc[1].Level".
type accessors struct {
	params  []string
	sources []string
}

// collectAccessors walks the single top-level instance. A repeated top would
// map several ids onto one field.
func collectAccessors(doc *core.Document) (*accessors, error) {
	if doc.Top.Repeated() || len(doc.Top.Instances) != 1 {
		return nil, fmt.Errorf("%w: %s has %d instances", ErrRepeatedTop, doc.Top.Name, len(doc.Top.Instances))
	}
	acc := &accessors{
		params:  make([]string, len(doc.Params)),
		sources: make([]string, len(doc.Sources)),
	}
	if err := acc.walk(doc.Top.Instances[0], ""); err != nil {
		return nil, err
	}
	return acc, nil
}

func (a *accessors) walk(inst *core.Instance, prefix string) error {
	for _, e := range inst.Entries {
		name, err := exported(e.VarName())
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Path, err)
		}
		switch e.Kind {
		case core.EntryParam:
			a.params[e.Param.ID] = prefix + name
		case core.EntrySource:
			a.sources[e.Source.ID] = prefix + name
		case core.EntryModule:
			for k, sub := range e.Module.Instances {
				expr := prefix + name
				if e.Module.Repeated() {
					expr += fmt.Sprintf("[%d]", k)
				}
				if err := a.walk(sub, expr+"."); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// procNames derives unexported method names from accessors:
// "Osc[1].Level" -> "commitOsc1Level". Clashes get the id appended.
type procNames struct {
	prefix string
	used   map[string]bool
}

func newProcNames(prefix string) *procNames {
	return &procNames{prefix: prefix, used: make(map[string]bool)}
}

func (n *procNames) name(expr string, id int) string {
	var sb strings.Builder
	sb.WriteString(n.prefix)
	for _, r := range expr {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if n.used[name] {
		name = fmt.Sprintf("%s_%d", name, id)
	}
	n.used[name] = true
	return name
}
