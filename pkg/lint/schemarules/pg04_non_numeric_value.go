package schemarules

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "PG04",
		Name:        "non-numeric-value",
		Group:       "values",
		Description: "Parameter default or steps is not a number",
		Severity:    core.SeverityError,
		Scope:       lint.ScopeParam,
		Check:       checkNonNumericValue,

		Rationale:   "Defaults are normalized floats and steps a non-negative integer. Other values cannot be emitted as code.",
		BadExample:  `<param name="Wave" steps="four" default="half"/>`,
		GoodExample: `<param name="Wave" steps="4" default="0.5"/>`,
	})
}

func checkNonNumericValue(ctx *lint.Context) []lint.Diagnostic {
	var diagnostics []lint.Diagnostic
	for _, p := range ctx.Doc.Params {
		if _, ok := p.DefaultValue(); !ok {
			diagnostics = append(diagnostics, lint.Diagnostic{
				Message: fmt.Sprintf("default %q of %s is not a number", p.Default, p.Name),
				Pos:     p.Pos,
				Path:    p.Path,
			})
		}
		if _, ok := p.StepCount(); !ok {
			diagnostics = append(diagnostics, lint.Diagnostic{
				Message: fmt.Sprintf("steps %q of %s is not a non-negative integer", p.Steps, p.Name),
				Pos:     p.Pos,
				Path:    p.Path,
			})
		}
	}
	return diagnostics
}
