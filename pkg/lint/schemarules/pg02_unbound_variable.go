package schemarules

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/leapstack-labs/paramgen/pkg/scope"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "PG02",
		Name:        "unbound-variable",
		Group:       "overlay",
		Description: "Overlay condition tests a variable no enclosing module binds",
		Severity:    core.SeverityWarning,
		Scope:       lint.ScopeParam,
		Check:       checkUnboundVariable,

		Rationale: `Conditions can only test the var-names of enclosing modules. A misspelt
or out-of-scope variable makes the term false for every instance.`,
		BadExample: `<module name="Synth">
  <module name="Osc" count="2">
    <param name="Level"><index if="oscillator=1" default="0.5"/></param>
  </module>
</module>`,
		GoodExample: `<module name="Synth">
  <module name="Osc" count="2">
    <param name="Level"><index if="osc=1" default="0.5"/></param>
  </module>
</module>`,
	})
}

func checkUnboundVariable(ctx *lint.Context) []lint.Diagnostic {
	var diagnostics []lint.Diagnostic
	for _, p := range ctx.Doc.Params {
		if len(p.Overlays) == 0 {
			continue
		}
		bound := boundVars(p.Path)
		for _, o := range p.Overlays {
			for _, v := range scope.ParseCondition(o.Condition).Vars() {
				if bound[v] {
					continue
				}
				diagnostics = append(diagnostics, lint.Diagnostic{
					Message: fmt.Sprintf("condition %q tests %q, which no enclosing module binds", o.Condition, v),
					Pos:     o.Pos,
					Path:    p.Path,
				})
			}
		}
	}
	return diagnostics
}
