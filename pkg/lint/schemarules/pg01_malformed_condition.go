package schemarules

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/leapstack-labs/paramgen/pkg/scope"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "PG01",
		Name:        "malformed-condition",
		Group:       "overlay",
		Description: "Overlay condition term is not of the form var=value",
		Severity:    core.SeverityWarning,
		Scope:       lint.ScopeParam,
		Check:       checkMalformedCondition,

		Rationale: `A term with no "=" or with more than one never matches, so the overlay
silently never applies.`,
		BadExample:  `<index if="osc==1" default="0.5"/>`,
		GoodExample: `<index if="osc=1" default="0.5"/>`,
		Fix:         "Write each term as var=value and join terms with ' and ' or ' or '.",
	})
}

func checkMalformedCondition(ctx *lint.Context) []lint.Diagnostic {
	var diagnostics []lint.Diagnostic
	for _, p := range ctx.Doc.Params {
		for _, o := range p.Overlays {
			for _, term := range scope.ParseCondition(o.Condition).Malformed() {
				diagnostics = append(diagnostics, lint.Diagnostic{
					Message: fmt.Sprintf("term %q in condition %q never matches", term.Raw, o.Condition),
					Pos:     o.Pos,
					Path:    p.Path,
				})
			}
		}
	}
	return diagnostics
}
