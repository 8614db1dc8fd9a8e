package schemarules

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "PG05",
		Name:        "unbound-bidirectional-source",
		Group:       "binding",
		Description: "Bidirectional source has no host binding",
		Severity:    core.SeverityWarning,
		Scope:       lint.ScopeSource,
		Check:       checkUnboundBidirectional,

		Rationale: `Only bound sources are refreshed each tick. An unbound bidirectional
source keeps Value and Normalized at 0, which do not describe the same signal.`,
		BadExample:  `<source name="Lfo" bidirectional="true"/>`,
		GoodExample: `<source name="Lfo" bidirectional="true" interface="host.Lfo"/>`,
	})
}

func checkUnboundBidirectional(ctx *lint.Context) []lint.Diagnostic {
	var diagnostics []lint.Diagnostic
	for _, s := range ctx.Doc.Sources {
		if !s.Bidirectional || s.Interface != "" {
			continue
		}
		diagnostics = append(diagnostics, lint.Diagnostic{
			Message: fmt.Sprintf("bidirectional source %s has no interface binding", s.Name),
			Pos:     s.Pos,
			Path:    s.Path,
		})
	}
	return diagnostics
}
