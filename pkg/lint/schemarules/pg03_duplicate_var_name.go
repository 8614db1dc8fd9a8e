package schemarules

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/leapstack-labs/paramgen/pkg/token"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "PG03",
		Name:        "duplicate-var-name",
		Group:       "naming",
		Description: "Two entries of one module share a var-name",
		Severity:    core.SeverityError,
		Scope:       lint.ScopeModule,
		Check:       checkDuplicateVarName,

		Rationale: `Var-names become field names in generated code and path segments in
manifests, so they must be unique within a module.`,
		BadExample: `<param name="Level"/>
<param name="level"/>`,
		GoodExample: `<param name="Level"/>
<param name="Sub Level" var-name="subLevel"/>`,
		Fix: "Rename one of the entries or give it an explicit var-name.",
	})
}

func checkDuplicateVarName(ctx *lint.Context) []lint.Diagnostic {
	var diagnostics []lint.Diagnostic
	for _, m := range ctx.Doc.Modules() {
		for _, inst := range m.Instances {
			first := make(map[string]token.Position)
			for _, e := range inst.Entries {
				name := e.VarName()
				pos := entryPos(e)
				if prev, ok := first[name]; ok {
					diagnostics = append(diagnostics, lint.Diagnostic{
						Message: fmt.Sprintf("var-name %q already used at %s in %s", name, prev, m.Name),
						Pos:     pos,
						Path:    inst.Path,
					})
					continue
				}
				first[name] = pos
			}
		}
	}
	return diagnostics
}

func entryPos(e core.Entry) token.Position {
	switch e.Kind {
	case core.EntryParam:
		return e.Param.Pos
	case core.EntrySource:
		return e.Source.Pos
	default:
		return e.Module.Pos
	}
}
