// Package lint checks resolved schema documents for problems the builder
// tolerates but that usually indicate a mistake.
//
// # Rule Registration
//
// Rules register themselves from init() functions, the same way emit
// targets do:
//
//	import _ "github.com/leapstack-labs/paramgen/pkg/lint/schemarules"
//
// # Configuration
//
// Use Config to control which rules run and how severe they are:
//
//	config := lint.NewConfig()
//	config.Disable("PG05")
//	config.SetSeverity("PG02", core.SeverityError)
//
// # Creating Custom Rules
//
//	lint.Register(lint.RuleDef{
//		ID:          "MY01",
//		Name:        "my-rule",
//		Group:       "naming",
//		Description: "Parameter names are title case",
//		Severity:    core.SeverityHint,
//		Scope:       lint.ScopeParam,
//		Check:       checkMyRule,
//	})
package lint

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/token"
)

// Rule scopes, reported in RuleInfo.
const (
	ScopeParam    = "param"
	ScopeSource   = "source"
	ScopeModule   = "module"
	ScopeDocument = "document"
)

// RuleDef is a data-driven rule definition. Rules are stateless; all input
// comes through the Context passed to Check.
type RuleDef struct {
	ID          string        // Unique identifier, e.g. "PG01"
	Name        string        // Human-readable name, e.g. "malformed-condition"
	Group       string        // Category, e.g. "overlay", "naming", "values"
	Description string        // One-line description
	Severity    core.Severity // Default severity
	Scope       string        // What the rule inspects
	Check       CheckFunc

	// Documentation fields
	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// CheckFunc inspects a document and returns findings.
type CheckFunc func(ctx *Context) []Diagnostic

// Context is the input of a rule.
type Context struct {
	Doc *core.Document
}

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string         `json:"rule_id"`
	Severity core.Severity  `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"pos"`
	// Path of the entry the finding is about
	Path string `json:"path,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s [%s] %s", d.Pos, d.Severity, d.RuleID, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.RuleID, d.Message)
}

// GetRuleInfo extracts metadata from a rule for documentation and tooling.
func GetRuleInfo(r RuleDef) core.RuleInfo {
	return core.RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Group:           r.Group,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		Scope:           r.Scope,
		Rationale:       r.Rationale,
		BadExample:      r.BadExample,
		GoodExample:     r.GoodExample,
		Fix:             r.Fix,
	}
}
