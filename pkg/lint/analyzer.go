package lint

import (
	"sort"

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// Analyzer runs the registered rules against a document.
type Analyzer struct {
	config *Config
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// Analyze runs every enabled rule. Findings are ordered by position and
// repeated findings (one per instance of a repeated module) are reported
// once.
func (a *Analyzer) Analyze(doc *core.Document) []Diagnostic {
	if doc == nil || doc.Top == nil {
		return nil
	}

	ctx := &Context{Doc: doc}
	type key struct {
		rule string
		pos  int
		msg  string
	}
	seen := make(map[key]bool)

	var diagnostics []Diagnostic
	for _, rule := range GetAll() {
		if a.config.IsDisabled(rule.ID) {
			continue
		}
		for _, d := range rule.Check(ctx) {
			k := key{rule.ID, d.Pos.Offset, d.Message}
			if seen[k] {
				continue
			}
			seen[k] = true
			d.RuleID = rule.ID
			d.Severity = a.config.GetSeverity(rule.ID, rule.Severity)
			diagnostics = append(diagnostics, d)
		}
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].Pos.Offset < diagnostics[j].Pos.Offset
	})
	return diagnostics
}

// HasErrors reports whether any finding has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == core.SeverityError {
			return true
		}
	}
	return false
}
