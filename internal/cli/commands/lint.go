package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/paramgen/internal/cli/config"
	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/internal/engine"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/leapstack-labs/paramgen/pkg/token"
	"github.com/spf13/cobra"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Disable  []string // Rule IDs to disable
	Severity string   // Minimum severity: error, warning, info, hint
	Rules    []string // Run only specific rules
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [schema...]",
		Short: "Check schemas for likely mistakes",
		Long: `Build every schema and report builder diagnostics together with the
findings of the lint rules (see 'paramgen rules').

Rules can be disabled or have their severity changed in paramgen.yaml.
The command exits non-zero when any finding at or above --severity remains.`,
		Example: `  # Lint the configured schemas
  paramgen lint

  # Lint one file as JSON
  paramgen lint synth.xml -o json

  # Disable specific rules
  paramgen lint --disable PG02,PG05

  # Only report errors
  paramgen lint --severity error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "warning", "Minimum severity: error, warning, info, hint")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")

	return cmd
}

func runLint(cmd *cobra.Command, args []string, opts *LintOptions) error {
	threshold, ok := core.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("unknown severity %q", opts.Severity)
	}

	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := *cmdCtx.Cfg
	cfg.Lint = buildLintConfig(cmdCtx.Cfg, opts)

	eng, err := createEngine(&cfg, cmdCtx.Logger, engineOptions{noHistory: true, schemas: args})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	results, err := eng.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	found := renderLintResults(cmdCtx.Renderer, results, threshold)
	if found > 0 {
		return fmt.Errorf("lint issues found: %w", errIssuesFound)
	}
	return nil
}

// buildLintConfig layers the CLI flags over the project lint settings.
// Linting is always on for the lint command.
func buildLintConfig(cfg *config.Config, opts *LintOptions) *core.LintConfig {
	enabled := true
	out := &core.LintConfig{Enabled: &enabled, Severity: map[string]string{}}
	if cfg.Lint != nil {
		out.Disabled = append(out.Disabled, cfg.Lint.Disabled...)
		for id, sev := range cfg.Lint.Severity {
			out.Severity[id] = sev
		}
	}

	for _, id := range opts.Disable {
		out.Disabled = append(out.Disabled, strings.TrimSpace(id))
	}

	// If --rule specified, disable all others
	if len(opts.Rules) > 0 {
		only := make(map[string]bool)
		for _, id := range opts.Rules {
			only[strings.TrimSpace(id)] = true
		}
		for _, rule := range lint.GetAll() {
			if !only[rule.ID] {
				out.Disabled = append(out.Disabled, rule.ID)
			}
		}
	}
	return out
}

// issueSummary is a builder diagnostic or lint finding in one shape.
type issueSummary struct {
	File     string         `json:"file"`
	Pos      token.Position `json:"pos"`
	Severity core.Severity  `json:"severity"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Path     string         `json:"path,omitempty"`
}

func (i issueSummary) String() string {
	return fmt.Sprintf("%s:%s %s %s %s", i.File, i.Pos, i.Severity, i.Code, i.Message)
}

// collectIssues merges the builder diagnostics and lint findings of res,
// ordered by position.
func collectIssues(res *engine.Result) []issueSummary {
	var out []issueSummary
	if res.Doc != nil {
		for _, d := range res.Doc.Diagnostics {
			out = append(out, issueSummary{
				File: res.File, Pos: d.Pos, Severity: d.Severity,
				Code: d.Code, Message: d.Message, Path: d.Path,
			})
		}
	}
	for _, d := range res.Lint {
		out = append(out, issueSummary{
			File: res.File, Pos: d.Pos, Severity: d.Severity,
			Code: d.RuleID, Message: d.Message, Path: d.Path,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Offset < out[j].Pos.Offset
	})
	return out
}

// renderLintResults prints the issues at or above threshold and returns
// how many there were.
func renderLintResults(r *output.Renderer, results []*engine.Result, threshold core.Severity) int {
	var issues []issueSummary
	for _, res := range results {
		for _, is := range collectIssues(res) {
			// Lower values are more severe.
			if is.Severity <= threshold {
				issues = append(issues, is)
			}
		}
	}

	counts := make(map[core.Severity]int)
	for _, is := range issues {
		counts[is.Severity]++
	}

	if r.EffectiveMode() == output.ModeJSON {
		if issues == nil {
			issues = []issueSummary{}
		}
		_ = r.JSON(map[string]any{
			"files":  len(results),
			"issues": issues,
			"summary": map[string]int{
				"errors":   counts[core.SeverityError],
				"warnings": counts[core.SeverityWarning],
				"info":     counts[core.SeverityInfo],
				"hints":    counts[core.SeverityHint],
			},
		})
		return len(issues)
	}

	if len(issues) == 0 {
		r.Success(fmt.Sprintf("no issues in %d schema(s)", len(results)))
		return 0
	}

	s := r.Styles()
	for _, is := range issues {
		sev := is.Severity.String()
		if r.EffectiveMode() == output.ModeText {
			switch is.Severity {
			case core.SeverityError:
				sev = s.Error.Render(sev)
			case core.SeverityWarning:
				sev = s.Warning.Render(sev)
			default:
				sev = s.Info.Render(sev)
			}
		}
		r.Printf("%s:%s %s %s %s\n", s.Path.Render(is.File), is.Pos, sev, s.Bold.Render(is.Code), is.Message)
	}
	r.Println("")
	r.Printf("Summary: %d error(s), %d warning(s), %d info, %d hint(s)\n",
		counts[core.SeverityError], counts[core.SeverityWarning],
		counts[core.SeverityInfo], counts[core.SeverityHint])
	return len(issues)
}
