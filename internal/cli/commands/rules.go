package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List all schema lint rules with their documentation.

Rules are organized by group (overlay, naming, values, binding).
Use --verbose to see full documentation including examples and fix guidance.`,
		Example: `  # List all rules
  paramgen rules

  # Show details for a specific rule
  paramgen rules PG03

  # List rules in the overlay group
  paramgen rules --group overlay

  # Show full documentation
  paramgen rules -V`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0])
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	rules := lint.AllRules()
	if opts.Group != "" {
		rules = rules[:0]
		for _, def := range lint.GetByGroup(opts.Group) {
			rules = append(rules, lint.GetRuleInfo(def))
		}
		if len(rules) == 0 {
			return fmt.Errorf("no rules in group %q", opts.Group)
		}
	}

	// Sort by group, then ID
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Group != rules[j].Group {
			return rules[i].Group < rules[j].Group
		}
		return rules[i].ID < rules[j].ID
	})

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rules)
	case output.ModeMarkdown:
		listRulesMarkdown(r, rules, opts.Verbose)
	default:
		listRulesText(r, rules, opts.Verbose)
	}
	return nil
}

func showRule(cmd *cobra.Command, ruleID string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	def, ok := lint.GetByID(strings.ToUpper(ruleID))
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	rule := lint.GetRuleInfo(def)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rule)
	case output.ModeMarkdown:
		showRuleMarkdown(r, rule)
	default:
		showRuleText(r, rule)
	}
	return nil
}

var groupTitle = cases.Title(language.English)

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []core.RuleInfo, verbose bool) {
	styles := r.Styles()

	r.Println(styles.Header.Render(fmt.Sprintf("Lint Rules (%d)", len(rules))))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Bold.Render("  " + groupTitle.String(currentGroup)))
		}

		r.Printf("    %s  %s - %s\n",
			styles.Muted.Render(rule.ID),
			rule.Name,
			severityStyle(styles, rule.DefaultSeverity).Render(rule.DefaultSeverity.String()),
		)

		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + oneLine(rule.Rationale)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'paramgen rules <rule-id>' for detailed documentation"))
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []core.RuleInfo, verbose bool) {
	r.Println("# Lint Rules")
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = rule.Group
			r.Println("## " + groupTitle.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, rule.DefaultSeverity)
		if verbose {
			r.Println("  " + rule.Description)
			if rule.Rationale != "" {
				r.Println("  > " + oneLine(rule.Rationale))
			}
		}
	}
}

func showRuleText(r *output.Renderer, rule core.RuleInfo) {
	styles := r.Styles()

	r.Println(styles.Header.Render(rule.ID + ": " + rule.Name))
	r.Printf("%s %s   %s %s   %s %s\n",
		styles.Muted.Render("Group:"), rule.Group,
		styles.Muted.Render("Severity:"), severityStyle(styles, rule.DefaultSeverity).Render(rule.DefaultSeverity.String()),
		styles.Muted.Render("Scope:"), rule.Scope)
	r.Println("")
	r.Println(rule.Description)

	section := func(title, body string) {
		if body == "" {
			return
		}
		r.Println("")
		r.Println(styles.Header2.Render(title))
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			r.Println("  " + line)
		}
	}
	section("Rationale", rule.Rationale)
	section("Bad", rule.BadExample)
	section("Good", rule.GoodExample)
	section("Fix", rule.Fix)
}

func showRuleMarkdown(r *output.Renderer, rule core.RuleInfo) {
	r.Println(output.FormatHeader(1, rule.ID+": "+rule.Name))
	r.Println("")
	r.Println(output.FormatKeyValue("Group", rule.Group))
	r.Println(output.FormatKeyValue("Severity", rule.DefaultSeverity.String()))
	r.Println(output.FormatKeyValue("Scope", rule.Scope))
	r.Println("")
	r.Println(rule.Description)

	if rule.Rationale != "" {
		r.Println("")
		r.Println(output.FormatHeader(2, "Rationale"))
		r.Println("")
		r.Println(rule.Rationale)
	}
	for _, ex := range []struct{ title, body string }{
		{"Bad", rule.BadExample},
		{"Good", rule.GoodExample},
	} {
		if ex.body == "" {
			continue
		}
		r.Println("")
		r.Println(output.FormatHeader(2, ex.title))
		r.Println("")
		r.Println("```xml")
		r.Println(strings.TrimRight(ex.body, "\n"))
		r.Println("```")
	}
	if rule.Fix != "" {
		r.Println("")
		r.Println(output.FormatHeader(2, "Fix"))
		r.Println("")
		r.Println(rule.Fix)
	}
}

func severityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return styles.Error
	case core.SeverityWarning:
		return styles.Warning
	default:
		return styles.Info
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
