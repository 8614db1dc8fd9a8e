package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/internal/engine"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/spf13/cobra"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Kind string // params, sources or all
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}
	cmd := &cobra.Command{
		Use:   "list [schema...]",
		Short: "List parameters and sources with their ids",
		Long: `List every parameter and modulation source of the schemas in id order,
together with the resolved path each id is assigned to.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List everything
  paramgen list

  # Only sources, as JSON
  paramgen list --kind sources -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "all", "What to list: params, sources, all")

	return cmd
}

func runList(cmd *cobra.Command, args []string, opts *ListOptions) error {
	showParams, showSources := true, true
	switch opts.Kind {
	case "all", "":
	case "params":
		showSources = false
	case "sources":
		showParams = false
	default:
		return fmt.Errorf("unknown kind %q (want params, sources or all)", opts.Kind)
	}

	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noHistory: true, schemas: args})
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := cmdCtx.Engine.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return listJSON(r, results, showParams, showSources)
	}

	for _, res := range results {
		doc := res.Doc
		title := res.File
		if doc.Top != nil {
			title = fmt.Sprintf("%s (%s)", doc.Top.Name, res.File)
		}
		r.Header(1, title)
		if showParams {
			r.Header(2, fmt.Sprintf("Parameters (%d)", len(doc.Params)))
			r.Table(paramHeader, paramRows(doc.Params))
		}
		if showSources {
			r.Header(2, fmt.Sprintf("Sources (%d)", len(doc.Sources)))
			r.Table(sourceHeader, sourceRows(doc.Sources))
		}
	}
	return nil
}

var (
	paramHeader  = []string{"ID", "Path", "Name", "Default", "Steps", "Interface"}
	sourceHeader = []string{"ID", "Path", "Name", "Range", "Interface"}
)

func paramRows(params []*core.Parameter) [][]string {
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, []string{strconv.Itoa(p.ID), p.Path, p.Name, p.Default, p.Steps, p.Interface})
	}
	return rows
}

func sourceRows(sources []*core.Source) [][]string {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Path, s.Name, sourceRange(s), s.Interface})
	}
	return rows
}

func sourceRange(s *core.Source) string {
	if s.Bidirectional {
		return "-1..1"
	}
	return "0..1"
}

type paramJSON struct {
	ID          int    `json:"id"`
	Path        string `json:"path"`
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	Default     string `json:"default"`
	Steps       string `json:"steps"`
	Format      string `json:"format,omitempty"`
	Interface   string `json:"interface,omitempty"`
	Smoothing   bool   `json:"smoothing"`
	Modulatable bool   `json:"modulatable"`
	Automatable bool   `json:"automatable"`
}

type sourceJSON struct {
	ID            int    `json:"id"`
	Path          string `json:"path"`
	Name          string `json:"name"`
	Identifier    string `json:"identifier"`
	Bidirectional bool   `json:"bidirectional"`
	Interface     string `json:"interface,omitempty"`
}

type listJSONOutput struct {
	File      string       `json:"file"`
	Name      string       `json:"name"`
	Interface string       `json:"interface"`
	Params    []paramJSON  `json:"params,omitempty"`
	Sources   []sourceJSON `json:"sources,omitempty"`
}

func listJSON(r *output.Renderer, results []*engine.Result, showParams, showSources bool) error {
	out := make([]listJSONOutput, 0, len(results))
	for _, res := range results {
		doc := res.Doc
		item := listJSONOutput{File: res.File, Interface: doc.Interface.String()}
		if doc.Top != nil {
			item.Name = doc.Top.Name
		}
		if showParams {
			item.Params = make([]paramJSON, 0, len(doc.Params))
			for _, p := range doc.Params {
				item.Params = append(item.Params, paramJSON{
					ID: p.ID, Path: p.Path, Name: p.Name, Identifier: p.Identifier,
					Default: p.Default, Steps: p.Steps, Format: p.Format, Interface: p.Interface,
					Smoothing: p.Smoothing(), Modulatable: p.Modulatable, Automatable: p.Automatable,
				})
			}
		}
		if showSources {
			item.Sources = make([]sourceJSON, 0, len(doc.Sources))
			for _, s := range doc.Sources {
				item.Sources = append(item.Sources, sourceJSON{
					ID: s.ID, Path: s.Path, Name: s.Name, Identifier: s.Identifier,
					Bidirectional: s.Bidirectional, Interface: s.Interface,
				})
			}
		}
		out = append(out, item)
	}
	return r.JSON(out)
}
