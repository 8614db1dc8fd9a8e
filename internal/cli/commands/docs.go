package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/paramgen/internal/docs"
	"github.com/spf13/cobra"
)

// DocsOptions holds options for the docs command.
type DocsOptions struct {
	OutDir    string
	Paths     bool
	NoSources bool
}

// NewDocsCommand creates the docs command.
func NewDocsCommand() *cobra.Command {
	opts := &DocsOptions{}
	cmd := &cobra.Command{
		Use:   "docs [schema...]",
		Short: "Generate Markdown reference documentation",
		Long: `Generate a Markdown reference of every parameter and source, grouped by
module, with ids, defaults and behavior flags.

Descriptions written as HTML are converted to Markdown.
Without --out the documents are written to standard output.`,
		Example: `  # Print the reference for the configured schemas
  paramgen docs

  # Write synth.md into ./docs including resolved paths
  paramgen docs synth.xml --out docs --paths`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out", "", "Write <schema>.md files into this directory")
	cmd.Flags().BoolVar(&opts.Paths, "paths", false, "Include resolved paths")
	cmd.Flags().BoolVar(&opts.NoSources, "no-sources", false, "Omit source tables")

	return cmd
}

func runDocs(cmd *cobra.Command, args []string, opts *DocsOptions) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noHistory: true, schemas: args})
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := cmdCtx.Engine.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	docOpts := docs.Options{Sources: !opts.NoSources, Paths: opts.Paths}
	r := cmdCtx.Renderer

	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for i, res := range results {
		content, err := docs.Generate(res.Doc, docOpts)
		if err != nil {
			return fmt.Errorf("%s: %w", res.File, err)
		}

		if opts.OutDir == "" {
			if i > 0 {
				r.Println("")
			}
			r.Print(string(content))
			continue
		}

		base := strings.TrimSuffix(filepath.Base(res.File), filepath.Ext(res.File))
		path := filepath.Join(opts.OutDir, base+".md")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		cmdCtx.Logger.Debug("wrote docs", "file", path)
		r.StatusLine(path, "success", "")
	}
	return nil
}
