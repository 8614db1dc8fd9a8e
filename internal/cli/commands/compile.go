package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/internal/engine"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/spf13/cobra"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Watch     bool
	StrictIDs bool
	KeepRuns  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile [schema...]",
		Short: "Compile schemas into parameter code",
		Long: `Parse every schema, assign parameter and source ids, lint the result and
write each configured target into the output directory.

Ids are compared with the previous successful compile of the same schema.
Moving an existing id to another parameter breaks stored presets; it is
reported as a warning, or fails the compile with --strict-ids.

Output files are only rewritten when their content changed.`,
		Example: `  # Compile the schemas from paramgen.yaml
  paramgen compile

  # Compile one schema to a different package
  paramgen compile synth.xml --package synthparams

  # Fail when ids move between parameters
  paramgen compile --strict-ids

  # Recompile on every save
  paramgen compile --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Recompile when a schema changes")
	cmd.Flags().BoolVar(&opts.StrictIDs, "strict-ids", false, "Fail when an existing id changes owner")
	cmd.Flags().IntVar(&opts.KeepRuns, "keep-runs", engine.DefaultKeepRuns, "Compile runs kept in history per schema")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, opts *CompileOptions) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{
		strictIDs: opts.StrictIDs,
		keepRuns:  opts.KeepRuns,
		schemas:   args,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	if opts.Watch {
		return watchCompile(cmd.Context(), eng, r)
	}

	results, err := eng.CompileAll(cmd.Context())
	if results == nil && err != nil {
		return err
	}
	renderCompile(r, results, err)
	if err != nil {
		return fmt.Errorf("compile failed: %w", errIssuesFound)
	}
	return nil
}

func watchCompile(ctx context.Context, eng *engine.Engine, r *output.Renderer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial build; failures are reported and watching continues.
	results, err := eng.CompileAll(ctx)
	if results == nil && err != nil {
		return err
	}
	renderCompile(r, results, err)

	r.Println(r.Styles().Muted.Render("Watching for changes, press Ctrl+C to stop"))
	err = eng.Watch(ctx, func(results []*engine.Result, err error) {
		r.Println(r.Styles().Muted.Render(time.Now().Format("15:04:05") + " change detected"))
		renderCompile(r, results, err)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// compileSummary is the JSON form of one compile result.
type compileSummary struct {
	File      string         `json:"file"`
	Status    string         `json:"status"`
	Params    int            `json:"params"`
	Sources   int            `json:"sources"`
	Written   []string       `json:"written"`
	Unchanged []string       `json:"unchanged"`
	Drift     []core.IDDrift `json:"drift,omitempty"`
	Issues    []issueSummary `json:"issues,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Error     string         `json:"error,omitempty"`
}

func renderCompile(r *output.Renderer, results []*engine.Result, err error) {
	if r.EffectiveMode() == output.ModeJSON {
		summaries := make([]compileSummary, 0, len(results))
		for _, res := range results {
			if res == nil {
				continue
			}
			s := compileSummary{
				File:      res.File,
				Status:    "success",
				Written:   res.Written,
				Unchanged: res.Unchanged,
				Drift:     res.Drift,
				Issues:    collectIssues(res),
				Duration:  res.Duration,
			}
			if res.Doc != nil {
				s.Params, s.Sources = len(res.Doc.Params), len(res.Doc.Sources)
			}
			if res.Run != nil {
				s.RunID = res.Run.ID
			}
			if res.Err != nil {
				s.Status, s.Error = "failed", res.Err.Error()
			}
			summaries = append(summaries, s)
		}
		_ = r.JSON(map[string]any{"results": summaries, "error": errString(err)})
		return
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		for _, is := range collectIssues(res) {
			r.Println(is.String())
		}
		for _, d := range res.BreakingDrift() {
			r.Warning(driftMessage(d))
		}
		status, detail := "success", ""
		if res.Doc != nil {
			detail = fmt.Sprintf("%d params, %d sources", len(res.Doc.Params), len(res.Doc.Sources))
		}
		if res.Err != nil {
			status = "failed"
		} else if len(res.Written) > 0 {
			detail += fmt.Sprintf(", wrote %s", baseNames(res.Written))
		} else if len(res.Unchanged) > 0 {
			detail += ", up to date"
		}
		r.StatusLine(res.File, status, detail)
	}
	if err != nil {
		for _, e := range unjoin(err) {
			r.Error(e.Error())
		}
		return
	}
	r.Success(fmt.Sprintf("compiled %d schema(s)", countNonNil(results)))
}

func driftMessage(d core.IDDrift) string {
	if d.NewPath == "" {
		return fmt.Sprintf("%s id %d removed (was %s)", d.Kind, d.ID, d.OldPath)
	}
	return fmt.Sprintf("%s id %d moved from %s to %s", d.Kind, d.ID, d.OldPath, d.NewPath)
}

func baseNames(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ", "
		}
		out += filepath.Base(p)
	}
	return out
}

func countNonNil(results []*engine.Result) int {
	n := 0
	for _, r := range results {
		if r != nil {
			n++
		}
	}
	return n
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
