package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	IDs   string // Run whose id table to show
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [schema]",
		Short: "Show compile history and stored id tables",
		Long: `Show recent compile runs recorded in the state database, newest first.

Every successful compile stores the id table of its schema. Use --ids to
print the table of one run, for example to find which parameter owned an
id before a refactor.`,
		Example: `  # Recent runs of every schema
  paramgen history

  # Runs of one schema
  paramgen history schemas/synth.xml --limit 5

  # Id table of a run
  paramgen history --ids 7f3c9a1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&opts.IDs, "ids", "", "Show the id table of this run")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	store := cmdCtx.Engine.Store()
	if store == nil {
		return errors.New("history is disabled (state_path is empty)")
	}
	r := cmdCtx.Renderer

	if opts.IDs != "" {
		return showRunIDs(r, store, opts.IDs)
	}

	schema := ""
	if len(args) > 0 {
		if schema, err = filepath.Abs(args[0]); err != nil {
			return err
		}
	}
	runs, err := store.ListRuns(schema, opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*core.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println("No compile runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			run.ID,
			relPath(cmdCtx.Cfg.ProjectRoot, run.Schema),
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			duration,
			oneLine(run.Error),
		})
	}
	r.Header(1, fmt.Sprintf("Compile runs (%d)", len(runs)))
	r.Table([]string{"Run", "Schema", "Status", "Started", "Duration", "Error"}, rows)
	return nil
}

func showRunIDs(r *output.Renderer, store core.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	entries, err := store.GetIDs(runID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"run": run, "ids": entries})
	}
	if len(entries) == 0 {
		r.Printf("Run %s (%s) has no id table\n", run.ID, run.Status)
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Kind), strconv.Itoa(e.ID), e.Path, e.Name})
	}
	r.Header(1, fmt.Sprintf("Ids of run %s", run.ID))
	r.Table([]string{"Kind", "ID", "Path", "Name"}, rows)
	return nil
}

// relPath shortens path relative to root when it lies inside it.
func relPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return rel
}
