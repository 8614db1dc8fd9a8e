// Package commands implements the paramgen subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/paramgen/internal/cli/config"
	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// engineOptions tweak engine construction per command.
type engineOptions struct {
	strictIDs bool
	keepRuns  int
	noHistory bool
	// schemas replaces the configured schema globs when set
	schemas []string
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	return newCommandContext(cmd, engineOptions{})
}

func newCommandContext(cmd *cobra.Command, opts engineOptions) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger, opts)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need schemas or history.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger, opts engineOptions) (*engine.Engine, error) {
	statePath := cfg.StatePath
	if opts.noHistory {
		statePath = ""
	}

	// Ensure state directory exists
	if statePath != "" {
		stateDir := filepath.Dir(statePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
	}

	project := cfg.Project()
	if len(opts.schemas) > 0 {
		// Absolute like the configured globs, so history keys match.
		project.Schemas = make([]string, len(opts.schemas))
		for i, s := range opts.schemas {
			abs, err := filepath.Abs(s)
			if err != nil {
				return nil, err
			}
			project.Schemas[i] = abs
		}
	}

	return engine.New(engine.Config{
		Project:   project,
		StatePath: statePath,
		StrictIDs: opts.strictIDs,
		KeepRuns:  opts.keepRuns,
		Logger:    logger,
	})
}

// errIssuesFound marks a command that ran fine but found problems; the
// details have already been printed.
var errIssuesFound = errors.New("issues found")

// pickSchema returns the schema named in args, or the only configured one.
func pickSchema(eng *engine.Engine, args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	files, err := eng.Schemas()
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", errors.New("no schema files found")
	case 1:
		return files[0], nil
	}
	return "", fmt.Errorf("%d schemas configured, pass one of: %v", len(files), files)
}
