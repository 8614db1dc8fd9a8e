// Package engine runs the schema compile pipeline: read, parse, build,
// lint, check id history and emit every configured target.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/paramgen/internal/state"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/lint"

	// Register emit targets and lint rules.
	_ "github.com/leapstack-labs/paramgen/internal/docs"
	_ "github.com/leapstack-labs/paramgen/pkg/emit/golang"
	_ "github.com/leapstack-labs/paramgen/pkg/emit/manifest"
	_ "github.com/leapstack-labs/paramgen/pkg/lint/schemarules"
)

// DefaultKeepRuns is the number of runs kept per schema in the state store.
const DefaultKeepRuns = 20

// Sentinel errors.
var (
	ErrNoSchemas  = errors.New("no schema files configured")
	ErrLintFailed = errors.New("lint reported errors")
	ErrIDDrift    = errors.New("parameter ids changed owner")
)

// Engine compiles schema files.
type Engine struct {
	// Structured logger
	logger *slog.Logger

	project   *core.ProjectConfig
	store     core.Store
	lintCfg   *lint.Config
	targets   []emit.Target
	strictIDs bool
	keepRuns  int
}

// Config holds engine configuration.
type Config struct {
	// Project is the loaded project configuration
	Project *core.ProjectConfig
	// StatePath is the path to the SQLite id history; empty disables history
	StatePath string
	// StrictIDs fails a compile when an existing id moves to another path
	StrictIDs bool
	// KeepRuns bounds the history per schema (default DefaultKeepRuns)
	KeepRuns int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. Targets are resolved up front so a typo in the
// config fails before any file is read.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	project := cfg.Project
	if project == nil {
		project = &core.ProjectConfig{}
	}

	logger.Debug("initializing engine", "schemas", project.Schemas, "targets", project.Targets)

	targets := make([]emit.Target, 0, len(project.Targets))
	for _, name := range project.Targets {
		t, err := emit.MustGet(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	lintCfg, err := lint.FromProject(project.Lint)
	if err != nil {
		return nil, fmt.Errorf("invalid lint config: %w", err)
	}

	e := &Engine{
		logger:    logger,
		project:   project,
		lintCfg:   lintCfg,
		targets:   targets,
		strictIDs: cfg.StrictIDs,
		keepRuns:  cfg.KeepRuns,
	}
	if e.keepRuns <= 0 {
		e.keepRuns = DefaultKeepRuns
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := store.InitSchema(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize state schema: %w", err)
		}
		e.store = store
	}
	return e, nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store returns the id history store, or nil when history is disabled.
func (e *Engine) Store() core.Store {
	return e.store
}

// Project returns the project configuration.
func (e *Engine) Project() *core.ProjectConfig {
	return e.project
}

// Schemas expands the configured schema globs into a sorted list of files.
func (e *Engine) Schemas() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range e.project.Schemas {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad schema pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("schema %q: no matching files", pattern)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, ErrNoSchemas
	}
	sort.Strings(files)
	return files, nil
}

func (e *Engine) emitOptions() emit.Options {
	return emit.Options{
		Package:       e.project.Package,
		RuntimeImport: e.project.RuntimeImport,
		Extra:         e.project.Emit,
	}
}
