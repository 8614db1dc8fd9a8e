package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/lint"
	"github.com/leapstack-labs/paramgen/pkg/markup"
	"github.com/leapstack-labs/paramgen/pkg/schema"
)

// Result is the outcome of compiling one schema file.
type Result struct {
	File string
	Doc  *core.Document
	Lint []lint.Diagnostic
	// Written lists the output files that changed on disk
	Written []string
	// Unchanged lists output files whose content was already current
	Unchanged []string
	// Drift lists ids whose owner differs from the previous completed run
	Drift []core.IDDrift
	Run   *core.Run
	// Err is the error Compile returned alongside this result
	Err error

	Duration time.Duration
}

// BreakingDrift returns the drifts that invalidate stored presets.
func (r *Result) BreakingDrift() []core.IDDrift {
	var out []core.IDDrift
	for _, d := range r.Drift {
		if d.Breaking() {
			out = append(out, d)
		}
	}
	return out
}

// Load reads, parses, builds and lints one schema file without emitting.
func (e *Engine) Load(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	root, err := markup.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc, err := schema.Build(ctx, root, schema.WithFile(filepath.Base(path)), schema.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res := &Result{File: path, Doc: doc}
	if e.project.Lint.IsEnabled() {
		res.Lint = lint.NewAnalyzer(e.lintCfg).Analyze(doc)
	}
	res.Duration = time.Since(start)

	e.logger.Debug("loaded schema", "file", path,
		"params", len(doc.Params), "sources", len(doc.Sources),
		"diagnostics", len(doc.Diagnostics), "lint", len(res.Lint))
	return res, nil
}

// Compile loads one schema file, checks its id history and writes every
// target's artifacts into the output directory.
func (e *Engine) Compile(ctx context.Context, path string) (*Result, error) {
	res, err := e.compile(ctx, path)
	if res != nil {
		res.Err = err
	}
	return res, err
}

func (e *Engine) compile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	res, err := e.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := emit.CheckDocument(res.Doc); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	if e.store != nil {
		if err := e.startRun(res); err != nil {
			return res, err
		}
	}

	err = e.emitAll(ctx, res)
	if e.store != nil {
		err = e.finishRun(res, err)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("compile failed", "file", path, "error", err)
		return res, err
	}

	e.logger.Info("compiled schema", "file", path,
		"params", len(res.Doc.Params), "sources", len(res.Doc.Sources),
		"written", len(res.Written), "duration", res.Duration)
	return res, nil
}

// emitAll runs the checks that block emission, then every target.
func (e *Engine) emitAll(ctx context.Context, res *Result) error {
	if lint.HasErrors(res.Lint) {
		return fmt.Errorf("%s: %w", res.File, ErrLintFailed)
	}
	if e.strictIDs {
		if breaking := res.BreakingDrift(); len(breaking) > 0 {
			return fmt.Errorf("%s: %w: %d id(s), first %s %d was %s", res.File, ErrIDDrift,
				len(breaking), breaking[0].Kind, breaking[0].ID, breaking[0].OldPath)
		}
	}

	opts := e.emitOptions()
	outDir := e.project.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, t := range e.targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		artifacts, err := t.Emit(res.Doc, opts)
		if err != nil {
			return fmt.Errorf("%s: target %s: %w", res.File, t.Name(), err)
		}
		for _, a := range artifacts {
			dest := filepath.Join(outDir, a.Name)
			changed, err := writeIfChanged(dest, a.Content)
			if err != nil {
				return err
			}
			if changed {
				res.Written = append(res.Written, dest)
			} else {
				res.Unchanged = append(res.Unchanged, dest)
			}
		}
	}
	return nil
}

// writeIfChanged skips files whose content is already current so watch
// mode and build tools do not see spurious modifications.
func writeIfChanged(path string, content []byte) (bool, error) {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, content) {
		return false, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// startRun compares the document's ids with the previous completed run and
// opens a new one.
func (e *Engine) startRun(res *Result) error {
	prev, err := e.store.GetLatestRun(res.File)
	if err != nil {
		return err
	}
	next := core.IDTable(res.Doc)
	if prev != nil {
		prevIDs, err := e.store.GetIDs(prev.ID)
		if err != nil {
			return err
		}
		res.Drift = core.CompareIDs(prevIDs, next)
		for _, d := range res.BreakingDrift() {
			e.logger.Warn("id changed owner", "file", res.File, "kind", d.Kind, "id", d.ID,
				"was", d.OldPath, "now", d.NewPath)
		}
	}

	run, err := e.store.CreateRun(res.File)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	res.Run = run
	e.logger.Debug("created run", "run_id", run.ID)
	return nil
}

// finishRun records the outcome. Id tables are only kept for successful
// runs, so the next compile compares against the last good layout.
func (e *Engine) finishRun(res *Result, compileErr error) error {
	status := core.RunStatusCompleted
	errMsg := ""
	if compileErr != nil {
		status = core.RunStatusFailed
		errMsg = compileErr.Error()
	} else if err := e.store.SaveIDs(res.Run.ID, core.IDTable(res.Doc)); err != nil {
		status = core.RunStatusFailed
		errMsg = err.Error()
		compileErr = err
	}

	if err := e.store.CompleteRun(res.Run.ID, status, errMsg); err != nil {
		return errors.Join(compileErr, err)
	}
	if status == core.RunStatusCompleted {
		if err := e.store.DeleteOldRuns(res.File, e.keepRuns); err != nil {
			e.logger.Warn("failed to prune run history", "file", res.File, "error", err)
		}
	}
	if run, err := e.store.GetRun(res.Run.ID); err == nil {
		res.Run = run
	}
	return compileErr
}

// CompileAll compiles every configured schema concurrently. Failures do not
// stop the other files; their errors are joined.
func (e *Engine) CompileAll(ctx context.Context) ([]*Result, error) {
	files, err := e.Schemas()
	if err != nil {
		return nil, err
	}
	return e.compileFiles(ctx, files)
}

func (e *Engine) compileFiles(ctx context.Context, files []string) ([]*Result, error) {
	results := make([]*Result, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(4)
	for i, f := range files {
		g.Go(func() error {
			results[i], errs[i] = e.Compile(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// LoadAll loads every configured schema without emitting.
func (e *Engine) LoadAll(ctx context.Context) ([]*Result, error) {
	files, err := e.Schemas()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := e.Load(gctx, f)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
