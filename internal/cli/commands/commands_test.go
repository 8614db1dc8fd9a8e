package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/paramgen/internal/cli/config"
	"github.com/leapstack-labs/paramgen/internal/cli/testutil"
)

// execute runs cmd against the project in dir with output captured.
func execute(t *testing.T, dir, mode string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cfgFile := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(cfgFile); err != nil {
		cfgFile = ""
	}
	cfg, err := config.LoadConfig(cfgFile, nil)
	require.NoError(t, err)
	cfg.OutputFormat = mode
	require.NoError(t, cfg.Validate())

	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCompileCommand(), "compile [schema...]", []string{"watch", "strict-ids", "keep-runs"}},
		{NewListCommand(), "list [schema...]", []string{"kind"}},
		{NewLintCommand(), "lint [schema...]", []string{"disable", "severity", "rule"}},
		{NewRulesCommand(), "rules [rule-id]", []string{"group", "verbose"}},
		{NewDocsCommand(), "docs [schema...]", []string{"out", "paths", "no-sources"}},
		{NewSimulateCommand(), "simulate [schema]", []string{"exec", "glide"}},
		{NewInspectCommand(), "inspect [schema]", nil},
		{NewHistoryCommand(), "history [schema]", []string{"limit", "ids"}},
		{NewInitCommand(), "init [directory]", []string{"force"}},
		{NewVersionCommand("1.2.3"), "version", nil},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "markdown", NewCompileCommand())
	require.NoError(t, err, out)
	assert.Contains(t, out, "synth.xml: success (7 params, 2 sources, wrote")
	assert.Contains(t, out, "**OK**: compiled 1 schema(s)")
	for _, name := range []string{"synth_layout.go", "synth_rules.go", "synth.json"} {
		assert.FileExists(t, filepath.Join(dir, "gen", name))
	}
	testutil.AssertNoANSI(t, out)

	out, err = execute(t, dir, "markdown", NewCompileCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = execute(t, dir, "markdown", NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "# Compile runs (2)")
	assert.Contains(t, out, "| completed |")
}

func TestCompile_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "json", NewCompileCommand())
	require.NoError(t, err)

	var got struct {
		Results []compileSummary `json:"results"`
		Error   string           `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "success", got.Results[0].Status)
	assert.Equal(t, 7, got.Results[0].Params)
	assert.Len(t, got.Results[0].Written, 3, "layout, rules and json manifest")
	assert.NotEmpty(t, got.Results[0].RunID)
	assert.Empty(t, got.Error)

	// The stored id table of the run is available through history.
	out, err = execute(t, dir, "json", NewHistoryCommand(), "--ids", got.Results[0].RunID)
	require.NoError(t, err)
	var ids struct {
		IDs []struct {
			Kind string
			ID   int
			Path string
		} `json:"ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ids), out)
	require.Len(t, ids.IDs, 9)
	assert.Equal(t, "synth.volume", ids.IDs[0].Path)
	assert.Equal(t, "source", ids.IDs[8].Kind)
}

func TestCompile_StrictIDs(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	_, err := execute(t, dir, "markdown", NewCompileCommand())
	require.NoError(t, err)

	schema := filepath.Join(dir, "schemas", "synth.xml")
	shifted := strings.Replace(testutil.SynthSchema,
		`<param name="Volume"`, `<param name="Drive"/>`+"\n  "+`<param name="Volume"`, 1)
	require.NoError(t, os.WriteFile(schema, []byte(shifted), 0o644))

	out, err := execute(t, dir, "markdown", NewCompileCommand(), "--strict-ids")
	require.Error(t, err)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out, "**Warning**: param id 0 moved from synth.volume to synth.drive")
	assert.Contains(t, out, "synth.xml: failed")

	// Without --strict-ids the drift is only reported.
	out, err = execute(t, dir, "markdown", NewCompileCommand())
	require.NoError(t, err, out)
	assert.Contains(t, out, "param id 0 moved")
}

func TestList(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "markdown", NewListCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "## Parameters (7)")
	assert.Contains(t, out, "| 3 | synth.osc[0].detune |")
	assert.Contains(t, out, "| 0 | synth.lfo | Lfo | -1..1 | host.Lfo |")
	testutil.AssertValidMarkdown(t, out)

	out, err = execute(t, dir, "json", NewListCommand(), "--kind", "params")
	require.NoError(t, err)
	var got []listJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Synth", got[0].Name)
	assert.Equal(t, "modulation", got[0].Interface)
	assert.Empty(t, got[0].Sources)
	require.Len(t, got[0].Params, 7)
	assert.Equal(t, "0.25", got[0].Params[6].Default, "overlay applies to the second oscillator")
	assert.Equal(t, "0", got[0].Params[3].Default)
	assert.False(t, got[0].Params[2].Smoothing)

	_, err = execute(t, dir, "markdown", NewListCommand(), "--kind", "knobs")
	assert.ErrorContains(t, err, "unknown kind")
}

func TestLint(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "markdown", NewLintCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "no issues in 1 schema(s)")

	bad := filepath.Join(dir, "schemas", "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(`<module name="Bad" interface="normal">
  <param name="Level"/>
  <param name="Level"/>
</module>`), 0o644))

	out, err = execute(t, dir, "markdown", NewLintCommand())
	require.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out, "PG03")
	assert.Contains(t, out, "Summary: 1 error(s)")

	_, err = execute(t, dir, "markdown", NewLintCommand(), "--disable", "PG03")
	assert.NoError(t, err)

	out, err = execute(t, dir, "json", NewLintCommand(), bad)
	require.Error(t, err)
	var got struct {
		Files  int            `json:"files"`
		Issues []issueSummary `json:"issues"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 1, got.Files)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "PG03", got.Issues[0].Code)
	assert.Equal(t, 3, got.Issues[0].Pos.Line)

	_, err = execute(t, dir, "markdown", NewLintCommand(), "--severity", "loud")
	assert.ErrorContains(t, err, "unknown severity")
}

func TestRules(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "markdown", NewRulesCommand())
	require.NoError(t, err)
	for _, id := range []string{"PG01", "PG02", "PG03", "PG04", "PG05"} {
		assert.Contains(t, out, "**"+id+"**")
	}
	testutil.AssertValidMarkdown(t, out)

	out, err = execute(t, dir, "markdown", NewRulesCommand(), "--group", "naming")
	require.NoError(t, err)
	assert.Contains(t, out, "PG03")
	assert.NotContains(t, out, "PG01")

	out, err = execute(t, dir, "markdown", NewRulesCommand(), "pg03")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# PG03: "), out)
	testutil.AssertValidMarkdown(t, out)

	_, err = execute(t, dir, "markdown", NewRulesCommand(), "XX99")
	assert.ErrorContains(t, err, "not found")
}

func TestDocs(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "markdown", NewDocsCommand())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Synth"), out)
	assert.Contains(t, out, "**Sources**")

	outDir := filepath.Join(dir, "docs")
	_, err = execute(t, dir, "markdown", NewDocsCommand(), "--out", outDir, "--no-sources", "--paths")
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(outDir, "synth.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "**Sources**")
	assert.Contains(t, string(content), "synth.osc[1].detune")
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")

	out, err := execute(t, t.TempDir(), "markdown", NewInitCommand(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "- paramgen.yaml: success")
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	assert.FileExists(t, filepath.Join(dir, "schemas", "synth.xml"))

	_, err = execute(t, t.TempDir(), "markdown", NewInitCommand(), dir)
	assert.ErrorContains(t, err, "already exists")

	// The generated project compiles cleanly.
	out, err = execute(t, dir, "markdown", NewCompileCommand())
	require.NoError(t, err, out)
	for _, name := range []string{"synth_layout.go", "synth_rules.go", "synth.json", "synth.md"} {
		assert.FileExists(t, filepath.Join(dir, "gen", name))
	}
}

func TestRenameSpecialFiles(t *testing.T) {
	assert.Equal(t, ".gitignore", renameSpecialFiles("gitignore"))
	assert.Equal(t, "sub/.gitignore", renameSpecialFiles("sub/gitignore"))
	assert.Equal(t, "schemas/synth.xml", renameSpecialFiles("schemas/synth.xml"))
}

func TestVersion(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "paramgen v1.2.3\n"))
}
