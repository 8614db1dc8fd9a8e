package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register emit targets so Validate can resolve them.
	_ "github.com/leapstack-labs/paramgen/pkg/emit/golang"
	_ "github.com/leapstack-labs/paramgen/pkg/emit/manifest"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringSlice("schema", nil, "")
	fs.String("out-dir", "", "")
	fs.String("package", "", "")
	fs.StringSlice("target", nil, "")
	fs.String("state", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("log-level", "", "")
	return fs
}

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// Resolve symlinks such as /tmp -> /private/tmp.
	cwd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(cwd, DefaultSchemas)}, cfg.Schemas)
	assert.Equal(t, filepath.Join(cwd, DefaultOutDir), cfg.OutDir)
	assert.Equal(t, filepath.Join(cwd, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultPackage, cfg.Package)
	assert.Equal(t, []string{DefaultTarget}, cfg.Targets)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, cwd, cfg.ProjectRoot)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
schemas: [synth/*.xml]
out_dir: build
package: synthparams
targets: [go, json]
lint:
  disabled: [PG02]
  severity:
    PG05: error
emit:
  go:
    receiver: sp
`)
	chdir(t, dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	t.Run("file", func(t *testing.T) {
		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(cwd, "synth", "*.xml")}, cfg.Schemas)
		assert.Equal(t, filepath.Join(cwd, "build"), cfg.OutDir)
		assert.Equal(t, "synthparams", cfg.Package)
		assert.Equal(t, []string{"go", "json"}, cfg.Targets)
		require.NotNil(t, cfg.Lint)
		assert.Equal(t, []string{"PG02"}, cfg.Lint.Disabled)
		assert.Equal(t, "error", cfg.Lint.Severity["PG05"])
		assert.Equal(t, map[string]any{"receiver": "sp"}, cfg.Emit["go"])
		assert.Equal(t, filepath.Join(cwd, ConfigFileName), cfg.ConfigFile)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("PARAMGEN_PACKAGE", "envpkg")
		t.Setenv("PARAMGEN_TARGETS", "yaml, json")
		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "envpkg", cfg.Package)
		assert.Equal(t, []string{"yaml", "json"}, cfg.Targets)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("PARAMGEN_PACKAGE", "envpkg")
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--package", "flagpkg", "--target", "yaml", "--state", "s.db"}))
		cfg, err := LoadConfig("", fs)
		require.NoError(t, err)
		assert.Equal(t, "flagpkg", cfg.Package)
		assert.Equal(t, []string{"yaml"}, cfg.Targets)
		assert.Equal(t, filepath.Join(cwd, "s.db"), cfg.StatePath)
	})
}

func TestLoadConfig_FindsConfigUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "out_dir: generated\n")
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdir(t, sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "generated", filepath.Base(cfg.OutDir))
	assert.Equal(t, filepath.Base(root), filepath.Base(cfg.ProjectRoot))
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")

	bad := writeConfig(t, t.TempDir(), "targets: [go\n")
	_, err = LoadConfig(bad, nil)
	assert.Error(t, err)
}

func TestLoadConfig_Verbose(t *testing.T) {
	chdir(t, t.TempDir())
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"-v"}))
	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	fs = newFlags()
	require.NoError(t, fs.Parse([]string{"-v", "--log-level", "error"}))
	cfg, err = LoadConfig("", fs)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "explicit level wins")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Schemas:      []string{"synth.xml"},
			Targets:      []string{"go"},
			Package:      "params",
			OutputFormat: "auto",
			LogLevel:     "info",
			LogFormat:    "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown target", func(c *Config) { c.Targets = []string{"cobol"} }, `unknown target "cobol"`},
		{"no targets", func(c *Config) { c.Targets = nil }, "targets is required"},
		{"no schemas", func(c *Config) { c.Schemas = nil }, "schemas is required"},
		{"bad package", func(c *Config) { c.Package = "my-pkg" }, "not a valid identifier"},
		{"keyword package", func(c *Config) { c.Package = "func" }, "not a valid identifier"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "output"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad lint severity", func(c *Config) {
			c.Lint = &LintConfig{Severity: map[string]string{"PG01": "loud"}}
		}, "lint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProject(t *testing.T) {
	c := &Config{Schemas: []string{"a.xml"}, OutDir: "gen", Package: "p", Targets: []string{"json"}}
	p := c.Project()
	assert.Equal(t, c.Schemas, p.Schemas)
	assert.Equal(t, "gen", p.OutDir)
	assert.Equal(t, []string{"json"}, p.Targets)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&Config{LogLevel: "info", LogFormat: "json"}, &buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}
