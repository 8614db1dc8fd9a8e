// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/paramgen/internal/cli/output"
)

// SynthSchema is a small modulation schema with a repeated module, a
// conditional overlay and bound sources.
const SynthSchema = `<module name="Synth" interface="modulation">
  <param name="Volume" default="0.8" interface="host.SetVolume"/>
  <module name="Osc" count="2">
    <param name="Level" default="0.5"/>
    <param name="Wave" steps="4" smooth="false"/>
    <param name="Detune">
      <index if="osc=1" default="0.25"/>
    </param>
  </module>
  <source name="Lfo" bidirectional="true" interface="host.Lfo"/>
  <source name="Env"/>
</module>`

// SetupTestProject creates a temporary project with a paramgen.yaml and
// schemas/synth.xml. Extra config lines are appended to the config file.
func SetupTestProject(t *testing.T, extraConfig ...string) string {
	t.Helper()

	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "schemas"), 0755); err != nil {
		t.Fatalf("failed to create schemas directory: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "schemas", "synth.xml"), []byte(SynthSchema), 0644); err != nil {
		t.Fatalf("failed to create synth.xml: %v", err)
	}

	cfg := "schemas: [schemas/*.xml]\nout_dir: gen\npackage: synthparams\ntargets: [go, json]\n" +
		strings.Join(extraConfig, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "paramgen.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to create paramgen.yaml: %v", err)
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
