package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/paramgen/internal/cli/testutil"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/markup"
	"github.com/leapstack-labs/paramgen/pkg/rules"
	"github.com/leapstack-labs/paramgen/pkg/schema"
	"github.com/leapstack-labs/paramgen/pkg/synthrt"
)

func loadDoc(t *testing.T, src string) *core.Document {
	t.Helper()
	root, err := markup.Parse(src)
	require.NoError(t, err)
	doc, err := schema.Build(context.Background(), root)
	require.NoError(t, err)
	return doc
}

func newTestSimulator(t *testing.T) (*simulator, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRendererMarkdown()
	return newSimulator(loadDoc(t, testutil.SynthSchema), tr.Renderer), tr
}

// run executes each line and fails on the first error.
func (s *simulator) run(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		_, err := s.exec(line)
		require.NoError(t, err, line)
	}
}

func (s *simulator) live(t *testing.T, id int) *synthrt.Param {
	t.Helper()
	p, err := s.m.Param(id)
	require.NoError(t, err)
	return p
}

func TestSimulator_SetWhileActiveGlides(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "set volume 0.4")
	assert.Contains(t, tr.Output(), "synth.volume = 0.4 (smoothing)")
	vol := sim.live(t, 0)
	assert.Equal(t, 0.8, vol.Value, "value moves only on ticks")
	assert.InDelta(t, -0.05, vol.Increment, 1e-12)
	assert.Empty(t, sim.published)

	sim.run(t, "tick 10")
	assert.Contains(t, tr.Output(), "ticked 10, 0 parameter(s) still smoothing")
	assert.Equal(t, 0.4, vol.Value)
	assert.Equal(t, synthrt.Idle, vol.State())
	assert.InDelta(t, 0.4, sim.published["host.SetVolume"], 1e-12)
}

func TestSimulator_SetWhileInactiveCommitsAtOnce(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "active off", "set synth.volume 0.1")
	assert.Contains(t, tr.Output(), "active = false")
	assert.Contains(t, tr.Output(), "synth.volume = 0.1 (idle)")
	assert.Equal(t, 0.1, sim.live(t, 0).Access)
	assert.Equal(t, 0.1, sim.published["host.SetVolume"])
}

func TestSimulator_GlideZeroJumps(t *testing.T) {
	sim, _ := newTestSimulator(t)

	sim.run(t, "glide 0", "set osc[1].level 0.9")
	lvl := sim.live(t, 4)
	assert.Equal(t, 0.9, lvl.Value)
	assert.Equal(t, synthrt.Idle, lvl.State())
}

func TestSimulator_StepsParamIsSynchronous(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "set osc[0].wave 2")
	assert.Contains(t, tr.Output(), "synth.osc[0].wave = 2 (idle)")
	assert.Equal(t, 2.0, sim.live(t, 2).Access)
}

func TestSimulator_RouteBoundSource(t *testing.T) {
	sim, _ := newTestSimulator(t)

	sim.run(t, "route volume lfo 0.2", "source lfo 0.75", "tick")
	lfo, err := sim.m.Source(0)
	require.NoError(t, err)
	assert.Equal(t, 0.75, lfo.Normalized)
	assert.Equal(t, 0.5, lfo.Value, "bidirectional reading is mapped to [-1,1]")
	assert.InDelta(t, 0.9, sim.live(t, 0).Access, 1e-12)
	assert.InDelta(t, 0.9, sim.published["host.SetVolume"], 1e-12)

	// Routing past the top of the range clamps.
	sim.run(t, "route volume lfo 1", "tick")
	assert.Equal(t, 1.0, sim.live(t, 0).Access)

	sim.run(t, "unroute volume", "tick")
	assert.Equal(t, 0.8, sim.live(t, 0).Access)
}

func TestSimulator_UnboundSourceIsSetDirectly(t *testing.T) {
	sim, _ := newTestSimulator(t)

	sim.run(t, "source env 0.3")
	env, err := sim.m.Source(1)
	require.NoError(t, err)
	assert.Equal(t, 0.3, env.Value)
	assert.Equal(t, 0.3, env.Normalized)
}

func TestSimulator_SkipHoldsParameter(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "skip volume on", "set volume 0.2", "tick 20")
	assert.Contains(t, tr.Output(), "ticked 20, 1 parameter(s) still smoothing")
	assert.Equal(t, 0.8, sim.live(t, 0).Value)

	sim.run(t, "skip 0 off", "tick 20")
	assert.Equal(t, 0.2, sim.live(t, 0).Value)
}

func TestSimulator_Reset(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "active off", "set volume 0.3", "route volume lfo 1", "reset")
	assert.Contains(t, tr.Output(), "reset to defaults")
	assert.Equal(t, 0.8, sim.live(t, 0).Value)
	assert.Empty(t, sim.published)
	assert.Empty(t, sim.host.Modulations(0))
	assert.True(t, sim.host.Active())
}

func TestSimulator_Listings(t *testing.T) {
	sim, tr := newTestSimulator(t)

	sim.run(t, "params", "sources", "show osc[1].detune", "published", "help")
	out := tr.Output()
	assert.Contains(t, out, "| 0 | synth.volume | 0.8 | 0.8 | 0.8 | idle |")
	assert.Contains(t, out, "| 6 | synth.osc[1].detune | 0.25 | 0.25 | 0.25 | idle |")
	assert.Contains(t, out, "| 0 | synth.lfo | -1..1 | 0 | 0 |")
	assert.Regexp(t, `path\s+synth\.osc\[1\]\.detune`, out)
	assert.Contains(t, out, "nothing published yet")
	assert.Contains(t, out, "route <param> <source> <amount>")
	testutil.AssertNoANSI(t, out)
}

func TestSimulator_Errors(t *testing.T) {
	sim, _ := newTestSimulator(t)

	tests := []struct {
		line string
		want string
	}{
		{"set", "usage: set <param> <value>"},
		{"set level 1", "ambiguous"},
		{"set cutoff 1", `parameter "cutoff" not found`},
		{"set volume loud", `invalid value "loud"`},
		{"source nope 1", `source "nope" not found`},
		{"active maybe", "expected on or off"},
		{"tick 0", "invalid tick count"},
		{"dance", `unknown command "dance"`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			quit, err := sim.exec(tt.line)
			assert.False(t, quit)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := sim.exec("set 99 1")
	assert.ErrorIs(t, err, rules.ErrUnknownParam)
	_, err = sim.exec("route volume 7 1")
	assert.ErrorIs(t, err, rules.ErrUnknownSource)
}

func TestSimulator_Quit(t *testing.T) {
	sim, _ := newTestSimulator(t)

	for _, line := range []string{"quit", "exit", ".quit"} {
		quit, err := sim.exec(line)
		require.NoError(t, err)
		assert.True(t, quit, line)
	}
	quit, err := sim.exec("   ")
	require.NoError(t, err)
	assert.False(t, quit)
}

func TestMatchPath(t *testing.T) {
	paths := []string{"synth.volume", "synth.osc[0].level", "synth.osc[1].level", "synth.osc[1].detune"}

	tests := []struct {
		name    string
		want    int
		wantErr string
	}{
		{"synth.volume", 0, ""},
		{"volume", 0, ""},
		{"osc[1].level", 2, ""},
		{"detune", 3, ""},
		{"level", -1, "ambiguous"},
		{"lume", -1, "not found"},
		{"cutoff", -1, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchPath(paths, tt.name)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimulateCommand_Exec(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, "json", NewSimulateCommand(),
		"-e", "active off", "-e", "set volume 0.5", "-e", "published")
	require.NoError(t, err)
	assert.Contains(t, out, "host.SetVolume <- 0.5")

	_, err = execute(t, dir, "markdown", NewSimulateCommand(), "-e", "set nothing 1")
	assert.ErrorContains(t, err, "set nothing 1: parameter")
}
