package manifest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/markup"
	"github.com/leapstack-labs/paramgen/pkg/schema"
)

const input = `<module name="Synth" interface="modulation">
  <param name="Volume" default="0.8" description="Output <b>gain</b>"/>
  <module name="Osc" count="2">
    <param name="Wave" steps="4" smooth="false"/>
  </module>
  <source name="Lfo" bidirectional="true" interface="host.Lfo"/>
</module>`

func buildDoc(t *testing.T) *core.Document {
	t.Helper()
	root, err := markup.Parse(input)
	require.NoError(t, err)
	doc, err := schema.Build(context.Background(), root, schema.WithFile("synth.xml"))
	require.NoError(t, err)
	return doc
}

func TestBuild(t *testing.T) {
	m := Build(buildDoc(t), true)

	assert.Equal(t, "Synth", m.Name)
	assert.Equal(t, "modulation", m.Interface)
	require.Len(t, m.Params, 3)
	require.Len(t, m.Sources, 1)

	assert.Equal(t, 0.8, m.Params[0].Default)
	assert.Equal(t, []string{"smooth", "constrain", "modulatable", "automatable"}, m.Params[0].Flags)
	assert.Equal(t, 4, m.Params[1].Steps)
	assert.NotContains(t, m.Params[1].Flags, "smooth")
	assert.Equal(t, "host.Lfo", m.Sources[0].Binding)

	require.Len(t, m.Modules, 1)
	top := m.Modules[0]
	assert.Equal(t, "SynthParameters", top.Class)
	assert.Equal(t, core.IDRange{Start: 0, End: 3}, top.Params)
	require.Len(t, top.Modules, 2)
	assert.Equal(t, core.IDRange{Start: 2, End: 3}, top.Modules[1].Params)

	assert.Empty(t, Build(buildDoc(t), false).Modules)
}

func TestEmit(t *testing.T) {
	doc := buildDoc(t)
	want := Build(doc, true)

	tests := []struct {
		target    string
		file      string
		unmarshal func([]byte, any) error
	}{
		{JSON, "synth.json", json.Unmarshal},
		{YAML, "synth.yaml", yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			target, err := emit.MustGet(tt.target)
			require.NoError(t, err)

			arts, err := target.Emit(doc, emit.Options{})
			require.NoError(t, err)
			require.Len(t, arts, 1)
			assert.Equal(t, tt.file, arts[0].Name)

			var got Manifest
			require.NoError(t, tt.unmarshal(arts[0].Content, &got))
			assert.Equal(t, *want, got)
		})
	}
}

func TestEmit_Options(t *testing.T) {
	arts, err := Target{format: JSON}.Emit(buildDoc(t), emit.Options{
		Basename: "patch",
		Extra:    map[string]any{"json": map[string]any{"indent": 0, "tree": false}},
	})
	require.NoError(t, err)
	assert.Equal(t, "patch.json", arts[0].Name)
	assert.NotContains(t, string(arts[0].Content), "\n  ")
	assert.NotContains(t, string(arts[0].Content), `"modules"`)
	assert.Contains(t, string(arts[0].Content), "<b>gain</b>", "HTML is not escaped")
}

func TestEmit_EmptyDocument(t *testing.T) {
	_, err := Target{format: YAML}.Emit(&core.Document{}, emit.Options{})
	assert.ErrorIs(t, err, emit.ErrEmptyDocument)
}
