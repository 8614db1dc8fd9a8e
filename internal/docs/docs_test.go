package docs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/markup"
	"github.com/leapstack-labs/paramgen/pkg/schema"
)

const synthSchema = `<module name="Synth" interface="modulation">
  <param name="Volume" default="0.8" description="Output <b>gain</b>"/>
  <param name="Mode" steps="3" description="left|right"/>
  <module name="Osc" count="2">
    <param name="Level"/>
    <source name="Env" bidirectional="true"/>
  </module>
</module>`

func buildDoc(t *testing.T, input string) *core.Document {
	t.Helper()
	root, err := markup.Parse(input)
	require.NoError(t, err)
	doc, err := schema.Build(context.Background(), root, schema.WithFile("synth.xml"))
	require.NoError(t, err)
	return doc
}

func TestGenerate(t *testing.T) {
	out, err := Generate(buildDoc(t, synthSchema), DefaultOptions())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Synth\n"))
	assert.Contains(t, md, "Generated from `synth.xml`.")
	assert.Contains(t, md, "| Interface | Modulation |")
	assert.Contains(t, md, "| Parameters | 4 |")
	assert.Contains(t, md, "| Sources | 2 |")
	assert.Contains(t, md, "**Params**")
	assert.Contains(t, md, "**Sources**")

	assert.Contains(t, md, "Output **gain**", "inline html becomes markdown")
	assert.Contains(t, md, `left\|right`, "pipes are escaped in cells")
	assert.Contains(t, md, "-1..1")

	assert.Regexp(t, `(?m)^### .*Osc 1$`, md)
	assert.Regexp(t, `(?m)^### .*Osc 2$`, md)
	assert.Contains(t, md, "Parameters [2,3), sources [0,1).")
	assert.Less(t, strings.Index(md, "Osc 1\n"), strings.Index(md, "Osc 2\n"))
	assert.NotContains(t, md, "| Path |")
}

func TestGenerate_Flags(t *testing.T) {
	tests := []struct {
		name  string
		attrs string
		want  string
	}{
		{"defaults", ``, "smooth, modulatable, automatable"},
		{"stepped", `steps="4"`, "modulatable, automatable"},
		{"multiply unconstrained", `multiply="true" constrain="false" automatable="false"`, "smooth, multiply, unconstrained, modulatable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := buildDoc(t, `<module name="S" interface="normal"><param name="P" `+tt.attrs+`/></module>`)
			assert.Equal(t, strings.Split(tt.want, ", "), flags(doc.Params[0]))
		})
	}
}

func TestGenerate_Options(t *testing.T) {
	doc := buildDoc(t, synthSchema)

	out, err := Generate(doc, Options{Sources: false, Paths: true})
	require.NoError(t, err)
	md := string(out)
	assert.NotContains(t, md, "**Sources**")
	assert.Contains(t, md, "| Path |")
	assert.Contains(t, md, "`synth.osc[1].level`")
}

func TestTarget(t *testing.T) {
	target, ok := emit.Get(TargetName)
	require.True(t, ok)

	arts, err := target.Emit(buildDoc(t, synthSchema), emit.Options{
		Extra: map[string]any{TargetName: map[string]any{"sources": "false"}},
	})
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, "synth.md", arts[0].Name)
	assert.NotContains(t, string(arts[0].Content), "**Sources**")

	_, err = target.Emit(&core.Document{}, emit.Options{})
	assert.ErrorIs(t, err, emit.ErrEmptyDocument)
}

func TestDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  padded  ", "padded"},
		{"<i>soft</i> clip", "*soft* clip"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := description(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
