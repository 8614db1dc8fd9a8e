package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// checkInvariants verifies dense ids and instance range tiling for doc.
func checkInvariants(t *testing.T, doc *core.Document) {
	t.Helper()

	for i, p := range doc.Params {
		assert.Equal(t, i, p.ID, "param ids must be dense and ordered")
	}
	for i, s := range doc.Sources {
		assert.Equal(t, i, s.ID, "source ids must be dense and ordered")
	}

	if doc.Top == nil {
		return
	}

	// Pre-order walk must meet ids in ascending order.
	nextParam, nextSource := 0, 0
	var walk func(m *core.Module)
	walk = func(m *core.Module) {
		for k, inst := range m.Instances {
			if k > 0 {
				prev := m.Instances[k-1]
				assert.Equal(t, prev.Params.End, inst.Params.Start, "%s instance %d params must follow the previous instance", m.Name, k)
				assert.Equal(t, prev.Sources.End, inst.Sources.Start, "%s instance %d sources must follow the previous instance", m.Name, k)
			}
			assert.Equal(t, nextParam, inst.Params.Start)
			assert.Equal(t, nextSource, inst.Sources.Start)

			for _, e := range inst.Entries {
				switch e.Kind {
				case core.EntryParam:
					assert.Equal(t, nextParam, e.Param.ID)
					nextParam++
				case core.EntrySource:
					assert.Equal(t, nextSource, e.Source.ID)
					nextSource++
				case core.EntryModule:
					walk(e.Module)
				}
			}

			assert.Equal(t, nextParam, inst.Params.End, "%s instance %d param range", m.Name, k)
			assert.Equal(t, nextSource, inst.Sources.End, "%s instance %d source range", m.Name, k)
		}
	}
	walk(doc.Top)

	assert.Equal(t, len(doc.Params), nextParam)
	assert.Equal(t, len(doc.Sources), nextSource)
}

func TestBuild_Invariants(t *testing.T) {
	inputs := map[string]string{
		"synth": synthSchema,
		"nested repeats": `<module name="Poly">
			<source name="Clock"/>
			<module name="Voice" count="2">
				<param name="Gate" steps="2"/>
				<module name="Osc" count="3">
					<source name="Env"/>
					<param name="Level"/>
					<module name="Mod"><param name="Depth"/></module>
				</module>
				<param name="Pan"/>
			</module>
			<param name="Master"/>
		</module>`,
		"empty modules": `<module name="A"><module name="B" count="4"/><param name="P"/></module>`,
		"interleaved with drops": `<module name="A">
			<param name="P1"/><source/><module name="M" count="2"><param/><param name="Q"/></module><source name="S"/>
		</module>`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			checkInvariants(t, build(t, input))
		})
	}
}

func TestBuild_NestedRepeatCounts(t *testing.T) {
	doc := build(t, `<module name="Poly">
		<module name="Voice" count="2">
			<module name="Osc" count="3"><param name="Level"/></module>
		</module>
	</module>`)

	require.Len(t, doc.Params, 6)
	assert.Equal(t, "poly.voice[0].osc[0].level", doc.Param(0).Path)
	assert.Equal(t, "poly.voice[0].osc[2].level", doc.Param(2).Path)
	assert.Equal(t, "poly.voice[1].osc[0].level", doc.Param(3).Path)
	assert.Equal(t, "Poly Voice 2 Osc 3 Level", doc.Param(5).Identifier)

	voice := doc.Top.Instances[0].Modules()[0]
	assert.Equal(t, core.IDRange{Start: 0, End: 6}, voice.ParamRange())
	assert.Equal(t, core.IDRange{Start: 3, End: 6}, voice.Instances[1].Params)
}

func TestBuild_Deterministic(t *testing.T) {
	first := build(t, synthSchema)
	second := build(t, synthSchema)
	assert.Equal(t, first, second)
}
