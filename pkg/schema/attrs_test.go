package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/paramgen/pkg/markup"
)

func TestParamAttrs_Merge(t *testing.T) {
	base := DefaultParamAttrs()
	n := &markup.Node{Tag: TagIndex, Attrs: map[string]string{
		AttrDefault: "5",
		AttrSmooth:  "false",
		AttrIf:      "osc=1",
		"unknown":   "x",
	}}

	o := OverrideFromNode(n)
	assert.NotNil(t, o.Default)
	assert.NotNil(t, o.Smooth)
	assert.Nil(t, o.Steps)
	assert.Nil(t, o.Name)

	merged := base.Merge(o)
	assert.Equal(t, "5", merged.Default)
	assert.Equal(t, "false", merged.Smooth)
	assert.Equal(t, base.Steps, merged.Steps)
	assert.Equal(t, "0", base.Default, "merge must not modify the receiver")

	empty := ""
	assert.Equal(t, "", base.Merge(ParamOverride{Format: &empty}).Format, "an explicit empty value still overrides")
}

func TestFlags(t *testing.T) {
	assert.True(t, IsTrue("true"))
	assert.True(t, IsTrue("yes"))
	assert.True(t, IsTrue(""))
	assert.False(t, IsTrue("false"))

	assert.True(t, IsSet("true"))
	assert.False(t, IsSet("yes"))
	assert.False(t, IsSet("false"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, wantType, wantFormat string
	}{
		{"Default", "Default", "Default"},
		{"Linear[0,1]", "Linear<0,1>", "Linear<0,1>"},
		{"Group[Sine, Saw,Square]", "Group<Sine, Saw,Square>", `Group<"Sine", "Saw", "Square">`},
		{`Group["On", Off]`, `Group<"On", Off>`, `Group<"On", "Off">`},
		{"Group", "Group", "Group"},
		{"Percent[[x]]", "Percent<<x>>", "Percent<<x>>"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.wantType, NormalizeType(tt.in))
			assert.Equal(t, tt.wantFormat, NormalizeFormat(tt.in))
		})
	}
}
