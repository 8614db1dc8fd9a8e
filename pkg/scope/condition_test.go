package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_Eval(t *testing.T) {
	vars := map[string]string{"osc": "1", "filter": "0", "synth": ""}

	tests := []struct {
		expr string
		want bool
	}{
		{"osc=1", true},
		{"osc=0", false},
		{" osc = 1 ", true},
		{"osc=1 and filter=0", true},
		{"osc=1 and filter=1", false},
		{"osc=0 or osc=1", true},
		{"osc=0 or osc=2", false},
		{"osc=0 or osc=1 and filter=1 or filter=0", true},
		{"osc=0 or osc=2 and filter=0", false},
		{"synth=", true},
		{"missing=0", false},
		{"missing=", false},
		{"osc", false},
		{"osc==1", false},
		{"osc=1 or bad", true},
		{"osc=1 and bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCondition(tt.expr).Eval(vars))
		})
	}
}

func TestParseCondition_Tree(t *testing.T) {
	c := ParseCondition("a=1 or b=2 and c=3")

	require.Len(t, c.Groups, 2)
	assert.Equal(t, []Term{
		{Var: "a", Value: "1", Raw: "a=1"},
		{Var: "b", Value: "2", Raw: "b=2"},
	}, c.Groups[0])
	assert.Equal(t, []Term{{Var: "c", Value: "3", Raw: "c=3"}}, c.Groups[1])
	assert.Equal(t, []string{"a", "b", "c"}, c.Vars())
	assert.Empty(t, c.Malformed())
}

func TestParseCondition_Malformed(t *testing.T) {
	c := ParseCondition("osc and a=b=c or x=1")

	bad := c.Malformed()
	require.Len(t, bad, 2)
	assert.Equal(t, "osc", bad[0].Raw)
	assert.Equal(t, "a=b=c", bad[1].Raw)
	assert.Equal(t, []string{"x"}, c.Vars())
}
