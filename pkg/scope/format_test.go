package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	s := synthScope().Enter(oscModule(4), 2)
	f := Fields{Name: "Level", ShortName: "Lvl"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain text", "Volume", "Volume"},
		{"name", "{name}", "Level"},
		{"short name", "{short-name}", "Lvl"},
		{"identifier default", "{namespace} {name}", "Synth Osc 3 Level"},
		{"short identifier default", "{short-namespace} {short-name}", "Syn O3 Lvl"},
		{"index is one based", "Voice {index}", "Voice 3"},
		{"i is zero based", "voice_{i}", "voice_2"},
		{"variable", "osc $osc of $synth!", "osc 2 of 0!"},
		{"unbound variable kept", "$cutoff", "$cutoff"},
		{"unknown placeholder kept", "{unknown} {name}", "{unknown} Level"},
		{"unclosed brace kept", "{name", "{name"},
		{"lone dollar", "$ {name}", "$ Level"},
		{"result trimmed", "  {name}  ", "Level"},
		{"repeated placeholder", "{name}/{name}", "Level/Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, s, f))
		})
	}
}

func TestFormat_OutsideRepeat(t *testing.T) {
	s := synthScope()
	assert.Equal(t, "Synth", Format("{name} {index}", s, Fields{Name: "Synth"}))
	assert.Equal(t, "x", Format("x{i}", s, Fields{}))
}

func TestFormat_NoReexpansion(t *testing.T) {
	s := synthScope()
	s.Vars["osc"] = "{name}"
	f := Fields{Name: "{short-name}", ShortName: "$osc"}

	assert.Equal(t, "{short-name} $osc {name}", Format("{name} {short-name} $osc", s, f))
}

func TestFormat_Deterministic(t *testing.T) {
	s := synthScope().Enter(oscModule(2), 1)
	f := Fields{Name: "Pitch", ShortName: "P"}
	tmpl := "{namespace} {name} $osc {i}"

	first := Format(tmpl, s, f)
	for range 10 {
		assert.Equal(t, first, Format(tmpl, s, f))
	}
}
