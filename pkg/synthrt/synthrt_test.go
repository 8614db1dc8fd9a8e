package synthrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplyFactor(t *testing.T) {
	tests := []struct {
		name               string
		amount, normalized float64
		want               float64
	}{
		{"zero amount is neutral", 0, 0.7, 1},
		{"zero amount zero signal", 0, 0, 1},
		{"full amount full signal", 1, 1, 2},
		{"full amount no signal", 1, 0, 1},
		{"half amount", 0.5, 1, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MultiplyFactor(tt.amount, tt.normalized), 1e-12)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5))
	assert.Equal(t, 1.0, Clamp(1.5))
	assert.Equal(t, 0.25, Clamp(0.25))
}

func TestParam_GlideAndSettle(t *testing.T) {
	p := &Param{Default: 0.25}
	p.Reset()
	assert.Equal(t, Idle, p.State())

	p.Goal = 0.75
	p.Changing = true
	assert.Equal(t, Smoothing, p.State())

	p.Glide(4)
	assert.Equal(t, 0.125, p.Increment)
	for range 4 {
		p.Value += p.Increment
		p.Settle()
	}
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, 0.75, p.Value)
	assert.Equal(t, 0.0, p.Increment)

	p.Goal = 0
	p.Changing = true
	p.Glide(0)
	assert.Equal(t, 0.0, p.Value)
	assert.False(t, p.Changing)
	assert.Equal(t, "idle", p.State().String())
}

func TestSource_Set(t *testing.T) {
	bi := &Source{Bidirectional: true}
	bi.Set(0.75)
	assert.Equal(t, 0.75, bi.Normalized)
	assert.Equal(t, 0.5, bi.Value)

	uni := &Source{}
	uni.Set(0.75)
	assert.Equal(t, 0.75, uni.Normalized)
	assert.Equal(t, 0.75, uni.Value)
}

func TestStaticContext(t *testing.T) {
	src := &Source{}
	ctx := &StaticContext{IsActive: true, Skip: map[int]bool{2: true}}
	ctx.Route(1, src, 0.5)

	var _ Context = ctx
	assert.True(t, ctx.Active())
	assert.True(t, ctx.Necessary(1))
	assert.False(t, ctx.Necessary(2))
	assert.Len(t, ctx.Modulations(1), 1)
	assert.Empty(t, ctx.Modulations(0))

	ctx.Unroute(1)
	assert.Empty(t, ctx.Modulations(1))
}
