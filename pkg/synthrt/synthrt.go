// Package synthrt holds the runtime types that generated parameter code
// operates on. A host owns the tick loop: it reports whether the engine is
// active, which parameters need updating this tick and which modulation
// sources feed each parameter.
package synthrt

// State is the smoothing state of a parameter.
type State int

// Parameter states.
const (
	Idle State = iota
	Smoothing
)

func (s State) String() string {
	if s == Smoothing {
		return "smoothing"
	}
	return "idle"
}

// Param is one parameter's metadata plus its live values.
type Param struct {
	ID              int
	Name            string
	ShortName       string
	Identifier      string
	ShortIdentifier string
	Description     string
	Default         float64
	Steps           int
	Transform       string
	Format          string
	Smooth          bool
	Multiply        bool
	Constrain       bool
	Modulatable     bool
	Automatable     bool

	// Value is the smoothed base value, before modulation.
	Value float64
	// Goal is the value smoothing moves toward.
	Goal float64
	// Increment is added to Value every tick while smoothing.
	Increment float64
	// Access is the published value, after modulation and clamping.
	Access float64
	// Changing is raised by a commit while the host is active.
	Changing bool
}

// State reports whether the parameter is idle or smoothing.
func (p *Param) State() State {
	if p.Changing {
		return Smoothing
	}
	return Idle
}

// Reset puts every live value back to the default.
func (p *Param) Reset() {
	p.Value = p.Default
	p.Goal = p.Default
	p.Access = p.Default
	p.Increment = 0
	p.Changing = false
}

// Glide sets Increment so Value reaches Goal after ticks updates. Hosts call
// it when they start moving a changing parameter. A non-positive tick count
// jumps straight to the goal.
func (p *Param) Glide(ticks int) {
	if ticks <= 0 {
		p.Value = p.Goal
		p.Increment = 0
		p.Changing = false
		return
	}
	p.Increment = (p.Goal - p.Value) / float64(ticks)
}

// Settle stops smoothing once Value has reached or passed Goal.
func (p *Param) Settle() {
	if !p.Changing {
		return
	}
	if p.Increment == 0 ||
		p.Increment > 0 && p.Value >= p.Goal ||
		p.Increment < 0 && p.Value <= p.Goal {
		p.Value = p.Goal
		p.Increment = 0
		p.Changing = false
	}
}

// Source is a modulation source and its current signal.
type Source struct {
	ID              int
	Name            string
	ShortName       string
	Identifier      string
	ShortIdentifier string
	Description     string
	Bidirectional   bool

	// Value is the signal in its native range: [-1,1] for bidirectional
	// sources, [0,1] otherwise.
	Value float64
	// Normalized is the signal mapped to [0,1].
	Normalized float64
}

// Set stores a raw reading. Bidirectional sources treat x as normalized and
// derive Value = x*2-1; others store x in both fields.
func (s *Source) Set(x float64) {
	s.Normalized = x
	if s.Bidirectional {
		s.Value = x*2 - 1
		return
	}
	s.Value = x
}

// Modulation routes a source into a parameter with a depth.
type Modulation struct {
	Source *Source
	Amount float64
}

// Context is the host's view of the current tick.
type Context interface {
	// Active reports whether the audio engine is running.
	Active() bool
	// Necessary reports whether parameter id needs updating this tick.
	Necessary(id int) bool
	// Modulations returns the sources bound to parameter id.
	Modulations(id int) []Modulation
}

// MultiplyFactor is the scale applied by one source in multiply mode.
// An amount of 0 yields the neutral factor 1.
func MultiplyFactor(amount, normalized float64) float64 {
	return amount*normalized + max(1-amount, 1)
}

// Clamp limits v to the normalized domain [0,1].
func Clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
