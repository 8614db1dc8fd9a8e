package synthrt

// StaticContext is a Context backed by plain fields. Hosts without their own
// scheduler and tests use it.
type StaticContext struct {
	IsActive bool
	// Skip lists parameter ids that are not necessary; all others are.
	Skip map[int]bool
	// Routes maps parameter ids to their modulations.
	Routes map[int][]Modulation
}

// Active implements Context.
func (c *StaticContext) Active() bool { return c.IsActive }

// Necessary implements Context.
func (c *StaticContext) Necessary(id int) bool { return !c.Skip[id] }

// Modulations implements Context.
func (c *StaticContext) Modulations(id int) []Modulation { return c.Routes[id] }

// Route adds a modulation of parameter id by src.
func (c *StaticContext) Route(id int, src *Source, amount float64) {
	if c.Routes == nil {
		c.Routes = make(map[int][]Modulation)
	}
	c.Routes[id] = append(c.Routes[id], Modulation{Source: src, Amount: amount})
}

// Unroute removes every modulation of parameter id.
func (c *StaticContext) Unroute(id int) {
	delete(c.Routes, id)
}
