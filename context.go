package gobdd

import "sync"

// TestingTKey is a Context key for the active *testing.T (or equivalent),
// kept from the teacher's own TestingTKey/ctx.Set(TestingTKey{}, t)
// convention (gobdd.go's runScenario). The Suite itself never sets it.
type TestingTKey struct{}

// Context is the World-carrying key/value store threaded through a
// scenario's hooks and step callbacks. It generalizes the teacher's own
// Context (constructed per-scenario in runScenario, read via ctx.Get in
// generateFormattedStep/check) into a type backed by sync.Map so a scenario
// run concurrently by the scheduler never races with another scenario's
// Context - each scenario gets its own instance, but the map itself stays
// safe for the hook goroutines that may read it from Before/AfterStep.
type Context struct {
	values sync.Map
}

// NewContext returns an empty Context, ready for use as a scenario's World.
func NewContext() *Context {
	return &Context{}
}

// Set stores value under key, overwriting any prior value.
func (c *Context) Set(key, value interface{}) {
	c.values.Store(key, value)
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key interface{}) (interface{}, bool) {
	return c.values.Load(key)
}

// Clone copies all key/value pairs into a new, independent Context. Retried
// scenario attempts do not use it: each attempt gets a fresh World from the
// WorldFactory.
func (c *Context) Clone() *Context {
	clone := NewContext()
	c.values.Range(func(k, v interface{}) bool {
		clone.values.Store(k, v)
		return true
	})
	return clone
}
