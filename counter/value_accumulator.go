package counter

import (
	"context"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// ValueAccumulator fans in several named "value" sub-events, keeping a
// running sum per sub-event name, and can republish each sub-sum as its
// own value event named "<accumulator>.<subname>" so it feeds downstream
// counters (and the registry) exactly like any other source.
type ValueAccumulator struct {
	Base
	subs      []string
	sums      map[string]float64
	raising   bool // re-entrancy guard against a republished event looping back in
}

// NewValueAccumulator returns a ValueAccumulator named name that
// listens for value events on each of subs.
func NewValueAccumulator(name string, subs []string) *ValueAccumulator {
	return &ValueAccumulator{
		Base: NewBase(name),
		subs: append([]string(nil), subs...),
		sums: make(map[string]float64, len(subs)),
	}
}

// Events implements Counter: an accumulator listens to its sub-events,
// not to an event sharing its own name.
func (c *ValueAccumulator) Events() []string {
	return append([]string(nil), c.subs...)
}

// OnEvent implements event.Listener.
func (c *ValueAccumulator) OnEvent(ctx context.Context, e event.Event) {
	if c.raising || e.Property != event.Val || e.Param == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.sums[e.Name] += *e.Param
}

// Value implements Counter: the accumulator's own value is the sum
// across every sub-event it has seen.
func (c *ValueAccumulator) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	var total float64
	for _, v := range c.sums {
		total += v
	}
	return value.NewAccumulative(total)
}

// Clear implements Counter.
func (c *ValueAccumulator) Clear() {
	c.Lock()
	defer c.Unlock()
	for k := range c.sums {
		delete(c.sums, k)
	}
}

// RaiseValueEvents dispatches one value event per observed sub-name,
// named "<accumulator>.<subname>", so a registry counter named that way
// can pick it up. The re-entrancy guard keeps this accumulator's own
// OnEvent from accumulating its own republished events.
func (c *ValueAccumulator) RaiseValueEvents(ctx context.Context, d *event.Dispatcher) {
	c.Lock()
	snapshot := make(map[string]float64, len(c.sums))
	for k, v := range c.sums {
		snapshot[k] = v
	}
	c.Unlock()

	c.raising = true
	defer func() { c.raising = false }()
	for name, sum := range snapshot {
		event.Dispatch(ctx, d, c.Name()+"."+name, event.Val, event.Param(sum))
	}
}
