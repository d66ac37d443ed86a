package counter

import (
	"context"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// EventCounter counts occurrences: it reacts to "end" as a trigger
// (value=1) and also accepts explicit "value" events, accumulating a
// running sum that starts at, and Clears to, zero (not the empty
// sentinel — counting something zero times is a perfectly good count).
type EventCounter struct {
	Base
	sum float64
}

// NewEventCounter returns an EventCounter named name.
func NewEventCounter(name string) *EventCounter {
	return &EventCounter{Base: NewBase(name)}
}

// OnEvent implements event.Listener.
func (c *EventCounter) OnEvent(ctx context.Context, e event.Event) {
	v, ok := triggerValue(e)
	if !ok {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.sum += v
}

// Value implements Counter.
func (c *EventCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	return value.NewAccumulative(c.sum)
}

// Clear implements Counter.
func (c *EventCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.sum = 0
}
