package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// FrequencyCounter reports occurrences-per-second over the trailing
// window: each trigger event adds a sample (the sample's value is
// unused, only its timestamp matters) and Value() divides count by
// elapsed span.
type FrequencyCounter struct {
	Base
	w *window
}

// NewFrequencyCounter returns a FrequencyCounter named name with the
// given trailing window size.
func NewFrequencyCounter(name string, size time.Duration) *FrequencyCounter {
	return &FrequencyCounter{Base: NewBase(name), w: newWindow(size)}
}

// OnEvent implements event.Listener.
func (c *FrequencyCounter) OnEvent(ctx context.Context, e event.Event) {
	if _, ok := triggerValue(e); !ok {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.w.add(0, c.clock())
}

// Value implements Counter.
func (c *FrequencyCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	f, ok := c.w.frequency(c.clock())
	if !ok {
		return &value.Average{}
	}
	return value.NewAverage(f, 1)
}

// Clear implements Counter.
func (c *FrequencyCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.w.clear()
}
