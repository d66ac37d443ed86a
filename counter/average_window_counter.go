package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// AverageWindowCounter reports the mean of every value observed within
// the trailing window, evicting older samples on each read or insert.
type AverageWindowCounter struct {
	Base
	w *window
}

// NewAverageWindowCounter returns an AverageWindowCounter named name
// with the given trailing window size.
func NewAverageWindowCounter(name string, size time.Duration) *AverageWindowCounter {
	return &AverageWindowCounter{Base: NewBase(name), w: newWindow(size)}
}

// OnEvent implements event.Listener. Identity-transformed: only explicit
// "value" events are sampled, no implicit end=1 trigger.
func (c *AverageWindowCounter) OnEvent(ctx context.Context, e event.Event) {
	if e.Property != event.Val || e.Param == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.w.add(*e.Param, c.clock())
}

// Value implements Counter.
func (c *AverageWindowCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	mean, ok := c.w.mean(c.clock())
	if !ok {
		return &value.Average{}
	}
	return value.NewAverage(mean, 1)
}

// Clear implements Counter.
func (c *AverageWindowCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.w.clear()
}
