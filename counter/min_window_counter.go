package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// MinWindowCounter reports the smallest value observed within the
// trailing window.
type MinWindowCounter struct {
	Base
	w *window
}

// NewMinWindowCounter returns a MinWindowCounter named name with the
// given trailing window size.
func NewMinWindowCounter(name string, size time.Duration) *MinWindowCounter {
	return &MinWindowCounter{Base: NewBase(name), w: newWindow(size)}
}

// OnEvent implements event.Listener. Identity-transformed: only explicit
// "value" events are sampled, no implicit end=1 trigger.
func (c *MinWindowCounter) OnEvent(ctx context.Context, e event.Event) {
	if e.Property != event.Val || e.Param == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.w.add(*e.Param, c.clock())
}

// Value implements Counter.
func (c *MinWindowCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	m, ok := c.w.min(c.clock())
	if !ok {
		return &value.Min{Empty: true}
	}
	return value.NewMin(m)
}

// Clear implements Counter.
func (c *MinWindowCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.w.clear()
}
