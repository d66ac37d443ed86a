package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// MaxWindowCounter reports the largest value observed within the
// trailing window.
type MaxWindowCounter struct {
	Base
	w *window
}

// NewMaxWindowCounter returns a MaxWindowCounter named name with the
// given trailing window size.
func NewMaxWindowCounter(name string, size time.Duration) *MaxWindowCounter {
	return &MaxWindowCounter{Base: NewBase(name), w: newWindow(size)}
}

// OnEvent implements event.Listener. Identity-transformed: only explicit
// "value" events are sampled, no implicit end=1 trigger.
func (c *MaxWindowCounter) OnEvent(ctx context.Context, e event.Event) {
	if e.Property != event.Val || e.Param == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.w.add(*e.Param, c.clock())
}

// Value implements Counter.
func (c *MaxWindowCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	m, ok := c.w.max(c.clock())
	if !ok {
		return &value.Max{Empty: true}
	}
	return value.NewMax(m)
}

// Clear implements Counter.
func (c *MaxWindowCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.w.clear()
}
