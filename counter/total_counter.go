package counter

import (
	"context"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// TotalCounter sums every explicit "value" event it receives (no
// trigger). The sum is the empty sentinel until the first value arrives.
type TotalCounter struct {
	Base
	sum   float64
	empty bool
}

// NewTotalCounter returns a TotalCounter named name, starting empty.
func NewTotalCounter(name string) *TotalCounter {
	return &TotalCounter{Base: NewBase(name), empty: true}
}

// OnEvent implements event.Listener.
func (c *TotalCounter) OnEvent(ctx context.Context, e event.Event) {
	if e.Property != event.Val || e.Param == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	if c.empty {
		c.sum = *e.Param
		c.empty = false
		return
	}
	c.sum += *e.Param
}

// Value implements Counter.
func (c *TotalCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	if c.empty {
		return &value.Accumulative{Empty: true}
	}
	return value.NewAccumulative(c.sum)
}

// Clear implements Counter.
func (c *TotalCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.sum = 0
	c.empty = true
}
