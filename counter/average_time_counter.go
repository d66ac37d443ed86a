package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// AverageTimeCounter is the Timer mixin applied to an averaging window:
// a "start" stashes the current time on the calling context's Scope, the
// matching "end" computes the elapsed duration and folds it into the
// trailing window as a sample in seconds.
type AverageTimeCounter struct {
	Base
	w *window
}

// NewAverageTimeCounter returns an AverageTimeCounter named name with
// the given trailing window size.
func NewAverageTimeCounter(name string, size time.Duration) *AverageTimeCounter {
	return &AverageTimeCounter{Base: NewBase(name), w: newWindow(size)}
}

// OnEvent implements event.Listener.
func (c *AverageTimeCounter) OnEvent(ctx context.Context, e event.Event) {
	now := c.clock()
	switch e.Property {
	case event.Start:
		timerStart(ctx, c.Name(), now)
	case event.End:
		elapsed, ok := timerElapsed(ctx, c.Name(), now)
		if !ok {
			return
		}
		c.Lock()
		c.w.add(elapsed.Seconds(), now)
		c.Unlock()
	}
}

// Value implements Counter.
func (c *AverageTimeCounter) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	mean, ok := c.w.mean(c.clock())
	if !ok {
		return &value.Average{}
	}
	return value.NewAverage(mean, 1)
}

// Clear implements Counter.
func (c *AverageTimeCounter) Clear() {
	c.Lock()
	defer c.Unlock()
	c.w.clear()
}
