package counter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// catFrame is one entry of a categorizer's pushdown stack: the category
// currently accruing time, and when it became the active one.
type catFrame struct {
	name      string
	enteredAt time.Time
}

// catStack is the per-Scope pushdown stack a ThreadTimeCategorizer uses
// to attribute elapsed time to nested categories: entering a new
// category pauses the one beneath it, leaving resumes it.
type catStack struct {
	frames []catFrame
}

func (s *catStack) top() (*catFrame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return &s.frames[len(s.frames)-1], true
}

func (s *catStack) push(name string, now time.Time) {
	s.frames = append(s.frames, catFrame{name: name, enteredAt: now})
}

func (s *catStack) pop() (catFrame, bool) {
	if len(s.frames) == 0 {
		return catFrame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// ThreadTimeCategorizer attributes elapsed wall time to mutually
// exclusive categories as control flow enters and leaves them: entering
// category B while A is active pauses A, accruing its time so far, and
// resumes A's clock when B ends. Each concurrently running Scope gets
// its own stack, so nested categorization across goroutines never mixes
// time between flows.
type ThreadTimeCategorizer struct {
	Base
	categories []string
	sums       map[string]float64
	raising    bool
}

// NewThreadTimeCategorizer returns a ThreadTimeCategorizer named name
// tracking exactly the given category names as its mutually exclusive
// states.
func NewThreadTimeCategorizer(name string, categories []string) *ThreadTimeCategorizer {
	return &ThreadTimeCategorizer{
		Base:       NewBase(name),
		categories: append([]string(nil), categories...),
		sums:       make(map[string]float64, len(categories)),
	}
}

// Events implements Counter: the categorizer listens on each category
// name as a start/end pair, not on its own name.
func (c *ThreadTimeCategorizer) Events() []string {
	return append([]string(nil), c.categories...)
}

// OnEvent implements event.Listener. Unknown event names (anything not
// in c.categories) are ignored.
func (c *ThreadTimeCategorizer) OnEvent(ctx context.Context, e event.Event) {
	if !c.hasCategory(e.Name) {
		return
	}

	now := c.clock()
	stack := c.stackFor(ctx)

	switch e.Property {
	case event.Start:
		if top, ok := stack.top(); ok {
			c.accrue(top.name, now.Sub(top.enteredAt))
		}
		stack.push(e.Name, now)
	case event.End:
		f, ok := stack.pop()
		if !ok {
			return
		}
		c.accrue(f.name, now.Sub(f.enteredAt))
		if top, ok := stack.top(); ok {
			top.enteredAt = now
		}
	}
}

func (c *ThreadTimeCategorizer) hasCategory(name string) bool {
	for _, cat := range c.categories {
		if cat == name {
			return true
		}
	}
	return false
}

func (c *ThreadTimeCategorizer) stackFor(ctx context.Context) *catStack {
	s := scopeFrom(ctx)
	cs, ok := s.catStacks[c.Name()]
	if !ok {
		cs = &catStack{}
		s.catStacks[c.Name()] = cs
	}
	return cs
}

func (c *ThreadTimeCategorizer) accrue(category string, d time.Duration) {
	if d < 0 {
		return
	}
	c.Lock()
	c.sums[category] += d.Seconds()
	c.Unlock()
}

// Value implements Counter: the categorizer's own value is the total
// time accrued across every category.
func (c *ThreadTimeCategorizer) Value() value.Value {
	c.Lock()
	defer c.Unlock()
	var total float64
	for _, v := range c.sums {
		total += v
	}
	return value.NewAccumulative(total)
}

// Clear implements Counter.
func (c *ThreadTimeCategorizer) Clear() {
	c.Lock()
	defer c.Unlock()
	for k := range c.sums {
		delete(c.sums, k)
	}
}

// RaiseValueEvents dispatches one value event per category, named
// "<categorizer>.<category>", so a registry counter named that way can
// observe each category's accrued time independently.
func (c *ThreadTimeCategorizer) RaiseValueEvents(ctx context.Context, d *event.Dispatcher) {
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
