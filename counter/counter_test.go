package counter

import (
	"context"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func number(t *testing.T, v interface{ Number() (float64, bool) }) float64 {
	t.Helper()
	n, ok := v.Number()
	require.True(t, ok, "expected a non-empty value")
	return n
}

func TestEventCounterStartsAtZeroNotEmpty(t *testing.T) {
	c := NewEventCounter("evt")
	n, ok := c.Value().Number()
	require.True(t, ok)
	assert.Equal(t, float64(0), n)
}

func TestEventCounterCountsEndsAndValues(t *testing.T) {
	ctx := context.Background()
	c := NewEventCounter("evt")
	c.OnEvent(ctx, event.Event{Name: "evt", Property: event.End})
	c.OnEvent(ctx, event.Event{Name: "evt", Property: event.End})
	c.OnEvent(ctx, event.Event{Name: "evt", Property: event.Val, Param: event.Param(3)})
	assert.Equal(t, float64(5), number(t, c.Value()))
}

func TestTotalCounterEmptyUntilFirstValue(t *testing.T) {
	ctx := context.Background()
	c := NewTotalCounter("tot")
	_, ok := c.Value().Number()
	assert.False(t, ok)

	c.OnEvent(ctx, event.Event{Name: "tot", Property: event.Val, Param: event.Param(4)})
	c.OnEvent(ctx, event.Event{Name: "tot", Property: event.Val, Param: event.Param(6)})
	assert.Equal(t, float64(10), number(t, c.Value()))

	c.Clear()
	_, ok = c.Value().Number()
	assert.False(t, ok)
}

func TestAverageWindowCounterEvictsOldSamples(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewAverageWindowCounter("avgw", 10*time.Second)
	WithClock(c, func() time.Time { return now })

	c.OnEvent(ctx, event.Event{Name: "avgw", Property: event.Val, Param: event.Param(10)})
	now = now.Add(5 * time.Second)
	c.OnEvent(ctx, event.Event{Name: "avgw", Property: event.Val, Param: event.Param(20)})
	assert.Equal(t, float64(15), number(t, c.Value()))

	now = now.Add(8 * time.Second) // first sample (at t=0) now 13s old, evicted
	assert.Equal(t, float64(20), number(t, c.Value()))
}

func TestMaxMinWindowCounters(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(2000, 0)

	max := NewMaxWindowCounter("maxw", time.Minute)
	WithClock(max, func() time.Time { return now })
	min := NewMinWindowCounter("minw", time.Minute)
	WithClock(min, func() time.Time { return now })

	for _, v := range []float64{3, 9, 1, 7} {
		max.OnEvent(ctx, event.Event{Name: "maxw", Property: event.Val, Param: event.Param(v)})
		min.OnEvent(ctx, event.Event{Name: "minw", Property: event.Val, Param: event.Param(v)})
	}
	assert.Equal(t, float64(9), number(t, max.Value()))
	assert.Equal(t, float64(1), number(t, min.Value()))
}

func TestFrequencyCounter(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(3000, 0)
	c := NewFrequencyCounter("freq", time.Minute)
	WithClock(c, func() time.Time { return now })

	_, ok := c.Value().Number()
	assert.False(t, ok, "single or no samples report empty")

	c.OnEvent(ctx, event.Event{Name: "freq", Property: event.End})
	now = now.Add(2 * time.Second)
	c.OnEvent(ctx, event.Event{Name: "freq", Property: event.End})
	now = now.Add(2 * time.Second)
	c.OnEvent(ctx, event.Event{Name: "freq", Property: event.End})

	assert.InDelta(t, 3.0/4.0, number(t, c.Value()), 1e-9)
}

func TestAverageTimeCounterUsesScopedTimer(t *testing.T) {
	now := time.Unix(4000, 0)
	c := NewAverageTimeCounter("timer", time.Minute)
	WithClock(c, func() time.Time { return now })

	ctx := NewScope(context.Background())
	c.OnEvent(ctx, event.Event{Name: "timer", Property: event.Start})
	now = now.Add(3 * time.Second)
	c.OnEvent(ctx, event.Event{Name: "timer", Property: event.End})

	assert.Equal(t, float64(3), number(t, c.Value()))
}

func TestAverageTimeCounterEndWithoutStartIsIgnored(t *testing.T) {
	c := NewAverageTimeCounter("timer2", time.Minute)
	ctx := NewScope(context.Background())
	c.OnEvent(ctx, event.Event{Name: "timer2", Property: event.End})
	_, ok := c.Value().Number()
	assert.False(t, ok)
}

func TestValueAccumulatorSumsAndRaises(t *testing.T) {
	ctx := context.Background()
	d := event.NewDispatcher()
	acc := NewValueAccumulator("io", []string{"io.read", "io.write"})
	assert.ElementsMatch(t, []string{"io.read", "io.write"}, acc.Events())

	acc.OnEvent(ctx, event.Event{Name: "io.read", Property: event.Val, Param: event.Param(2)})
	acc.OnEvent(ctx, event.Event{Name: "io.write", Property: event.Val, Param: event.Param(5)})
	assert.Equal(t, float64(7), number(t, acc.Value()))

	var got []event.Event
	d.Add(event.ListenerFunc(func(_ context.Context, e event.Event) { got = append(got, e) }))
	acc.RaiseValueEvents(ctx, d)
	assert.Len(t, got, 2)
}

func TestThreadTimeCategorizerAttributesNestedTime(t *testing.T) {
	now := time.Unix(5000, 0)
	cat := NewThreadTimeCategorizer("phase", []string{"db", "render"})
	WithClock(cat, func() time.Time { return now })
	ctx := NewScope(context.Background())

	cat.OnEvent(ctx, event.Event{Name: "db", Property: event.Start})
	now = now.Add(2 * time.Second)
	cat.OnEvent(ctx, event.Event{Name: "render", Property: event.Start}) // pauses db at 2s
	now = now.Add(3 * time.Second)
	cat.OnEvent(ctx, event.Event{Name: "render", Property: event.End}) // render = 3s, resumes db
	now = now.Add(1 * time.Second)
	cat.OnEvent(ctx, event.Event{Name: "db", Property: event.End}) // db += 1s => 3s total

	d := event.NewDispatcher()
	seen := map[string]float64{}
	d.Add(event.ListenerFunc(func(_ context.Context, e event.Event) {
		seen[e.Name] = *e.Param
	}))
	cat.RaiseValueEvents(ctx, d)

	assert.Equal(t, float64(3), seen["phase.db"])
	assert.Equal(t, float64(3), seen["phase.render"])
}
