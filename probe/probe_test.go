package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/counter"
	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshProbe(t *testing.T) (*event.Dispatcher, *registry.Registry) {
	t.Helper()
	d := event.NewDispatcher()
	r := registry.New(d)
	Init(d, r)
	t.Cleanup(func() { Init(nil, nil) })
	return d, r
}

func TestCountDecoratorRegistersAndCounts(t *testing.T) {
	_, r := freshProbe(t)
	wrapped := Count("handler.requests")(func(ctx context.Context) error { return nil })

	require.NoError(t, wrapped(context.Background()))
	require.NoError(t, wrapped(context.Background()))

	c, err := r.Get("handler.requests")
	require.NoError(t, err)
	n, ok := c.Value().Number()
	require.True(t, ok)
	assert.Equal(t, float64(2), n)
}

func TestTimeDecoratorEndFiresEvenOnError(t *testing.T) {
	d, r := freshProbe(t)

	var starts, ends int
	d.Add(event.ListenerFunc(func(_ context.Context, e event.Event) {
		switch e.Property {
		case event.Start:
			starts++
		case event.End:
			ends++
		}
	}))

	wrapped := Time("job.run")(func(ctx context.Context) error { return errors.New("boom") })
	ctx := counter.NewScope(context.Background())
	err := wrapped(ctx)

	assert.Error(t, err)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)

	_, getErr := r.Get("job.run")
	assert.NoError(t, getErr)
}

func TestValueAutoRegistersAverageWindowCounter(t *testing.T) {
	_, r := freshProbe(t)
	Value(context.Background(), "queue.depth", 5)
	Value(context.Background(), "queue.depth", 15)

	c, err := r.Get("queue.depth")
	require.NoError(t, err)
	n, ok := c.Value().Number()
	require.True(t, ok)
	assert.Equal(t, float64(10), n)
}

func TestOccurrenceAutoRegistersFrequencyCounter(t *testing.T) {
	_, r := freshProbe(t)
	Occurrence(context.Background(), "cache.miss")
	Occurrence(context.Background(), "cache.miss")

	c, err := r.Get("cache.miss")
	require.NoError(t, err)
	assert.IsType(t, &counter.FrequencyCounter{}, c)
}

func TestStartEndBalancesAcrossPanicRecovery(t *testing.T) {
	d, _ := freshProbe(t)
	var ends int
	d.Add(event.ListenerFunc(func(_ context.Context, e event.Event) {
		if e.Property == event.End {
			ends++
		}
	}))

	func() {
		defer func() { recover() }()
		StartEnd(context.Background(), "risky", func(ctx context.Context) error {
			panic("oops")
		})
	}()

	assert.Equal(t, 1, ends)
}

func TestDefaultWindowIsPositive(t *testing.T) {
	assert.Greater(t, DefaultWindow, time.Duration(0))
}
