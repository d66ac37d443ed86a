package registry

import (
	"context"
	"testing"

	"github.com/ClusterCockpit/cc-perfcounters/counter"
	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubscribesToDispatcher(t *testing.T) {
	d := event.NewDispatcher()
	r := New(d)
	c := counter.NewEventCounter("requests")
	require.NoError(t, r.Add(c))

	d.Dispatch(context.Background(), event.Event{Name: "requests", Property: event.End})
	got, err := r.Get("requests")
	require.NoError(t, err)
	n, ok := got.Value().Number()
	require.True(t, ok)
	assert.Equal(t, float64(1), n)
}

func TestAddDuplicateFails(t *testing.T) {
	d := event.NewDispatcher()
	r := New(d)
	require.NoError(t, r.Add(counter.NewEventCounter("x")))
	err := r.Add(counter.NewEventCounter("x"))
	assert.ErrorIs(t, err, ErrDuplicateCounter)
}

func TestRemoveUnsubscribes(t *testing.T) {
	d := event.NewDispatcher()
	r := New(d)
	c := counter.NewEventCounter("y")
	require.NoError(t, r.Add(c))
	require.NoError(t, r.Remove("y"))

	d.Dispatch(context.Background(), event.Event{Name: "y", Property: event.End})
	n, _ := c.Value().Number()
	assert.Equal(t, float64(0), n, "removed counter must not see further dispatches")

	_, err := r.Get("y")
	assert.ErrorIs(t, err, ErrUnknownCounter)
}

func TestSnapshotAndClearAll(t *testing.T) {
	d := event.NewDispatcher()
	r := New(d)
	require.NoError(t, r.Add(counter.NewEventCounter("a")))
	require.NoError(t, r.Add(counter.NewTotalCounter("b")))

	d.Dispatch(context.Background(), event.Event{Name: "a", Property: event.End})
	d.Dispatch(context.Background(), event.Event{Name: "b", Property: event.Val, Param: event.Param(5)})

	snap := r.Snapshot()
	na, _ := snap["a"].Number()
	nb, _ := snap["b"].Number()
	assert.Equal(t, float64(1), na)
	assert.Equal(t, float64(5), nb)

	r.ClearAll()
	snap = r.Snapshot()
	na, _ = snap["a"].Number()
	_, okB := snap["b"].Number()
	assert.Equal(t, float64(0), na)
	assert.False(t, okB)
}
