package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/stretchr/testify/assert"
)

func TestDispatchCompleteness(t *testing.T) {
	d := event.NewDispatcher()
	var count int
	d.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) { count++ }))

	for i := 0; i < 3; i++ {
		d.Dispatch(context.Background(), event.Event{Name: "c", Property: event.End})
	}
	assert.Equal(t, 3, count)
}

func TestDispatchRemoveStopsDelivery(t *testing.T) {
	d := event.NewDispatcher()
	var count int
	l := event.ListenerFunc(func(ctx context.Context, e event.Event) { count++ })
	d.Add(l)
	d.Dispatch(context.Background(), event.Event{Name: "c", Property: event.End})
	d.Remove(l)
	d.Dispatch(context.Background(), event.Event{Name: "c", Property: event.End})
	assert.Equal(t, 1, count)
}

func TestListenerPanicDoesNotAbortFanOut(t *testing.T) {
	d := event.NewDispatcher()
	var second bool
	d.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) { panic("boom") }))
	d.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) { second = true }))

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), event.Event{Name: "c", Property: event.End})
	})
	assert.True(t, second)
}

func TestLocalTierSeesOnlyItsOwnDispatches(t *testing.T) {
	global := event.NewDispatcher()
	var globalCount int
	global.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) { globalCount++ }))

	ld := event.NewLocalDispatcher()
	var localCount int
	ld.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) { localCount++ }))

	ctx := event.WithLocal(context.Background(), ld)
	event.Dispatch(ctx, global, "c", event.End, nil)
	event.Dispatch(context.Background(), global, "c", event.End, nil)

	assert.Equal(t, 1, localCount)
	assert.Equal(t, 2, globalCount)
}

func TestDispatchConcurrentSafe(t *testing.T) {
	d := event.NewDispatcher()
	d.Add(event.ListenerFunc(func(ctx context.Context, e event.Event) {}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), event.Event{Name: "c", Property: event.Val, Param: event.Param(1)})
		}()
	}
	wg.Wait()
}
