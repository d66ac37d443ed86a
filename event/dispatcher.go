package event

import (
	"context"
	"sync"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
)

// Dispatcher is the process-global fan-out tier. Listener lookup uses a
// read lock so concurrent dispatches never serialise on each other; only
// Add/Remove take the write lock. Listeners are shallow-copied into a
// slice before fan-out, so a listener is free to Add/Remove itself (or
// another listener) mid-dispatch without deadlocking.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[Listener]struct{}
}

// NewDispatcher returns an empty, ready-to-use global dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[Listener]struct{})}
}

// Add registers l to receive every future Dispatch call whose event name
// is in l.Events(), or every call if l doesn't implement Named.
func (d *Dispatcher) Add(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[l] = struct{}{}
}

// Remove unregisters l. A no-op if l was never added.
func (d *Dispatcher) Remove(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, l)
}

// Dispatch fans e out to every registered listener interested in e.Name
// (see Named), synchronously and in an unspecified order. A listener
// panic is recovered and logged; it never aborts the remaining fan-out.
// ctx is passed through to each listener so context-scoped state (e.g.
// per-request timer stashes) stays reachable without goroutine-local
// storage.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	d.mu.RLock()
	ls := make([]Listener, 0, len(d.listeners))
	for l := range d.listeners {
		ls = append(ls, l)
	}
	d.mu.RUnlock()

	for _, l := range ls {
		if interested(l, e.Name) {
			notify(ctx, l, e)
		}
	}
}

func notify(ctx context.Context, l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("event: listener %T panicked handling %s/%s: %v", l, e.Name, e.Property, r)
		}
	}()
	l.OnEvent(ctx, e)
}
