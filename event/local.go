package event

import "context"

// LocalDispatcher is the tier scoped to one control flow (one inbound
// request, one job, one goroutine tree) rather than the whole process.
// Go has no thread-local storage, so per spec guidance for non-thread-
// per-request runtimes, the scope is carried explicitly on a
// context.Context instead of being looked up implicitly.
type LocalDispatcher struct {
	listeners []Listener
}

// NewLocalDispatcher returns an empty local dispatcher.
func NewLocalDispatcher() *LocalDispatcher {
	return &LocalDispatcher{}
}

// Add registers l on this local dispatcher only.
func (d *LocalDispatcher) Add(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Remove unregisters l from this local dispatcher only.
func (d *LocalDispatcher) Remove(l Listener) {
	for i, have := range d.listeners {
		if have == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

type localKey struct{}

// WithLocal returns a context carrying ld as its local dispatcher tier.
// A LocalDispatcher is not safe for concurrent use from more than one
// goroutine at a time; fork a new one (and a new context) per concurrent
// control flow instead of sharing it.
func WithLocal(ctx context.Context, ld *LocalDispatcher) context.Context {
	return context.WithValue(ctx, localKey{}, ld)
}

// LocalFrom returns the LocalDispatcher carried by ctx, or nil if none
// was attached with WithLocal.
func LocalFrom(ctx context.Context) *LocalDispatcher {
	ld, _ := ctx.Value(localKey{}).(*LocalDispatcher)
	return ld
}

// Dispatch fans e out to the context's local tier first (if any), then
// to the global dispatcher. This is the single entry point probes use.
func Dispatch(ctx context.Context, global *Dispatcher, name string, prop Property, param *float64) {
	e := Event{Name: name, Property: prop, Param: param}
	if ld := LocalFrom(ctx); ld != nil {
		for _, l := range ld.listeners {
			if interested(l, e.Name) {
				notify(ctx, l, e)
			}
		}
	}
	if global != nil {
		global.Dispatch(ctx, e)
	}
}
