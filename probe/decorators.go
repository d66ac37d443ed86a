package probe

import (
	"context"

	"github.com/ClusterCockpit/cc-perfcounters/counter"
)

// Decorator wraps a context-aware function with the start/end events of
// a named counter, matching pycounters' count/frequency/time decorators
// rewritten in Go's middleware-function style (Go has no @decorator
// syntax). fn's error is propagated unchanged; "end" always fires,
// including when fn returns an error.
type Decorator func(fn func(context.Context) error) func(context.Context) error

func makeDecorator(name string, factory func(string) counter.Counter) Decorator {
	return func(fn func(context.Context) error) func(context.Context) error {
		return func(ctx context.Context) error {
			_, r := current()
			ensureCounter(r, name, func() counter.Counter { return factory(name) })
			return StartEnd(ctx, name, fn)
		}
	}
}

// Count wraps fn, counting how many times it is called via an
// EventCounter named name.
func Count(name string) Decorator {
	return makeDecorator(name, func(n string) counter.Counter { return counter.NewEventCounter(n) })
}

// Frequency wraps fn, tracking calls-per-second over DefaultWindow via a
// FrequencyCounter named name.
func Frequency(name string) Decorator {
	return makeDecorator(name, func(n string) counter.Counter { return counter.NewFrequencyCounter(n, DefaultWindow) })
}

// Time wraps fn, tracking its average execution time over DefaultWindow
// via an AverageTimeCounter named name.
func Time(name string) Decorator {
	return makeDecorator(name, func(n string) counter.Counter { return counter.NewAverageTimeCounter(n, DefaultWindow) })
}
