// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package probe is the programmatic surface instrumented code calls:
// report_start/report_end/report_value equivalents, a scoped
// start/end helper, function decorators wrapping count/frequency/time
// around a call, and immediate value/occurrence shortcuts.
package probe

import (
	"context"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/counter"
	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/registry"
)

// DefaultWindow is the trailing window new window-backed counters are
// auto-registered with when a decorator or shortcut creates one on
// first use.
var DefaultWindow = 60 * time.Second

var (
	mu      sync.RWMutex
	global  *event.Dispatcher
	registr *registry.Registry
)

// Init binds the package-level shortcuts to a dispatcher and registry,
// mirroring pycounters' module-global GLOBAL_REGISTRY/THREAD_DISPATCHER.
// Most processes call this once at startup with a single shared
// dispatcher and registry.
func Init(d *event.Dispatcher, r *registry.Registry) {
	mu.Lock()
	defer mu.Unlock()
	global = d
	registr = r
}

func current() (*event.Dispatcher, *registry.Registry) {
	mu.RLock()
	defer mu.RUnlock()
	return global, registr
}

// ensureCounter registers a counter built by factory under name if the
// registry doesn't already have one, swallowing a duplicate-registration
// race (another goroutine may have added it first).
func ensureCounter(r *registry.Registry, name string, factory func() counter.Counter) {
	if r == nil {
		return
	}
	if _, err := r.Get(name); err == nil {
		return
	}
	_ = r.Add(factory())
}

// Start emits a "start" event for name on the calling context.
func Start(ctx context.Context, name string) {
	d, _ := current()
	event.Dispatch(ctx, d, name, event.Start, nil)
}

// End emits an "end" event for name on the calling context.
func End(ctx context.Context, name string) {
	d, _ := current()
	event.Dispatch(ctx, d, name, event.End, nil)
}

// Value emits a "value" event carrying v for name, auto-registering an
// AverageWindowCounter under name if the registry has nothing there yet.
func Value(ctx context.Context, name string, v float64) {
	d, r := current()
	ensureCounter(r, name, func() counter.Counter { return counter.NewAverageWindowCounter(name, DefaultWindow) })
	event.Dispatch(ctx, d, name, event.Val, event.Param(v))
}

// Occurrence emits a bare "end" event for name (no value), auto-
// registering a FrequencyCounter under name if the registry has nothing
// there yet.
func Occurrence(ctx context.Context, name string) {
	d, r := current()
	ensureCounter(r, name, func() counter.Counter { return counter.NewFrequencyCounter(name, DefaultWindow) })
	event.Dispatch(ctx, d, name, event.End, nil)
}

// StartEnd runs fn, emitting "start" on entry and "end" on every exit
// path including a panic or returned error, so starts and ends stay
// balanced regardless of how fn exits.
func StartEnd(ctx context.Context, name string, fn func(context.Context) error) error {
	Start(ctx, name)
	defer End(ctx, name)
	return fn(ctx)
}
