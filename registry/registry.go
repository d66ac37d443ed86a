// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry binds named counters to the event dispatcher and
// holds the canonical name -> counter map a report.Controller snapshots.
package registry

import (
	"fmt"
	"sync"

	"github.com/ClusterCockpit/cc-perfcounters/counter"
	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// ErrDuplicateCounter is returned by Add when name is already registered.
var ErrDuplicateCounter = fmt.Errorf("registry: counter already registered")

// ErrUnknownCounter is returned by Remove/Get when name isn't registered.
var ErrUnknownCounter = fmt.Errorf("registry: unknown counter")

// Registry is the process-wide name -> Counter map. It subscribes each
// added counter to a Dispatcher on every event name the counter lists,
// and unsubscribes it on Remove, so dispatch and bookkeeping never
// diverge.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]counter.Counter
	dispatch *event.Dispatcher
}

// New returns an empty Registry whose counters subscribe to d.
func New(d *event.Dispatcher) *Registry {
	return &Registry{counters: make(map[string]counter.Counter), dispatch: d}
}

// Add registers c under c.Name() and subscribes it to every event name
// it lists. Returns ErrDuplicateCounter if the name is already taken.
func (r *Registry) Add(c counter.Counter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.counters[c.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCounter, c.Name())
	}
	r.counters[c.Name()] = c
	r.dispatch.Add(c)
	return nil
}

// MustAdd registers c, panicking on ErrDuplicateCounter. Intended for
// package-init-time registration where a duplicate name is a programming
// error, not a runtime condition to handle.
func (r *Registry) MustAdd(c counter.Counter) {
	if err := r.Add(c); err != nil {
		panic(err)
	}
}

// Remove unsubscribes and forgets the counter named name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, exists := r.counters[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	delete(r.counters, name)
	r.dispatch.Remove(c)
	return nil
}

// Get returns the counter registered under name.
func (r *Registry) Get(name string) (counter.Counter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, exists := r.counters[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	return c, nil
}

// Names returns every registered counter name, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.counters))
	for n := range r.counters {
		names = append(names, n)
	}
	return names
}

// Snapshot returns the current Value of every registered counter, keyed
// by name. This is the data a report.Controller hands to its outputs.
func (r *Registry) Snapshot() value.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := value.New()
	for name, c := range r.counters {
		out[name] = c.Value()
	}
	return out
}

// ClearAll calls Clear on every registered counter (see
// counter.Counter.Clear for what each kind resets to). A report.Controller calls this after each reporting interval
// that isn't cumulative.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.counters {
		c.Clear()
	}
}
