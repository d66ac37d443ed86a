// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package counter implements the family of named, stateful aggregators
// that consume dispatched events and emit counter values: EventCounter,
// TotalCounter, AverageWindowCounter, MaxWindowCounter, MinWindowCounter,
// FrequencyCounter, AverageTimeCounter, ValueAccumulator and
// ThreadTimeCategorizer.
package counter

import (
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// Counter is a named aggregator bound to the dispatcher through a
// registry. Counters are mutated only through OnEvent and Clear; Value
// and Clear must be safe to call concurrently with OnEvent.
type Counter interface {
	event.Listener

	// Name is the counter's unique registry key.
	Name() string

	// Events is the set of event names this counter subscribes to.
	// Most counters subscribe only to their own name; ValueAccumulator
	// and fan-in counters may list several.
	Events() []string

	// Value returns the counter's current observable output.
	Value() value.Value

	// Clear resets internal state: window counters drop their samples and
	// TotalCounter returns to the empty sentinel, while the summing
	// counters (EventCounter, ValueAccumulator, ThreadTimeCategorizer)
	// return to zero.
	Clear()
}

// Base provides the name, per-counter mutex and default Events() every
// concrete counter needs, mirroring pycounters' BaseCounter.
type Base struct {
	mu   sync.Mutex
	name string
	now  func() time.Time
}

// NewBase returns a Base for a counter named name using time.Now as its
// clock. Tests may override the clock with WithClock.
func NewBase(name string) Base {
	return Base{name: name, now: time.Now}
}

// Name implements Counter.
func (b *Base) Name() string { return b.name }

// Events implements Counter's default: subscribe only to the counter's
// own name.
func (b *Base) Events() []string { return []string{b.name} }

// Lock serialises one counter's state transitions. Every concrete
// counter's OnEvent/Value/Clear take this lock around the state they read
// or change.
func (b *Base) Lock()   { b.mu.Lock() }
func (b *Base) Unlock() { b.mu.Unlock() }

// clock returns the current time, overridable per counter for tests.
func (b *Base) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// WithClock overrides the counter's time source; used by tests that
// need a monotonic stub clock (spec scenarios S2, S3, S4).
func WithClock(c Counter, clock func() time.Time) {
	type clockSetter interface{ setClock(func() time.Time) }
	if cs, ok := c.(clockSetter); ok {
		cs.setClock(clock)
	}
}

func (b *Base) setClock(clock func() time.Time) { b.now = clock }
