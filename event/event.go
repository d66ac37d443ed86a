// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package event implements the dispatch pipeline: a synchronous,
// two-tier fan-out of (name, property, param) events to listeners. A
// process-global tier sees every event; a tier scoped to the calling
// control flow (carried on a context.Context, since Go has no
// thread-local storage) sees only events dispatched through that
// context.
package event

import "context"

// Property is the kind of occurrence an Event reports.
type Property int

const (
	// Start marks entry into a timed scope.
	Start Property = iota
	// End marks exit from a timed scope, or a bare occurrence.
	End
	// Val carries a discrete measured value.
	Val
)

func (p Property) String() string {
	switch p {
	case Start:
		return "start"
	case End:
		return "end"
	case Val:
		return "value"
	default:
		return "unknown"
	}
}

// Event is the transient triple probes hand to the dispatcher. It exists
// only for the duration of a single dispatch call.
type Event struct {
	Name     string
	Property Property
	// Param is non-nil only for Property == Val.
	Param *float64
}

// Listener reacts to dispatched events. A listener is typically a
// counter bound through the registry, but any type may implement it
// (e.g. a debug tracer). ctx is whatever was passed to Dispatch; it
// carries the calling control flow's LocalDispatcher and, for
// context-scoped counters (timers, categorizers), their per-flow state.
type Listener interface {
	OnEvent(ctx context.Context, e Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(ctx context.Context, e Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

// Named is implemented by listeners that only want a subset of event
// names (every counter.Counter, via its Events() method). A listener
// that doesn't implement Named (e.g. a plain debug tracer added
// directly to a Dispatcher) is treated as interested in every event.
type Named interface {
	Events() []string
}

// interested reports whether l should see an event named name.
func interested(l Listener, name string) bool {
	n, ok := l.(Named)
	if !ok {
		return true
	}
	for _, e := range n.Events() {
		if e == name {
			return true
		}
	}
	return false
}

// Param returns a pointer to v, for use as an Event's Param.
func Param(v float64) *float64 {
	return &v
}
