// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report implements the periodic snapshot-and-emit controller
// and the pluggable outputs a snapshot can be sent to.
package report

import (
	"context"

	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// Reporter receives one registry snapshot per reporting interval. The
// controller takes a fresh snapshot each round and passes that same coll
// to every reporter of the round.
type Reporter interface {
	Report(ctx context.Context, coll value.Collection) error
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(ctx context.Context, coll value.Collection) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, coll value.Collection) error { return f(ctx, coll) }

// BackgroundErrorHandler is implemented by a Reporter that wants to
// observe its own failures from the background reporting loop. A
// Controller calls HandleBackgroundError for both a returned error and a
// recovered panic; a Reporter that doesn't implement this only has its
// failure logged.
type BackgroundErrorHandler interface {
	HandleBackgroundError(err error)
}

// Source is whatever a Controller snapshots each tick; registry.Registry
// satisfies it.
type Source interface {
	Snapshot() value.Collection
	ClearAll()
}
