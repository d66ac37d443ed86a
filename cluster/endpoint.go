// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cluster implements leader election and multi-process counter
// collection across co-located processes sharing an ordered endpoint
// list: one process wins the top endpoint and becomes leader, the rest
// become nodes that answer the leader's collect requests. Leader.Collect
// gathers and merges their snapshots when called; nothing in this
// package calls it on a schedule.
package cluster

import (
	"net"
	"strconv"
)

// Endpoint is one (host, port) entry in the ordered list participants
// race to bind or connect to. A uint16 port makes an out-of-range port
// number a compile-time impossibility rather than a runtime validation.
type Endpoint struct {
	Host string
	Port uint16
}

// Addr returns the endpoint in host:port form, as accepted by net.Dial
// and net.Listen.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// Level is an index into a participant's configured endpoint list; 0 is
// the most preferred ("top") endpoint.
type Level int
