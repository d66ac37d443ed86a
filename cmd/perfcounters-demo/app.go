// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/cluster"
	"github.com/ClusterCockpit/cc-perfcounters/counter"
	"github.com/ClusterCockpit/cc-perfcounters/event"
	"github.com/ClusterCockpit/cc-perfcounters/pkg/pconfig"
	"github.com/ClusterCockpit/cc-perfcounters/probe"
	"github.com/ClusterCockpit/cc-perfcounters/registry"
	"github.com/ClusterCockpit/cc-perfcounters/report"
	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// application bundles the pieces a running perfcounters-demo process
// needs: the counter registry and its dispatcher, the periodic
// reporting controller, and (optionally) a cluster participant taking
// part in leader election with peer processes.
type application struct {
	dispatcher   *event.Dispatcher
	registry     *registry.Registry
	controller   *report.Controller
	participant  *cluster.Participant
	reportPeriod time.Duration
}

func newApplication(cfg *pconfig.Config, nodeID string) (*application, error) {
	d := event.NewDispatcher()
	r := registry.New(d)
	probe.Init(d, r)

	for _, cc := range cfg.Counters {
		c, err := buildCounter(cc)
		if err != nil {
			return nil, err
		}
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}

	period, err := cfg.ParsedReportPeriod()
	if err != nil {
		return nil, fmt.Errorf("perfcounters-demo: report_period: %w", err)
	}

	controller := report.NewController(r, period, cfg.ClearEachReport)

	for _, rc := range cfg.Reporters {
		rep, err := buildReporter(rc)
		if err != nil {
			return nil, err
		}
		controller.AddReporter(rep)
	}

	app := &application{
		dispatcher:   d,
		registry:     r,
		controller:   controller,
		reportPeriod: period,
	}

	if cfg.Cluster != nil && len(cfg.Cluster.Endpoints) > 0 {
		app.participant = buildParticipant(r, cfg.Cluster, nodeID)
	}

	return app, nil
}

func buildCounter(cc pconfig.CounterConfig) (counter.Counter, error) {
	window, err := cc.ParsedWindow()
	if err != nil {
		return nil, fmt.Errorf("perfcounters-demo: counter %q: %w", cc.Name, err)
	}

	switch cc.Kind {
	case "event":
		return counter.NewEventCounter(cc.Name), nil
	case "total":
		return counter.NewTotalCounter(cc.Name), nil
	case "average_window":
		return counter.NewAverageWindowCounter(cc.Name, window), nil
	case "max_window":
		return counter.NewMaxWindowCounter(cc.Name, window), nil
	case "min_window":
		return counter.NewMinWindowCounter(cc.Name, window), nil
	case "frequency":
		return counter.NewFrequencyCounter(cc.Name, window), nil
	case "average_time":
		return counter.NewAverageTimeCounter(cc.Name, window), nil
	default:
		return nil, fmt.Errorf("perfcounters-demo: unknown counter kind %q", cc.Kind)
	}
}

func buildReporter(rc pconfig.ReporterConfig) (report.Reporter, error) {
	switch rc.Kind {
	case "log":
		return report.NewLogReporter(rc.Level), nil
	case "jsonfile":
		return report.NewJSONFileReporter(rc.Path), nil
	case "pushgateway":
		return report.NewPushgatewayReporter(rc.GatewayURL, rc.Job), nil
	case "nats":
		conn, err := nats.Connect(rc.Address)
		if err != nil {
			return nil, fmt.Errorf("perfcounters-demo: connecting to nats at %q: %w", rc.Address, err)
		}
		return report.NewNATSReporter(conn, rc.Subject), nil
	case "lineprotocol":
		conn, err := nats.Connect(rc.Address)
		if err != nil {
			return nil, fmt.Errorf("perfcounters-demo: connecting to nats at %q: %w", rc.Address, err)
		}
		sink := report.NewNATSReporter(conn, rc.Subject)
		return report.NewLineProtocolReporter(rc.Measurement, nil, sink), nil
	default:
		return nil, fmt.Errorf("perfcounters-demo: unknown reporter kind %q", rc.Kind)
	}
}

func buildParticipant(r *registry.Registry, cc *pconfig.ClusterConfig, nodeID string) *cluster.Participant {
	endpoints := make([]cluster.Endpoint, 0, len(cc.Endpoints))
	for _, e := range cc.Endpoints {
		endpoints = append(endpoints, cluster.Endpoint{Host: e.Host, Port: e.Port})
	}

	if nodeID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		nodeID = fmt.Sprintf("%s_%d_%s", host, os.Getpid(), uuid.NewString())
	}
	collect := func(ctx context.Context) value.Collection { return r.Snapshot() }

	return cluster.NewParticipant(nodeID, endpoints, collect, cc.ParsedTimeout())
}
