// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command perfcounters-demo wires a registry, a reporting controller,
// and (optionally) a cluster participant together from a JSON config
// file, and drives a handful of synthetic probe calls so the reporters
// have something to emit.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
	"github.com/ClusterCockpit/cc-perfcounters/probe"
	"github.com/google/gops/agent"
)

func main() {
	flags := parseFlags()

	if flags.gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := loadDotEnv(flags.envFile); err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		log.Fatal(err)
	}

	app, err := newApplication(cfg, flags.nodeID)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	if err := app.controller.StartAutoReport(ctx); err != nil {
		log.Fatal(err)
	}
	log.Infof("reporting controller started, period=%s", app.reportPeriod)

	if app.participant != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.participant.Run(ctx); err != nil {
				log.Errorf("cluster participant stopped: %s", err.Error())
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runWorkload(ctx, flags.workloadRate)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("shutting down")
	if err := app.controller.StopAutoReport(); err != nil {
		log.Errorf("stopping auto-report: %s", err.Error())
	}
	cancel()
	wg.Wait()
	log.Info("graceful shutdown completed")
}

// runWorkload emits a synthetic mix of probe calls once every rate
// until ctx is cancelled, so a freshly started demo
// has something for the configured reporters to show.
func runWorkload(ctx context.Context, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe.Occurrence(ctx, "demo.requests")
			probe.Value(ctx, "demo.queue_depth", rand.Float64()*20)
			_ = probe.StartEnd(ctx, "demo.handler", func(ctx context.Context) error {
				time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
				return nil
			})
		}
	}
}
