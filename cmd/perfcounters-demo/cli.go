// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/pconfig"
)

type cliFlags struct {
	configFile   string
	envFile      string
	nodeID       string
	gops         bool
	workloadRate time.Duration
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configFile, "config", "./config.json", "Path to the `config.json` describing counters and reporters")
	flag.StringVar(&f.envFile, "env", "./.env", "Path to a `.env` file with reporter credentials (missing file is not an error)")
	flag.StringVar(&f.nodeID, "node-id", "", "Override this node's cluster identity (defaults to <hostname>_<pid>_<generated uuid>)")
	flag.BoolVar(&f.gops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.DurationVar(&f.workloadRate, "workload-rate", 200*time.Millisecond, "How often the built-in synthetic workload emits probe calls")
	flag.Parse()
	return f
}

func loadDotEnv(path string) error {
	return pconfig.LoadDotEnv(path)
}

func loadConfig(path string) (*pconfig.Config, error) {
	return pconfig.Load(path)
}
