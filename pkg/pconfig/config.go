// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// CounterConfig describes one counter to auto-register at startup.
type CounterConfig struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Window string `json:"window,omitempty"`
}

// ParsedWindow parses Window, defaulting to 60s if empty.
func (c CounterConfig) ParsedWindow() (time.Duration, error) {
	if c.Window == "" {
		return 60 * time.Second, nil
	}
	return time.ParseDuration(c.Window)
}

// ReporterConfig describes one output adapter to wire up.
type ReporterConfig struct {
	Kind        string `json:"kind"`
	Path        string `json:"path,omitempty"`
	Level       string `json:"level,omitempty"`
	GatewayURL  string `json:"gateway_url,omitempty"`
	Job         string `json:"job,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Address     string `json:"address,omitempty"`
	Measurement string `json:"measurement,omitempty"`
}

// EndpointConfig is one (host, port) entry of the cluster endpoint list,
// position defining its preference level (index 0 most preferred).
type EndpointConfig struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// ClusterConfig configures multi-process leader election and collection.
type ClusterConfig struct {
	Endpoints    []EndpointConfig `json:"endpoints"`
	TimeoutInSec int              `json:"timeout_in_sec"`
}

// ParsedTimeout returns TimeoutInSec as a time.Duration, defaulting to
// 120s (spec.md's default) when unset.
func (c ClusterConfig) ParsedTimeout() time.Duration {
	if c.TimeoutInSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutInSec) * time.Second
}

// Config is the top-level configuration document.
type Config struct {
	ReportPeriod    string           `json:"report_period"`
	ClearEachReport bool             `json:"clear_each_report"`
	Counters        []CounterConfig  `json:"counters"`
	Reporters       []ReporterConfig `json:"reporters"`
	Cluster         *ClusterConfig   `json:"cluster,omitempty"`
}

// ParsedReportPeriod parses ReportPeriod, defaulting to 30s if empty.
func (c Config) ParsedReportPeriod() (time.Duration, error) {
	if c.ReportPeriod == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.ReportPeriod)
}

// Load reads path, validates it against the embedded config schema, and
// decodes it into a Config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pconfig: reading %s: %w", path, err)
	}

	if err := Validate(raw); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("pconfig: decoding %s: %w", path, err)
	}
	return &cfg, nil
}
