// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pconfig loads and validates the JSON configuration that
// selects which counters to auto-register, how often to report, which
// output adapters to feed, and the multi-process collection endpoint
// list, plus optional .env loading for local development.
package pconfig

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchemaFile(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchemaFile
}

// Validate checks raw against the embedded config schema.
func Validate(raw []byte) error {
	s, err := jsonschema.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return fmt.Errorf("pconfig: compiling schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("pconfig: decoding config: %w", err)
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("pconfig: config does not match schema: %w", err)
	}
	return nil
}
