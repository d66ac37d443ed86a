// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pconfig

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads key=value pairs from path into the process
// environment, for secrets (Pushgateway/NATS credentials) that don't
// belong in the checked-in JSON config. A missing file is not an
// error: local development may not use one.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("pconfig: loading %s: %w", path, err)
	}
	return nil
}
