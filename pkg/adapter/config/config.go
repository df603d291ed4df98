// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the ddbmig commands to instantiate
// different components, from the adapter or use cases layers, using
// those loaded configuration settings.
// These settings are versioned and maintained by sub-packages.
// The parsed and validated configurations are passed to their ultimate
// components as a series of individual params (for the mandatory items)
// and a series of functional options (for the optional items).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/momeni/ddbmig/pkg/adapter/config/cfg1"
	"github.com/momeni/ddbmig/pkg/adapter/config/vers"
)

// DotEnvFile is loaded by Load before the environment overrides are
// applied. Variables which are already set are not overwritten.
var DotEnvFile = ".env"

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
// Given path must belong to a configuration file which conforms with
// the latest known configuration settings format.
// Variables from DotEnvFile, if it exists, are exported beforehand so
// they may override settings just like the process environment.
func Load(path string) (*cfg1.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err = LoadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	v, err := vers.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading versions: %w", err)
	}
	if vc := v.Versions.Config; vc[0] != cfg1.Major {
		return nil, fmt.Errorf(
			"unexpected config version: %s", vc.String(),
		)
	}
	c, err := cfg1.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading cfg1.Config: %w", err)
	}
	return c, nil
}

// LoadDotEnv exports the variables of the path dotenv file into the
// process environment, keeping the already set ones. A missing file
// is ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("godotenv.Load(%q): %w", path, err)
	}
	return nil
}
