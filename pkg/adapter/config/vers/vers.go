// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vers contains the versions parsing which is common among
// all config file versions. The version should be known before trying
// to parse the actual settings, so their format can be selected, and
// although the format of keeping versions may change too, it is less
// likely to change over time.
package vers

import (
	"fmt"

	"github.com/momeni/ddbmig/pkg/core/model"
	"gopkg.in/yaml.v3"
)

// Config contains the version of the configuration file format.
// It may be embedded with inline format in the versioned config
// structs in order to carry their version.
type Config struct {
	Versions Versions `yaml:"versions"`
}

// Versions contains the configuration file format version.
type Versions struct {
	Config model.SemVer `yaml:"config"`
}

// Load deserializes the data byte slice into a new instance of Config
// struct. Extra fields are ignored, so the deserialized version can be
// used to select the format of the remaining fields.
func Load(data []byte) (*Config, error) {
	vc := &Config{}
	if err := yaml.Unmarshal(data, vc); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	return vc, nil
}

// Validate returns an error if the configuration file version which
// is stored in the `vc` Config instance is not supported by the given
// major and minor version arguments.
func (vc *Config) Validate(major, minor uint) error {
	return vc.Versions.Config.CompatibleWith(major, minor)
}
