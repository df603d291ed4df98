// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cfg1 makes it possible to load configuration settings with
// version 1.x.y since all minor and patch versions (which are known)
// with the same major version, can be loaded with one implementation.
//
// Settings are read from a YAML document first. Afterwards, environment
// variables which carry the EnvPrefix prefix may override individual
// fields (e.g., DDBMIG_DYNAMODB_REGION overrides dynamodb.region) and
// the merged result is normalized and validated.
package cfg1

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/ddbmig/pkg/adapter/config/settings"
	"github.com/momeni/ddbmig/pkg/adapter/config/vers"
	"github.com/momeni/ddbmig/pkg/adapter/db/ddbstore"
	"github.com/momeni/ddbmig/pkg/adapter/migfile"
	"github.com/momeni/ddbmig/pkg/adapter/restful/gin"
	"github.com/momeni/ddbmig/pkg/core/ledger"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/repo"
	"gopkg.in/yaml.v3"
)

// These constants define the major, minor, and patch version of the
// configuration settings which are supported by the Config struct.
const (
	Major = 1
	Minor = 0
	Patch = 0
)

// Version is the semantic version of Config struct.
var Version = model.SemVer{Major, Minor, Patch}

// EnvPrefix is prepended to the env tag of every overridable field.
const EnvPrefix = "DDBMIG_"

// DefaultAddress is the listening address of the read-only HTTP API
// when http.address is left empty.
const DefaultAddress = ":8080"

// Config contains all settings which are required by the CLI commands
// and the HTTP API following the v1.x.y format. It is implemented with
// primitive fields or locally defined structs, so the file format can
// be kept intact while lower layers change freely.
type Config struct {
	// Environment names the deployment, mostly for log filtering.
	Environment string `yaml:"environment" env:"ENVIRONMENT" validate:"omitempty,oneof=development staging production"`

	Log        Log        `yaml:"log" envPrefix:"LOG_"`
	DynamoDB   DynamoDB   `yaml:"dynamodb" envPrefix:"DYNAMODB_"`
	Migrations Migrations `yaml:"migrations" envPrefix:"MIGRATIONS_"`
	HTTP       HTTP       `yaml:"http" envPrefix:"HTTP_"`

	// Vers contains the configuration file format version.
	Vers vers.Config `yaml:",inline"`
}

// Log contains the structured logging settings.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" env:"FORMAT" validate:"omitempty,oneof=text json"`
}

// DynamoDB contains the connection settings of the target store.
// Empty credentials fall back to the default AWS credentials chain.
type DynamoDB struct {
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT" validate:"omitempty,url"`
	Region          string `yaml:"region" env:"REGION" validate:"required"`
	AccessKeyID     string `yaml:"access-key-id" env:"ACCESS_KEY_ID" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `yaml:"secret-access-key" env:"SECRET_ACCESS_KEY" validate:"required_with=AccessKeyID"`
	LedgerTable     string `yaml:"ledger-table" env:"LEDGER_TABLE" validate:"omitempty,min=3,max=255"`

	// TableWaitTimeout bounds the wait for a created table to become
	// ACTIVE or a deleted one to disappear. Zero keeps the default.
	TableWaitTimeout settings.Duration `yaml:"table-wait-timeout" env:"TABLE_WAIT_TIMEOUT"`
}

// Migrations contains the settings of the migration runner.
type Migrations struct {
	Path string `yaml:"path" env:"PATH" validate:"required"`

	// Timeout bounds a whole run. Zero means no deadline.
	Timeout settings.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// HTTP contains the read-only API settings.
type HTTP struct {
	Address  string `yaml:"address" env:"ADDRESS" validate:"omitempty,hostname_port"`
	Logger   *bool  `yaml:"logger"`   // use the request logging middleware
	Recovery *bool  `yaml:"recovery"` // recover from panics with 500
}

// Load deserializes the `data` YAML document, applies the environment
// overrides, and then validates and normalizes the result.
func Load(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.Vers.Validate(Major, Minor); err != nil {
		return nil, fmt.Errorf(
			"expecting version v%d.%d: %w", Major, Minor, err,
		)
	}
	if err := env.ParseWithOptions(c, env.Options{
		Prefix: EnvPrefix,
	}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to replace some zero values with their expected
// default values.
func (c *Config) ValidateAndNormalize() error {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DynamoDB.LedgerTable == "" {
		c.DynamoDB.LedgerTable = ledger.DefaultTable
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultAddress
	}
	settings.Nil2Zero(&c.HTTP.Logger)
	enabled := true
	settings.OverwriteNil(&c.HTTP.Recovery, &enabled)
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

// Setup installs the default slog logger writing to w.
func (l Log) Setup(w io.Writer) error {
	return log.Setup(w, l.Level, l.Format)
}

// NewStore connects to the configured DynamoDB endpoint.
func (d DynamoDB) NewStore(ctx context.Context) (*ddbstore.Store, error) {
	s, err := ddbstore.New(ctx, ddbstore.Config{
		Endpoint:        d.Endpoint,
		Region:          d.Region,
		AccessKeyID:     d.AccessKeyID,
		SecretAccessKey: d.SecretAccessKey,
	}, ddbstore.WithWaitTimeout(d.TableWaitTimeout.Std()))
	if err != nil {
		return nil, fmt.Errorf("ddbstore.New: %w", err)
	}
	return s, nil
}

// NewLedger instantiates a ledger over s using the configured table.
func (d DynamoDB) NewLedger(s repo.Store) (*ledger.Ledger, error) {
	return ledger.New(s, ledger.WithTable(d.LedgerTable))
}

// LogValue implements slog.LogValuer and hides the secret key.
func (d DynamoDB) LogValue() slog.Value {
	secret := ""
	if d.SecretAccessKey != "" {
		secret = "***"
	}
	return slog.GroupValue(
		slog.String("endpoint", d.Endpoint),
		slog.String("region", d.Region),
		slog.String("access_key_id", d.AccessKeyID),
		slog.String("secret_access_key", secret),
		slog.String("ledger_table", d.LedgerTable),
		slog.Duration("table_wait_timeout", d.TableWaitTimeout.Std()),
	)
}

// NewSource returns the migration files directory. A non-empty path
// takes precedence over the configured one.
func (m Migrations) NewSource(path string) *migfile.Dir {
	if path == "" {
		path = m.Path
	}
	return migfile.New(path)
}

// NewEngine instantiates a gin engine with the middlewares which are
// enabled by the `h` settings.
func (h HTTP) NewEngine() *gin.Engine {
	var middlewares []gin.HandlerFunc
	if h.Logger != nil && *h.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if h.Recovery != nil && *h.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// Version returns the semantic version of the loaded config file.
func (c *Config) Version() model.SemVer {
	return c.Vers.Versions.Config
}
