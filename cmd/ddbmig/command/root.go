// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the ddbmig
// DynamoDB schema migration tool. Commands are organized using the
// cobra library.
//
//	./ddbmig migrate up [-p ./migrations] [--timeout 5m] [-c config.yaml]
//	./ddbmig migrate down
//	./ddbmig status
//	./ddbmig tables
//	./ddbmig reset --yes
//	./ddbmig serve
package command

import (
	"context"
	"fmt"
	"os"

	"github.com/momeni/ddbmig/pkg/adapter/config"
	"github.com/momeni/ddbmig/pkg/adapter/config/cfg1"
	"github.com/momeni/ddbmig/pkg/adapter/db/ddbstore"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/usecase/migrationuc"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ddbmig",
	Short: "Versioned schema migrations for DynamoDB",
	Long: `Versioned schema migrations for DynamoDB.

Migration files are JSON table descriptions which are kept in one
directory and named like 001.create_table.users.json. Files are applied
in lexicographic order of their names and every applied file is recorded
in a ledger table, so running the same directory again only applies the
new files. Files may carry an .up. or .down. marker, which selects the
direction that applies them.`,
	SilenceUsage: true,
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. Any error is printed
// on the standard error and the process exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}

// loadConfig loads the cfgPath config file and installs its logger.
func loadConfig(ctx context.Context) (*cfg1.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	if err = c.Log.Setup(os.Stderr); err != nil {
		return nil, fmt.Errorf("setting up the logger: %w", err)
	}
	log.Debug(ctx, "loaded config",
		log.Valuer("dynamodb", c.DynamoDB),
		log.Stringer("version", c.Version()),
	)
	return c, nil
}

// connect loads the configuration and connects to its store.
func connect(ctx context.Context) (*cfg1.Config, *ddbstore.Store, error) {
	c, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.DynamoDB.NewStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to DynamoDB: %w", err)
	}
	return c, s, nil
}

// wired holds the components which are instantiated from one config.
type wired struct {
	cfg   *cfg1.Config
	store *ddbstore.Store
	uc    *migrationuc.UseCase
}

// newUseCase wires a migration use case for the configured store and
// ledger. A non-empty path overrides the configured directory.
func newUseCase(
	ctx context.Context, path string, opts ...migrationuc.Option,
) (*wired, error) {
	c, s, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	l, err := c.DynamoDB.NewLedger(s)
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}
	uc, err := migrationuc.New(s, l, c.Migrations.NewSource(path), opts...)
	if err != nil {
		return nil, fmt.Errorf("migrationuc.New: %w", err)
	}
	return &wired{cfg: c, store: s, uc: uc}, nil
}
