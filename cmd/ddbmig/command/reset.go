// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"errors"
	"fmt"

	"github.com/momeni/ddbmig/pkg/core/usecase/migrationuc"
	"github.com/spf13/cobra"
)

var resetConfirmed bool

var errNotConfirmed = errors.New(
	"refusing to delete all tables without the --yes flag",
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every table, including the ledger",
	Long: `Delete every table of the configured DynamoDB endpoint, including
the ledger table. This is meant for local development endpoints and
requires the --yes flag. It stops at the first table which can not be
deleted.`,
	Args: cobra.NoArgs,
	RunE: reset,
}

func reset(cmd *cobra.Command, _ []string) error {
	if !resetConfirmed {
		return errNotConfirmed
	}
	ctx := cmd.Context()
	_, s, err := connect(ctx)
	if err != nil {
		return err
	}
	uc, err := migrationuc.NewReset(s)
	if err != nil {
		return fmt.Errorf("migrationuc.NewReset: %w", err)
	}
	deleted, err := uc.Reset(ctx)
	for _, name := range deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
	}
	if err != nil {
		return fmt.Errorf("resetting: %w", err)
	}
	return nil
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false,
		"confirm deletion of all tables",
	)
	rootCmd.AddCommand(resetCmd)
}
