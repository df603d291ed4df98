// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of the configured DynamoDB endpoint",
	Args:  cobra.NoArgs,
	RunE:  tables,
}

func tables(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, s, err := connect(ctx)
	if err != nil {
		return err
	}
	names, err := s.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
