// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/spf13/cobra"
)

var statusPath string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migration files are applied",
	Long: `Show which migration files are applied.

Every file of the migrations directory is listed with its kind and
direction. Files which are recorded in the ledger are reported with their
execution time and the identifier of the run which applied them. The
ledger table is not created by this command.`,
	Args: cobra.NoArgs,
	RunE: status,
}

func status(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	w, err := newUseCase(ctx, statusPath)
	if err != nil {
		return err
	}
	sts, err := w.uc.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	return printStatus(cmd.OutOrStdout(), sts)
}

// printStatus writes sts as an aligned table into w.
func printStatus(w io.Writer, sts []model.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tKIND\tDIRECTION\tSTATE\tEXECUTED AT\tRUN")
	for _, st := range sts {
		state, at := "pending", "-"
		if st.Applied {
			state = "applied"
		}
		if st.ExecutedAt != nil {
			at = st.ExecutedAt.UTC().Format(time.RFC3339)
		}
		run := st.RunID
		if run == "" {
			run = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			st.Name, st.Kind, st.Direction, state, at, run,
		)
	}
	return tw.Flush()
}

func init() {
	statusCmd.Flags().StringVarP(&statusPath, "path", "p", "",
		"migration files directory (overrides migrations.path)",
	)
	rootCmd.AddCommand(statusCmd)
}
