// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/usecase/migrationuc"
	"github.com/spf13/cobra"
)

// progressTimeout bounds the ledger reads which report the progress of
// an interrupted run.
const progressTimeout = 10 * time.Second

var migrateFlags struct {
	path    string
	timeout time.Duration
}

var migrateCmd = &cobra.Command{
	Use:   "migrate up|down",
	Short: "Apply the pending migration files of one direction",
	Long: `Apply the pending migration files of one direction.

The up direction applies files in ascending order of their names while
the down direction applies the .down. files in descending order. Files
which are found in the ledger are skipped, so an interrupted run may be
repeated safely. The run stops at the first failing file and reports it.

The --timeout flag bounds the whole run and takes precedence over the
migrations.timeout setting of the config file. An interrupt or SIGTERM
stops the run between files and the files which were applied so far
are reported.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      migrate,
}

func migrate(cmd *cobra.Command, args []string) error {
	d, err := model.ParseDirection(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	runID := uuid.NewString()
	w, err := newUseCase(
		ctx, migrateFlags.path,
		migrationuc.WithDirection(d), migrationuc.WithRunID(runID),
	)
	if err != nil {
		return err
	}
	timeout := w.cfg.Migrations.Timeout.Std()
	if cmd.Flags().Changed("timeout") {
		timeout = migrateFlags.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	sum, err := w.uc.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			reportProgress(ctx, cmd.OutOrStdout(), w.uc, runID)
		}
		return fmt.Errorf("migrating %s: %w", d, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sum.String())
	for _, name := range sum.Applied {
		fmt.Fprintf(cmd.OutOrStdout(), "  applied %s\n", name)
	}
	return nil
}

// reportProgress prints the files which the runID run has recorded in
// the ledger before it was interrupted. The ledger is read with a fresh
// deadline since ctx is already done.
func reportProgress(
	ctx context.Context, out io.Writer, uc *migrationuc.UseCase,
	runID string,
) {
	reason := "interrupted"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "timed out"
	}
	ctx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx), progressTimeout,
	)
	defer cancel()
	sts, err := uc.Status(ctx)
	if err != nil {
		log.Warn(ctx, "cannot read the progress of the run",
			log.RunID(runID), log.Err("err", err),
		)
		fmt.Fprintf(out, "migration %s; run migrate again to continue\n",
			reason,
		)
		return
	}
	var applied []string
	for _, st := range sts {
		if st.Applied && st.RunID == runID {
			applied = append(applied, st.Name)
		}
	}
	fmt.Fprintf(out,
		"migration %s after %d applied file(s); "+
			"run migrate again to continue\n",
		reason, len(applied),
	)
	for _, name := range applied {
		fmt.Fprintf(out, "  applied %s\n", name)
	}
}

func init() {
	f := migrateCmd.Flags()
	f.StringVarP(&migrateFlags.path, "path", "p", "",
		"migration files directory (overrides migrations.path)",
	)
	f.DurationVar(&migrateFlags.timeout, "timeout", 0,
		"deadline of the whole run, e.g. 5m (zero for none)",
	)
	rootCmd.AddCommand(migrateCmd)
}
