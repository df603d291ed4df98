// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momeni/ddbmig/pkg/adapter/restful/gin/routes"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only migration status API",
	Long: `Serve the read-only migration status API.

The API reports the state of migration files and the tables of the
configured endpoint. It never applies migrations. The server stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	w, err := newUseCase(ctx, "")
	if err != nil {
		return err
	}
	e := w.cfg.HTTP.NewEngine()
	routes.Register(e, w.uc, w.store)
	srv := &http.Server{
		Addr:              w.cfg.HTTP.Address,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info(ctx, "serving", slog.String("address", srv.Addr))
	select {
	case err = <-errCh:
		return fmt.Errorf("ListenAndServe: %w", err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err = srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
