// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/repo"
	"github.com/momeni/ddbmig/pkg/core/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/momeni/ddbmig/pkg/core/usecase/migrationuc"

// UseCase represents the migration use case. It holds the store which
// is migrated, its ledger, and the source of migration files.
type UseCase struct {
	store  repo.Store
	ledger Ledger
	source repo.Source

	direction model.Direction
	now       Clock
	runID     string
	tracer    trace.Tracer
}

// New instantiates a migration use case.
// Required parameters are passed individually and optional ones are
// passed as functional options.
func New(
	s repo.Store, l Ledger, src repo.Source, opts ...Option,
) (*UseCase, error) {
	if s == nil || l == nil || src == nil {
		return nil, errors.New("store, ledger, and source are required")
	}
	uc := &UseCase{store: s, ledger: l, source: src}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.tracer == nil {
		uc.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return uc, nil
}

// handler applies one migration file body.
type handler func(uc *UseCase, ctx context.Context, body []byte) error

// handlers is the dispatch table of the known operation kinds.
// Kinds which are missing here are undefined and skipped.
var handlers = map[model.OperationKind]handler{
	model.CreateTable: (*UseCase).createTable,
	model.DeleteTable: (*UseCase).deleteTable,
}

// Run applies the pending migration files of the configured direction
// and returns a summary of the run.
//
// Failing to bootstrap the ledger or to list the migration files stops
// the run before any file is processed. A failure while applying or
// recording a file is returned as a *cerr.MigrationError carrying the
// file name. Cancellation of ctx is checked between files, so a file
// is either applied and recorded or left for the next run.
func (uc *UseCase) Run(ctx context.Context) (sum *model.Summary, err error) {
	runID := uc.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx, span := uc.tracer.Start(ctx, "migrationuc.Run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("migration.run_id", runID),
			attribute.String("migration.direction", uc.direction.String()),
		),
	)
	defer func() {
		endSpan(span, err)
	}()

	if err = uc.ledger.EnsureTableExists(ctx); err != nil {
		return nil, fmt.Errorf("bootstrapping ledger: %w", err)
	}
	files, err := uc.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing migration files: %w", err)
	}
	sortFiles(files, uc.direction)
	sum = &model.Summary{RunID: runID, Direction: uc.direction.String()}
	log.Info(ctx, "starting migration run",
		log.RunID(runID),
		log.Stringer("direction", uc.direction),
		slog.Int("files", len(files)),
	)
	for _, mf := range files {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("interrupted before %q: %w", mf.Name, err)
		}
		if err = uc.process(ctx, mf, runID, sum); err != nil {
			log.Error(ctx, "migration failed",
				log.RunID(runID), log.File(mf.Name), log.Err("err", err),
			)
			return nil, &cerr.MigrationError{File: mf.Name, Err: err}
		}
	}
	log.Info(ctx, "migration run is done",
		log.RunID(runID), slog.String("summary", sum.String()),
	)
	return sum, nil
}

// sortFiles orders files by name, ascending for Up and descending for
// Down, so the latest changes are reverted first.
func sortFiles(files []model.MigrationFile, d model.Direction) {
	sort.SliceStable(files, func(i, j int) bool {
		if d == model.Down {
			return files[i].Name > files[j].Name
		}
		return files[i].Name < files[j].Name
	})
}

func (uc *UseCase) process(
	ctx context.Context, mf model.MigrationFile, runID string,
	sum *model.Summary,
) (err error) {
	if mf.Direction() != uc.direction {
		sum.Filtered++
		log.Debug(ctx, "filtered out by direction", log.File(mf.Name))
		return nil
	}
	kind := mf.Kind()
	h, ok := handlers[kind]
	if !ok {
		sum.Undefined++
		log.Warn(ctx, "skipping migration with an undefined operation",
			log.File(mf.Name),
		)
		return nil
	}
	applied, err := uc.ledger.IsApplied(ctx, mf.Name)
	if err != nil {
		return fmt.Errorf("checking ledger: %w", err)
	}
	if applied {
		sum.Skipped++
		log.Info(ctx, "already applied", log.File(mf.Name))
		return nil
	}

	ctx, span := uc.tracer.Start(ctx, "migrationuc.apply",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("migration.file", mf.Name),
			attribute.String("migration.operation", kind.String()),
		),
	)
	defer func() {
		endSpan(span, err)
	}()
	body, err := uc.source.Read(ctx, mf)
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}
	if err = h(uc, ctx, body); err != nil {
		return err
	}
	recorded, err := uc.ledger.RecordApplied(ctx, model.LedgerRecord{
		FileName:   mf.Name,
		ExecutedAt: uc.now(),
		RunID:      runID,
		Direction:  uc.direction,
	})
	if err != nil {
		return fmt.Errorf("recording in ledger: %w", err)
	}
	sum.Applied = append(sum.Applied, mf.Name)
	log.Info(ctx, "applied migration",
		log.File(mf.Name),
		log.Stringer("operation", kind),
		slog.Bool("recorded", recorded),
	)
	return nil
}

func (uc *UseCase) createTable(ctx context.Context, body []byte) error {
	td, err := schema.Parse(body)
	if err != nil {
		return err
	}
	found, err := uc.store.ExistsTable(ctx, td.TableName)
	if err != nil {
		return fmt.Errorf("ExistsTable(%q): %w", td.TableName, err)
	}
	if found == model.Found {
		log.Info(ctx, "table exists, nothing to create",
			log.Table(td.TableName),
		)
		return nil
	}
	h, err := uc.store.CreateTable(ctx, td)
	switch {
	case errors.Is(err, cerr.ErrAlreadyExists):
		log.Info(ctx, "table was created concurrently",
			log.Table(td.TableName),
		)
		return nil
	case err != nil:
		return fmt.Errorf("CreateTable(%q): %w", td.TableName, err)
	}
	log.Info(ctx, "created table",
		log.Table(h.Name), slog.String("status", h.Status),
	)
	return nil
}

func (uc *UseCase) deleteTable(ctx context.Context, body []byte) error {
	name, err := schema.ParseTableName(body)
	if err != nil {
		return err
	}
	err = uc.store.DeleteTable(ctx, name)
	switch {
	case errors.Is(err, cerr.ErrNotFound):
		log.Info(ctx, "table is already deleted", log.Table(name))
		return nil
	case err != nil:
		return fmt.Errorf("DeleteTable(%q): %w", name, err)
	}
	log.Info(ctx, "deleted table", log.Table(name))
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
