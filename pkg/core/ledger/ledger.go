// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ledger keeps track of the applied migration files in a
// reserved table of the migrated store itself.
//
// Each applied file is recorded by one item which is keyed by its
// name. Items are only appended. A conditional write guarantees that
// at most one of the concurrent runners may record a given file.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/repo"
)

// DefaultTable is the name of the ledger table unless WithTable is
// used to override it.
const DefaultTable = "migrations"

// Attribute names of the ledger items.
const (
	AttrFileName   = "FileName"
	AttrExecutedAt = "ExecutedAt"
	AttrRunID      = "RunId"
	AttrDirection  = "Direction"
)

// Ledger records the applied migration files.
type Ledger struct {
	store repo.Store
	table string
}

// Option is a functional option for the Ledger.
type Option func(l *Ledger) error

// WithTable option overrides the DefaultTable name.
func WithTable(name string) Option {
	return func(l *Ledger) error {
		if name == "" {
			return errors.New("empty table name")
		}
		l.table = name
		return nil
	}
}

// New instantiates a Ledger which keeps its items in the given store.
func New(store repo.Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("nil store")
	}
	l := &Ledger{store: store, table: DefaultTable}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return l, nil
}

// Table returns the ledger table name.
func (l *Ledger) Table() string {
	return l.table
}

// Definition returns the fixed schema of the ledger table.
func (l *Ledger) Definition() *model.TableDefinition {
	return &model.TableDefinition{
		TableName: l.table,
		Attributes: []model.AttributeDefinition{
			{Name: AttrFileName, Type: model.ScalarString},
		},
		KeySchema: []model.KeySchemaElement{
			{AttributeName: AttrFileName, Role: model.KeyHash},
		},
		Throughput: model.Throughput{ReadUnits: 1, WriteUnits: 1},
	}
}

// EnsureTableExists creates the ledger table unless it exists.
// It is safe to be called on every run and by concurrent runners.
func (l *Ledger) EnsureTableExists(ctx context.Context) error {
	found, err := l.store.ExistsTable(ctx, l.table)
	if err != nil {
		return fmt.Errorf("ExistsTable(%q): %w", l.table, err)
	}
	if found == model.Found {
		return nil
	}
	_, err = l.store.CreateTable(ctx, l.Definition())
	switch {
	case errors.Is(err, cerr.ErrAlreadyExists):
		log.Info(ctx, "ledger table was created concurrently",
			log.Table(l.table),
		)
	case err != nil:
		return fmt.Errorf("CreateTable(%q): %w", l.table, err)
	default:
		log.Info(ctx, "created ledger table", log.Table(l.table))
	}
	return nil
}

// IsApplied reports whether file is recorded in the ledger.
func (l *Ledger) IsApplied(ctx context.Context, file string) (bool, error) {
	it, err := l.get(ctx, file)
	if err != nil {
		return false, err
	}
	return it != nil, nil
}

// Lookup returns the ledger record of file, or nil if it has not been
// applied yet.
func (l *Ledger) Lookup(
	ctx context.Context, file string,
) (*model.LedgerRecord, error) {
	it, err := l.get(ctx, file)
	if err != nil || it == nil {
		return nil, err
	}
	rec := &model.LedgerRecord{
		FileName: file,
		RunID:    it.StringAttr(AttrRunID),
	}
	if s := it.StringAttr(AttrExecutedAt); s != "" {
		rec.ExecutedAt, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of %q: %w",
				AttrExecutedAt, file, err,
			)
		}
	}
	if s := it.StringAttr(AttrDirection); s != "" {
		rec.Direction, err = model.ParseDirection(s)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of %q: %w",
				AttrDirection, file, err,
			)
		}
	}
	return rec, nil
}

func (l *Ledger) get(ctx context.Context, file string) (model.Item, error) {
	it, err := l.store.GetItem(ctx, l.table, model.Item{AttrFileName: file})
	if err != nil {
		return nil, fmt.Errorf("GetItem(%q): %w", file, err)
	}
	return it, nil
}

// RecordApplied appends rec to the ledger unless its file name is
// already recorded. The recorded return value is false if another
// run has recorded the same file name. That case is not an error.
func (l *Ledger) RecordApplied(
	ctx context.Context, rec model.LedgerRecord,
) (recorded bool, err error) {
	it := model.Item{
		AttrFileName:   rec.FileName,
		AttrExecutedAt: rec.ExecutedAt.UTC().Format(time.RFC3339Nano),
		AttrDirection:  rec.Direction.String(),
	}
	if rec.RunID != "" {
		it[AttrRunID] = rec.RunID
	}
	err = l.store.PutItem(ctx, l.table, it, model.KeyNotExists(AttrFileName))
	switch {
	case errors.Is(err, cerr.ErrAlreadyExists):
		log.Warn(ctx, "migration was recorded by another run",
			log.File(rec.FileName),
		)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("PutItem(%q): %w", rec.FileName, err)
	}
	return true, nil
}
