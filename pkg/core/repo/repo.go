// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo specifies the repository interfaces which are required
// by the use cases layer. Adapters implement them for a concrete store
// (such as DynamoDB) or source of migration files (such as a local
// directory), so use cases may be tested against in-memory doubles.
package repo

import (
	"context"

	"github.com/momeni/ddbmig/pkg/core/model"
)

// Store is the narrow set of table and item operations which are
// needed by the migration engine and its ledger.
//
// ExistsTable reports NotFound with a nil error only when the store
// positively indicated that the table is absent. Any other failure
// is returned as an error, so it may not be mistaken for absence.
//
// CreateTable returns cerr.ErrAlreadyExists (possibly wrapped) if the
// table exists, DeleteTable returns cerr.ErrNotFound if it does not,
// and PutItem returns cerr.ErrAlreadyExists if its write condition was
// not satisfied. GetItem returns a nil item if the key is absent.
type Store interface {
	ExistsTable(ctx context.Context, name string) (model.ExistsResult, error)
	CreateTable(
		ctx context.Context, td *model.TableDefinition,
	) (*model.TableHandle, error)
	DeleteTable(ctx context.Context, name string) error
	GetItem(ctx context.Context, table string, key model.Item) (model.Item, error)
	PutItem(
		ctx context.Context,
		table string,
		item model.Item,
		cond model.WriteCondition,
	) error
	ListTables(ctx context.Context) ([]string, error)
}

// Source enumerates migration files and reads their bodies.
// List returns files in no particular order; callers sort them.
// A failure of List must be reported as *cerr.DirectoryReadError.
type Source interface {
	List(ctx context.Context) ([]model.MigrationFile, error)
	Read(ctx context.Context, mf model.MigrationFile) ([]byte, error)
}
