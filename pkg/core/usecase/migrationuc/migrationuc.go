// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrationuc provides the table migration use cases.
// The UseCase applies the migration files of a repo.Source against
// a repo.Store exactly once each, keeping track of the applied files
// in a ledger table of the same store. It also reports the status of
// those files. The ResetUseCase drops all tables of a store, which
// is mostly useful for development environments.
//
// A run proceeds in three phases. The ledger table is created if it
// is missing, the migration files are listed and sorted by name, and
// then files are applied one at a time. Each file is recorded in the
// ledger right after its operation succeeds, so a repeated run skips
// it. The first failure stops the run and is reported with the name
// of the failing file, so later files are never attempted.
package migrationuc

import (
	"context"
	"time"

	"github.com/momeni/ddbmig/pkg/core/model"
)

// Ledger is the set of ledger operations which are used by the
// migration use cases. It is implemented by *ledger.Ledger.
type Ledger interface {
	Table() string
	EnsureTableExists(ctx context.Context) error
	IsApplied(ctx context.Context, file string) (bool, error)
	Lookup(ctx context.Context, file string) (*model.LedgerRecord, error)
	RecordApplied(
		ctx context.Context, rec model.LedgerRecord,
	) (recorded bool, err error)
}

// Clock returns the current time. It is used for ExecutedAt of the
// ledger records and can be replaced in tests.
type Clock func() time.Time
