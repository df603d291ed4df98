// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"errors"
	"fmt"

	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/log"
	"github.com/momeni/ddbmig/pkg/core/repo"
)

// ResetUseCase drops all tables of a store, including the ledger.
type ResetUseCase struct {
	store repo.Store
}

// NewReset instantiates a ResetUseCase for the s store.
func NewReset(s repo.Store) (*ResetUseCase, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	return &ResetUseCase{store: s}, nil
}

// Reset deletes every table which is listed by the store and returns
// the names of deleted tables. It stops at the first failure. Tables
// which vanish concurrently are tolerated.
func (uc *ResetUseCase) Reset(ctx context.Context) ([]string, error) {
	names, err := uc.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTables: %w", err)
	}
	deleted := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return deleted, fmt.Errorf("interrupted before %q: %w", name, err)
		}
		err := uc.store.DeleteTable(ctx, name)
		switch {
		case errors.Is(err, cerr.ErrNotFound):
			continue
		case err != nil:
			return deleted, fmt.Errorf("DeleteTable(%q): %w", name, err)
		}
		log.Info(ctx, "deleted table", log.Table(name))
		deleted = append(deleted, name)
	}
	return deleted, nil
}
