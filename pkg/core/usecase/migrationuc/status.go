// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"fmt"

	"github.com/momeni/ddbmig/pkg/core/model"
)

// Status reports the state of every migration file of the source,
// sorted by name. Files are reported as pending if the ledger table
// does not exist yet. Status never creates the ledger table.
func (uc *UseCase) Status(ctx context.Context) ([]model.MigrationStatus, error) {
	files, err := uc.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing migration files: %w", err)
	}
	sortFiles(files, model.Up)
	found, err := uc.store.ExistsTable(ctx, uc.ledger.Table())
	if err != nil {
		return nil, fmt.Errorf("ExistsTable(%q): %w", uc.ledger.Table(), err)
	}
	statuses := make([]model.MigrationStatus, 0, len(files))
	for _, mf := range files {
		kind := mf.Kind()
		st := model.MigrationStatus{
			Name:      mf.Name,
			Kind:      kind.String(),
			Direction: mf.Direction().String(),
		}
		if found == model.Found && !kind.IsUndefined() {
			rec, err := uc.ledger.Lookup(ctx, mf.Name)
			if err != nil {
				return nil, fmt.Errorf("looking up %q: %w", mf.Name, err)
			}
			if rec != nil {
				at := rec.ExecutedAt
				st.Applied = true
				st.ExecutedAt = &at
				st.RunID = rec.RunID
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// StatusOf reports the state of the name migration file. It returns
// a nil status if the source has no such file.
func (uc *UseCase) StatusOf(
	ctx context.Context, name string,
) (*model.MigrationStatus, error) {
	statuses, err := uc.Status(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].Name == name {
			return &statuses[i], nil
		}
	}
	return nil, nil
}
