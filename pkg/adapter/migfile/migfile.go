// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migfile provides a repo.Source which lists the migration
// files of a local directory. Sub-directories are ignored.
package migfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/repo"
)

// Dir is a repo.Source for the migration files in a directory.
type Dir struct {
	path string
}

var _ repo.Source = (*Dir)(nil)

// New creates a Dir source for the given directory path.
func New(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// List returns the regular files of the directory. Their order is
// not significant. Failures are reported as *cerr.DirectoryReadError.
func (d *Dir) List(ctx context.Context) ([]model.MigrationFile, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, &cerr.DirectoryReadError{Path: d.path, Err: err}
	}
	var files []model.MigrationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, model.MigrationFile{
			Name: e.Name(),
			Path: filepath.Join(d.path, e.Name()),
		})
	}
	return files, nil
}

// Read returns the contents of mf.
func (d *Dir) Read(ctx context.Context, mf model.MigrationFile) ([]byte, error) {
	data, err := os.ReadFile(mf.Path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%q): %w", mf.Path, err)
	}
	return data, nil
}
