// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"errors"
	"fmt"
)

// ErrAlreadyExists indicates that a table or an item which was asked
// to be created is already present. It is benign for the migration
// engine: a concurrent or an earlier partial run has created it.
var ErrAlreadyExists = errors.New("already exists")

// ErrNotFound indicates that a table or an item which was asked to be
// removed or looked up is absent. Existence checks report absence as
// a value, so this error is only returned by destructive operations.
var ErrNotFound = errors.New("not found")

// ParseError indicates that a migration file body could not be parsed
// as a table definition. It aborts the run at the offending file.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parsing migration body: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DirectoryReadError indicates that the migrations directory could not
// be enumerated, so no migration file was processed.
type DirectoryReadError struct {
	Path string
	Err  error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("reading migrations dir %q: %v", e.Path, e.Err)
}

func (e *DirectoryReadError) Unwrap() error {
	return e.Err
}

// StoreError reports a failed store request which was not classified
// as one of the benign conditions. Op is the request name (such as
// CreateTable), Table is the target table (if any), and Code is the
// error code which was returned by the store (if any).
type StoreError struct {
	Op    string
	Table string
	Code  string
	Err   error
}

func (e *StoreError) Error() string {
	msg := e.Op
	if e.Table != "" {
		msg += fmt.Sprintf("(%q)", e.Table)
	}
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MigrationError wraps the fatal error which aborted a migration run
// alongside the name of the migration file which was being processed.
type MigrationError struct {
	File string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %q failed: %v", e.File, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
