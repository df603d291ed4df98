// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// The models here describe migration files, the tables which they
// define, the ledger rows which record them, and the few store level
// values (items, write conditions, existence results) which the use
// cases layer needs in order to talk about a key/value table store
// without knowing its wire protocol.
package model

import (
	"fmt"
	"strings"
	"time"
)

// These markers are searched in migration file names in order to
// resolve their operation kind and direction. The surrounding dots
// are part of the markers, so "users.create_table_x.json" is not
// classified as a create-table migration.
const (
	CreateTableMarker = ".create_table."
	DeleteTableMarker = ".delete_table."
	UpMarker          = ".up."
	DownMarker        = ".down."
)

// OperationKind is the closed set of schema operations which may be
// requested by a migration file. The Undefined variant keeps the name
// of the file which could not be classified, so it can be reported.
type OperationKind struct {
	op   operation
	name string
}

type operation int

const (
	opUndefined operation = iota // zero value is undefined

	opCreateTable
	opDeleteTable
)

// Valid values of the OperationKind variant. Undefined values are
// created by the Undefined function since they carry a file name.
var (
	CreateTable = OperationKind{op: opCreateTable}
	DeleteTable = OperationKind{op: opDeleteTable}
)

// Undefined returns the Undefined variant of OperationKind for the
// given file name.
func Undefined(name string) OperationKind {
	return OperationKind{op: opUndefined, name: name}
}

// IsUndefined returns true if k is an Undefined operation kind.
func (k OperationKind) IsUndefined() bool {
	return k.op == opUndefined
}

// UndefinedName returns the file name which is kept by an Undefined
// operation kind and an empty string for other variants.
func (k OperationKind) UndefinedName() string {
	return k.name
}

// String returns a short human readable form of k, such as
// create_table, delete_table, or undefined(readme.txt).
func (k OperationKind) String() string {
	switch k.op {
	case opCreateTable:
		return "create_table"
	case opDeleteTable:
		return "delete_table"
	default:
		return fmt.Sprintf("undefined(%s)", k.name)
	}
}

// ResolveOperation classifies a migration file name by its operation
// marker. It is a total function: names without a known marker are
// mapped to Undefined(name) instead of failing.
// When a name contains both markers, CreateTable wins because markers
// are checked in the fixed CreateTable, DeleteTable order.
func ResolveOperation(name string) OperationKind {
	switch {
	case strings.Contains(name, CreateTableMarker):
		return CreateTable
	case strings.Contains(name, DeleteTableMarker):
		return DeleteTable
	default:
		return Undefined(name)
	}
}

// Direction indicates whether a migration file belongs to the upwards
// or downwards migration set.
type Direction int

// Valid values for the Direction enum.
const (
	Up Direction = iota
	Down
)

// String returns "up" or "down".
func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// ParseDirection parses the "up" and "down" strings (as passed by the
// CLI users) into a Direction value.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return Up, fmt.Errorf("unknown direction %q (want up or down)", s)
	}
}

// ResolveDirection finds the direction of a migration file name.
// Names carrying the DownMarker are Down and all others are Up, so
// a directory which does not use direction markers at all is treated
// as a plain list of upwards migrations.
func ResolveDirection(name string) Direction {
	if strings.Contains(name, DownMarker) {
		return Down
	}
	return Up
}

// MigrationFile describes one migration file as discovered by a
// directory scan. Name is the base file name which is used as the
// ledger key, while Path may be used to read its contents.
type MigrationFile struct {
	Name string
	Path string
}

// Kind classifies the mf migration file by its name.
func (mf MigrationFile) Kind() OperationKind {
	return ResolveOperation(mf.Name)
}

// Direction returns the direction of the mf migration file.
func (mf MigrationFile) Direction() Direction {
	return ResolveDirection(mf.Name)
}

// MigrationStatus reports the state of one migration file with respect
// to the ledger. ExecutedAt is nil for pending files.
type MigrationStatus struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Direction  string     `json:"direction"`
	Applied    bool       `json:"applied"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
}

// Summary describes a completed migration run.
type Summary struct {
	RunID     string   // unique identifier of the run
	Direction string   // up or down
	Applied   []string // names of the files which were applied now
	Skipped   int      // files which were found in the ledger
	Undefined int      // files which could not be classified
	Filtered  int      // files which belong to the other direction
}

// String returns a one line description of the s summary.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"migrate %s: %d applied, %d skipped, %d undefined, %d filtered",
		s.Direction, len(s.Applied), s.Skipped, s.Undefined, s.Filtered,
	)
}
