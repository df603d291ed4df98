// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "time"

// ExistsResult reports whether a table exists. Failures to find out are
// reported as errors alongside the ExistsResult, never as NotFound.
type ExistsResult int

// Valid values for the ExistsResult enum.
const (
	NotFound ExistsResult = iota
	Found
)

// String returns "found" or "not-found".
func (r ExistsResult) String() string {
	if r == Found {
		return "found"
	}
	return "not-found"
}

// Number is a numeric attribute value. It is kept in its decimal string
// form, as the store transfers it, so no precision is lost.
type Number string

// Item is a set of named attribute values. Supported value types are
// string, Number, bool, []byte, and nil.
type Item map[string]any

// StringAttr returns the string attribute which is named k and an
// empty string if it is missing or has another type.
func (it Item) StringAttr(k string) string {
	s, _ := it[k].(string)
	return s
}

// WriteCondition is the closed set of conditions which may guard an
// item write. The zero value is Unconditional.
type WriteCondition struct {
	keyNotExists string
}

// Unconditional writes an item whether or not it already exists.
var Unconditional = WriteCondition{}

// KeyNotExists returns a WriteCondition which only allows the write
// if no item with the same key is stored, where attr is the hash key
// attribute name of the target table.
func KeyNotExists(attr string) WriteCondition {
	return WriteCondition{keyNotExists: attr}
}

// KeyNotExistsAttr returns the hash key attribute name and true if wc
// is a KeyNotExists condition, and an empty string and false otherwise.
func (wc WriteCondition) KeyNotExistsAttr() (string, bool) {
	return wc.keyNotExists, wc.keyNotExists != ""
}

// LedgerRecord is one row of the migrations ledger, recording that the
// FileName migration file was applied at ExecutedAt by the RunID run.
type LedgerRecord struct {
	FileName   string
	ExecutedAt time.Time
	RunID      string
	Direction  Direction
}
