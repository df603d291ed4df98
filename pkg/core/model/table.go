// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// ScalarType is the type of a key attribute. Only scalar types can be
// used in key schema elements.
type ScalarType string

// Valid values for the ScalarType enum, spelled as on the wire.
const (
	ScalarString ScalarType = "S"
	ScalarNumber ScalarType = "N"
	ScalarBinary ScalarType = "B"
)

// Valid reports whether t is one of the known scalar types.
func (t ScalarType) Valid() bool {
	switch t {
	case ScalarString, ScalarNumber, ScalarBinary:
		return true
	}
	return false
}

// KeyRole is the role of an attribute in a table key schema.
type KeyRole string

// Valid values for the KeyRole enum, spelled as on the wire.
const (
	KeyHash  KeyRole = "HASH"
	KeyRange KeyRole = "RANGE"
)

// Valid reports whether r is a known key role.
func (r KeyRole) Valid() bool {
	return r == KeyHash || r == KeyRange
}

// StreamViewType determines what is written to a table stream when an
// item is modified.
type StreamViewType string

// Valid values for the StreamViewType enum, spelled as on the wire.
const (
	StreamKeysOnly        StreamViewType = "KEYS_ONLY"
	StreamNewImage        StreamViewType = "NEW_IMAGE"
	StreamOldImage        StreamViewType = "OLD_IMAGE"
	StreamNewAndOldImages StreamViewType = "NEW_AND_OLD_IMAGES"
)

// AttributeDefinition declares the scalar type of one key attribute.
type AttributeDefinition struct {
	Name string
	Type ScalarType
}

// KeySchemaElement assigns a key role to one attribute.
type KeySchemaElement struct {
	AttributeName string
	Role          KeyRole
}

// Throughput is the provisioned read and write capacity of a table.
type Throughput struct {
	ReadUnits  int64
	WriteUnits int64
}

// StreamSpecification enables (or disables) a table stream. ViewType
// is meaningful only when Enabled is true.
type StreamSpecification struct {
	Enabled  bool
	ViewType StreamViewType
}

// TableDefinition is the typed form of a create-table migration body.
// Its fields are structurally validated when parsed, but cross-field
// constraints (such as key attributes being declared among Attributes)
// are left to the store which owns those semantics.
type TableDefinition struct {
	TableName  string
	Attributes []AttributeDefinition
	KeySchema  []KeySchemaElement
	Throughput Throughput
	Stream     *StreamSpecification // nil when omitted
}

// HashKey returns the name of the first HASH element of the key schema
// and an empty string if there is none.
func (td *TableDefinition) HashKey() string {
	for _, k := range td.KeySchema {
		if k.Role == KeyHash {
			return k.AttributeName
		}
	}
	return ""
}

// TableHandle describes a table as reported by the store after its
// creation was requested.
type TableHandle struct {
	Name   string
	ARN    string
	Status string
}
