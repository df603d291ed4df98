// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schema parses the JSON bodies of table migration files into
// model.TableDefinition instances and serializes them back.
//
// A body looks like:
//
//	{
//	  "TableName": "Orders",
//	  "AttributeDefinitions": [
//	    {"AttributeName": "OrderId", "AttributeType": "S"}
//	  ],
//	  "KeySchema": [{"AttributeName": "OrderId", "KeyType": "HASH"}],
//	  "ProvisionedThroughput": {
//	    "ReadCapacityUnits": 1, "WriteCapacityUnits": 1
//	  },
//	  "StreamSpecification": {
//	    "StreamEnabled": true, "StreamViewType": "NEW_AND_OLD_IMAGES"
//	  }
//	}
//
// Only the structure is validated here. Constraints which relate the
// fields to each other are enforced by the store.
package schema

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
)

type attributeDefinition struct {
	AttributeName string `json:"AttributeName"`
	AttributeType string `json:"AttributeType"`
}

type keySchemaElement struct {
	AttributeName string `json:"AttributeName"`
	KeyType       string `json:"KeyType"`
}

type provisionedThroughput struct {
	ReadCapacityUnits  int64 `json:"ReadCapacityUnits"`
	WriteCapacityUnits int64 `json:"WriteCapacityUnits"`
}

type streamSpecification struct {
	StreamEnabled  bool   `json:"StreamEnabled"`
	StreamViewType string `json:"StreamViewType,omitempty"`
}

type body struct {
	TableName             string                `json:"TableName"`
	AttributeDefinitions  []attributeDefinition `json:"AttributeDefinitions,omitempty"`
	KeySchema             []keySchemaElement    `json:"KeySchema"`
	ProvisionedThroughput provisionedThroughput `json:"ProvisionedThroughput"`
	StreamSpecification   *streamSpecification  `json:"StreamSpecification,omitempty"`
}

// viewTypes maps both the wire spelling and the camel-case spelling
// of stream view types to their model values.
var viewTypes = map[string]model.StreamViewType{
	"KEYS_ONLY":          model.StreamKeysOnly,
	"NEW_IMAGE":          model.StreamNewImage,
	"OLD_IMAGE":          model.StreamOldImage,
	"NEW_AND_OLD_IMAGES": model.StreamNewAndOldImages,
	"KeysOnly":           model.StreamKeysOnly,
	"NewImage":           model.StreamNewImage,
	"OldImage":           model.StreamOldImage,
	"NewAndOldImages":    model.StreamNewAndOldImages,
}

func parseErr(format string, a ...any) error {
	return &cerr.ParseError{Err: fmt.Errorf(format, a...)}
}

// Parse decodes data as a table definition body. All failures are
// reported as *cerr.ParseError instances.
func Parse(data []byte) (*model.TableDefinition, error) {
	var b body
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &cerr.ParseError{Err: err}
	}
	if b.TableName == "" {
		return nil, parseErr("missing TableName")
	}
	td := &model.TableDefinition{TableName: b.TableName}
	for i, ad := range b.AttributeDefinitions {
		t := model.ScalarType(ad.AttributeType)
		if !t.Valid() {
			return nil, parseErr(
				"AttributeDefinitions[%d]: unknown type %q",
				i, ad.AttributeType,
			)
		}
		td.Attributes = append(td.Attributes, model.AttributeDefinition{
			Name: ad.AttributeName,
			Type: t,
		})
	}
	if len(b.KeySchema) == 0 {
		return nil, parseErr("missing KeySchema")
	}
	for i, ks := range b.KeySchema {
		r := model.KeyRole(ks.KeyType)
		if !r.Valid() {
			return nil, parseErr(
				"KeySchema[%d]: unknown key type %q", i, ks.KeyType,
			)
		}
		td.KeySchema = append(td.KeySchema, model.KeySchemaElement{
			AttributeName: ks.AttributeName,
			Role:          r,
		})
	}
	if td.HashKey() == "" {
		return nil, parseErr("KeySchema has no HASH element")
	}
	pt := b.ProvisionedThroughput
	if pt.ReadCapacityUnits < 0 || pt.WriteCapacityUnits < 0 {
		return nil, parseErr(
			"negative ProvisionedThroughput: %d/%d",
			pt.ReadCapacityUnits, pt.WriteCapacityUnits,
		)
	}
	td.Throughput = model.Throughput{
		ReadUnits:  pt.ReadCapacityUnits,
		WriteUnits: pt.WriteCapacityUnits,
	}
	if ss := b.StreamSpecification; ss != nil {
		td.Stream = &model.StreamSpecification{Enabled: ss.StreamEnabled}
		if ss.StreamEnabled {
			vt, ok := viewTypes[ss.StreamViewType]
			if !ok {
				return nil, parseErr(
					"unknown StreamViewType %q", ss.StreamViewType,
				)
			}
			td.Stream.ViewType = vt
		}
	}
	return td, nil
}

// ParseTableName decodes just the TableName field of data. It is used
// by migrations which need nothing more than the target table name.
func ParseTableName(data []byte) (string, error) {
	var b struct {
		TableName string `json:"TableName"`
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return "", &cerr.ParseError{Err: err}
	}
	if b.TableName == "" {
		return "", parseErr("missing TableName")
	}
	return b.TableName, nil
}

// Marshal encodes td in the same format which is accepted by Parse.
// The view type of a disabled stream is not encoded.
func Marshal(td *model.TableDefinition) ([]byte, error) {
	if td == nil {
		return nil, errors.New("nil table definition")
	}
	b := body{
		TableName: td.TableName,
		ProvisionedThroughput: provisionedThroughput{
			ReadCapacityUnits:  td.Throughput.ReadUnits,
			WriteCapacityUnits: td.Throughput.WriteUnits,
		},
	}
	for _, ad := range td.Attributes {
		b.AttributeDefinitions = append(b.AttributeDefinitions,
			attributeDefinition{
				AttributeName: ad.Name,
				AttributeType: string(ad.Type),
			},
		)
	}
	for _, ks := range td.KeySchema {
		b.KeySchema = append(b.KeySchema, keySchemaElement{
			AttributeName: ks.AttributeName,
			KeyType:       string(ks.Role),
		})
	}
	if s := td.Stream; s != nil {
		b.StreamSpecification = &streamSpecification{
			StreamEnabled: s.Enabled,
		}
		if s.Enabled {
			b.StreamSpecification.StreamViewType = string(s.ViewType)
		}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}
	return data, nil
}
