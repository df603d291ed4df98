// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddbstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// GetItem reads the item with the given key from table using a
// strongly consistent read. A nil item is returned if it is absent.
func (s *Store) GetItem(
	ctx context.Context, table string, key model.Item,
) (model.Item, error) {
	k, err := marshalItem(key)
	if err != nil {
		return nil, fmt.Errorf("marshalItem(key): %w", err)
	}
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            k,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("GetItem", table, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	it, err := unmarshalItem(out.Item)
	if err != nil {
		return nil, fmt.Errorf("unmarshalItem: %w", err)
	}
	return it, nil
}

// PutItem writes item into table if cond holds. A violated condition
// is reported by an error wrapping cerr.ErrAlreadyExists.
func (s *Store) PutItem(
	ctx context.Context,
	table string,
	item model.Item,
	cond model.WriteCondition,
) error {
	av, err := marshalItem(item)
	if err != nil {
		return fmt.Errorf("marshalItem: %w", err)
	}
	in := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}
	if attr, ok := cond.KeyNotExistsAttr(); ok {
		in.ConditionExpression = aws.String("attribute_not_exists(#k)")
		in.ExpressionAttributeNames = map[string]string{"#k": attr}
	}
	_, err = s.api.PutItem(ctx, in)
	switch {
	case err == nil:
		return nil
	case isConditionalCheckFailed(err):
		return benign(cerr.ErrAlreadyExists, table, err)
	default:
		return storeErr("PutItem", table, err)
	}
}
