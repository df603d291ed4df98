// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddbstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// ExistsTable describes the name table. Only a ResourceNotFound
// response is reported as model.NotFound. Other failures, including
// the transport ones, are returned as *cerr.StoreError.
// A table which is still CREATING is waited for, so a Found table can
// be read and written right away.
func (s *Store) ExistsTable(
	ctx context.Context, name string,
) (model.ExistsResult, error) {
	out, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	switch {
	case err == nil:
		if t := out.Table; t != nil &&
			t.TableStatus == types.TableStatusCreating {
			if err = s.waitActive(ctx, name); err != nil {
				return model.NotFound, err
			}
		}
		return model.Found, nil
	case isResourceNotFound(err):
		return model.NotFound, nil
	default:
		return model.NotFound, storeErr("DescribeTable", name, err)
	}
}

// CreateTable requests the creation of td table and waits until it
// becomes ACTIVE, so its items may be written as soon as it returns.
// DynamoDB Local reports ACTIVE tables right away and is not polled.
// If the table exists, it is waited for too and then an error wrapping
// cerr.ErrAlreadyExists is returned.
func (s *Store) CreateTable(
	ctx context.Context, td *model.TableDefinition,
) (*model.TableHandle, error) {
	out, err := s.api.CreateTable(ctx, createTableInput(td))
	switch {
	case err == nil:
	case isResourceInUse(err):
		if werr := s.waitActive(ctx, td.TableName); werr != nil {
			return nil, werr
		}
		return nil, benign(cerr.ErrAlreadyExists, td.TableName, err)
	default:
		return nil, storeErr("CreateTable", td.TableName, err)
	}
	h := &model.TableHandle{Name: td.TableName}
	if d := out.TableDescription; d != nil {
		h.Name = aws.ToString(d.TableName)
		h.ARN = aws.ToString(d.TableArn)
		h.Status = string(d.TableStatus)
	}
	if h.Status != string(types.TableStatusActive) {
		if err = s.waitActive(ctx, td.TableName); err != nil {
			return nil, err
		}
		h.Status = string(types.TableStatusActive)
	}
	return h, nil
}

// waitActive polls the name table until it is ACTIVE, ctx is done, or
// the wait timeout of s elapses.
func (s *Store) waitActive(ctx context.Context, name string) error {
	w := dynamodb.NewTableExistsWaiter(s.api,
		func(o *dynamodb.TableExistsWaiterOptions) {
			o.MinDelay = s.waitMinDelay
			o.MaxDelay = s.waitMaxDelay
		},
	)
	err := w.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	}, s.waitTimeout)
	if err != nil {
		return storeErr("TableExistsWaiter", name, err)
	}
	return nil
}

// waitDeleted polls the name table until DescribeTable reports it as
// missing, ctx is done, or the wait timeout of s elapses.
func (s *Store) waitDeleted(ctx context.Context, name string) error {
	w := dynamodb.NewTableNotExistsWaiter(s.api,
		func(o *dynamodb.TableNotExistsWaiterOptions) {
			o.MinDelay = s.waitMinDelay
			o.MaxDelay = s.waitMaxDelay
		},
	)
	err := w.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	}, s.waitTimeout)
	if err != nil {
		return storeErr("TableNotExistsWaiter", name, err)
	}
	return nil
}

func createTableInput(td *model.TableDefinition) *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName: aws.String(td.TableName),
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(td.Throughput.ReadUnits),
			WriteCapacityUnits: aws.Int64(td.Throughput.WriteUnits),
		},
	}
	for _, ad := range td.Attributes {
		in.AttributeDefinitions = append(in.AttributeDefinitions,
			types.AttributeDefinition{
				AttributeName: aws.String(ad.Name),
				AttributeType: types.ScalarAttributeType(ad.Type),
			},
		)
	}
	for _, ks := range td.KeySchema {
		in.KeySchema = append(in.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(ks.AttributeName),
			KeyType:       types.KeyType(ks.Role),
		})
	}
	if ss := td.Stream; ss != nil {
		in.StreamSpecification = &types.StreamSpecification{
			StreamEnabled: aws.Bool(ss.Enabled),
		}
		if ss.Enabled {
			in.StreamSpecification.StreamViewType = types.StreamViewType(
				ss.ViewType,
			)
		}
	}
	return in
}

// DeleteTable requests the deletion of the name table and waits until
// it is gone, so a later creation of the same name does not collide
// with a DELETING table. If the table does not exist, an error wrapping
// cerr.ErrNotFound is returned.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	_, err := s.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(name),
	})
	switch {
	case err == nil:
		return s.waitDeleted(ctx, name)
	case isResourceNotFound(err):
		return benign(cerr.ErrNotFound, name, err)
	default:
		return storeErr("DeleteTable", name, err)
	}
}

// ListTables returns the names of all tables, following the pagination
// of the ListTables responses.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	in := &dynamodb.ListTablesInput{}
	for {
		out, err := s.api.ListTables(ctx, in)
		if err != nil {
			return nil, storeErr("ListTables", "", err)
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			return names, nil
		}
		in = &dynamodb.ListTablesInput{
			ExclusiveStartTableName: out.LastEvaluatedTableName,
		}
	}
}
