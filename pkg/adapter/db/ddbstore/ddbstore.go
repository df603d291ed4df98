// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ddbstore implements the repo.Store interface for DynamoDB
// (or any endpoint which speaks its wire protocol, such as DynamoDB
// Local). It is the only package which knows about the SDK types and
// the condition expression syntax. Store errors are normalized, so
// use cases can tell a missing table apart from a failed request.
package ddbstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/momeni/ddbmig/pkg/core/repo"
)

// API is the subset of the DynamoDB client methods which are used by
// the Store. It is satisfied by *dynamodb.Client.
type API interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Config contains the connection settings of a Store.
// Endpoint may be empty in order to use the regional AWS endpoint.
// Static credentials are used only if both keys are given. Otherwise,
// the default credentials chain of the SDK is consulted.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// These defaults bound the waiting for a table to become ACTIVE after
// its creation or to disappear after its deletion.
const (
	DefaultWaitTimeout  = 5 * time.Minute
	DefaultWaitMinDelay = 2 * time.Second
	DefaultWaitMaxDelay = 20 * time.Second
)

// Store is a repo.Store backed by DynamoDB.
type Store struct {
	api API

	waitTimeout  time.Duration
	waitMinDelay time.Duration
	waitMaxDelay time.Duration
}

// Option is a functional option which customizes a Store.
type Option func(s *Store)

// WithWaitTimeout limits the time which CreateTable and DeleteTable
// may wait for the table status transition. Non-positive values are
// ignored.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// WithWaitDelays sets the minimum and maximum delays between the
// DescribeTable calls which poll a table status. The SDK waiters back
// off exponentially from min to max. Invalid pairs are ignored.
func WithWaitDelays(minDelay, maxDelay time.Duration) Option {
	return func(s *Store) {
		if minDelay > 0 && minDelay <= maxDelay {
			s.waitMinDelay, s.waitMaxDelay = minDelay, maxDelay
		}
	}
}

var _ repo.Store = (*Store)(nil)

// New loads the SDK configuration based on cfg and creates a Store
// which sends its requests through a new DynamoDB client.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("awsconfig.LoadDefaultConfig: %w", err)
	}
	var ddbOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		ddbOpts = append(ddbOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return NewWithAPI(dynamodb.NewFromConfig(awsCfg, ddbOpts...), opts...), nil
}

// NewWithAPI creates a Store which sends its requests through api.
func NewWithAPI(api API, opts ...Option) *Store {
	s := &Store{
		api:          api,
		waitTimeout:  DefaultWaitTimeout,
		waitMinDelay: DefaultWaitMinDelay,
		waitMaxDelay: DefaultWaitMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
