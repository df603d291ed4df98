// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memstore provides an in-memory repo.Store for tests.
// It follows the error contract of the DynamoDB store and allows
// tests to inject faults and count the issued operations.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// Operation names which may be passed to Fail and Calls.
const (
	OpExistsTable = "ExistsTable"
	OpCreateTable = "CreateTable"
	OpDeleteTable = "DeleteTable"
	OpGetItem     = "GetItem"
	OpPutItem     = "PutItem"
	OpListTables  = "ListTables"
)

type table struct {
	def   *model.TableDefinition
	items map[string]model.Item
}

// Store is a concurrency-safe in-memory store.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	calls  map[string]int
	faults map[string]fault
}

type fault struct {
	err   error
	match func(arg string) bool
}

// New instantiates an empty Store.
func New() *Store {
	return &Store{
		tables: make(map[string]*table),
		calls:  make(map[string]int),
		faults: make(map[string]fault),
	}
}

// Fail makes all later op calls fail with err, until Heal is called.
func (s *Store) Fail(op string, err error) {
	s.FailIf(op, err, func(string) bool { return true })
}

// FailIf makes later op calls fail with err if match returns true for
// their table name argument. ListTables passes an empty name.
func (s *Store) FailIf(op string, err error, match func(arg string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = fault{err: err, match: match}
}

// Heal removes the injected fault of op.
func (s *Store) Heal(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, op)
}

// Calls returns the number of op calls, including the failed ones.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Items returns a copy of the items of the name table, sorted by key.
func (s *Store) Items(name string) []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]model.Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, clone(t.items[k]))
	}
	return items
}

// Definition returns the definition which was used to create the name
// table, or nil if it does not exist.
func (s *Store) Definition(name string) *model.TableDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return t.def
	}
	return nil
}

// enter counts an op call and returns its injected fault.
// Caller must hold the mutex.
func (s *Store) enter(op, arg string) error {
	s.calls[op]++
	if f, ok := s.faults[op]; ok && f.match(arg) {
		return f.err
	}
	return nil
}

// ExistsTable reports whether name table exists. Unlike DynamoDB, there
// are no transient CREATING or DELETING states to observe.
func (s *Store) ExistsTable(
	ctx context.Context, name string,
) (model.ExistsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpExistsTable, name); err != nil {
		return model.NotFound, err
	}
	if _, ok := s.tables[name]; ok {
		return model.Found, nil
	}
	return model.NotFound, nil
}

// CreateTable creates td table which is ACTIVE immediately, so nothing
// waits for it. Key attributes must be declared, like in DynamoDB, but
// the throughput and stream settings are stored without validation.
func (s *Store) CreateTable(
	ctx context.Context, td *model.TableDefinition,
) (*model.TableHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateTable, td.TableName); err != nil {
		return nil, err
	}
	if _, ok := s.tables[td.TableName]; ok {
		return nil, fmt.Errorf("table %q: %w", td.TableName, cerr.ErrAlreadyExists)
	}
	declared := make(map[string]bool, len(td.Attributes))
	for _, ad := range td.Attributes {
		declared[ad.Name] = true
	}
	for _, ks := range td.KeySchema {
		if !declared[ks.AttributeName] {
			return nil, &cerr.StoreError{
				Op:    OpCreateTable,
				Table: td.TableName,
				Code:  "ValidationException",
				Err: fmt.Errorf(
					"key attribute %q is not defined", ks.AttributeName,
				),
			}
		}
	}
	s.tables[td.TableName] = &table{
		def:   td,
		items: make(map[string]model.Item),
	}
	return &model.TableHandle{
		Name:   td.TableName,
		ARN:    "arn:aws:dynamodb:memory:000000000000:table/" + td.TableName,
		Status: "ACTIVE",
	}, nil
}

// DeleteTable drops name table and its items at once. DynamoDB keeps
// a deleted table in the DELETING state for a while instead.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteTable, name); err != nil {
		return err
	}
	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("table %q: %w", name, cerr.ErrNotFound)
	}
	delete(s.tables, name)
	return nil
}

// lookup finds the name table and the string form of the hash key of
// item in it. Caller must hold the mutex.
func (s *Store) lookup(
	op, name string, item model.Item,
) (*table, string, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, "", &cerr.StoreError{
			Op:    op,
			Table: name,
			Code:  "ResourceNotFoundException",
			Err:   fmt.Errorf("table %q does not exist", name),
		}
	}
	hk := t.def.HashKey()
	v, ok := item[hk]
	if !ok {
		return nil, "", &cerr.StoreError{
			Op:    op,
			Table: name,
			Code:  "ValidationException",
			Err:   fmt.Errorf("missing key attribute %q", hk),
		}
	}
	return t, fmt.Sprint(v), nil
}

// GetItem returns a copy of the item with the key hash key. Items are
// matched by the fmt.Sprint form of their hash key and reads are always
// consistent. Range keys are not considered.
func (s *Store) GetItem(
	ctx context.Context, name string, key model.Item,
) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetItem, name); err != nil {
		return nil, err
	}
	t, k, err := s.lookup(OpGetItem, name, key)
	if err != nil {
		return nil, err
	}
	it, ok := t.items[k]
	if !ok {
		return nil, nil
	}
	return clone(it), nil
}

// PutItem stores a copy of item. The only supported condition is the
// key-not-exists one, evaluated on the stored item instead of a parsed
// condition expression.
func (s *Store) PutItem(
	ctx context.Context,
	name string,
	item model.Item,
	cond model.WriteCondition,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPutItem, name); err != nil {
		return err
	}
	t, k, err := s.lookup(OpPutItem, name, item)
	if err != nil {
		return err
	}
	if attr, ok := cond.KeyNotExistsAttr(); ok {
		if old, found := t.items[k]; found {
			if _, has := old[attr]; has {
				return fmt.Errorf("item %q: %w", k, cerr.ErrAlreadyExists)
			}
		}
	}
	t.items[k] = clone(item)
	return nil
}

// ListTables returns all table names sorted in one page, while
// DynamoDB paginates them.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListTables, ""); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func clone(it model.Item) model.Item {
	c := make(model.Item, len(it))
	for k, v := range it {
		c[k] = v
	}
	return c
}
