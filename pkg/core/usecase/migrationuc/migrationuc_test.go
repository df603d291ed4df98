// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/ddbmig/internal/test/memstore"
	"github.com/momeni/ddbmig/pkg/adapter/migfile"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/ledger"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/momeni/ddbmig/pkg/core/usecase/migrationuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// memSource is a repo.Source which lists its files in the order they
// were added.
type memSource struct {
	names   []string
	bodies  map[string]string
	listErr error
	lists   int
	reads   []string
	onRead  func(name string)
}

func newSource() *memSource {
	return &memSource{bodies: make(map[string]string)}
}

func (s *memSource) add(name, body string) *memSource {
	s.names = append(s.names, name)
	s.bodies[name] = body
	return s
}

func (s *memSource) List(ctx context.Context) ([]model.MigrationFile, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	files := make([]model.MigrationFile, 0, len(s.names))
	for _, n := range s.names {
		files = append(files, model.MigrationFile{Name: n, Path: "mem/" + n})
	}
	return files, nil
}

func (s *memSource) Read(ctx context.Context, mf model.MigrationFile) ([]byte, error) {
	s.reads = append(s.reads, mf.Name)
	if s.onRead != nil {
		s.onRead(mf.Name)
	}
	b, ok := s.bodies[mf.Name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", mf.Name, os.ErrNotExist)
	}
	return []byte(b), nil
}

func createBody(table, hashKey string) string {
	return fmt.Sprintf(`{
		"TableName": %q,
		"AttributeDefinitions": [{"AttributeName": %q, "AttributeType": "S"}],
		"KeySchema": [{"AttributeName": %q, "KeyType": "HASH"}],
		"ProvisionedThroughput": {"ReadCapacityUnits": 1, "WriteCapacityUnits": 1}
	}`, table, hashKey, hashKey)
}

func deleteBody(table string) string {
	return fmt.Sprintf(`{"TableName": %q}`, table)
}

type RunnerSuite struct {
	suite.Suite

	ctx   context.Context
	store *memstore.Store
	l     *ledger.Ledger
	src   *memSource
	at    time.Time
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (rs *RunnerSuite) SetupTest() {
	rs.ctx = context.Background()
	rs.store = memstore.New()
	l, err := ledger.New(rs.store)
	rs.Require().NoError(err)
	rs.l = l
	rs.src = newSource()
	rs.at = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func (rs *RunnerSuite) newUseCase(opts ...migrationuc.Option) *migrationuc.UseCase {
	opts = append([]migrationuc.Option{
		migrationuc.WithClock(func() time.Time { return rs.at }),
	}, opts...)
	uc, err := migrationuc.New(rs.store, rs.l, rs.src, opts...)
	rs.Require().NoError(err)
	return uc
}

func (rs *RunnerSuite) ledgerFiles() []string {
	var names []string
	for _, it := range rs.store.Items(ledger.DefaultTable) {
		names = append(names, it.StringAttr(ledger.AttrFileName))
	}
	return names
}

func (rs *RunnerSuite) TestNewValidatesArguments() {
	_, err := migrationuc.New(nil, rs.l, rs.src)
	rs.Error(err)
	_, err = migrationuc.New(rs.store, rs.l, rs.src, migrationuc.WithRunID(""))
	rs.Error(err)
	_, err = migrationuc.New(rs.store, rs.l, rs.src,
		migrationuc.WithRunID("a"), migrationuc.WithRunID("b"),
	)
	rs.Error(err)
	_, err = migrationuc.New(rs.store, rs.l, rs.src, migrationuc.WithClock(nil))
	rs.Error(err)
	_, err = migrationuc.New(rs.store, rs.l, rs.src,
		migrationuc.WithDirection(model.Direction(7)),
	)
	rs.Error(err)
}

func (rs *RunnerSuite) TestRunIsIdempotent() {
	rs.src.add("001.create_table.users.json", createBody("users", "UserId")).
		add("002.create_table.orders.json", createBody("orders", "OrderId"))
	uc := rs.newUseCase(migrationuc.WithRunID("first"))

	sum, err := uc.Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{
		"001.create_table.users.json", "002.create_table.orders.json",
	}, sum.Applied)
	rs.Equal("first", sum.RunID)
	rs.Equal(3, rs.store.Calls(memstore.OpCreateTable))

	sum, err = uc.Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Empty(sum.Applied)
	rs.Equal(2, sum.Skipped)
	rs.Equal(3, rs.store.Calls(memstore.OpCreateTable))
	rs.Len(rs.ledgerFiles(), 2)
	rs.Equal([]string{"migrations", "orders", "users"}, rs.listTables())

	rec, err := rs.l.Lookup(rs.ctx, "001.create_table.users.json")
	rs.Require().NoError(err)
	rs.Equal(&model.LedgerRecord{
		FileName:   "001.create_table.users.json",
		ExecutedAt: rs.at,
		RunID:      "first",
		Direction:  model.Up,
	}, rec)
}

func (rs *RunnerSuite) listTables() []string {
	names, err := rs.store.ListTables(rs.ctx)
	rs.Require().NoError(err)
	return names
}

func (rs *RunnerSuite) TestRunFailsFast() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", `{"TableName": "b",`).
		add("003.create_table.c.json", createBody("c", "Id"))
	uc := rs.newUseCase()

	sum, err := uc.Run(rs.ctx)
	rs.Nil(sum)
	var me *cerr.MigrationError
	rs.Require().ErrorAs(err, &me)
	rs.Equal("002.create_table.b.json", me.File)
	var pe *cerr.ParseError
	rs.ErrorAs(err, &pe)
	rs.Contains(err.Error(), "002.create_table.b.json")

	rs.Equal([]string{"001.create_table.a.json"}, rs.ledgerFiles())
	rs.Equal([]string{
		"001.create_table.a.json", "002.create_table.b.json",
	}, rs.src.reads)
	rs.Nil(rs.store.Definition("c"))
}

func (rs *RunnerSuite) TestStoreFailureAbortsWithoutRecording() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", createBody("b", "Id"))
	fault := &cerr.StoreError{
		Op: "CreateTable", Table: "a", Err: errors.New("connection reset"),
	}
	rs.store.FailIf(memstore.OpCreateTable, fault, func(name string) bool {
		return name == "a"
	})
	uc := rs.newUseCase()

	_, err := uc.Run(rs.ctx)
	var me *cerr.MigrationError
	rs.Require().ErrorAs(err, &me)
	rs.Equal("001.create_table.a.json", me.File)
	rs.ErrorIs(err, fault)
	rs.Empty(rs.ledgerFiles())
	rs.Nil(rs.store.Definition("b"))
}

func (rs *RunnerSuite) TestRunSortsByName() {
	rs.src.add("003.create_table.c.json", createBody("c", "Id")).
		add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", createBody("b", "Id"))
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{
		"001.create_table.a.json",
		"002.create_table.b.json",
		"003.create_table.c.json",
	}, sum.Applied)
}

func (rs *RunnerSuite) TestDownDirection() {
	rs.src.add("001.up.create_table.a.json", createBody("a", "Id")).
		add("002.up.create_table.b.json", createBody("b", "Id")).
		add("001.down.delete_table.a.json", deleteBody("a")).
		add("002.down.delete_table.b.json", deleteBody("b"))
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Len(sum.Applied, 2)
	rs.Equal(2, sum.Filtered)
	rs.Equal("up", sum.Direction)

	sum, err = rs.newUseCase(migrationuc.WithDirection(model.Down)).Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{
		"002.down.delete_table.b.json", "001.down.delete_table.a.json",
	}, sum.Applied)
	rs.Equal(2, sum.Filtered)
	rs.Equal("down", sum.Direction)
	rs.Equal([]string{"migrations"}, rs.listTables())

	rec, err := rs.l.Lookup(rs.ctx, "001.down.delete_table.a.json")
	rs.Require().NoError(err)
	rs.Equal(model.Down, rec.Direction)
}

func (rs *RunnerSuite) TestUndefinedIsSkipped() {
	rs.src.add("readme.txt", "notes").
		add("001.create_table.a.json", createBody("a", "Id"))
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal(1, sum.Undefined)
	rs.Equal([]string{"001.create_table.a.json"}, sum.Applied)
	rs.NotContains(rs.src.reads, "readme.txt")
	rs.NotContains(rs.ledgerFiles(), "readme.txt")
}

func (rs *RunnerSuite) TestCreateOfExistingTableIsTolerated() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id"))
	_, err := rs.store.CreateTable(rs.ctx, &model.TableDefinition{
		TableName: "a",
		Attributes: []model.AttributeDefinition{
			{Name: "Id", Type: model.ScalarString},
		},
		KeySchema: []model.KeySchemaElement{
			{AttributeName: "Id", Role: model.KeyHash},
		},
	})
	rs.Require().NoError(err)

	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{"001.create_table.a.json"}, sum.Applied)
	rs.Equal([]string{"001.create_table.a.json"}, rs.ledgerFiles())
}

func (rs *RunnerSuite) TestConcurrentCreateIsTolerated() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id"))
	rs.store.FailIf(memstore.OpCreateTable,
		fmt.Errorf("table %q: %w", "a", cerr.ErrAlreadyExists),
		func(name string) bool { return name == "a" },
	)
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{"001.create_table.a.json"}, sum.Applied)
}

func (rs *RunnerSuite) TestDeleteOfMissingTableIsTolerated() {
	rs.src.add("001.delete_table.gone.json", deleteBody("gone"))
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{"001.delete_table.gone.json"}, sum.Applied)
}

func (rs *RunnerSuite) TestBootstrapFailureIsFatal() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id"))
	fault := errors.New("no route to host")
	rs.store.Fail(memstore.OpExistsTable, fault)
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Nil(sum)
	rs.ErrorIs(err, fault)
	var me *cerr.MigrationError
	rs.False(errors.As(err, &me))
	rs.Zero(rs.src.lists)
}

func (rs *RunnerSuite) TestDirectoryReadErrorIsFatal() {
	rs.src.listErr = &cerr.DirectoryReadError{
		Path: "migrations", Err: os.ErrPermission,
	}
	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Nil(sum)
	var dre *cerr.DirectoryReadError
	rs.ErrorAs(err, &dre)
	rs.Empty(rs.src.reads)
}

func (rs *RunnerSuite) TestCancellationBetweenFiles() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", createBody("b", "Id"))
	ctx, cancel := context.WithCancel(rs.ctx)
	defer cancel()
	rs.src.onRead = func(name string) {
		if name == "001.create_table.a.json" {
			cancel()
		}
	}
	_, err := rs.newUseCase().Run(ctx)
	rs.ErrorIs(err, context.Canceled)
	rs.Equal([]string{"001.create_table.a.json"}, rs.ledgerFiles())
	rs.NotNil(rs.store.Definition("a"))
	rs.Nil(rs.store.Definition("b"))
}

func (rs *RunnerSuite) TestStatus() {
	rs.src.add("002.create_table.b.json", createBody("b", "Id")).
		add("001.create_table.a.json", createBody("a", "Id")).
		add("notes.md", "")
	uc := rs.newUseCase(migrationuc.WithRunID("r1"))

	statuses, err := uc.Status(rs.ctx)
	rs.Require().NoError(err)
	rs.Require().Len(statuses, 3)
	for _, st := range statuses {
		rs.False(st.Applied)
	}
	rs.Zero(rs.store.Calls(memstore.OpCreateTable))

	rs.src.names = rs.src.names[1:]
	_, err = uc.Run(rs.ctx)
	rs.Require().NoError(err)
	rs.src.names = append(rs.src.names, "002.create_table.b.json")

	statuses, err = uc.Status(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]model.MigrationStatus{
		{
			Name:       "001.create_table.a.json",
			Kind:       "create_table",
			Direction:  "up",
			Applied:    true,
			ExecutedAt: &rs.at,
			RunID:      "r1",
		},
		{
			Name:      "002.create_table.b.json",
			Kind:      "create_table",
			Direction: "up",
		},
		{
			Name:      "notes.md",
			Kind:      "undefined(notes.md)",
			Direction: "up",
		},
	}, statuses)

	st, err := uc.StatusOf(rs.ctx, "001.create_table.a.json")
	rs.Require().NoError(err)
	rs.True(st.Applied)
	st, err = uc.StatusOf(rs.ctx, "999.create_table.z.json")
	rs.Require().NoError(err)
	rs.Nil(st)
}

func (rs *RunnerSuite) TestReset() {
	rs.src.add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", createBody("b", "Id"))
	_, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)

	reset, err := migrationuc.NewReset(rs.store)
	rs.Require().NoError(err)
	deleted, err := reset.Reset(rs.ctx)
	rs.Require().NoError(err)
	rs.Equal([]string{"a", "b", "migrations"}, deleted)
	rs.Empty(rs.listTables())

	sum, err := rs.newUseCase().Run(rs.ctx)
	rs.Require().NoError(err)
	rs.Len(sum.Applied, 2)
}

func TestRunSpans(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(ctx)
	})
	store := memstore.New()
	l, err := ledger.New(store)
	require.NoError(t, err)
	src := newSource().
		add("001.create_table.a.json", createBody("a", "Id")).
		add("002.create_table.b.json", `[`)
	uc, err := migrationuc.New(store, l, src,
		migrationuc.WithTracer(tp.Tracer("test")),
	)
	require.NoError(t, err)

	_, err = uc.Run(ctx)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	names := []string{spans[0].Name, spans[1].Name, spans[2].Name}
	assert.Equal(t, []string{
		"migrationuc.apply", "migrationuc.apply", "migrationuc.Run",
	}, names)
	assert.Equal(t, "Unset", spans[0].Status.Code.String())
	assert.Equal(t, "Error", spans[1].Status.Code.String())
	assert.Equal(t, "Error", spans[2].Status.Code.String())
}

func TestEndToEndOrders(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	const file = "20240101.create_table.orders.json"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, file), []byte(createBody("Orders", "OrderId")), 0o644,
	))
	store := memstore.New()
	l, err := ledger.New(store)
	require.NoError(t, err)
	uc, err := migrationuc.New(store, l, migfile.New(dir))
	require.NoError(t, err)

	sum, err := uc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, sum.Applied)
	def := store.Definition("Orders")
	require.NotNil(t, def)
	assert.Equal(t, "OrderId", def.HashKey())
	items := store.Items(ledger.DefaultTable)
	require.Len(t, items, 1)
	assert.Equal(t, file, items[0].StringAttr(ledger.AttrFileName))
	creates := store.Calls(memstore.OpCreateTable)

	sum, err = uc.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, sum.Applied)
	assert.Equal(t, creates, store.Calls(memstore.OpCreateTable))
	assert.Len(t, store.Items(ledger.DefaultTable), 1)
	_, err = uuid.Parse(sum.RunID)
	assert.NoError(t, err)
}
