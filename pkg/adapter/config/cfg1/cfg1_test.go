// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cfg1_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/momeni/ddbmig/pkg/adapter/config/cfg1"
	"github.com/momeni/ddbmig/pkg/core/ledger"
	"github.com/momeni/ddbmig/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
versions:
  config: 1.0.0
dynamodb:
  region: us-east-1
migrations:
  path: ./migrations
`

func TestLoadDefaults(t *testing.T) {
	c, err := cfg1.Load([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, model.SemVer{1, 0, 0}, c.Version())
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, ledger.DefaultTable, c.DynamoDB.LedgerTable)
	assert.Equal(t, cfg1.DefaultAddress, c.HTTP.Address)
	require.NotNil(t, c.HTTP.Logger)
	assert.False(t, *c.HTTP.Logger)
	require.NotNil(t, c.HTTP.Recovery)
	assert.True(t, *c.HTTP.Recovery)
	assert.Zero(t, c.Migrations.Timeout.Std())
}

func TestLoadFull(t *testing.T) {
	c, err := cfg1.Load([]byte(`
versions:
  config: 1.0.0
environment: staging
log:
  level: debug
  format: json
dynamodb:
  endpoint: http://localhost:8000
  region: eu-central-1
  access-key-id: local
  secret-access-key: local
  ledger-table: schema_history
  table-wait-timeout: 3m
migrations:
  path: /srv/migrations
  timeout: 2m
http:
  address: 127.0.0.1:9090
  logger: true
  recovery: false
`))
	require.NoError(t, err)
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, cfg1.Log{Level: "debug", Format: "json"}, c.Log)
	assert.Equal(t, "http://localhost:8000", c.DynamoDB.Endpoint)
	assert.Equal(t, "schema_history", c.DynamoDB.LedgerTable)
	assert.Equal(t, 3*time.Minute, c.DynamoDB.TableWaitTimeout.Std())
	assert.Equal(t, 2*time.Minute, c.Migrations.Timeout.Std())
	assert.Equal(t, "127.0.0.1:9090", c.HTTP.Address)
	assert.True(t, *c.HTTP.Logger)
	assert.False(t, *c.HTTP.Recovery)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DDBMIG_DYNAMODB_REGION", "ap-south-1")
	t.Setenv("DDBMIG_DYNAMODB_LEDGER_TABLE", "ledger")
	t.Setenv("DDBMIG_MIGRATIONS_TIMEOUT", "90s")
	t.Setenv("DDBMIG_LOG_FORMAT", "json")
	t.Setenv("DDBMIG_ENVIRONMENT", "production")
	c, err := cfg1.Load([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", c.DynamoDB.Region)
	assert.Equal(t, "ledger", c.DynamoDB.LedgerTable)
	assert.Equal(t, 90*time.Second, c.Migrations.Timeout.Std())
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, "./migrations", c.Migrations.Path)
}

func TestLoadEnvSuppliesRequiredFields(t *testing.T) {
	t.Setenv("DDBMIG_DYNAMODB_REGION", "us-west-2")
	t.Setenv("DDBMIG_MIGRATIONS_PATH", "/tmp/m")
	c, err := cfg1.Load([]byte("versions:\n  config: 1.0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", c.DynamoDB.Region)
	assert.Equal(t, "/tmp/m", c.Migrations.Path)
}

func TestLoadErrors(t *testing.T) {
	for name, data := range map[string]string{
		"not yaml":       "versions: [",
		"newer major":    "versions: {config: 2.0.0}\ndynamodb: {region: r}\nmigrations: {path: p}",
		"newer minor":    "versions: {config: 1.1.0}\ndynamodb: {region: r}\nmigrations: {path: p}",
		"no region":      "versions: {config: 1.0.0}\nmigrations: {path: p}",
		"no path":        "versions: {config: 1.0.0}\ndynamodb: {region: r}",
		"bad env":        "versions: {config: 1.0.0}\nenvironment: qa\ndynamodb: {region: r}\nmigrations: {path: p}",
		"bad level":      "versions: {config: 1.0.0}\nlog: {level: trace}\ndynamodb: {region: r}\nmigrations: {path: p}",
		"bad address":    "versions: {config: 1.0.0}\nhttp: {address: nowhere}\ndynamodb: {region: r}\nmigrations: {path: p}",
		"half keys":      "versions: {config: 1.0.0}\ndynamodb: {region: r, access-key-id: k}\nmigrations: {path: p}",
		"bad endpoint":   "versions: {config: 1.0.0}\ndynamodb: {region: r, endpoint: '::'}\nmigrations: {path: p}",
		"negative delay": "versions: {config: 1.0.0}\ndynamodb: {region: r}\nmigrations: {path: p, timeout: -1s}",
		"negative wait":  "versions: {config: 1.0.0}\ndynamodb: {region: r, table-wait-timeout: -1s}\nmigrations: {path: p}",
	} {
		t.Run(name, func(t *testing.T) {
			c, err := cfg1.Load([]byte(data))
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestLoadRejectsBadEnvOverride(t *testing.T) {
	t.Setenv("DDBMIG_MIGRATIONS_TIMEOUT", "soon")
	_, err := cfg1.Load([]byte(minimal))
	assert.Error(t, err)
}

func TestComponents(t *testing.T) {
	c, err := cfg1.Load([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "./migrations", c.Migrations.NewSource("").Path())
	assert.Equal(t, "/other", c.Migrations.NewSource("/other").Path())
	assert.NotNil(t, c.HTTP.NewEngine())

	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	require.NoError(t, c.Log.Setup(&buf))
	bad := cfg1.Log{Level: "info", Format: "xml"}
	assert.Error(t, bad.Setup(&buf))
}

func TestDynamoDBLogValueHidesSecret(t *testing.T) {
	d := cfg1.DynamoDB{
		Region: "us-east-1", AccessKeyID: "AKIA", SecretAccessKey: "s3cr3t",
	}
	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("cfg", "dynamodb", d)
	assert.NotContains(t, buf.String(), "s3cr3t")
	assert.Contains(t, buf.String(), "dynamodb.secret_access_key=***")
	assert.Contains(t, buf.String(), "dynamodb.region=us-east-1")
}
