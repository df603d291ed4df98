// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrationsrs realizes the migrations resource, reporting
// the status of migration files through read-only REST APIs.
package migrationsrs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ddbmig/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/ddbmig/pkg/core/cerr"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// UseCase is the subset of migrationuc.UseCase methods which are used
// by this resource.
type UseCase interface {
	Status(ctx context.Context) ([]model.MigrationStatus, error)
	StatusOf(ctx context.Context, name string) (*model.MigrationStatus, error)
}

type resource struct {
	uc UseCase
}

// Register instantiates a resource adapting the migrations use case
// with the relevant REST APIs including:
//  1. GET request to /api/ddbmig/v1/migrations
//     in order to list all migration files and their status,
//  2. GET request to /api/ddbmig/v1/migrations/:name
//     in order to fetch the status of one migration file.
func Register(r *gin.RouterGroup, uc UseCase) {
	rs := &resource{uc: uc}
	r.GET("migrations", rs.ListMigrations)
	r.GET("migrations/:name", rs.FetchMigration)
}

type migrationReq struct {
	Name string `uri:"name" binding:"required,max=255"`
}

func (rs *resource) ListMigrations(c *gin.Context) {
	statuses, err := rs.uc.Status(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (rs *resource) FetchMigration(c *gin.Context) {
	req := &migrationReq{}
	if ok := serdser.BindURI(c, req); !ok {
		return
	}
	st, err := rs.uc.StatusOf(c, req.Name)
	switch {
	case err != nil:
		serdser.SerErr(c, err)
	case st == nil:
		serdser.SerErr(c, cerr.NotFound(
			fmt.Errorf("migration %q is not found", req.Name),
		))
	default:
		c.JSON(http.StatusOK, st)
	}
}
