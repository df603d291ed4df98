// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tablesrs realizes the tables resource, listing the tables
// of the store and checking their existence.
package tablesrs

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ddbmig/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// Store is the subset of repo.Store methods which are used by this
// resource.
type Store interface {
	ExistsTable(ctx context.Context, name string) (model.ExistsResult, error)
	ListTables(ctx context.Context) ([]string, error)
}

type resource struct {
	store Store
}

// Register instantiates a resource with the relevant REST APIs:
//  1. GET request to /api/ddbmig/v1/tables
//     in order to list the table names,
//  2. GET request to /api/ddbmig/v1/tables/:name
//     in order to check if a table exists.
func Register(r *gin.RouterGroup, s Store) {
	rs := &resource{store: s}
	r.GET("tables", rs.ListTables)
	r.GET("tables/:name", rs.FetchTable)
}

type tableReq struct {
	Name string `uri:"name" binding:"required,min=3,max=255"`
}

type tableResp struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
}

func (rs *resource) ListTables(c *gin.Context) {
	names, err := rs.store.ListTables(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

func (rs *resource) FetchTable(c *gin.Context) {
	req := &tableReq{}
	if ok := serdser.BindURI(c, req); !ok {
		return
	}
	r, err := rs.store.ExistsTable(c, req.Name)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tableResp{
		Name:   req.Name,
		Exists: r == model.Found,
	})
}
