// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes registers all resource packages on a gin-gonic engine.
// Each resource package is named like tablesrs and adapts a use case
// or a repository with the relevant REST APIs.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ddbmig/pkg/adapter/restful/gin/migrationsrs"
	"github.com/momeni/ddbmig/pkg/adapter/restful/gin/tablesrs"
)

// BasePath is the common prefix of the versioned REST APIs.
const BasePath = "/api/ddbmig/v1"

// Register registers the health check and the versioned REST APIs
// on the e engine. The uc migrations use case reports the migration
// files status and s store is queried for its tables.
func Register(e *gin.Engine, uc migrationsrs.UseCase, s tablesrs.Store) {
	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r := e.Group(BasePath)
	migrationsrs.Register(r, uc)
	tablesrs.Register(r, s)
}
