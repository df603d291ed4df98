// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine, so other packages can create
// an engine with the middlewares of this project without importing
// gin-gonic directly.
package gin

import (
	"log/slog"

	"github.com/FabienMht/ginslog/logger"
	"github.com/gin-gonic/gin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Logger returns a middleware which logs each request through the
// default slog logger after it is served. The default logger must be
// set up beforehand since it is captured here.
func Logger() HandlerFunc {
	return logger.New(slog.Default())
}

func Recovery() HandlerFunc {
	return gin.Recovery()
}
