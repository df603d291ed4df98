// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the request deserialization and response
// serialization helpers which are shared by all resources.
package serdser

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/ddbmig/pkg/core/cerr"
)

// BindURI binds the path parameters into req and validates them.
// If it fails, the error response is written and false is returned.
func BindURI(c *gin.Context, req any) bool {
	switch err := c.ShouldBindUri(req).(type) {
	case nil:
		return true
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		SerErr(c, cerr.BadRequest(err))
	}
	return false
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	if elist, ok := (*errs)[name]; !ok {
		(*errs)[name] = msgs
	} else {
		(*errs)[name] = append(elist, msgs...)
	}
}

// SerErr writes err as a JSON response. A *cerr.Error selects its
// status code, a *cerr.StoreError is reported as cerr.Unavailable, and
// others as internal server errors.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	var se *cerr.StoreError
	switch {
	case errors.As(err, &ce):
	case errors.As(err, &se):
		ce = cerr.Unavailable(err)
	default:
		ce = &cerr.Error{
			Err: err, HTTPStatusCode: http.StatusInternalServerError,
		}
	}
	c.JSON(ce.HTTPStatusCode, gin.H{
		"detail": ce.Err.Error(),
	})
}
