// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddbstore

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/momeni/ddbmig/pkg/core/cerr"
)

func isResourceNotFound(err error) bool {
	var e *types.ResourceNotFoundException
	return errors.As(err, &e)
}

func isResourceInUse(err error) bool {
	var e *types.ResourceInUseException
	return errors.As(err, &e)
}

func isConditionalCheckFailed(err error) bool {
	var e *types.ConditionalCheckFailedException
	return errors.As(err, &e)
}

// storeErr wraps err as a *cerr.StoreError, filling its Code from the
// smithy.APIError which may be found in the err chain.
func storeErr(op, table string, err error) error {
	se := &cerr.StoreError{Op: op, Table: table, Err: err}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		se.Code = ae.ErrorCode()
	}
	return se
}

// benign wraps the sentinel, keeping err text for the logs.
func benign(sentinel error, table string, err error) error {
	return fmt.Errorf("table %q: %w (%v)", table, sentinel, err)
}
