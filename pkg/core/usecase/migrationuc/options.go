// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"errors"

	"github.com/momeni/ddbmig/pkg/core/model"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for the migration UseCase.
type Option func(uc *UseCase) error

// WithDirection option selects the files of the d direction to be
// applied. Files of the other direction are filtered out. The Up
// direction is used by default.
func WithDirection(d model.Direction) Option {
	return func(uc *UseCase) error {
		if d != model.Up && d != model.Down {
			return errors.New("unknown direction")
		}
		uc.direction = d
		return nil
	}
}

// WithClock option replaces the time.Now function.
func WithClock(c Clock) Option {
	return func(uc *UseCase) error {
		if c == nil {
			return errors.New("nil clock")
		}
		uc.now = c
		return nil
	}
}

// WithRunID option fixes the run identifier which is stored in the
// ledger records. A random UUID is generated for each run otherwise.
func WithRunID(id string) Option {
	return func(uc *UseCase) error {
		if id == "" {
			return errors.New("empty run id")
		}
		if uc.runID != "" {
			return errors.New("run id is already configured")
		}
		uc.runID = id
		return nil
	}
}

// WithTracer option replaces the tracer which is obtained from the
// global tracer provider by default.
func WithTracer(t trace.Tracer) Option {
	return func(uc *UseCase) error {
		if t == nil {
			return errors.New("nil tracer")
		}
		uc.tracer = t
		return nil
	}
}
