// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Duration is a specialization of the time.Duration which can be read
// from YAML files and environment variables in the time.ParseDuration
// format and produces a more human-readable representation when it is
// marshaled.
type Duration time.Duration

// UnmarshalText reifies the encoding.TextUnmarshaler interface, so
// a byte slice (e.g., read from a YAML file or an environment variable)
// can be decoded as a time duration. The format of the `data` argument
// should conform to the time.ParseDuration expected format. Negative
// durations are rejected. In absence of errors, `d` receiver will be
// updated to contain the decoded duration.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	if dd < 0 {
		return fmt.Errorf("negative duration: %s", data)
	}
	*d = Duration(dd)
	return nil
}

// Marshal returns a string representation of the `d` time duration
// or nil if d is nil.
// Durations are encoded according to the time.Duration format, e.g.,
// 2h3m4s, but zero trailing components are dropped, so 2m is written
// instead of 2m0s. A zero duration is encoded as 0s.
func (d *Duration) Marshal() *string {
	if d == nil {
		return nil
	}
	s := (*time.Duration)(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return &s
}

// MarshalText implements encoding.TextMarshaler interface and
// serializes `d` duration using its Marshal method.
// This interface is required for json serialization.
func (d *Duration) MarshalText() ([]byte, error) {
	if s := d.Marshal(); s != nil {
		return []byte(*s), nil
	}
	return nil, errors.New("nil duration")
}

// Std returns d as a time.Duration. A nil d is taken as zero.
func (d *Duration) Std() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

// LogValue implements slog.LogValuer and returns a DurationValue if
// this Duration is not nil, otherwise, it returns a StringValue with
// the constant "nil-duration" value.
func (d *Duration) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("nil-duration")
	}
	return slog.DurationValue(time.Duration(*d))
}
