// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"
)

// Valuer returns an Attr for the given slog.LogValuer value.
func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// File returns an Attr naming a migration file.
func File(name string) slog.Attr {
	return slog.String("file", name)
}

// Table returns an Attr naming a store table.
func Table(name string) slog.Attr {
	return slog.String("table", name)
}

// RunID returns an Attr for the identifier of a migration run.
func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

// Stringer returns an Attr which is resolved lazily by the String
// method of value, such as a model.OperationKind.
func Stringer(key string, value interface{ String() string }) slog.Attr {
	return slog.Any(key, stringerValuer{value})
}

type stringerValuer struct {
	s interface{ String() string }
}

func (sv stringerValuer) LogValue() slog.Value {
	return slog.StringValue(sv.s.String())
}
