// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings contains the value types and default filling helpers
// which are shared by the versioned config packages. Optional settings
// are kept as pointers, so an absent YAML key can be told apart from an
// explicit zero value and be replaced by its default.
package settings

// Nil2Zero makes the nil (*t) pointer point to a zero T value.
// A non-nil (*t) is left unchanged.
func Nil2Zero[T any](t **T) {
	if (*t) != nil {
		return
	}
	var zero T
	(*t) = &zero
}

// OverwriteNil makes the nil (*dst) pointer point to a copy of (*src).
// Nothing is changed if (*dst) is already set or if src is nil, so
// the default src value never replaces a value read from the file.
func OverwriteNil[T any](dst **T, src *T) {
	if (*dst) != nil || src == nil {
		return
	}
	t := *src
	(*dst) = &t
}
