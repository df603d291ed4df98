// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer represents a released semantic version, consisting of three
// components. First component indicates the major version. Incrementing
// it represents backward-incompatible changes. Second component is the
// minor version which represents backward compatible additions. The
// last component is the patch version which represents fixes that are
// invisible in the versioned format.
//
// It is used for versioning the configuration file format, so a binary
// can reject files which were written for an incompatible release.
type SemVer [3]uint

// UnmarshalText deserializes text byte slice as a string consisting of
// up to three dot-separated numbers and fills the sv SemVer instance.
// Missing components are taken as zero. In case of errors, sv will be
// left unchanged.
func (sv *SemVer) UnmarshalText(text []byte) (err error) {
	p := strings.Split(string(text), ".")
	l := len(p)
	if l == 0 || l > 3 {
		return fmt.Errorf("the %q has wrong number of components", text)
	}
	var v [3]int
	for i := 0; i < l; i++ {
		v[i], err = strconv.Atoi(p[i])
		if err != nil {
			return fmt.Errorf("the %q component is not numeric", p[i])
		}
		if v[i] < 0 {
			return fmt.Errorf("the %q component is negative", p[i])
		}
	}
	(*sv)[0] = uint(v[0])
	(*sv)[1] = uint(v[1])
	(*sv)[2] = uint(v[2])
	return nil
}

// MarshalText implements encoding.TextMarshaler interface and
// serializes `sv` semantic version as its string representation.
func (sv SemVer) MarshalText() ([]byte, error) {
	return []byte(sv.String()), nil
}

// String returns the sv semantic version as a dot-separated string
// like major.minor.patch.
func (sv SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", sv[0], sv[1], sv[2])
}

// CompatibleWith returns an error if sv can not be read by a release
// which supports the major.minor version. That is, the major versions
// must be equal and sv minor version must not be newer than minor.
func (sv SemVer) CompatibleWith(major, minor uint) error {
	if sv[0] != major {
		return fmt.Errorf("incompatible major version: %d", sv[0])
	}
	if sv[1] > minor {
		return fmt.Errorf("unsupported minor version: %d", sv[1])
	}
	return nil
}
