//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 The fms-sdg authors
//
// This file is part of fms-sdg.
//
// fms-sdg is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// fms-sdg is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with fms-sdg. If not, see https://www.gnu.org/licenses/.

package fmssdg

import (
	"errors"
	"fmt"
)

// ErrNoResultField is returned when a result read or write is attempted but
// neither a per-call result field nor an instance-level one is configured.
// A block must be able to name where its result goes before writing.
var ErrNoResultField = errors.New("no result field configured")

// ConfigError reports a block configuration value of the wrong type.
// It is raised at construction time, never deferred to first use.
type ConfigError struct {
	Option string // Configuration key at fault (e.g., "arg_fields")
	Err    error  // Underlying type mismatch
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("block config %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnsupportedRowError reports a row that is neither a Record nor an
// AttributeRow when field projection or result I/O is attempted.
type UnsupportedRowError struct {
	Row Row // Offending row; the message names its concrete type
}

func (e *UnsupportedRowError) Error() string {
	return fmt.Sprintf("unexpected row type: %T", e.Row)
}

// MissingAttributeError reports an attribute absent from an attribute-style
// row. Mapping-style rows never produce it; their missing fields read as nil.
type MissingAttributeError struct {
	Attr string // Name of the absent attribute
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("row has no attribute %q", e.Attr)
}
