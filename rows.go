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

// rows.go - uniform field access across the two row representations
package fmssdg

// TaskNameField is the conventional grouping field carried by generated rows.
// Downstream orchestration uses it to route rows back to their task.
const TaskNameField = "task_name"

// GetField extracts a named field from a row regardless of its representation.
// Mapping-style rows are permissive: a missing key yields (nil, nil).
// Attribute-style rows fail with a MissingAttributeError for absent attributes.
// Any other row type fails with an UnsupportedRowError.
func GetField(row Row, field string) (interface{}, error) {
	switch r := row.(type) {
	case Record:
		return r[field], nil
	case map[string]interface{}:
		return r[field], nil
	case AttributeRow:
		return r.Attr(field)
	default:
		return nil, &UnsupportedRowError{Row: row}
	}
}

// SetField assigns a value to a named field on a row, creating the field if it
// is absent. The row is mutated in place; this is the only write channel blocks
// use. Rows that are neither mapping-style nor attribute-style fail with an
// UnsupportedRowError.
func SetField(row Row, field string, value interface{}) error {
	switch r := row.(type) {
	case Record:
		r[field] = value
		return nil
	case map[string]interface{}:
		r[field] = value
		return nil
	case AttributeRow:
		return r.SetAttr(field, value)
	default:
		return &UnsupportedRowError{Row: row}
	}
}

// TaskName returns the row's grouping key (the TaskNameField field), trying
// mapping lookup first and falling back to attribute lookup. Mapping-style rows
// without the field yield nil; attribute-style rows without it fail.
func TaskName(row Row) (interface{}, error) {
	return GetField(row, TaskNameField)
}
