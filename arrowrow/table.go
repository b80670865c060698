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

// Package arrowrow adapts Apache Arrow record batches to the fmssdg row model.
//
// A TableRow is one position of an arrow.Record viewed as an attribute-bearing
// row: columns resolve as named attributes, and writes land in a per-row
// overlay since Arrow memory is immutable. Blocks can therefore annotate
// Arrow-backed rows in place exactly like mapping-style records.
package arrowrow

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// TableRow is an attribute-style view over one row of an Arrow record batch.
// It implements fmssdg.AttributeRow. The batch is shared, not copied; its
// lifetime (Retain/Release) stays with whoever produced it.
type TableRow struct {
	batch   arrow.Record
	pos     int
	columns map[string]int
	overlay fmssdg.Record
}

// NewTableRow wraps a single position of a batch as a row.
func NewTableRow(batch arrow.Record, pos int) *TableRow {
	return &TableRow{
		batch:   batch,
		pos:     pos,
		columns: columnIndex(batch.Schema()),
		overlay: make(fmssdg.Record),
	}
}

// FromRecord fans a batch out into one row per position, in batch order.
// The rows share the batch and a single column index map.
func FromRecord(batch arrow.Record) []fmssdg.Row {
	columns := columnIndex(batch.Schema())
	rows := make([]fmssdg.Row, batch.NumRows())
	for pos := range rows {
		rows[pos] = &TableRow{
			batch:   batch,
			pos:     pos,
			columns: columns,
			overlay: make(fmssdg.Record),
		}
	}
	return rows
}

// Attr implements fmssdg.AttributeRow. Overlay writes shadow the columnar
// data; an attribute found in neither fails with a MissingAttributeError.
func (r *TableRow) Attr(name string) (interface{}, error) {
	if value, ok := r.overlay[name]; ok {
		return value, nil
	}
	idx, ok := r.columns[name]
	if !ok {
		return nil, &fmssdg.MissingAttributeError{Attr: name}
	}
	return columnValue(r.batch.Column(idx), r.pos), nil
}

// SetAttr implements fmssdg.AttributeRow. The underlying batch is immutable,
// so all writes, including to existing column names, go to the overlay.
func (r *TableRow) SetAttr(name string, value interface{}) error {
	r.overlay[name] = value
	return nil
}

// Fields materializes the row as a Record: every column value plus any
// overlay writes, with the overlay winning on name clashes.
func (r *TableRow) Fields() fmssdg.Record {
	res := make(fmssdg.Record, len(r.columns)+len(r.overlay))
	for name, idx := range r.columns {
		res[name] = columnValue(r.batch.Column(idx), r.pos)
	}
	for name, value := range r.overlay {
		res[name] = value
	}
	return res
}

func columnIndex(schema *arrow.Schema) map[string]int {
	columns := make(map[string]int, len(schema.Fields()))
	for i, field := range schema.Fields() {
		columns[field.Name] = i
	}
	return columns
}

// columnValue extracts the Go value at one position of an Arrow column.
// Nulls come back as nil, matching the permissive mapping-row convention.
func columnValue(col arrow.Array, pos int) interface{} {
	if col.IsNull(pos) {
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(pos)
	case *array.Int8:
		return arr.Value(pos)
	case *array.Int16:
		return arr.Value(pos)
	case *array.Int32:
		return arr.Value(pos)
	case *array.Int64:
		return arr.Value(pos)
	case *array.Uint8:
		return arr.Value(pos)
	case *array.Uint16:
		return arr.Value(pos)
	case *array.Uint32:
		return arr.Value(pos)
	case *array.Uint64:
		return arr.Value(pos)
	case *array.Float32:
		return arr.Value(pos)
	case *array.Float64:
		return arr.Value(pos)
	case *array.String:
		return arr.Value(pos)
	case *array.Binary:
		return arr.Value(pos)
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(pos).ToTime(unit)
	case *array.Date32:
		return arr.Value(pos).ToTime()
	case *array.Date64:
		return arr.Value(pos).ToTime()
	default:
		return col.GetOneForMarshal(pos)
	}
}
