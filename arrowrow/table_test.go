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

package arrowrow

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// buildBatch creates a small three-row batch with one null in "score".
func buildBatch(t *testing.T) arrow.Record {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"alpha", "beta", "gamma"}, nil)
	builder.Field(2).(*array.Float64Builder).AppendValues([]float64{0.9, 0, 0.4}, []bool{true, false, true})

	batch := builder.NewRecord()
	t.Cleanup(func() { batch.Release() })
	return batch
}

func TestTableRow_Attr(t *testing.T) {
	batch := buildBatch(t)
	row := NewTableRow(batch, 0)

	id, err := row.Attr("id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	name, err := row.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)

	score, err := row.Attr("score")
	require.NoError(t, err)
	assert.Equal(t, 0.9, score)
}

func TestTableRow_NullReadsAsNil(t *testing.T) {
	batch := buildBatch(t)
	row := NewTableRow(batch, 1)

	score, err := row.Attr("score")
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestTableRow_MissingAttribute(t *testing.T) {
	batch := buildBatch(t)
	row := NewTableRow(batch, 0)

	_, err := row.Attr("nope")
	require.Error(t, err)

	var missingErr *fmssdg.MissingAttributeError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "nope", missingErr.Attr)
}

func TestTableRow_OverlayWrites(t *testing.T) {
	batch := buildBatch(t)
	row := NewTableRow(batch, 2)

	require.NoError(t, row.SetAttr("verdict", true))
	verdict, err := row.Attr("verdict")
	require.NoError(t, err)
	assert.Equal(t, true, verdict)

	// Overlay shadows the columnar data for existing names.
	require.NoError(t, row.SetAttr("name", "renamed"))
	name, err := row.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, "renamed", name)

	// The sibling rows over the same batch are untouched.
	other := NewTableRow(batch, 0)
	name, err = other.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)
}

func TestTableRow_Fields(t *testing.T) {
	batch := buildBatch(t)
	row := NewTableRow(batch, 0)
	require.NoError(t, row.SetAttr("verdict", false))

	fields := row.Fields()
	assert.Equal(t, fmssdg.Record{
		"id":      int64(1),
		"name":    "alpha",
		"score":   0.9,
		"verdict": false,
	}, fields)
}

func TestFromRecord(t *testing.T) {
	batch := buildBatch(t)
	rows := FromRecord(batch)
	require.Len(t, rows, 3)

	for i, want := range []int64{1, 2, 3} {
		value, err := fmssdg.GetField(rows[i], "id")
		require.NoError(t, err)
		assert.Equal(t, want, value)
	}
}

func TestTableRow_WithValidatorBlock(t *testing.T) {
	batch := buildBatch(t)
	rows := FromRecord(batch)

	scored := fmssdg.ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		score, ok := args[0].(float64)
		return ok && score >= 0.5, nil
	})
	block := fmssdg.NewValidatorBlock(scored,
		fmssdg.WithBlockArgFields([]string{"score"}),
		fmssdg.WithBlockResultField("keep"),
		fmssdg.WithFilterInvalids(true),
	)

	outputs, err := block.Generate(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	id, err := fmssdg.GetField(outputs[0], "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	keep, err := fmssdg.GetField(outputs[0], "keep")
	require.NoError(t, err)
	assert.Equal(t, true, keep)
}
