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

// Package transform provides generator blocks that derive new fields from
// existing ones. A MapBlock applies a row-wise function to the values routed
// by the block's field configuration and commits the outcome to the result
// field; every row survives, annotated in input order.
package transform

import (
	"context"
	"fmt"
	"strings"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// MapFunc computes a block's result from the values projected out of one row.
type MapFunc func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// MapBlock is a generator block wrapping a MapFunc. It implements
// fmssdg.Generator.
type MapBlock struct {
	*fmssdg.Block
	fn MapFunc
}

// NewMapBlock constructs a MapBlock around the given function.
func NewMapBlock(fn MapFunc, options ...fmssdg.BlockOption) *MapBlock {
	return &MapBlock{
		Block: fmssdg.NewBlock(options...),
		fn:    fn,
	}
}

// MapBlockFromConfig constructs a MapBlock from loosely-typed configuration,
// validating the shared block keys.
func MapBlockFromConfig(fn MapFunc, config map[string]interface{}) (*MapBlock, error) {
	block, err := fmssdg.BlockFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &MapBlock{Block: block, fn: fn}, nil
}

// Generate applies the function to every row in input order, writing each
// outcome into the resolved result field. All rows are returned with unchanged
// identity and order; any projection, function, or write failure aborts the
// call.
func (b *MapBlock) Generate(ctx context.Context, rows []fmssdg.Row, options ...fmssdg.GenerateOption) ([]fmssdg.Row, error) {
	opts := fmssdg.NewGenerateOptions(options...)

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		args, kwargs, err := b.Project(row, opts.ArgFields, opts.KwargFields)
		if err != nil {
			return nil, err
		}

		result, err := b.fn(ctx, args, kwargs)
		if err != nil {
			return nil, err
		}

		if err := b.WriteResult(row, result, opts.ResultField); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

// NewConcatBlock creates a MapBlock that joins the projected positional values
// with a separator into the result field. Non-string values are rendered with
// %v; nil values render as empty strings.
func NewConcatBlock(separator string, options ...fmssdg.BlockOption) *MapBlock {
	return NewMapBlock(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			if arg == nil {
				continue
			}
			if str, ok := arg.(string); ok {
				parts[i] = str
			} else {
				parts[i] = fmt.Sprintf("%v", arg)
			}
		}
		return strings.Join(parts, separator), nil
	}, options...)
}
