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

// validator.go - boolean-verdict blocks with optional row filtering
package fmssdg

import (
	"context"
	"fmt"
)

// ValidatorBlock specializes Block for boolean-verdict transformations. Each
// row's projected values are handed to the Validator hook; the verdict is
// written into the row's result field. When configured with
// WithFilterInvalids(true), rows with a false verdict are instead dropped from
// the output, and their result field is deliberately left unwritten.
type ValidatorBlock struct {
	*Block
	validator      Validator
	filterInvalids bool
}

// NewValidatorBlock constructs a ValidatorBlock around the given hook.
// All Block options apply; WithFilterInvalids controls filtering.
func NewValidatorBlock(validator Validator, options ...BlockOption) *ValidatorBlock {
	cfg := blockConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	return &ValidatorBlock{
		Block:          &Block{cfg: cfg},
		validator:      validator,
		filterInvalids: cfg.filterInvalids,
	}
}

// ValidatorBlockFromConfig constructs a ValidatorBlock from loosely-typed
// configuration. In addition to the Block keys it recognizes "filter", which
// must be a boolean when present and defaults to false.
func ValidatorBlockFromConfig(validator Validator, config map[string]interface{}) (*ValidatorBlock, error) {
	opts, err := blockOptionsFromConfig(config)
	if err != nil {
		return nil, err
	}
	if raw, present := config["filter"]; present && raw != nil {
		filter, ok := raw.(bool)
		if !ok {
			return nil, &ConfigError{Option: "filter", Err: fmt.Errorf("must be a bool, got %T", raw)}
		}
		opts = append(opts, WithFilterInvalids(filter))
	}
	return NewValidatorBlock(validator, opts...), nil
}

// FilterInvalids reports whether rows with a false verdict are dropped.
func (vb *ValidatorBlock) FilterInvalids() bool {
	return vb.filterInvalids
}

// Generate runs the validator over the rows in input order, single pass. Rows
// that pass, or all rows when not filtering, are annotated with their verdict
// in the result field and returned with unchanged identity and relative order.
// Any projection, validation, or write failure aborts the call.
func (vb *ValidatorBlock) Generate(ctx context.Context, rows []Row, options ...GenerateOption) ([]Row, error) {
	opts := NewGenerateOptions(options...)

	outputs := make([]Row, 0, len(rows))
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		args, kwargs, err := vb.Project(row, opts.ArgFields, opts.KwargFields)
		if err != nil {
			return nil, err
		}

		valid, err := vb.validator.Validate(ctx, args, kwargs)
		if err != nil {
			return nil, err
		}

		if valid || !vb.filterInvalids {
			if err := vb.WriteResult(row, valid, opts.ResultField); err != nil {
				return nil, err
			}
			outputs = append(outputs, row)
		}
	}

	return outputs, nil
}
