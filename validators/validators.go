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

// Package validators provides ready-made validator blocks for common data
// quality rules over generated rows: pattern matching, null checks, numeric
// ranges, and set membership. Each constructor accepts the usual block options
// (field routing, result field, filtering) and returns a configured
// fmssdg.ValidatorBlock.
package validators

import (
	"context"
	"regexp"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// NewRegexValidator creates a validator block whose verdict is true when every
// projected positional value is a string matching the pattern. Non-string
// values fail the row rather than erroring. The pattern must compile.
func NewRegexValidator(pattern string, options ...fmssdg.BlockOption) *fmssdg.ValidatorBlock {
	regex := regexp.MustCompile(pattern)
	hook := fmssdg.ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		for _, arg := range args {
			str, ok := arg.(string)
			if !ok || !regex.MatchString(str) {
				return false, nil
			}
		}
		return true, nil
	})
	return fmssdg.NewValidatorBlock(hook, options...)
}

// NewNotNullValidator creates a validator block whose verdict is true when
// every projected positional value is non-nil and, for strings, non-empty.
func NewNotNullValidator(options ...fmssdg.BlockOption) *fmssdg.ValidatorBlock {
	hook := fmssdg.ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		for _, arg := range args {
			if arg == nil {
				return false, nil
			}
			if str, ok := arg.(string); ok && str == "" {
				return false, nil
			}
		}
		return true, nil
	})
	return fmssdg.NewValidatorBlock(hook, options...)
}

// NewRangeValidator creates a validator block whose verdict is true when every
// projected positional value is numeric and falls within [min, max] inclusive.
func NewRangeValidator(min, max float64, options ...fmssdg.BlockOption) *fmssdg.ValidatorBlock {
	hook := fmssdg.ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		for _, arg := range args {
			num, ok := toFloat64(arg)
			if !ok || num < min || num > max {
				return false, nil
			}
		}
		return true, nil
	})
	return fmssdg.NewValidatorBlock(hook, options...)
}

// NewSetValidator creates a validator block whose verdict is true when every
// projected positional value is a member of the allowed set.
func NewSetValidator(allowed []interface{}, options ...fmssdg.BlockOption) *fmssdg.ValidatorBlock {
	valueSet := make(map[interface{}]bool, len(allowed))
	for _, v := range allowed {
		valueSet[v] = true
	}
	hook := fmssdg.ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		for _, arg := range args {
			if !valueSet[arg] {
				return false, nil
			}
		}
		return true, nil
	})
	return fmssdg.NewValidatorBlock(hook, options...)
}

// toFloat64 converts the numeric types rows typically carry to float64.
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
