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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vIsOne passes rows whose first projected argument equals 1.
var vIsOne = ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
	return args[0] == 1, nil
})

func TestValidatorBlock_AnnotateWithoutFilter(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithName("is_one"),
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
	)
	rows := []Row{Record{"v": 1}, Record{"v": 0}}

	outputs, err := block.Generate(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, outputs, 2)
	assert.Equal(t, Record{"v": 1, "valid": true}, outputs[0])
	assert.Equal(t, Record{"v": 0, "valid": false}, outputs[1])
}

func TestValidatorBlock_FilterDropsInvalidRows(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
		WithFilterInvalids(true),
	)
	invalid := Record{"v": 0}
	rows := []Row{Record{"v": 1}, invalid}

	outputs, err := block.Generate(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	assert.Equal(t, Record{"v": 1, "valid": true}, outputs[0])

	// Dropped rows never have their result field written.
	assert.NotContains(t, invalid, "valid")
}

func TestValidatorBlock_PreservesOrderAndIdentity(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
	)
	first := Record{"v": 1, "id": "a"}
	second := Record{"v": 0, "id": "b"}
	third := Record{"v": 1, "id": "c"}

	outputs, err := block.Generate(context.Background(), []Row{first, second, third})
	require.NoError(t, err)

	require.Len(t, outputs, 3)
	assert.Equal(t, "a", outputs[0].(Record)["id"])
	assert.Equal(t, "b", outputs[1].(Record)["id"])
	assert.Equal(t, "c", outputs[2].(Record)["id"])

	// Rows are mutated in place, not copied.
	assert.Equal(t, true, first["valid"])
	outputs[0].(Record)["tag"] = "x"
	assert.Equal(t, "x", first["tag"])
}

func TestValidatorBlock_PerCallOverrides(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"other"}),
		WithBlockResultField("valid"),
	)
	row := Record{"v": 1, "other": 0}

	outputs, err := block.Generate(context.Background(), []Row{row},
		WithArgFields([]string{"v"}),
		WithResultField("verdict"),
	)
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	assert.Equal(t, true, row["verdict"])
	assert.NotContains(t, row, "valid")

	// The stored configuration is untouched by the overrides.
	assert.Equal(t, []string{"other"}, block.ArgFields())
	assert.Equal(t, "valid", block.ResultField())
}

func TestValidatorBlock_Deterministic(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
	)

	run := func() []Row {
		rows := []Row{Record{"v": 1}, Record{"v": 0}}
		outputs, err := block.Generate(context.Background(), rows)
		require.NoError(t, err)
		return outputs
	}

	assert.Equal(t, run(), run())
}

func TestValidatorBlock_KwargProjection(t *testing.T) {
	var seen map[string]interface{}
	hook := ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		seen = kwargs
		return true, nil
	})
	block := NewValidatorBlock(hook,
		WithBlockKwargFields([]string{"threshold", "absent"}),
		WithBlockResultField("valid"),
	)

	_, err := block.Generate(context.Background(), []Row{Record{"threshold": 0.5}})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"threshold": 0.5, "absent": nil}, seen)
}

func TestValidatorBlock_HookErrorAbortsCall(t *testing.T) {
	hookErr := errors.New("scoring backend unavailable")
	calls := 0
	hook := ValidatorFunc(func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
		calls++
		return false, hookErr
	})
	block := NewValidatorBlock(hook, WithBlockResultField("valid"))

	outputs, err := block.Generate(context.Background(), []Row{Record{}, Record{}})
	assert.ErrorIs(t, err, hookErr)
	assert.Nil(t, outputs)
	assert.Equal(t, 1, calls)
}

func TestValidatorBlock_MissingResultField(t *testing.T) {
	block := NewValidatorBlock(vIsOne, WithBlockArgFields([]string{"v"}))

	_, err := block.Generate(context.Background(), []Row{Record{"v": 1}})
	assert.ErrorIs(t, err, ErrNoResultField)
}

func TestValidatorBlock_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
	)

	_, err := block.Generate(ctx, []Row{Record{"v": 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidatorBlock_AttributeRows(t *testing.T) {
	block := NewValidatorBlock(vIsOne,
		WithBlockArgFields([]string{"v"}),
		WithBlockResultField("valid"),
		WithFilterInvalids(true),
	)
	keep := &fakeAttrRow{attrs: map[string]interface{}{"v": 1}}
	drop := &fakeAttrRow{attrs: map[string]interface{}{"v": 2}}

	outputs, err := block.Generate(context.Background(), []Row{keep, drop})
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	verdict, err := keep.Attr("valid")
	require.NoError(t, err)
	assert.Equal(t, true, verdict)

	_, err = drop.Attr("valid")
	assert.Error(t, err)
}

func TestValidatorBlockFromConfig(t *testing.T) {
	t.Run("filter_flag", func(t *testing.T) {
		block, err := ValidatorBlockFromConfig(vIsOne, map[string]interface{}{
			"name":         "is_one",
			"arg_fields":   []interface{}{"v"},
			"result_field": "valid",
			"filter":       true,
		})
		require.NoError(t, err)
		assert.True(t, block.FilterInvalids())
	})

	t.Run("filter_defaults_false", func(t *testing.T) {
		block, err := ValidatorBlockFromConfig(vIsOne, map[string]interface{}{})
		require.NoError(t, err)
		assert.False(t, block.FilterInvalids())
	})

	t.Run("filter_not_a_bool", func(t *testing.T) {
		_, err := ValidatorBlockFromConfig(vIsOne, map[string]interface{}{"filter": "yes"})
		require.Error(t, err)

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "filter", cfgErr.Option)
	})
}
