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

// block.go - field-routing contract shared by all blocks
package fmssdg

import "fmt"

// blockConfig collects the construction-time configuration shared by Block and
// its specializations. It is written once by the options and read thereafter.
type blockConfig struct {
	name           string
	blockType      string
	argFields      []string
	kwargFields    []string
	resultField    string
	filterInvalids bool
}

// BlockOption is a functional option applied at block construction.
type BlockOption func(*blockConfig)

// WithName sets the block's identifier.
func WithName(name string) BlockOption {
	return func(c *blockConfig) { c.name = name }
}

// WithBlockType sets the block's type label.
func WithBlockType(blockType string) BlockOption {
	return func(c *blockConfig) { c.blockType = blockType }
}

// WithBlockArgFields sets the ordered field names projected as positional
// arguments.
func WithBlockArgFields(fields []string) BlockOption {
	return func(c *blockConfig) { c.argFields = fields }
}

// WithBlockKwargFields sets the field names projected as keyword arguments.
func WithBlockKwargFields(fields []string) BlockOption {
	return func(c *blockConfig) { c.kwargFields = fields }
}

// WithBlockResultField sets the field the block writes its result into.
func WithBlockResultField(field string) BlockOption {
	return func(c *blockConfig) { c.resultField = field }
}

// WithFilterInvalids configures whether a validator block drops rows whose
// verdict is false. Only ValidatorBlock honors it; Block ignores it.
func WithFilterInvalids(filter bool) BlockOption {
	return func(c *blockConfig) { c.filterInvalids = filter }
}

// Block holds the static field-routing configuration every processing unit
// carries: which row fields feed the block's logic and which field receives
// its result. Block is not itself a Generator; concrete blocks embed it and
// supply Generate.
//
// Configuration is immutable after construction, so a Block may be shared by
// any number of concurrent Generate invocations over disjoint row collections.
type Block struct {
	cfg blockConfig
}

// NewBlock constructs a Block from typed functional options.
func NewBlock(options ...BlockOption) *Block {
	cfg := blockConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	return &Block{cfg: cfg}
}

// BlockFromConfig constructs a Block from loosely-typed configuration, as
// decoded from YAML or JSON. Recognized keys are "name", "type", "arg_fields",
// "kwarg_fields", and "result_field"; unknown keys are ignored so derived
// blocks can carry their own. A value of the wrong type fails immediately with
// a ConfigError naming the offending key.
func BlockFromConfig(config map[string]interface{}) (*Block, error) {
	opts, err := blockOptionsFromConfig(config)
	if err != nil {
		return nil, err
	}
	return NewBlock(opts...), nil
}

// blockOptionsFromConfig validates the shared configuration keys and converts
// them into construction options.
func blockOptionsFromConfig(config map[string]interface{}) ([]BlockOption, error) {
	var opts []BlockOption

	for _, key := range []string{"name", "type", "result_field"} {
		raw, present := config[key]
		if !present || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, &ConfigError{Option: key, Err: fmt.Errorf("must be a string, got %T", raw)}
		}
		switch key {
		case "name":
			opts = append(opts, WithName(s))
		case "type":
			opts = append(opts, WithBlockType(s))
		case "result_field":
			opts = append(opts, WithBlockResultField(s))
		}
	}

	for _, key := range []string{"arg_fields", "kwarg_fields"} {
		raw, present := config[key]
		if !present || raw == nil {
			continue
		}
		fields, err := stringList(raw)
		if err != nil {
			return nil, &ConfigError{Option: key, Err: err}
		}
		if key == "arg_fields" {
			opts = append(opts, WithBlockArgFields(fields))
		} else {
			opts = append(opts, WithBlockKwargFields(fields))
		}
	}

	return opts, nil
}

// stringList coerces a decoded configuration value into a []string. YAML and
// JSON decoders produce []interface{}, so both shapes are accepted.
func stringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		fields := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings, element %d is %T", i, item)
			}
			fields[i] = s
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("must be a list of strings, got %T", raw)
	}
}

// Name returns the block's identifier.
func (b *Block) Name() string {
	return b.cfg.name
}

// BlockType returns the block's type label.
func (b *Block) BlockType() string {
	return b.cfg.blockType
}

// ArgFields returns a copy of the configured positional-argument field names.
func (b *Block) ArgFields() []string {
	return copyFields(b.cfg.argFields)
}

// KwargFields returns a copy of the configured keyword-argument field names.
func (b *Block) KwargFields() []string {
	return copyFields(b.cfg.kwargFields)
}

// ResultField returns the configured result field name.
func (b *Block) ResultField() string {
	return b.cfg.resultField
}

func copyFields(fields []string) []string {
	if fields == nil {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Project resolves the effective argument and keyword field lists (per-call
// override first, then the stored configuration, then empty) and extracts the
// corresponding values from the row. Positional values come back in field
// order, duplicates included; keyword values come back keyed by field name.
// Missing mapping-style fields project as nil.
func (b *Block) Project(row Row, argFields, kwargFields []string) ([]interface{}, map[string]interface{}, error) {
	if argFields == nil {
		argFields = b.cfg.argFields
	}
	if kwargFields == nil {
		kwargFields = b.cfg.kwargFields
	}

	args := make([]interface{}, 0, len(argFields))
	for _, field := range argFields {
		value, err := GetField(row, field)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, value)
	}

	kwargs := make(map[string]interface{}, len(kwargFields))
	for _, field := range kwargFields {
		value, err := GetField(row, field)
		if err != nil {
			return nil, nil, err
		}
		kwargs[field] = value
	}

	return args, kwargs, nil
}

// WriteResult writes a block's outcome for one row into the effective result
// field (per-call override first, then the stored configuration). The row is
// mutated in place. Fails with ErrNoResultField when no result field is
// resolvable from either source.
func (b *Block) WriteResult(row Row, result interface{}, resultField string) error {
	field, err := b.resolveResultField(resultField)
	if err != nil {
		return err
	}
	return SetField(row, field, result)
}

// Result reads back the value in the effective result field, following the
// same resolution rule and precondition as WriteResult.
func (b *Block) Result(row Row, resultField string) (interface{}, error) {
	field, err := b.resolveResultField(resultField)
	if err != nil {
		return nil, err
	}
	return GetField(row, field)
}

func (b *Block) resolveResultField(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if b.cfg.resultField != "" {
		return b.cfg.resultField, nil
	}
	return "", ErrNoResultField
}
