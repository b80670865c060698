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

// Package fmssdg defines the core row and block abstractions for the fms-sdg
// synthetic data generation library.
//
// A block is a named, configured processing unit that maps a collection of rows
// to a transformed collection of rows. Blocks declare which named fields of a
// row they consume as positional arguments, which they consume as keyword
// arguments, and which field receives their result, decoupling a block's logic
// from the concrete shape of the rows it is handed.
//
// Rows are polymorphic: a row is either a Record (a map from field name to
// value) or any type implementing AttributeRow (a named-attribute view over
// tabular data, such as one position of an Arrow record batch). The free
// functions GetField, SetField, and TaskName dispatch over both representations.
package fmssdg

import (
	"context"
	"io"
)

// Record represents a single mapping-style data row.
// Each record is a map from field names to values, supporting heterogeneous data.
type Record map[string]interface{}

// Row is one logical record handed to a block. Supported concrete types are
// Record (or a plain map[string]interface{}) and implementations of
// AttributeRow; anything else fails field access with an UnsupportedRowError.
type Row interface{}

// AttributeRow is the attribute-bearing row representation. Unlike Record
// lookups, which silently yield nil for missing fields, Attr fails when the
// named attribute does not exist.
type AttributeRow interface {
	// Attr returns the value of the named attribute, or a MissingAttributeError
	// if the row has no such attribute.
	Attr(name string) (interface{}, error)
	// SetAttr assigns a value to the named attribute, creating it if absent.
	SetAttr(name string, value interface{}) error
}

// Generator is the contract every block satisfies. Generate is the sole public
// entry point: it consumes a caller-owned row collection and returns the
// transformed (possibly filtered) collection. Rows are mutated in place when
// results are written, so the caller must not share a collection between
// concurrent Generate calls.
type Generator interface {
	// Generate processes the rows and returns the resulting collection.
	// Per-call routing overrides may be supplied via WithArgFields,
	// WithKwargFields, and WithResultField; they never mutate the block's
	// stored configuration.
	Generate(ctx context.Context, rows []Row, options ...GenerateOption) ([]Row, error)
}

// Validator is the hook a ValidatorBlock runs per row. It receives the values
// projected out of the row according to the block's field routing and returns
// the row's verdict. A returned error aborts the whole Generate call.
type Validator interface {
	Validate(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error)
}

// ValidatorFunc is a function adapter for the Validator interface.
// Allows ordinary functions to be used as validators.
type ValidatorFunc func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error)

// Validate implements the Validator interface for ValidatorFunc.
func (f ValidatorFunc) Validate(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (bool, error) {
	return f(ctx, args, kwargs)
}

// RowSource defines the interface for reading rows from an external source
// (e.g., CSV, JSON lines, PostgreSQL, MongoDB, S3, Parquet).
type RowSource interface {
	// Read returns the next row or io.EOF when no more rows are available.
	Read(ctx context.Context) (Row, error)
	// Close releases any resources held by the source.
	Close() error
}

// RowSink defines the interface for writing rows to an external destination.
type RowSink interface {
	// Write outputs a single row to the sink.
	Write(ctx context.Context, row Row) error
	// Flush ensures all buffered rows are written to the sink.
	Flush() error
	// Close releases any resources held by the sink.
	Close() error
}

// ReadAll drains a RowSource into a materialized row collection, preserving
// source order. The source is not closed; that remains the caller's job.
func ReadAll(ctx context.Context, src RowSource) ([]Row, error) {
	var rows []Row
	for {
		row, err := src.Read(ctx)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// WriteAll writes a row collection to a sink in order and flushes it.
func WriteAll(ctx context.Context, sink RowSink, rows []Row) error {
	for _, row := range rows {
		if err := sink.Write(ctx, row); err != nil {
			return err
		}
	}
	return sink.Flush()
}

// GenerateOptions carries the per-call field-routing overrides accepted by
// Generate. Zero values mean "fall back to the block's stored configuration".
type GenerateOptions struct {
	ArgFields   []string
	KwargFields []string
	ResultField string
}

// GenerateOption is a functional option for GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithArgFields overrides the positional-argument field names for one call.
func WithArgFields(fields []string) GenerateOption {
	return func(o *GenerateOptions) { o.ArgFields = fields }
}

// WithKwargFields overrides the keyword-argument field names for one call.
func WithKwargFields(fields []string) GenerateOption {
	return func(o *GenerateOptions) { o.KwargFields = fields }
}

// WithResultField overrides the result field name for one call.
func WithResultField(field string) GenerateOption {
	return func(o *GenerateOptions) { o.ResultField = field }
}

// NewGenerateOptions folds a list of options into a GenerateOptions value.
// Intended for Generate implementations in derived blocks.
func NewGenerateOptions(options ...GenerateOption) *GenerateOptions {
	opts := &GenerateOptions{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}
