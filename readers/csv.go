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

// Package readers provides fmssdg.RowSource implementations that feed blocks
// with rows from external data: CSV, JSON lines, PostgreSQL, MongoDB, S3
// objects, and Parquet files. Sources stream one row per Read call; use
// fmssdg.ReadAll to materialize a collection for a block's Generate.
package readers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// CSVReaderError wraps structured error information for the CSV source.
type CSVReaderError struct {
	Op  string
	Err error
}

func (e *CSVReaderError) Error() string {
	return fmt.Sprintf("csv reader %s: %v", e.Op, e.Err)
}

func (e *CSVReaderError) Unwrap() error {
	return e.Err
}

// CSVReaderStats holds statistics about the CSV source's progress.
type CSVReaderStats struct {
	RowsRead        int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// CSVReaderOptions configures the CSV source.
type CSVReaderOptions struct {
	Comma            rune
	Comment          rune
	LazyQuotes       bool
	TrimLeadingSpace bool
	HasHeaders       bool
	TaskName         string // When set, stamped into every row's task_name field
}

// CSVReaderOption allows functional customization of CSVReader.
type CSVReaderOption func(*CSVReaderOptions)

func WithCSVComma(r rune) CSVReaderOption {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

func WithCSVHasHeaders(hasHeaders bool) CSVReaderOption {
	return func(o *CSVReaderOptions) { o.HasHeaders = hasHeaders }
}

func WithCSVTrimSpace(trim bool) CSVReaderOption {
	return func(o *CSVReaderOptions) { o.TrimLeadingSpace = trim }
}

// WithCSVTaskName stamps the task grouping field into every produced row.
func WithCSVTaskName(name string) CSVReaderOption {
	return func(o *CSVReaderOptions) { o.TaskName = name }
}

// CSVReader implements fmssdg.RowSource for CSV data. Values are inferred as
// int, float, or bool where they parse, and empty cells read as nil.
type CSVReader struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	stats   CSVReaderStats
	opts    CSVReaderOptions
}

// NewCSVReader creates a CSVReader with default or overridden options.
func NewCSVReader(r io.ReadCloser, options ...CSVReaderOption) (*CSVReader, error) {
	opts := CSVReaderOptions{
		Comma:            ',',
		HasHeaders:       true,
		TrimLeadingSpace: true,
	}
	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace

	reader := &CSVReader{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  CSVReaderStats{NullValueCounts: make(map[string]int64)},
	}

	if opts.HasHeaders {
		headers, err := csvReader.Read()
		if err != nil {
			return nil, &CSVReaderError{Op: "read_headers", Err: err}
		}
		reader.headers = headers
	}

	return reader, nil
}

// Read implements the fmssdg.RowSource interface.
func (c *CSVReader) Read(ctx context.Context) (fmssdg.Row, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &CSVReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	fields, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CSVReaderError{Op: "read_row", Err: err}
	}

	row := make(fmssdg.Record, len(fields)+1)
	for i, val := range fields {
		key := c.fieldName(i)
		if strings.TrimSpace(val) == "" {
			c.stats.NullValueCounts[key]++
			row[key] = nil
		} else {
			row[key] = inferValue(val)
		}
	}
	if c.opts.TaskName != "" {
		row[fmssdg.TaskNameField] = c.opts.TaskName
	}

	c.stats.RowsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return row, nil
}

// Close implements the fmssdg.RowSource interface.
func (c *CSVReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV source progress stats.
func (c *CSVReader) Stats() CSVReaderStats {
	return c.stats
}

func (c *CSVReader) fieldName(i int) string {
	if i < len(c.headers) {
		return c.headers[i]
	}
	return "col_" + strconv.Itoa(i)
}

// inferValue attempts to parse int, float, or bool, falling back to string.
func inferValue(value string) interface{} {
	value = strings.TrimSpace(value)

	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
