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

// Package writers provides fmssdg.RowSink implementations that persist rows
// produced by blocks: CSV and line-delimited JSON. Both row representations
// are accepted; attribute-style rows are materialized through their Fields
// method before serialization.
package writers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// CSVWriterError wraps CSV-specific write errors with context.
type CSVWriterError struct {
	Op  string
	Err error
}

func (e *CSVWriterError) Error() string {
	return fmt.Sprintf("csv writer %s: %v", e.Op, e.Err)
}

func (e *CSVWriterError) Unwrap() error {
	return e.Err
}

// CSVWriterStats holds CSV write performance statistics.
type CSVWriterStats struct {
	RowsWritten     int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// CSVWriterOptions configures CSV output.
type CSVWriterOptions struct {
	Comma       rune
	UseCRLF     bool
	WriteHeader bool
	Headers     []string
	BatchSize   int
}

// CSVWriterOption is a functional option for CSVWriterOptions.
type CSVWriterOption func(*CSVWriterOptions)

func WithHeaders(headers []string) CSVWriterOption {
	return func(opts *CSVWriterOptions) {
		opts.Headers = append([]string(nil), headers...)
	}
}

func WithComma(delim rune) CSVWriterOption {
	return func(opts *CSVWriterOptions) { opts.Comma = delim }
}

func WithWriteHeader(write bool) CSVWriterOption {
	return func(opts *CSVWriterOptions) { opts.WriteHeader = write }
}

func WithCSVBatchSize(size int) CSVWriterOption {
	return func(opts *CSVWriterOptions) { opts.BatchSize = size }
}

func WithUseCRLF(useCRLF bool) CSVWriterOption {
	return func(opts *CSVWriterOptions) { opts.UseCRLF = useCRLF }
}

// CSVWriter implements fmssdg.RowSink for CSV output with stats and batching.
// When no explicit headers are configured, the column set is inferred from the
// first row's fields, sorted for determinism.
type CSVWriter struct {
	writer      *csv.Writer
	closer      io.Closer
	options     CSVWriterOptions
	headers     []string
	rowBuf      []fmssdg.Record
	stats       CSVWriterStats
	wroteHeader bool
	errorState  bool
	mu          sync.Mutex
}

// NewCSVWriter creates a new CSV sink over the given destination.
func NewCSVWriter(w io.WriteCloser, opts ...CSVWriterOption) (*CSVWriter, error) {
	options := CSVWriterOptions{
		Comma:       ',',
		WriteHeader: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF

	bufCap := options.BatchSize
	if bufCap < 1 {
		bufCap = 1
	}

	return &CSVWriter{
		writer:  cw,
		closer:  w,
		options: options,
		headers: append([]string(nil), options.Headers...),
		rowBuf:  make([]fmssdg.Record, 0, bufCap),
		stats:   CSVWriterStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// Write implements the fmssdg.RowSink interface.
func (c *CSVWriter) Write(ctx context.Context, row fmssdg.Row) error {
	record, err := materialize(row)
	if err != nil {
		return &CSVWriterError{Op: "write", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errorState {
		return &CSVWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}

	for k, v := range record {
		if v == nil {
			c.stats.NullValueCounts[k]++
		}
	}

	c.rowBuf = append(c.rowBuf, record)
	c.stats.RowsWritten++

	if !c.wroteHeader && c.options.WriteHeader {
		if len(c.headers) == 0 {
			for key := range record {
				c.headers = append(c.headers, key)
			}
			sort.Strings(c.headers)
		}
		if err := c.writer.Write(c.headers); err != nil {
			c.errorState = true
			return &CSVWriterError{Op: "write_header", Err: err}
		}
		c.wroteHeader = true
	}

	if c.options.BatchSize > 0 && len(c.rowBuf) >= c.options.BatchSize {
		if err := c.flushBufferUnsafe(); err != nil {
			c.errorState = true
			return &CSVWriterError{Op: "flush_batch", Err: err}
		}
	}

	return nil
}

// Flush implements the fmssdg.RowSink interface.
func (c *CSVWriter) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.flushBufferUnsafe(); err != nil {
		return &CSVWriterError{Op: "flush", Err: err}
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &CSVWriterError{Op: "flush_writer", Err: err}
	}
	return nil
}

// Close implements the fmssdg.RowSink interface.
func (c *CSVWriter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// flushBufferUnsafe writes buffered rows to CSV (must hold mutex).
func (c *CSVWriter) flushBufferUnsafe() error {
	if len(c.rowBuf) == 0 {
		return nil
	}

	start := time.Now()

	for _, record := range c.rowBuf {
		line := make([]string, len(c.headers))
		for i, key := range c.headers {
			if val, ok := record[key]; ok && val != nil {
				line[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := c.writer.Write(line); err != nil {
			return err
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return err
	}

	c.stats.FlushCount++
	c.stats.LastFlushTime = time.Now()
	c.stats.FlushDuration += time.Since(start)
	c.rowBuf = c.rowBuf[:0]

	return nil
}

// Stats returns write statistics.
func (c *CSVWriter) Stats() CSVWriterStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := c.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(c.stats.NullValueCounts))
	for k, v := range c.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// materialize flattens any supported row representation into a Record.
// Attribute rows must expose a Fields method (arrowrow.TableRow does).
func materialize(row fmssdg.Row) (fmssdg.Record, error) {
	switch r := row.(type) {
	case fmssdg.Record:
		return r, nil
	case map[string]interface{}:
		return r, nil
	case interface{ Fields() fmssdg.Record }:
		return r.Fields(), nil
	default:
		return nil, &fmssdg.UnsupportedRowError{Row: row}
	}
}
