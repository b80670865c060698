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

package readers

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	fmssdg "github.com/sivasankalpp/fms-sdg"
	"github.com/sivasankalpp/fms-sdg/arrowrow"
)

// ParquetReaderError wraps structured error information for the Parquet
// source.
type ParquetReaderError struct {
	Op  string
	Err error
}

func (e *ParquetReaderError) Error() string {
	return fmt.Sprintf("parquet reader %s: %v", e.Op, e.Err)
}

func (e *ParquetReaderError) Unwrap() error {
	return e.Err
}

// ParquetReaderStats holds statistics about the Parquet source's progress.
type ParquetReaderStats struct {
	RowsRead     int64
	BatchesRead  int64
	ReadDuration time.Duration
	LastReadTime time.Time
}

// ParquetReaderOptions configures the Parquet source.
type ParquetReaderOptions struct {
	BatchSize int64    // Rows per Arrow batch
	Columns   []string // Optional column projection
	TaskName  string   // When set, stamped into every row's task_name field
}

// ParquetReaderOption is a functional option for ParquetReaderOptions.
type ParquetReaderOption func(*ParquetReaderOptions)

func WithParquetBatchSize(size int64) ParquetReaderOption {
	return func(opts *ParquetReaderOptions) { opts.BatchSize = size }
}

func WithParquetColumns(columns ...string) ParquetReaderOption {
	return func(opts *ParquetReaderOptions) { opts.Columns = columns }
}

// WithParquetTaskName stamps the task grouping field into every produced row.
func WithParquetTaskName(name string) ParquetReaderOption {
	return func(opts *ParquetReaderOptions) { opts.TaskName = name }
}

// batchSource is the slice of pqarrow.RecordReader the Parquet source
// consumes: batches are read one at a time and ownership passes to the
// caller.
type batchSource interface {
	Read() (arrow.Record, error)
	Release()
}

// ParquetReader implements fmssdg.RowSource for Parquet files. Unlike the
// other sources it produces attribute-style rows (arrowrow.TableRow) that
// view the underlying Arrow batches directly instead of copying values into
// maps. The batches stay alive until Close, so rows remain valid for the
// duration of the source.
type ParquetReader struct {
	fileHandle   *os.File
	recordReader batchSource
	batches      []arrow.Record
	currentRows  []fmssdg.Row
	currentIdx   int
	schema       *arrow.Schema
	stats        ParquetReaderStats
	opts         *ParquetReaderOptions
}

// NewParquetReader opens a Parquet file and prepares an Arrow record reader
// over it.
func NewParquetReader(filename string, options ...ParquetReaderOption) (*ParquetReader, error) {
	opts := &ParquetReaderOptions{BatchSize: 1024}
	for _, option := range options {
		option(opts)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetReaderError{Op: "open_file", Err: err}
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_reader", Err: err}
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader,
		pqarrow.ArrowReadProperties{BatchSize: opts.BatchSize}, memory.NewGoAllocator())
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "get_schema", Err: err}
	}

	var colIndices []int
	for _, name := range opts.Columns {
		indices := schema.FieldIndices(name)
		if len(indices) == 0 {
			f.Close()
			return nil, &ParquetReaderError{Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
		}
		colIndices = append(colIndices, indices[0])
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_record_reader", Err: err}
	}

	return &ParquetReader{
		fileHandle:   f,
		recordReader: recordReader,
		schema:       schema,
		opts:         opts,
	}, nil
}

// Read implements the fmssdg.RowSource interface.
func (p *ParquetReader) Read(ctx context.Context) (fmssdg.Row, error) {
	start := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(start)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &ParquetReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	for p.currentIdx >= len(p.currentRows) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &ParquetReaderError{Op: "load_batch", Err: err}
		}
	}

	row := p.currentRows[p.currentIdx]
	p.currentIdx++
	p.stats.RowsRead++

	if p.opts.TaskName != "" {
		if err := fmssdg.SetField(row, fmssdg.TaskNameField, p.opts.TaskName); err != nil {
			return nil, &ParquetReaderError{Op: "read", Err: err}
		}
	}

	return row, nil
}

// Close releases the retained Arrow batches and closes the underlying file.
// Rows produced by this source must not be used afterwards.
func (p *ParquetReader) Close() error {
	for _, batch := range p.batches {
		batch.Release()
	}
	p.batches = nil
	p.currentRows = nil

	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		return p.fileHandle.Close()
	}
	return nil
}

// Schema returns the Arrow schema of the Parquet file.
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// Stats returns Parquet source progress stats.
func (p *ParquetReader) Stats() ParquetReaderStats {
	return p.stats
}

// loadNextBatch advances to the next non-empty batch. Empty intermediate
// batches are released and skipped, not treated as end of file.
func (p *ParquetReader) loadNextBatch() error {
	for {
		rec, err := p.recordReader.Read()
		if err != nil {
			return err
		}
		if rec == nil {
			return io.EOF
		}
		if rec.NumRows() == 0 {
			rec.Release()
			continue
		}

		p.batches = append(p.batches, rec)
		p.currentRows = arrowrow.FromRecord(rec)
		p.currentIdx = 0
		p.stats.BatchesRead++
		return nil
	}
}
