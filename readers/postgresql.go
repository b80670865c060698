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
	"database/sql"
	"fmt"
	"io"
	"time"

	fmssdg "github.com/sivasankalpp/fms-sdg"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresReaderError provides structured error information for Postgres
// source operations.
type PostgresReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan")
	Err error  // Underlying error
}

func (e *PostgresReaderError) Error() string {
	return fmt.Sprintf("postgres reader %s: %v", e.Op, e.Err)
}

func (e *PostgresReaderError) Unwrap() error {
	return e.Err
}

// PostgresReaderStats holds statistics about the Postgres source's progress.
type PostgresReaderStats struct {
	RowsRead        int64
	QueryDuration   time.Duration
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// PostgresReaderOptions configures the Postgres source.
type PostgresReaderOptions struct {
	Driver          string        // database/sql driver name
	DSN             string        // Database connection string
	Query           string        // SQL query producing the rows
	Params          []interface{} // Optional query parameters
	MaxOpenConns    int           // Maximum open connections
	MaxIdleConns    int           // Maximum idle connections
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Connection verification timeout
	TaskName        string        // When set, stamped into every row's task_name field
}

// PostgresReaderOption represents a configuration function for
// PostgresReaderOptions.
type PostgresReaderOption func(*PostgresReaderOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.DSN = dsn }
}

// WithPostgresDriver overrides the database/sql driver name. Defaults to
// "postgres" (lib/pq); useful when another registered driver serves the DSN.
func WithPostgresDriver(name string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.Driver = name }
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Query = query
		if len(params) > 0 {
			opts.Params = make([]interface{}, len(params))
			copy(opts.Params, params)
		}
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresQueryTimeout bounds connection verification at construction.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.QueryTimeout = timeout }
}

// WithPostgresTaskName stamps the task grouping field into every produced row.
func WithPostgresTaskName(name string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.TaskName = name }
}

func (opts *PostgresReaderOptions) withDefaults() *PostgresReaderOptions {
	result := &PostgresReaderOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.Driver == "" {
		result.Driver = "postgres"
	}
	if result.MaxOpenConns <= 0 {
		result.MaxOpenConns = 10
	}
	if result.MaxIdleConns <= 0 {
		result.MaxIdleConns = 5
	}
	if result.ConnMaxLifetime <= 0 {
		result.ConnMaxLifetime = 5 * time.Minute
	}
	if result.QueryTimeout <= 0 {
		result.QueryTimeout = 30 * time.Second
	}
	return result
}

// PostgresReader implements fmssdg.RowSource for PostgreSQL query results.
// The query is executed on construction and its result set streamed row by
// row.
type PostgresReader struct {
	db      *sql.DB
	rows    *sql.Rows
	columns []string
	stats   PostgresReaderStats
	opts    *PostgresReaderOptions
}

// NewPostgresReader connects, runs the configured query, and returns a source
// over its result set.
func NewPostgresReader(ctx context.Context, options ...PostgresReaderOption) (*PostgresReader, error) {
	opts := (&PostgresReaderOptions{}).withDefaults()
	for _, option := range options {
		option(opts)
	}

	if opts.DSN == "" {
		return nil, &PostgresReaderError{Op: "configure", Err: fmt.Errorf("dsn is required")}
	}
	if opts.Query == "" {
		return nil, &PostgresReaderError{Op: "configure", Err: fmt.Errorf("query is required")}
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, &PostgresReaderError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &PostgresReaderError{Op: "connect", Err: err}
	}

	// The result set outlives this constructor, and database/sql closes the
	// rows when their query context ends. The query therefore runs on the
	// caller's context; only the ping above is bounded by QueryTimeout.
	start := time.Now()
	rows, err := db.QueryContext(ctx, opts.Query, opts.Params...)
	if err != nil {
		db.Close()
		return nil, &PostgresReaderError{Op: "query", Err: err}
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, &PostgresReaderError{Op: "columns", Err: err}
	}

	return &PostgresReader{
		db:      db,
		rows:    rows,
		columns: columns,
		opts:    opts,
		stats: PostgresReaderStats{
			QueryDuration:   time.Since(start),
			NullValueCounts: make(map[string]int64),
		},
	}, nil
}

// Read implements the fmssdg.RowSource interface.
func (p *PostgresReader) Read(ctx context.Context) (fmssdg.Row, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &PostgresReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresReaderError{Op: "read", Err: err}
		}
		return nil, io.EOF
	}

	values := make([]interface{}, len(p.columns))
	pointers := make([]interface{}, len(p.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := p.rows.Scan(pointers...); err != nil {
		return nil, &PostgresReaderError{Op: "scan", Err: err}
	}

	row := make(fmssdg.Record, len(p.columns)+1)
	for i, column := range p.columns {
		value := values[i]
		// lib/pq surfaces text columns as []byte
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		if value == nil {
			p.stats.NullValueCounts[column]++
		}
		row[column] = value
	}
	if p.opts.TaskName != "" {
		row[fmssdg.TaskNameField] = p.opts.TaskName
	}

	p.stats.RowsRead++
	p.stats.LastReadTime = time.Now()
	p.stats.ReadDuration += time.Since(start)

	return row, nil
}

// Close implements the fmssdg.RowSource interface.
func (p *PostgresReader) Close() error {
	var firstErr error
	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			firstErr = err
		}
		p.rows = nil
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.db = nil
	}
	return firstErr
}

// Stats returns Postgres source progress stats.
func (p *PostgresReader) Stats() PostgresReaderStats {
	return p.stats
}
