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
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// MongoReaderError provides structured error information for MongoDB source
// operations.
type MongoReaderError struct {
	Op         string // Operation that failed (e.g., "connect", "find", "decode")
	Collection string // Collection being accessed when the error occurred
	Err        error  // Underlying error
}

func (e *MongoReaderError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo reader %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderStats holds statistics about the MongoDB source's progress.
type MongoReaderStats struct {
	RowsRead     int64
	ReadDuration time.Duration
	LastReadTime time.Time
}

// MongoReaderOptions configures the MongoDB source.
type MongoReaderOptions struct {
	URI        string        // MongoDB connection URI
	Database   string        // Database name
	Collection string        // Collection name
	Filter     bson.M        // Query filter
	Projection bson.M        // Field projection
	Sort       bson.M        // Sort specification
	Limit      int64         // Maximum documents to read (0 = unlimited)
	BatchSize  int32         // Cursor batch size
	Timeout    time.Duration // Connect timeout
	TaskName   string        // When set, stamped into every row's task_name field
}

// MongoReaderOption is a functional option for MongoReaderOptions.
type MongoReaderOption func(*MongoReaderOptions)

func WithMongoURI(uri string) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.URI = uri }
}

func WithMongoDB(database string) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Filter = filter }
}

func WithMongoProjection(projection bson.M) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Projection = projection }
}

func WithMongoSort(sort bson.M) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Sort = sort }
}

func WithMongoLimit(limit int64) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Limit = limit }
}

func WithMongoBatchSize(size int32) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.BatchSize = size }
}

func WithMongoTimeout(timeout time.Duration) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.Timeout = timeout }
}

// WithMongoTaskName stamps the task grouping field into every produced row.
func WithMongoTaskName(name string) MongoReaderOption {
	return func(opts *MongoReaderOptions) { opts.TaskName = name }
}

func (opts *MongoReaderOptions) withDefaults() *MongoReaderOptions {
	result := &MongoReaderOptions{}
	if opts != nil {
		*result = *opts
	}
	if result.Filter == nil {
		result.Filter = bson.M{}
	}
	if result.BatchSize <= 0 {
		result.BatchSize = 1000
	}
	if result.Timeout <= 0 {
		result.Timeout = 10 * time.Second
	}
	return result
}

// MongoReader implements fmssdg.RowSource for MongoDB collections. A find
// query is issued on construction and its cursor streamed row by row; BSON
// documents decode into Records with driver primitives normalized to plain Go
// values.
type MongoReader struct {
	client *mongo.Client
	cursor *mongo.Cursor
	stats  MongoReaderStats
	opts   *MongoReaderOptions
}

// NewMongoReader connects to MongoDB, runs the configured find query, and
// returns a source over its cursor.
func NewMongoReader(ctx context.Context, readerOptions ...MongoReaderOption) (*MongoReader, error) {
	opts := (&MongoReaderOptions{}).withDefaults()
	for _, option := range readerOptions {
		option(opts)
	}

	if opts.URI == "" {
		return nil, &MongoReaderError{Op: "configure", Err: fmt.Errorf("uri is required")}
	}
	if opts.Database == "" || opts.Collection == "" {
		return nil, &MongoReaderError{Op: "configure", Err: fmt.Errorf("database and collection are required")}
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, &MongoReaderError{Op: "connect", Err: err}
	}

	findOpts := options.Find().SetBatchSize(opts.BatchSize)
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}
	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	collection := client.Database(opts.Database).Collection(opts.Collection)
	cursor, err := collection.Find(ctx, opts.Filter, findOpts)
	if err != nil {
		client.Disconnect(context.Background())
		return nil, &MongoReaderError{Op: "find", Collection: opts.Collection, Err: err}
	}

	return &MongoReader{
		client: client,
		cursor: cursor,
		opts:   opts,
	}, nil
}

// Read implements the fmssdg.RowSource interface.
func (m *MongoReader) Read(ctx context.Context) (fmssdg.Row, error) {
	start := time.Now()

	if !m.cursor.Next(ctx) {
		if err := m.cursor.Err(); err != nil {
			return nil, &MongoReaderError{Op: "read", Collection: m.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := m.cursor.Decode(&doc); err != nil {
		return nil, &MongoReaderError{Op: "decode", Collection: m.opts.Collection, Err: err}
	}

	row := make(fmssdg.Record, len(doc)+1)
	for key, value := range doc {
		row[key] = normalizeBSON(value)
	}
	if m.opts.TaskName != "" {
		row[fmssdg.TaskNameField] = m.opts.TaskName
	}

	m.stats.RowsRead++
	m.stats.LastReadTime = time.Now()
	m.stats.ReadDuration += time.Since(start)

	return row, nil
}

// Close implements the fmssdg.RowSource interface.
func (m *MongoReader) Close() error {
	ctx := context.Background()
	var firstErr error
	if m.cursor != nil {
		if err := m.cursor.Close(ctx); err != nil {
			firstErr = err
		}
		m.cursor = nil
	}
	if m.client != nil {
		if err := m.client.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		m.client = nil
	}
	return firstErr
}

// Stats returns MongoDB source progress stats.
func (m *MongoReader) Stats() MongoReaderStats {
	return m.stats
}

// normalizeBSON converts mongo-driver primitives into plain Go values so rows
// carry the same shapes regardless of source.
func normalizeBSON(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case primitive.Decimal128:
		return v.String()
	case bson.M:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalizeBSON(item)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeBSON(item)
		}
		return out
	default:
		return v
	}
}
