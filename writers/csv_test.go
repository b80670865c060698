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

package writers

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// Mock writer that tracks close calls and can simulate failures
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	mu        sync.Mutex
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockWriteCloser) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Builder.String()
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{Builder: &strings.Builder{}}
}

func TestCSVWriter_BasicFunctionality(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)

	ctx := context.Background()
	row := fmssdg.Record{"id": 1, "name": "alice", "score": 92.5}

	require.NoError(t, writer.Write(ctx, row))
	require.NoError(t, writer.Close())

	reader := csv.NewReader(strings.NewReader(mock.String()))
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// Inferred headers are sorted
	assert.Equal(t, []string{"id", "name", "score"}, lines[0])
	assert.Equal(t, []string{"1", "alice", "92.5"}, lines[1])
	assert.True(t, mock.closed)
}

func TestCSVWriter_ExplicitHeaders(t *testing.T) {
	mock := newMockWriteCloser()
	headers := []string{"name", "id"}
	writer, err := NewCSVWriter(mock, WithHeaders(headers))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, fmssdg.Record{"id": 1, "name": "alice"}))
	require.NoError(t, writer.Close())

	reader := csv.NewReader(strings.NewReader(mock.String()))
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, headers, lines[0])
	assert.Equal(t, []string{"alice", "1"}, lines[1])
}

func TestCSVWriter_NoHeaders(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock,
		WithWriteHeader(false),
		WithHeaders([]string{"a", "b"}),
	)
	require.NoError(t, err)

	require.NoError(t, writer.Write(context.Background(), fmssdg.Record{"a": 1, "b": 2}))
	require.NoError(t, writer.Close())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "1,2", lines[0])
}

func TestCSVWriter_CustomDelimiter(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock,
		WithComma(';'),
		WithHeaders([]string{"a", "b"}),
	)
	require.NoError(t, err)

	require.NoError(t, writer.Write(context.Background(), fmssdg.Record{"a": "x", "b": "y"}))
	require.NoError(t, writer.Close())

	output := mock.String()
	assert.Contains(t, output, "a;b")
	assert.Contains(t, output, "x;y")
}

func TestCSVWriter_BatchedWrites(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock,
		WithCSVBatchSize(3),
		WithHeaders([]string{"id"}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, writer.Write(ctx, fmssdg.Record{"id": i}))
	}
	require.NoError(t, writer.Close())

	reader := csv.NewReader(strings.NewReader(mock.String()))
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 6)

	stats := writer.Stats()
	assert.Equal(t, int64(5), stats.RowsWritten)
	assert.GreaterOrEqual(t, stats.FlushCount, int64(2))
}

func TestCSVWriter_NullValueTracking(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock, WithHeaders([]string{"name", "email"}))
	require.NoError(t, err)

	ctx := context.Background()
	rows := []fmssdg.Record{
		{"name": "alice", "email": nil},
		{"name": nil, "email": nil},
	}
	for _, row := range rows {
		require.NoError(t, writer.Write(ctx, row))
	}
	require.NoError(t, writer.Close())

	stats := writer.Stats()
	assert.Equal(t, int64(2), stats.NullValueCounts["email"])
	assert.Equal(t, int64(1), stats.NullValueCounts["name"])

	reader := csv.NewReader(strings.NewReader(mock.String()))
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", ""}, lines[1])
	assert.Equal(t, []string{"", ""}, lines[2])
}

func TestCSVWriter_WriteAfterError(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock, WithHeaders([]string{"a"}))
	require.NoError(t, err)

	mock.failWrite = true
	ctx := context.Background()

	err = writer.Write(ctx, fmssdg.Record{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv writer")

	mock.failWrite = false
	err = writer.Write(ctx, fmssdg.Record{"a": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error state")
}

func TestCSVWriter_UnsupportedRow(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)

	err = writer.Write(context.Background(), 42)
	require.Error(t, err)

	var rowErr *fmssdg.UnsupportedRowError
	assert.ErrorAs(t, err, &rowErr)
}

func TestCSVWriter_WriteAllIntegration(t *testing.T) {
	mock := newMockWriteCloser()
	writer, err := NewCSVWriter(mock, WithHeaders([]string{"v"}))
	require.NoError(t, err)

	rows := []fmssdg.Row{
		fmssdg.Record{"v": 1},
		fmssdg.Record{"v": 2},
	}
	require.NoError(t, fmssdg.WriteAll(context.Background(), writer, rows))
	require.NoError(t, writer.Close())

	reader := csv.NewReader(strings.NewReader(mock.String()))
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}
