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
	"bufio"
	"context"
	"encoding/json"
	"io"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// JSONReader implements fmssdg.RowSource for line-delimited JSON data.
// Blank lines are skipped.
type JSONReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewJSONReader creates a new JSON lines source.
func NewJSONReader(r io.ReadCloser) *JSONReader {
	return &JSONReader{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}
}

// Read implements the fmssdg.RowSource interface.
func (j *JSONReader) Read(ctx context.Context) (fmssdg.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for j.scanner.Scan() {
		line := j.scanner.Text()
		if len(line) == 0 {
			continue
		}

		var row fmssdg.Record
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, err
		}
		return row, nil
	}

	if err := j.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close implements the fmssdg.RowSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
