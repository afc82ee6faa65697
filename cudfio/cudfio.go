// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cudfio reads columnar files into tables and writes tables back.
//
// Readers decode through the Apache Arrow readers for each format and hand
// the resulting record batches to interop.ReadRecords, so the decoded
// memory is adopted by the engine without another copy.
package cudfio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow"
	arrowmem "github.com/apache/arrow/go/v17/arrow/memory"
)

// DefaultChunkSize is the number of rows decoded per record batch.
const DefaultChunkSize = 1 << 16

type config struct {
	chunk      int
	schema     *arrow.Schema
	comma      rune
	header     bool
	nullValues []string
	inferRows  int
	codec      memory.Codec
}

func newConfig(opts []Option) *config {
	cfg := &config{
		chunk:      DefaultChunkSize,
		comma:      ',',
		header:     true,
		nullValues: []string{"", "NULL", "null"},
		inferRows:  1000,
		codec:      memory.CodecSnappy,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a reader or writer.
type Option func(*config)

// WithChunk sets the number of rows decoded per record batch.
func WithChunk(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.chunk = n
		}
	}
}

// WithSchema fixes the column names and types of a CSV or JSON file
// instead of inferring them.
func WithSchema(schema *arrow.Schema) Option {
	return func(cfg *config) { cfg.schema = schema }
}

// WithComma sets the CSV field delimiter.
func WithComma(c rune) Option {
	return func(cfg *config) { cfg.comma = c }
}

// WithHeader tells whether the first CSV line holds the column names.
func WithHeader(header bool) Option {
	return func(cfg *config) { cfg.header = header }
}

// WithNullValues sets the CSV field values read as null.
func WithNullValues(vals ...string) Option {
	return func(cfg *config) { cfg.nullValues = vals }
}

// WithInferRows bounds the JSON records inspected to infer a schema.
func WithInferRows(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.inferRows = n
		}
	}
}

// WithCodec sets the compression used by WriteParquet.
func WithCodec(codec memory.Codec) Option {
	return func(cfg *config) { cfg.codec = codec }
}

func arrowAllocator(ctx context.Context) arrowmem.Allocator {
	return interop.ArrowAllocator(compute.GetAllocator(ctx))
}

// Format is a file format known to ReadFile.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatAvro    Format = "avro"
)

// FormatOf picks the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".avro":
		return FormatAvro, nil
	}
	return "", fmt.Errorf("%w: unknown file format of %q", cudf.ErrInvalidArgument, path)
}

// ReadFile reads the file at path in the format given by its extension and
// returns the table with its column names.
func ReadFile(ctx context.Context, path string, opts ...Option) (*column.Table, []string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts = append([]Option{WithComma('\t')}, opts...)
		}
		return ReadCSV(ctx, f, opts...)
	case FormatJSON:
		return ReadJSON(ctx, f, opts...)
	case FormatParquet:
		return ReadParquet(ctx, f, opts...)
	}
	return ReadAvro(ctx, f, opts...)
}
