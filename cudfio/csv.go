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

package cudfio

import (
	"context"
	"io"

	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/apache/arrow/go/v17/arrow/csv"
)

// ReadCSV reads comma separated values. Without WithSchema the column
// types are inferred from the data and the names come from the header
// line.
func ReadCSV(ctx context.Context, r io.Reader, opts ...Option) (*column.Table, []string, error) {
	cfg := newConfig(opts)
	copts := []csv.Option{
		csv.WithAllocator(arrowAllocator(ctx)),
		csv.WithChunk(cfg.chunk),
		csv.WithComma(cfg.comma),
		csv.WithHeader(cfg.header),
		csv.WithNullReader(true, cfg.nullValues...),
	}
	var rdr *csv.Reader
	if cfg.schema != nil {
		rdr = csv.NewReader(r, cfg.schema, copts...)
	} else {
		rdr = csv.NewInferringReader(r, copts...)
	}
	defer rdr.Release()
	return interop.ReadRecords(ctx, rdr)
}

// WriteCSV writes t with a header line of names. Null values are written
// as empty fields.
func WriteCSV(ctx context.Context, w io.Writer, t *column.Table, names []string, opts ...Option) error {
	cfg := newConfig(opts)
	rec, err := interop.ExportTable(ctx, t, names)
	if err != nil {
		return err
	}
	defer rec.Release()

	cw := csv.NewWriter(w, rec.Schema(),
		csv.WithComma(cfg.comma),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)
	if err := cw.Write(rec); err != nil {
		return err
	}
	return cw.Flush()
}
