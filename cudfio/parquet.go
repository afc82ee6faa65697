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
	"fmt"
	"io"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

// ReadParquet reads every row group of a Parquet file.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, opts ...Option) (*column.Table, []string, error) {
	cfg := newConfig(opts)
	mem := arrowAllocator(ctx)
	tbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{Parallel: true}, mem)
	if err != nil {
		return nil, nil, err
	}
	defer tbl.Release()

	rdr := array.NewTableReader(tbl, int64(cfg.chunk))
	defer rdr.Release()
	return interop.ReadRecords(ctx, rdr)
}

var parquetCodecs = map[memory.Codec]compress.Compression{
	memory.CodecNone:   compress.Codecs.Uncompressed,
	memory.CodecSnappy: compress.Codecs.Snappy,
	memory.CodecLZ4:    compress.Codecs.Lz4,
	memory.CodecZstd:   compress.Codecs.Zstd,
	memory.CodecBrotli: compress.Codecs.Brotli,
}

// WriteParquet writes t as a Parquet file with one row group per chunk of
// rows. The Arrow schema is stored in the file so that types without a
// Parquet counterpart read back unchanged.
func WriteParquet(ctx context.Context, w io.Writer, t *column.Table, names []string, opts ...Option) error {
	cfg := newConfig(opts)
	codec, ok := parquetCodecs[cfg.codec]
	if !ok {
		return fmt.Errorf("%w: parquet codec %q", cudf.ErrInvalidArgument, cfg.codec)
	}
	rec, err := interop.ExportTable(ctx, t, names)
	if err != nil {
		return err
	}
	defer rec.Release()
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	mem := arrowAllocator(ctx)
	props := parquet.NewWriterProperties(
		parquet.WithAllocator(mem),
		parquet.WithCompression(codec),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)
	return pqarrow.WriteTable(tbl, w, int64(cfg.chunk), props, arrowProps)
}
