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

package interop

import (
	"context"
	"fmt"
	"io"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/ipc"
)

// IPCOptions configures WriteIPC.
type IPCOptions struct {
	// Names label the columns, see ExportTable.
	Names []string
	// Codec compresses record batch bodies. The IPC format supports lz4
	// and zstd.
	Codec memory.Codec
}

// WriteIPC writes t to w as an Arrow IPC stream of one record batch.
func WriteIPC(ctx context.Context, w io.Writer, t *column.Table, opts IPCOptions) (err error) {
	defer recoverOOM(&err)

	rec, err := ExportTable(ctx, t, opts.Names)
	if err != nil {
		return err
	}
	defer rec.Release()

	wopts := []ipc.Option{
		ipc.WithSchema(rec.Schema()),
		ipc.WithAllocator(ArrowAllocator(compute.GetAllocator(ctx))),
	}
	switch opts.Codec {
	case memory.CodecNone:
	case memory.CodecLZ4:
		wopts = append(wopts, ipc.WithLZ4())
	case memory.CodecZstd:
		wopts = append(wopts, ipc.WithZstd())
	default:
		return fmt.Errorf("%w: ipc codec %q", cudf.ErrInvalidArgument, opts.Codec)
	}
	wr := ipc.NewWriter(w, wopts...)
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}

// ReadIPC reads every record batch of the Arrow IPC stream in r into one
// table and returns it with the field names of the stream schema.
func ReadIPC(ctx context.Context, r io.Reader) (out *column.Table, names []string, err error) {
	defer recoverOOM(&err)

	rdr, err := ipc.NewReader(r, ipc.WithAllocator(ArrowAllocator(compute.GetAllocator(ctx))))
	if err != nil {
		return nil, nil, err
	}
	defer rdr.Release()
	return ReadRecords(ctx, rdr)
}
