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
	"github.com/apache/arrow/go/v17/arrow/avro"
)

// ReadAvro reads the records of an Avro object container file. The fields
// of the top-level record become the columns; nullable unions become
// nullable columns.
func ReadAvro(ctx context.Context, r io.Reader, opts ...Option) (*column.Table, []string, error) {
	cfg := newConfig(opts)
	rdr, err := avro.NewOCFReader(r,
		avro.WithAllocator(arrowAllocator(ctx)),
		avro.WithChunk(cfg.chunk),
	)
	if err != nil {
		return nil, nil, err
	}
	defer rdr.Release()
	return interop.ReadRecords(ctx, rdr)
}
