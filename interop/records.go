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

	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/go-kit/log/level"
)

// ReadRecords drains rr into one table and returns it with the field names
// of the reader schema. Record batches are imported without copying and
// then concatenated.
func ReadRecords(ctx context.Context, rr array.RecordReader) (out *column.Table, names []string, err error) {
	defer recoverOOM(&err)

	var parts []*column.Table
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()
	for rr.Next() {
		t, err := ImportTable(ctx, rr.Record())
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, t)
	}
	if err := rr.Err(); err != nil {
		return nil, nil, err
	}
	level.Debug(compute.GetExecCtx(ctx).Logger).Log("msg", "read record batches", "batches", len(parts))
	out, err = tableFromParts(ctx, rr.Schema(), parts)
	if err != nil {
		return nil, nil, err
	}
	return out, FieldNames(rr.Schema()), nil
}

func FieldNames(s *arrow.Schema) []string {
	names := make([]string, s.NumFields())
	for i, f := range s.Fields() {
		names[i] = f.Name
	}
	return names
}

// tableFromParts concatenates record batch tables, producing empty columns
// of the schema types when there are none.
func tableFromParts(ctx context.Context, s *arrow.Schema, parts []*column.Table) (*column.Table, error) {
	switch len(parts) {
	case 0:
		cols := make([]*column.Column, 0, s.NumFields())
		for _, f := range s.Fields() {
			dt, err := TypeOf(f)
			if err == nil {
				var col *column.Column
				if col, err = column.NewEmpty(compute.GetAllocator(ctx), dt); err == nil {
					cols = append(cols, col)
					continue
				}
			}
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		return column.TableOf(cols...)
	case 1:
		parts[0].Retain()
		return parts[0], nil
	}
	return compute.ConcatenateTables(ctx, parts...)
}
