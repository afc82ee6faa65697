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

package compute

import (
	"context"
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
)

// Transpose turns the rows of t into columns: output column j holds row j
// of every input column. All columns must share one fixed-width type.
func Transpose(ctx context.Context, t *column.Table) (out *column.Table, err error) {
	c, err := begin(ctx, "transpose", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "columns", t.NumColumns()) }()

	k, m := t.NumColumns(), t.NumRows()
	if k == 0 {
		return column.TableOf()
	}
	dt := t.Column(0).Type()
	nulls := false
	for _, col := range t.Columns() {
		if !col.Type().Equal(dt) {
			return nil, fmt.Errorf("%w: cannot transpose %s with %s", cudf.ErrTypeMismatch, dt, col.Type())
		}
		nulls = nulls || col.HasNulls()
	}
	if !dt.IsFixedWidth() {
		return nil, fmt.Errorf("%w: transpose of %s", cudf.ErrUnsupportedType, dt)
	}

	w := dt.Size()
	src := make([][]byte, k)
	for i, col := range t.Columns() {
		if m > 0 {
			src[i] = col.DataBytes()[col.Offset()*w:]
		}
	}
	cols := make([]*column.Column, m)
	err = c.tasks(m, func(j int) error {
		res, err := column.NewFixedWidth(c.mem, dt, k, nulls)
		if err != nil {
			return err
		}
		dst := res.DataBytes()
		mask := res.Mask()
		for i, col := range t.Columns() {
			copy(dst[i*w:(i+1)*w], src[i][j*w:(j+1)*w])
			if nulls && col.IsNull(j) {
				mask.SetValid(i, false)
			}
		}
		res.ResetNullCount()
		cols[j] = res
		return nil
	})
	if err != nil {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
		return nil, err
	}
	return column.TableOf(cols...)
}
