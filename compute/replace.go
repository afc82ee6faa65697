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

// FillPolicy selects which valid neighbor FillNulls copies into a null row.
type FillPolicy int8

const (
	FillPreceding FillPolicy = iota
	FillFollowing
)

// ReplaceNulls returns col with every null row replaced by the matching row
// of repl, a scalar or a column of the same type and length. A row stays
// null when the replacement row is null too.
func ReplaceNulls(ctx context.Context, col *column.Column, repl Datum) (out *column.Column, err error) {
	c, err := begin(ctx, "replace_nulls", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "nulls", col.NullCount()) }()

	if !repl.Type().Equal(col.Type()) {
		return nil, fmt.Errorf("%w: cannot replace %s nulls with %s", cudf.ErrTypeMismatch, col.Type(), repl.Type())
	}
	n := col.Len()
	if repl.Kind() == KindColumn && repl.Len() != n {
		return nil, fmt.Errorf("%w: replacement of %d rows for %d rows", cudf.ErrShapeMismatch, repl.Len(), n)
	}
	if !col.HasNulls() {
		return c.concat([]*column.Column{col})
	}
	r, err := c.broadcast(repl, n)
	if err != nil {
		return nil, err
	}
	defer r.Release()
	both, err := c.concat([]*column.Column{col, r})
	if err != nil {
		return nil, err
	}
	defer both.Release()

	idx := make([]int32, n)
	err = c.forEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			idx[i] = int32(i)
			if col.IsNull(i) {
				idx[i] += int32(n)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return c.gather(both, idx, false)
}

// FillNulls replaces every null row of col with the nearest valid row
// before it (FillPreceding) or after it (FillFollowing). Rows with no such
// neighbor stay null.
func FillNulls(ctx context.Context, col *column.Column, policy FillPolicy) (out *column.Column, err error) {
	c, err := begin(ctx, "fill_nulls", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "nulls", col.NullCount()) }()

	if policy != FillPreceding && policy != FillFollowing {
		return nil, fmt.Errorf("%w: fill policy %d", cudf.ErrInvalidArgument, policy)
	}
	n := col.Len()
	if !col.HasNulls() {
		return c.concat([]*column.Column{col})
	}
	bs := c.exec.BlockSize
	nb := numBlocks(n, bs)
	fwd := policy == FillPreceding

	// The valid row each block hands to its neighbor, or NotFound.
	edge := make([]int32, nb)
	err = c.launch(n, func(b, lo, hi int) error {
		edge[b] = NotFound
		if fwd {
			for i := hi - 1; i >= lo; i-- {
				if col.IsValid(i) {
					edge[b] = int32(i)
					break
				}
			}
		} else {
			for i := lo; i < hi; i++ {
				if col.IsValid(i) {
					edge[b] = int32(i)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	carry := make([]int32, nb)
	if fwd {
		last := NotFound
		for b := 0; b < nb; b++ {
			carry[b] = last
			if edge[b] != NotFound {
				last = edge[b]
			}
		}
	} else {
		next := NotFound
		for b := nb - 1; b >= 0; b-- {
			carry[b] = next
			if edge[b] != NotFound {
				next = edge[b]
			}
		}
	}

	idx := make([]int32, n)
	err = c.launch(n, func(b, lo, hi int) error {
		cur := carry[b]
		if fwd {
			for i := lo; i < hi; i++ {
				if col.IsValid(i) {
					cur = int32(i)
				}
				idx[i] = fillIndex(cur, i)
			}
		} else {
			for i := hi - 1; i >= lo; i-- {
				if col.IsValid(i) {
					cur = int32(i)
				}
				idx[i] = fillIndex(cur, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.gather(col, idx, false)
}

func fillIndex(src int32, row int) int32 {
	if src == NotFound {
		return int32(row)
	}
	return src
}
