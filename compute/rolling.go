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

// maxWindowRows bounds the rows gathered for one pass of a rolling
// aggregation.
const maxWindowRows = 1 << 22

// Window describes the rows each output row of Rolling aggregates. A fixed
// window covers Size rows ending at the current row, or centered on it.
// A variable window reads, per row, the number of preceding rows including
// the current one and the number of following rows from the INT32 columns
// Preceding and Following; it is used when both are set.
type Window struct {
	Size       int
	Center     bool
	Preceding  *column.Column
	Following  *column.Column
	MinPeriods int
}

// FixedWindow is a trailing window of size rows that needs at least one
// valid value.
func FixedWindow(size int) Window { return Window{Size: size, MinPeriods: 1} }

// bounds returns the clamped row range [lo, hi) of the window of row i.
func (w Window) bounds(n int) (func(i int) (int, int), error) {
	if w.MinPeriods < 0 {
		return nil, fmt.Errorf("%w: negative min periods %d", cudf.ErrInvalidArgument, w.MinPeriods)
	}
	clamp := func(lo, hi int) (int, int) {
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		if hi < lo {
			hi = lo
		}
		return lo, hi
	}
	if w.Preceding != nil && w.Following != nil {
		if w.Preceding.Len() != n || w.Following.Len() != n {
			return nil, fmt.Errorf("%w: window columns of %d and %d rows for %d rows", cudf.ErrShapeMismatch, w.Preceding.Len(), w.Following.Len(), n)
		}
		prec, err := indexValues("preceding window", w.Preceding)
		if err != nil {
			return nil, err
		}
		fol, err := indexValues("following window", w.Following)
		if err != nil {
			return nil, err
		}
		return func(i int) (int, int) { return clamp(i-int(prec[i])+1, i+int(fol[i])+1) }, nil
	}
	if w.Size <= 0 {
		return nil, fmt.Errorf("%w: window size %d", cudf.ErrInvalidArgument, w.Size)
	}
	prec, fol := w.Size, 0
	if w.Center {
		prec = w.Size/2 + 1
		fol = w.Size - prec
	}
	return func(i int) (int, int) { return clamp(i-prec+1, i+fol+1) }, nil
}

// Rolling aggregates the window of every row of col. A window with fewer
// than MinPeriods valid values produces null. COLLECT_LIST is not
// supported.
func Rolling(ctx context.Context, col *column.Column, w Window, agg Aggregation) (out *column.Column, err error) {
	c, err := begin(ctx, "rolling", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "agg", agg.Kind, "window", w.Size) }()

	if agg.Kind == AggCollectList {
		return nil, fmt.Errorf("%w: %s is not a window aggregation", cudf.ErrInvalidArgument, agg.Kind)
	}
	n := col.Len()
	bounds, err := w.bounds(n)
	if err != nil {
		return nil, err
	}
	valid := make([]int, n+1)
	for i := 0; i < n; i++ {
		valid[i+1] = valid[i]
		if col.IsValid(i) {
			valid[i+1]++
		}
	}
	enough := func(i int) (lo, hi int, ok bool) {
		lo, hi = bounds(i)
		return lo, hi, valid[hi]-valid[lo] >= w.MinPeriods
	}

	if agg.Kind == AggCountValid || agg.Kind == AggCountAll {
		res, mask, err := c.newResult(cudf.Int64, n)
		if err != nil {
			return nil, err
		}
		dst := column.Values[int64](res)
		err = c.forEach(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				l, h, ok := enough(i)
				switch {
				case !ok:
					mask.SetValid(i, false)
				case agg.Kind == AggCountAll:
					dst[i] = int64(h - l)
				default:
					dst[i] = int64(valid[h] - valid[l])
				}
			}
		})
		return finish(res, err)
	}

	var parts []*column.Column
	defer func() { releaseColumns(parts) }()
	for start := 0; start < n || start == 0; {
		var seg segments
		seg.offsets = append(seg.offsets, 0)
		end := start
		for ; end < n && (len(seg.perm) < maxWindowRows || end == start); end++ {
			if lo, hi, ok := enough(end); ok {
				for r := lo; r < hi; r++ {
					seg.perm = append(seg.perm, int32(r))
				}
			}
			seg.offsets = append(seg.offsets, len(seg.perm))
		}
		part, err := c.aggregate(col, seg, agg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		if end == n {
			break
		}
		start = end
	}
	if len(parts) == 1 {
		out, parts = parts[0], nil
		return out, nil
	}
	return c.concat(parts)
}
