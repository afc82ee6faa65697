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

type ReduceOptions struct {
	// Init is folded into SUM, PRODUCT, MIN, MAX, ANY and ALL as if it
	// were one more row. A null or absent Init is ignored.
	Init *column.Scalar
}

// mergeKind is the aggregation that combines per-block partial results of
// kind, or false when kind is not computed blockwise.
func mergeKind(kind AggKind) (AggKind, bool) {
	switch kind {
	case AggSum, AggSumOfSquares, AggCountValid, AggCountAll:
		return AggSum, true
	case AggProduct, AggMin, AggMax, AggAny, AggAll:
		return kind, true
	}
	return 0, false
}

// Reduce aggregates all rows of col into one scalar. Nulls are skipped;
// the result is null when no valid row remains, except for counts.
// COUNT_ALL, COUNT_VALID and NUNIQUE produce INT64; SUM produces INT64,
// UINT64, FLOAT64, DECIMAL128 or the duration type of col; MEAN, VARIANCE,
// STD, MEDIAN and interpolated QUANTILE produce FLOAT64.
func Reduce(ctx context.Context, col *column.Column, agg Aggregation, opts ReduceOptions) (res column.Scalar, err error) {
	c, err := begin(ctx, "reduce", col.Len())
	if err != nil {
		return column.Scalar{}, err
	}
	defer func() { c.end(err, "agg", agg.Kind) }()

	if agg.Kind == AggCollectList {
		return column.Scalar{}, fmt.Errorf("%w: %s is not a reduction", cudf.ErrInvalidArgument, agg.Kind)
	}
	out, err := c.reduce(col, agg)
	if err != nil {
		return column.Scalar{}, err
	}
	defer out.Release()

	if opts.Init != nil && opts.Init.IsValid() {
		switch agg.Kind {
		case AggSum, AggProduct, AggMin, AggMax, AggAny, AggAll:
			folded, err := c.foldInit(out, *opts.Init, agg)
			if err != nil {
				return column.Scalar{}, err
			}
			defer folded.Release()
			out = folded
		}
	}
	return out.Scalar(0), nil
}

// reduce returns a one-row column holding the reduction of col. Mergeable
// aggregations reduce every block in parallel and then combine the
// partials in block order.
func (c *call) reduce(col *column.Column, agg Aggregation) (*column.Column, error) {
	n := col.Len()
	merge, ok := mergeKind(agg.Kind)
	if !ok || n <= c.exec.BlockSize {
		return c.aggregate(col, wholeColumn(n), agg)
	}
	partial, err := c.aggregate(col, blockSegments(n, c.exec.BlockSize), agg)
	if err != nil {
		return nil, err
	}
	defer partial.Release()
	return c.aggregate(partial, wholeColumn(partial.Len()), Aggregation{Kind: merge})
}

// foldInit combines a one-row result with the identity init.
func (c *call) foldInit(out *column.Column, init column.Scalar, agg Aggregation) (*column.Column, error) {
	initCol, err := column.MakeColumnFromScalar(c.mem, init, 1)
	if err != nil {
		return nil, err
	}
	defer initCol.Release()
	if !initCol.Type().Equal(out.Type()) {
		cast, err := c.cast(initCol, out.Type(), DefaultCastOptions())
		if err != nil {
			return nil, err
		}
		defer cast.Release()
		initCol = cast
	}
	both, err := c.concat([]*column.Column{out, initCol})
	if err != nil {
		return nil, err
	}
	defer both.Release()
	kind := agg.Kind
	if kind == AggSumOfSquares {
		kind = AggSum
	}
	return c.aggregate(both, wholeColumn(2), Aggregation{Kind: kind})
}
