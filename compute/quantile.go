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
	"math"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
)

// Interpolation selects the value reported for a quantile that falls
// between two sorted values a and b at fraction f.
type Interpolation int8

const (
	// Linear reports a + (b-a)*f as FLOAT64.
	Linear Interpolation = iota
	// Lower reports a in the input type.
	Lower
	// Higher reports b in the input type.
	Higher
	// Midpoint reports (a+b)/2 as FLOAT64.
	Midpoint
	// Nearest reports whichever of a and b is closer, in the input type.
	// Halfway cases pick the even position.
	Nearest
)

// Quantile computes the quantiles qs of the valid values of col. The
// result has one row per q and is null when col has no valid values.
func Quantile(ctx context.Context, col *column.Column, qs []float64, interp Interpolation) (out *column.Column, err error) {
	c, err := begin(ctx, "quantile", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "quantiles", len(qs)) }()

	if interp < Linear || interp > Nearest {
		return nil, fmt.Errorf("%w: interpolation %d", cudf.ErrInvalidArgument, interp)
	}
	for _, q := range qs {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return nil, fmt.Errorf("%w: quantile %v outside [0, 1]", cudf.ErrInvalidArgument, q)
		}
	}
	t, err := column.NewTable(col)
	if err != nil {
		return nil, err
	}
	defer t.Release()
	// Nulls sort last, so the valid values are the leading rows.
	order, err := c.sortedOrder(t, []SortKey{{Column: 0, Nulls: NullsLast}})
	if err != nil {
		return nil, err
	}
	order = order[:col.Len()-col.NullCount()]
	n := len(order)

	if interp == Lower || interp == Higher || interp == Nearest {
		pick := make([]int32, len(qs))
		for k, q := range qs {
			if n == 0 {
				pick[k] = NotFound
				continue
			}
			lo, hi, frac := quantilePos(q, n)
			p := lo
			if interp == Higher && frac > 0 || interp == Nearest && (frac > 0.5 || frac == 0.5 && lo%2 == 1) {
				p = hi
			}
			pick[k] = order[p]
		}
		return c.gather(col, pick, n == 0)
	}

	get, err := float64At(col)
	if err != nil {
		return nil, err
	}
	out, mask, err := c.newResult(cudf.Float64, len(qs))
	if err != nil {
		return nil, err
	}
	res := column.Values[float64](out)
	for k, q := range qs {
		if n == 0 {
			mask.SetValid(k, false)
			continue
		}
		lo, hi, frac := quantilePos(q, n)
		a, b := get(int(order[lo])), get(int(order[hi]))
		if interp == Midpoint {
			res[k] = a + (b-a)/2
		} else if frac == 0 {
			res[k] = a
		} else {
			res[k] = a + (b-a)*frac
		}
	}
	return finish(out, nil)
}
