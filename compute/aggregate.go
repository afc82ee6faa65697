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
	"fmt"
	"math"
	"math/bits"

	"github.com/JohnCGriffin/overflow"
	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

type AggKind int8

const (
	AggSum AggKind = iota
	AggProduct
	AggMin
	AggMax
	AggCountValid
	AggCountAll
	AggMean
	AggVariance
	AggStd
	AggMedian
	AggQuantile
	AggNunique
	AggFirst
	AggLast
	AggArgmin
	AggArgmax
	AggCollectList
	AggAny
	AggAll
	AggSumOfSquares
)

var aggNames = [...]string{
	AggSum:          "sum",
	AggProduct:      "product",
	AggMin:          "min",
	AggMax:          "max",
	AggCountValid:   "count_valid",
	AggCountAll:     "count_all",
	AggMean:         "mean",
	AggVariance:     "variance",
	AggStd:          "std",
	AggMedian:       "median",
	AggQuantile:     "quantile",
	AggNunique:      "nunique",
	AggFirst:        "first",
	AggLast:         "last",
	AggArgmin:       "argmin",
	AggArgmax:       "argmax",
	AggCollectList:  "collect_list",
	AggAny:          "any",
	AggAll:          "all",
	AggSumOfSquares: "sum_of_squares",
}

func (k AggKind) String() string {
	if k >= 0 && int(k) < len(aggNames) {
		return aggNames[k]
	}
	return fmt.Sprintf("AggKind(%d)", k)
}

// AggKindFromString parses the names printed by AggKind.String.
func AggKindFromString(s string) (AggKind, bool) {
	for k, name := range aggNames {
		if name == s {
			return AggKind(k), true
		}
	}
	return 0, false
}

// Aggregation describes one aggregate. DDOF applies to VARIANCE and STD,
// Q and Interp to QUANTILE.
type Aggregation struct {
	Kind   AggKind
	DDOF   int
	Q      float64
	Interp Interpolation
}

func NewAggregation(kind AggKind) Aggregation { return Aggregation{Kind: kind, DDOF: 1} }

func Variance(ddof int) Aggregation { return Aggregation{Kind: AggVariance, DDOF: ddof} }
func Std(ddof int) Aggregation      { return Aggregation{Kind: AggStd, DDOF: ddof} }

func QuantileAgg(q float64, interp Interpolation) Aggregation {
	return Aggregation{Kind: AggQuantile, Q: q, Interp: interp}
}

func (a Aggregation) String() string { return a.Kind.String() }

// segments partitions rows into groups: group g holds the rows
// perm[offsets[g]:offsets[g+1]] in ascending row order.
type segments struct {
	perm    []int32
	offsets []int
}

func (s segments) groups() int        { return len(s.offsets) - 1 }
func (s segments) rows(g int) []int32 { return s.perm[s.offsets[g]:s.offsets[g+1]] }

// wholeColumn is the single segment of all n rows.
func wholeColumn(n int) segments {
	return segments{perm: identity(n), offsets: []int{0, n}}
}

// blockSegments splits n rows into segments of blockSize rows.
func blockSegments(n, blockSize int) segments {
	nb := numBlocks(n, blockSize)
	offsets := make([]int, nb+1)
	for b := 0; b < nb; b++ {
		_, offsets[b+1] = blockRange(b, n, blockSize)
	}
	return segments{perm: identity(n), offsets: offsets}
}

// aggregate computes agg over every segment of vals and returns one row
// per segment.
func (c *call) aggregate(vals *column.Column, seg segments, agg Aggregation) (*column.Column, error) {
	switch agg.Kind {
	case AggCountValid, AggCountAll:
		return c.aggCount(vals, seg, agg.Kind == AggCountAll)
	case AggSum, AggProduct, AggSumOfSquares:
		return c.aggSum(vals, seg, agg.Kind)
	case AggMin, AggMax, AggFirst, AggLast, AggArgmin, AggArgmax:
		return c.aggPick(vals, seg, agg.Kind)
	case AggMean, AggVariance, AggStd:
		return c.aggMoments(vals, seg, agg)
	case AggMedian:
		return c.aggQuantile(vals, seg, 0.5, Linear)
	case AggQuantile:
		if agg.Q < 0 || agg.Q > 1 || math.IsNaN(agg.Q) {
			return nil, fmt.Errorf("%w: quantile %v outside [0, 1]", cudf.ErrInvalidArgument, agg.Q)
		}
		return c.aggQuantile(vals, seg, agg.Q, agg.Interp)
	case AggNunique:
		return c.aggNunique(vals, seg)
	case AggAny, AggAll:
		return c.aggBool(vals, seg, agg.Kind == AggAll)
	case AggCollectList:
		return c.aggCollect(vals, seg)
	}
	return nil, fmt.Errorf("%w: unknown aggregation %s", cudf.ErrInvalidArgument, agg.Kind)
}

// newResult allocates an output column of n rows with a writable mask.
func (c *call) newResult(dt cudf.DataType, n int) (*column.Column, bitmask.Mask, error) {
	out, err := column.NewFixedWidth(c.mem, dt, n, true)
	if err != nil {
		return nil, bitmask.Mask{}, err
	}
	return out, out.Mask(), nil
}

// finish drops an all-valid mask of a result, or releases the result when
// computing it failed.
func finish(out *column.Column, err error) (*column.Column, error) {
	if err != nil {
		out.Release()
		return nil, err
	}
	out.ResetNullCount()
	return out, nil
}

func (c *call) aggCount(vals *column.Column, seg segments, all bool) (*column.Column, error) {
	out, _, err := c.newResult(cudf.Int64, seg.groups())
	if err != nil {
		return nil, err
	}
	res := column.Values[int64](out)
	err = c.forEach(seg.groups(), func(lo, hi int) {
		for g := lo; g < hi; g++ {
			rows := seg.rows(g)
			if all || !vals.HasNulls() {
				res[g] = int64(len(rows))
				continue
			}
			n := int64(0)
			for _, r := range rows {
				if vals.IsValid(int(r)) {
					n++
				}
			}
			res[g] = n
		}
	})
	return finish(out, err)
}

// sumType is the output type of SUM, PRODUCT and SUM_OF_SQUARES.
func sumType(dt cudf.DataType, kind AggKind) (cudf.DataType, error) {
	id := dt.ID()
	switch {
	case id.IsSignedInteger(), id == cudf.BOOL8:
		return cudf.Int64, nil
	case id.IsUnsignedInteger():
		return cudf.Uint64, nil
	case id.IsFloating():
		return cudf.Float64, nil
	case id.IsDuration() && kind == AggSum:
		return dt, nil
	case id.IsDecimal() && kind == AggSum:
		return cudf.Decimal128(dt.Scale()), nil
	}
	return cudf.DataType{}, fmt.Errorf("%w: %s of %s", cudf.ErrUnsupportedType, kind, dt)
}

func (c *call) aggSum(vals *column.Column, seg segments, kind AggKind) (*column.Column, error) {
	ot, err := sumType(vals.Type(), kind)
	if err != nil {
		return nil, err
	}
	ng := seg.groups()
	out, mask, err := c.newResult(ot, ng)
	if err != nil {
		return nil, err
	}
	overflowErr := func(g int) error {
		return fmt.Errorf("%w: %s of group %d exceeds %s", cudf.ErrOverflow, kind, g, ot)
	}

	switch ot.Physical() {
	case cudf.INT64:
		get, err := int64At(vals)
		if err != nil {
			return finish(out, err)
		}
		res := column.Values[int64](out)
		err = c.launch(ng, func(_, lo, hi int) error {
			for g := lo; g < hi; g++ {
				acc, seen := int64(0), false
				if kind == AggProduct {
					acc = 1
				}
				for _, r := range seg.rows(g) {
					if vals.IsNull(int(r)) {
						continue
					}
					v, ok := get(int(r)), true
					switch kind {
					case AggSum:
						acc, ok = overflow.Add64(acc, v)
					case AggProduct:
						acc, ok = overflow.Mul64(acc, v)
					case AggSumOfSquares:
						if v, ok = overflow.Mul64(v, v); ok {
							acc, ok = overflow.Add64(acc, v)
						}
					}
					if !ok {
						return overflowErr(g)
					}
					seen = true
				}
				res[g] = acc
				if !seen {
					mask.SetValid(g, false)
				}
			}
			return nil
		})
		return finish(out, err)

	case cudf.UINT64:
		get, err := uint64At(vals)
		if err != nil {
			return finish(out, err)
		}
		res := column.Values[uint64](out)
		err = c.launch(ng, func(_, lo, hi int) error {
			for g := lo; g < hi; g++ {
				acc, seen := uint64(0), false
				if kind == AggProduct {
					acc = 1
				}
				for _, r := range seg.rows(g) {
					if vals.IsNull(int(r)) {
						continue
					}
					v := get(int(r))
					var carry, high uint64
					switch kind {
					case AggSum:
						acc, carry = bits.Add64(acc, v, 0)
					case AggProduct:
						high, acc = bits.Mul64(acc, v)
					case AggSumOfSquares:
						if high, v = bits.Mul64(v, v); high == 0 {
							acc, carry = bits.Add64(acc, v, 0)
						}
					}
					if carry != 0 || high != 0 {
						return overflowErr(g)
					}
					seen = true
				}
				res[g] = acc
				if !seen {
					mask.SetValid(g, false)
				}
			}
			return nil
		})
		return finish(out, err)

	case cudf.FLOAT64:
		get, err := float64At(vals)
		if err != nil {
			return finish(out, err)
		}
		res := column.Values[float64](out)
		err = c.forEach(ng, func(lo, hi int) {
			for g := lo; g < hi; g++ {
				acc, seen := 0.0, false
				if kind == AggProduct {
					acc = 1
				}
				for _, r := range seg.rows(g) {
					if vals.IsNull(int(r)) {
						continue
					}
					v := get(int(r))
					switch kind {
					case AggSum:
						acc += v
					case AggProduct:
						acc *= v
					case AggSumOfSquares:
						acc += v * v
					}
					seen = true
				}
				res[g] = acc
				if !seen {
					mask.SetValid(g, false)
				}
			}
		})
		return finish(out, err)

	case cudf.DECIMAL128:
		get, err := decimalAt(vals)
		if err != nil {
			return finish(out, err)
		}
		res := column.Values[decimal128.Num](out)
		err = c.launch(ng, func(_, lo, hi int) error {
			for g := lo; g < hi; g++ {
				var acc decimal128.Num
				seen := false
				for _, r := range seg.rows(g) {
					if vals.IsNull(int(r)) {
						continue
					}
					acc = acc.Add(get(int(r)))
					if !acc.FitsInPrecision(38) {
						return overflowErr(g)
					}
					seen = true
				}
				res[g] = acc
				if !seen {
					mask.SetValid(g, false)
				}
			}
			return nil
		})
		return finish(out, err)
	}
	return finish(out, fmt.Errorf("%w: %s of %s", cudf.ErrUnsupportedType, kind, vals.Type()))
}

// aggPick selects one row per group: the extreme value for MIN/MAX and
// ARGMIN/ARGMAX (earliest row on ties) or the first/last valid row.
// ARGMIN/ARGMAX return the row index, the others gather the value.
func (c *call) aggPick(vals *column.Column, seg segments, kind AggKind) (*column.Column, error) {
	var cmp func(i, j int) int
	if kind != AggFirst && kind != AggLast {
		var err error
		if cmp, err = elemCompare(vals, vals); err != nil {
			return nil, err
		}
	}
	ng := seg.groups()
	pick := make([]int32, ng)
	err := c.forEach(ng, func(lo, hi int) {
		for g := lo; g < hi; g++ {
			best := NotFound
			for _, r := range seg.rows(g) {
				if vals.IsNull(int(r)) {
					continue
				}
				if best == NotFound {
					best = r
					if kind == AggFirst {
						break
					}
					continue
				}
				switch kind {
				case AggLast:
					best = r
				case AggMin, AggArgmin:
					if cmp(int(r), int(best)) < 0 {
						best = r
					}
				case AggMax, AggArgmax:
					if cmp(int(r), int(best)) > 0 {
						best = r
					}
				}
			}
			pick[g] = best
		}
	})
	if err != nil {
		return nil, err
	}

	if kind == AggArgmin || kind == AggArgmax {
		out, mask, err := c.newResult(cudf.Int32, ng)
		if err != nil {
			return nil, err
		}
		copy(column.Values[int32](out), pick)
		for g, p := range pick {
			if p == NotFound {
				mask.SetValid(g, false)
			}
		}
		return finish(out, nil)
	}
	oob := false
	for _, p := range pick {
		if p == NotFound {
			oob = true
			break
		}
	}
	return c.gather(vals, pick, oob)
}

// validFloats collects the valid values of a group.
func validFloats(vals *column.Column, get func(int) float64, rows []int32, buf []float64) []float64 {
	buf = buf[:0]
	for _, r := range rows {
		if vals.IsValid(int(r)) {
			buf = append(buf, get(int(r)))
		}
	}
	return buf
}

func (c *call) aggMoments(vals *column.Column, seg segments, agg Aggregation) (*column.Column, error) {
	get, err := float64At(vals)
	if err != nil {
		return nil, err
	}
	if agg.DDOF < 0 {
		return nil, fmt.Errorf("%w: ddof %d", cudf.ErrInvalidArgument, agg.DDOF)
	}
	ng := seg.groups()
	out, mask, err := c.newResult(cudf.Float64, ng)
	if err != nil {
		return nil, err
	}
	res := column.Values[float64](out)
	err = c.forEach(ng, func(lo, hi int) {
		var buf []float64
		for g := lo; g < hi; g++ {
			buf = validFloats(vals, get, seg.rows(g), buf)
			n := len(buf)
			if agg.Kind == AggMean {
				if n == 0 {
					mask.SetValid(g, false)
					continue
				}
				res[g] = stat.Mean(buf, nil)
				continue
			}
			if n-agg.DDOF <= 0 {
				mask.SetValid(g, false)
				continue
			}
			_, v := stat.PopMeanVariance(buf, nil)
			v = v * float64(n) / float64(n-agg.DDOF)
			if agg.Kind == AggStd {
				v = math.Sqrt(v)
			}
			res[g] = v
		}
	})
	return finish(out, err)
}

// sortedValidRows returns the valid rows of a group in ascending value
// order, ties by row.
func sortedValidRows(vals *column.Column, cmp func(i, j int) int, rows []int32, buf []int32) []int32 {
	buf = buf[:0]
	for _, r := range rows {
		if vals.IsValid(int(r)) {
			buf = append(buf, r)
		}
	}
	slices.SortStableFunc(buf, func(a, b int32) int { return cmp(int(a), int(b)) })
	return buf
}

func (c *call) aggQuantile(vals *column.Column, seg segments, q float64, interp Interpolation) (*column.Column, error) {
	cmp, err := elemCompare(vals, vals)
	if err != nil {
		return nil, err
	}
	ng := seg.groups()
	if interp == Lower || interp == Higher || interp == Nearest {
		pick := make([]int32, ng)
		oob := false
		err := c.forEach(ng, func(lo, hi int) {
			var buf []int32
			for g := lo; g < hi; g++ {
				buf = sortedValidRows(vals, cmp, seg.rows(g), buf)
				if len(buf) == 0 {
					pick[g] = NotFound
					continue
				}
				l, h, frac := quantilePos(q, len(buf))
				p := l
				switch {
				case interp == Higher && frac > 0:
					p = h
				case interp == Nearest && (frac > 0.5 || frac == 0.5 && l%2 == 1):
					p = h
				}
				pick[g] = buf[p]
			}
		})
		if err != nil {
			return nil, err
		}
		for _, p := range pick {
			oob = oob || p == NotFound
		}
		return c.gather(vals, pick, oob)
	}

	get, err := float64At(vals)
	if err != nil {
		return nil, err
	}
	out, mask, err := c.newResult(cudf.Float64, ng)
	if err != nil {
		return nil, err
	}
	res := column.Values[float64](out)
	err = c.launch(ng, func(_, lo, hi int) error {
		var buf []int32
		for g := lo; g < hi; g++ {
			buf = sortedValidRows(vals, cmp, seg.rows(g), buf)
			if len(buf) == 0 {
				mask.SetValid(g, false)
				continue
			}
			l, h, frac := quantilePos(q, len(buf))
			a, b := get(int(buf[l])), get(int(buf[h]))
			switch interp {
			case Linear:
				if frac == 0 {
					res[g] = a
				} else {
					res[g] = a + (b-a)*frac
				}
			case Midpoint:
				res[g] = a + (b-a)/2
			default:
				return fmt.Errorf("%w: interpolation %d", cudf.ErrInvalidArgument, interp)
			}
		}
		return nil
	})
	return finish(out, err)
}

// quantilePos locates quantile q among n sorted values: the value lies
// between positions lo and hi at fraction frac.
func quantilePos(q float64, n int) (lo, hi int, frac float64) {
	pos := q * float64(n-1)
	lo = int(math.Floor(pos))
	hi = int(math.Ceil(pos))
	return lo, hi, pos - float64(lo)
}

func (c *call) aggNunique(vals *column.Column, seg segments) (*column.Column, error) {
	cmp, err := elemCompare(vals, vals)
	if err != nil {
		return nil, err
	}
	ng := seg.groups()
	out, _, err := c.newResult(cudf.Int64, ng)
	if err != nil {
		return nil, err
	}
	res := column.Values[int64](out)
	err = c.forEach(ng, func(lo, hi int) {
		var buf []int32
		for g := lo; g < hi; g++ {
			buf = sortedValidRows(vals, cmp, seg.rows(g), buf)
			n := int64(0)
			for k := range buf {
				if k == 0 || cmp(int(buf[k-1]), int(buf[k])) != 0 {
					n++
				}
			}
			res[g] = n
		}
	})
	return finish(out, err)
}

func (c *call) aggBool(vals *column.Column, seg segments, all bool) (*column.Column, error) {
	truth, err := isTruthy(vals)
	if err != nil {
		return nil, err
	}
	ng := seg.groups()
	out, mask, err := c.newResult(cudf.Bool8, ng)
	if err != nil {
		return nil, err
	}
	res := column.Values[uint8](out)
	err = c.forEach(ng, func(lo, hi int) {
		for g := lo; g < hi; g++ {
			acc, seen := all, false
			for _, r := range seg.rows(g) {
				if vals.IsNull(int(r)) {
					continue
				}
				seen = true
				if all {
					acc = acc && truth(int(r))
				} else {
					acc = acc || truth(int(r))
				}
			}
			if acc {
				res[g] = 1
			}
			if !seen {
				mask.SetValid(g, false)
			}
		}
	})
	return finish(out, err)
}

// aggCollect gathers the rows of every group, nulls included, into a LIST
// column.
func (c *call) aggCollect(vals *column.Column, seg segments) (*column.Column, error) {
	elems, err := c.gather(vals, seg.perm[:seg.offsets[seg.groups()]], false)
	if err != nil {
		return nil, err
	}
	offsets := make([]int32, len(seg.offsets))
	for g, o := range seg.offsets {
		offsets[g] = int32(o)
	}
	return column.NewList(c.mem, offsets, elems, nil)
}
