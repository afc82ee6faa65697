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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"golang.org/x/exp/constraints"
)

// OverflowPolicy selects what casts and arithmetic do with a result that
// does not fit the output type.
type OverflowPolicy int8

const (
	// OverflowError fails the call with cudf.ErrOverflow.
	OverflowError OverflowPolicy = iota
	// OverflowWrap keeps the two's complement wrapped result.
	OverflowWrap
	// OverflowSaturate clamps to the nearest representable value.
	OverflowSaturate
	// OverflowNull turns the row null.
	OverflowNull
)

// RoundingMode selects how a cast drops fractional digits.
type RoundingMode int8

const (
	// RoundNone treats any lost fractional digit as an overflow.
	RoundNone RoundingMode = iota
	RoundFloor
	RoundCeil
	RoundTrunc
	RoundHalfEven
)

type CastOptions struct {
	OnOverflow OverflowPolicy
	// Rounding applies to float to integer and decimal rescaling casts.
	// Wrap and Saturate imply RoundTrunc when no mode is set.
	Rounding RoundingMode
}

func DefaultCastOptions() CastOptions { return CastOptions{} }

type numeric interface {
	constraints.Integer | constraints.Float
}

type castStatus int8

const (
	castOK castStatus = iota
	castOverflow
	castFraction
	castNaN
	castInvalid
	// castNull makes the row null under every policy.
	castNull
)

// Cast converts col to type to. Nulls stay null; rows that cannot be
// represented are handled per opts.OnOverflow.
func Cast(ctx context.Context, col *column.Column, to cudf.DataType, opts CastOptions) (out *column.Column, err error) {
	c, err := begin(ctx, "cast", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "from", col.Type(), "to", to) }()
	return c.cast(col, to, opts)
}

func (c *call) cast(col *column.Column, to cudf.DataType, opts CastOptions) (*column.Column, error) {
	from := col.Type()
	if from.Equal(to) {
		return c.concat([]*column.Column{col})
	}
	fid, tid := from.ID(), to.ID()
	if fid.IsNested() || tid.IsNested() {
		return nil, fmt.Errorf("%w: cast from %s to %s", cudf.ErrUnsupportedType, from, to)
	}
	if opts.Rounding == RoundNone && (opts.OnOverflow == OverflowWrap || opts.OnOverflow == OverflowSaturate) {
		opts.Rounding = RoundTrunc
	}
	switch {
	case tid == cudf.STRING:
		return c.formatStrings(col)
	case fid == cudf.STRING:
		return c.parseStrings(col, to, opts.OnOverflow)
	}

	isTime := func(id cudf.TypeID) bool { return id.IsTimestamp() || id.IsDuration() }
	out, err := c.newMasked(to, col.Len(), col)
	if err != nil {
		return nil, err
	}
	var (
		fn  func(i int) castStatus
		sat func(i int)
	)
	switch {
	case fid.IsDecimal() || tid.IsDecimal():
		fn, sat, err = decimalCast(col, out, opts.Rounding)
	case isTime(fid) && isTime(tid):
		if fid.IsTimestamp() != tid.IsTimestamp() {
			err = fmt.Errorf("%w: cast from %s to %s", cudf.ErrUnsupportedType, from, to)
			break
		}
		fn, sat = unitCast(col, out)
	case isTime(fid) && !tid.IsInteger(), isTime(tid) && !fid.IsInteger():
		err = fmt.Errorf("%w: cast from %s to %s", cudf.ErrUnsupportedType, from, to)
	case tid == cudf.BOOL8:
		var truthy func(int) bool
		if truthy, err = isTruthy(col); err == nil {
			dst := column.Values[uint8](out)
			fn = func(i int) castStatus {
				if truthy(i) {
					dst[i] = 1
				}
				return castOK
			}
		}
	default:
		fn, sat, err = numericCast(col, out, opts.Rounding)
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	return finish(out, c.applyRows(out, opts.OnOverflow, fn, sat))
}

// newMasked allocates a fixed-width result of n rows whose mask starts as
// the intersection of the masks of srcs.
func (c *call) newMasked(dt cudf.DataType, n int, srcs ...*column.Column) (*column.Column, error) {
	out, err := column.NewFixedWidth(c.mem, dt, n, true)
	if err != nil {
		return nil, err
	}
	for _, s := range srcs {
		if s.HasNulls() {
			out.Mask().AndWith(s.Mask(), n)
		}
	}
	return out, nil
}

// applyRows computes every valid row of out with fn and settles failed rows
// per policy. sat, when set, writes the saturated value of a row.
func (c *call) applyRows(out *column.Column, policy OverflowPolicy, fn func(i int) castStatus, sat func(i int)) error {
	mask := out.Mask()
	dt := out.Type()
	return c.launch(out.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if !mask.IsValid(i) {
				continue
			}
			st := fn(i)
			switch {
			case st == castOK:
			case st == castNull:
				mask.SetValid(i, false)
			case st == castOverflow && policy == OverflowWrap:
			case st == castOverflow && policy == OverflowSaturate && sat != nil:
				sat(i)
			case st == castNaN && policy == OverflowWrap, policy == OverflowError:
				return castError(st, dt, i)
			default:
				mask.SetValid(i, false)
			}
		}
		return nil
	})
}

func castError(st castStatus, dt cudf.DataType, row int) error {
	switch st {
	case castInvalid:
		return fmt.Errorf("%w: row %d cannot be parsed as %s", cudf.ErrInvalidArgument, row, dt)
	case castFraction:
		return fmt.Errorf("%w: row %d loses fractional digits as %s", cudf.ErrOverflow, row, dt)
	}
	return fmt.Errorf("%w: row %d out of range of %s", cudf.ErrOverflow, row, dt)
}

func isFloat[T numeric]() bool {
	var half T = 1
	half /= 2
	return half != 0
}

func isSigned[T numeric]() bool {
	var z T
	z--
	return z < 0
}

func bitWidth[T numeric]() int {
	var z T
	return int(unsafe.Sizeof(z)) * 8
}

// intLimits is the range of the integer type T.
func intLimits[T numeric]() (lowest, highest T) {
	bits := bitWidth[T]()
	if isSigned[T]() {
		m := uint64(1)<<(bits-1) - 1
		highest = T(m)
		return -highest - 1, highest
	}
	all := ^uint64(0) >> (64 - bits)
	return 0, T(all)
}

// floatLimits is the half-open float64 range [lo, hi) of values whose
// integer part fits the integer type T.
func floatLimits[T numeric]() (lo, hi float64) {
	bits := bitWidth[T]()
	if isSigned[T]() {
		return -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1)
	}
	return 0, math.Ldexp(1, bits)
}

func maxFloat[T numeric]() T {
	m := math.MaxFloat64
	if bitWidth[T]() == 32 {
		m = math.MaxFloat32
	}
	return T(m)
}

func roundFloat(f float64, mode RoundingMode) float64 {
	switch mode {
	case RoundFloor:
		return math.Floor(f)
	case RoundCeil:
		return math.Ceil(f)
	case RoundTrunc:
		return math.Trunc(f)
	case RoundHalfEven:
		return math.RoundToEven(f)
	}
	return f
}

// castNumbers converts src into dst. The returned convert function always
// writes the plain Go conversion, which is the wrapped result on overflow.
func castNumbers[I, O numeric](src []I, dst []O, mode RoundingMode) (func(int) castStatus, func(int)) {
	switch {
	case isFloat[O]():
		fromFloat := isFloat[I]()
		top := maxFloat[O]()
		return func(i int) castStatus {
				v := src[i]
				o := O(v)
				dst[i] = o
				if fromFloat && math.IsInf(float64(o), 0) && !math.IsInf(float64(v), 0) {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				if src[i] < 0 {
					dst[i] = -top
				} else {
					dst[i] = top
				}
			}
	case isFloat[I]():
		lo, hi := floatLimits[O]()
		lowest, highest := intLimits[O]()
		return func(i int) castStatus {
				f := float64(src[i])
				if math.IsNaN(f) {
					return castNaN
				}
				r := roundFloat(f, mode)
				if r != math.Trunc(r) {
					return castFraction
				}
				dst[i] = O(r)
				if r < lo || r >= hi {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				if src[i] < 0 {
					dst[i] = lowest
				} else {
					dst[i] = highest
				}
			}
	}
	lowest, highest := intLimits[O]()
	return func(i int) castStatus {
			v := src[i]
			o := O(v)
			dst[i] = o
			if I(o) != v || (v < 0) != (o < 0) {
				return castOverflow
			}
			return castOK
		}, func(i int) {
			if src[i] < 0 {
				dst[i] = lowest
			} else {
				dst[i] = highest
			}
		}
}

func numericCast(in, out *column.Column, mode RoundingMode) (func(int) castStatus, func(int), error) {
	switch in.Type().Physical() {
	case cudf.INT8:
		return castFrom(column.Values[int8](in), out, mode)
	case cudf.INT16:
		return castFrom(column.Values[int16](in), out, mode)
	case cudf.INT32:
		return castFrom(column.Values[int32](in), out, mode)
	case cudf.INT64:
		return castFrom(column.Values[int64](in), out, mode)
	case cudf.UINT8:
		return castFrom(column.Values[uint8](in), out, mode)
	case cudf.UINT16:
		return castFrom(column.Values[uint16](in), out, mode)
	case cudf.UINT32:
		return castFrom(column.Values[uint32](in), out, mode)
	case cudf.UINT64:
		return castFrom(column.Values[uint64](in), out, mode)
	case cudf.FLOAT32:
		return castFrom(column.Values[float32](in), out, mode)
	case cudf.FLOAT64:
		return castFrom(column.Values[float64](in), out, mode)
	}
	return nil, nil, fmt.Errorf("%w: cast from %s", cudf.ErrUnsupportedType, in.Type())
}

func castFrom[I numeric](src []I, out *column.Column, mode RoundingMode) (fn func(int) castStatus, sat func(int), err error) {
	switch out.Type().Physical() {
	case cudf.INT8:
		fn, sat = castNumbers(src, column.Values[int8](out), mode)
	case cudf.INT16:
		fn, sat = castNumbers(src, column.Values[int16](out), mode)
	case cudf.INT32:
		fn, sat = castNumbers(src, column.Values[int32](out), mode)
	case cudf.INT64:
		fn, sat = castNumbers(src, column.Values[int64](out), mode)
	case cudf.UINT8:
		fn, sat = castNumbers(src, column.Values[uint8](out), mode)
	case cudf.UINT16:
		fn, sat = castNumbers(src, column.Values[uint16](out), mode)
	case cudf.UINT32:
		fn, sat = castNumbers(src, column.Values[uint32](out), mode)
	case cudf.UINT64:
		fn, sat = castNumbers(src, column.Values[uint64](out), mode)
	case cudf.FLOAT32:
		fn, sat = castNumbers(src, column.Values[float32](out), mode)
	case cudf.FLOAT64:
		fn, sat = castNumbers(src, column.Values[float64](out), mode)
	default:
		err = fmt.Errorf("%w: cast to %s", cudf.ErrUnsupportedType, out.Type())
	}
	return
}

// unitCast converts between units of timestamps or of durations.
// Coarsening floors timestamps and truncates durations.
func unitCast(in, out *column.Column) (func(int) castStatus, func(int)) {
	src, dst := column.Values[int64](in), column.Values[int64](out)
	fm, tm := in.Type().TimeUnit().Multiplier(), out.Type().TimeUnit().Multiplier()
	sat := func(i int) {
		if src[i] < 0 {
			dst[i] = math.MinInt64
		} else {
			dst[i] = math.MaxInt64
		}
	}
	if tm >= fm {
		f := tm / fm
		return func(i int) castStatus {
			r, ok := overflow.Mul64(src[i], f)
			dst[i] = r
			if !ok {
				return castOverflow
			}
			return castOK
		}, sat
	}
	f := fm / tm
	floor := in.Type().ID().IsTimestamp()
	return func(i int) castStatus {
		q := src[i] / f
		if floor && src[i]%f < 0 {
			q--
		}
		dst[i] = q
		return castOK
	}, sat
}

func decimalPrecision(id cudf.TypeID) int32 {
	switch id {
	case cudf.DECIMAL32:
		return 9
	case cudf.DECIMAL64:
		return 18
	}
	return 38
}

// maxDecimal is the largest unscaled value with prec digits.
func maxDecimal(prec int32) decimal128.Num {
	return decimal128.GetScaleMultiplier(int(prec)).Sub(decimal128.FromI64(1))
}

func decimalWriter(out *column.Column) func(i int, v decimal128.Num) {
	switch out.Type().ID() {
	case cudf.DECIMAL32:
		dst := column.Values[int32](out)
		return func(i int, v decimal128.Num) { dst[i] = int32(v.LowBits()) }
	case cudf.DECIMAL64:
		dst := column.Values[int64](out)
		return func(i int, v decimal128.Num) { dst[i] = int64(v.LowBits()) }
	}
	dst := column.Values[decimal128.Num](out)
	return func(i int, v decimal128.Num) { dst[i] = v }
}

func fitsInt64(n decimal128.Num) bool {
	hi, lo := n.HighBits(), n.LowBits()
	return hi == 0 && lo <= math.MaxInt64 || hi == -1 && lo > math.MaxInt64
}

// rescale changes the scale of the unscaled value n from from to to.
func rescale(n decimal128.Num, from, to int32, mode RoundingMode) (decimal128.Num, castStatus) {
	one := decimal128.FromI64(1)
	switch {
	case to == from:
		return n, castOK
	case to > from:
		k := to - from
		if n.Sign() == 0 {
			return n, castOK
		}
		if k > 38 || !n.FitsInPrecision(38-k) {
			return n, castOverflow
		}
		return n.Mul(decimal128.GetScaleMultiplier(int(k))), castOK
	}
	k := from - to
	var q, r, half decimal128.Num
	if k > 38 {
		r = n
		half = maxDecimal(38)
	} else {
		m := decimal128.GetScaleMultiplier(int(k))
		q, r = n.Div(m)
		half, _ = m.Div(decimal128.FromI64(2))
	}
	if r.Sign() == 0 {
		return q, castOK
	}
	switch mode {
	case RoundNone:
		return q, castFraction
	case RoundFloor:
		if n.Sign() < 0 {
			q = q.Sub(one)
		}
	case RoundCeil:
		if n.Sign() > 0 {
			q = q.Add(one)
		}
	case RoundHalfEven:
		cmp := compareDecimal(r.Abs(), half)
		if cmp > 0 || cmp == 0 && q.LowBits()&1 == 1 {
			if n.Sign() < 0 {
				q = q.Sub(one)
			} else {
				q = q.Add(one)
			}
		}
	}
	return q, castOK
}

func decimalCast(in, out *column.Column, mode RoundingMode) (func(int) castStatus, func(int), error) {
	from, to := in.Type(), out.Type()
	if to.ID().IsDecimal() {
		prec, scale := decimalPrecision(to.ID()), to.Scale()
		put := decimalWriter(out)
		var get func(int) (decimal128.Num, castStatus)
		signOf := func(i int) int { return 0 }
		switch id := from.ID(); {
		case id.IsDecimal():
			src, _ := decimalAt(in)
			get = func(i int) (decimal128.Num, castStatus) { return rescale(src(i), from.Scale(), scale, mode) }
			signOf = func(i int) int { return src(i).Sign() }
		case id.IsFloating():
			src, _ := float64At(in)
			get = func(i int) (decimal128.Num, castStatus) {
				f := src(i)
				if math.IsNaN(f) {
					return decimal128.Num{}, castNaN
				}
				n, err := decimal128.FromFloat64(f, prec, scale)
				if err != nil {
					return decimal128.Num{}, castOverflow
				}
				return n, castOK
			}
			signOf = func(i int) int {
				if src(i) < 0 {
					return -1
				}
				return 1
			}
		case id.IsUnsignedInteger():
			src, _ := uint64At(in)
			get = func(i int) (decimal128.Num, castStatus) { return rescale(decimal128.FromU64(src(i)), 0, scale, mode) }
			signOf = func(i int) int { return 1 }
		case id.IsSignedInteger(), id == cudf.BOOL8:
			src, _ := int64At(in)
			get = func(i int) (decimal128.Num, castStatus) { return rescale(decimal128.FromI64(src(i)), 0, scale, mode) }
			signOf = func(i int) int {
				if src(i) < 0 {
					return -1
				}
				return 1
			}
		default:
			return nil, nil, fmt.Errorf("%w: cast from %s to %s", cudf.ErrUnsupportedType, from, to)
		}
		top := maxDecimal(prec)
		return func(i int) castStatus {
				n, st := get(i)
				if st != castOK {
					return st
				}
				put(i, n)
				if !n.FitsInPrecision(prec) {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				if signOf(i) < 0 {
					put(i, top.Negate())
				} else {
					put(i, top)
				}
			}, nil
	}

	src, _ := decimalAt(in)
	fs := from.Scale()
	switch id := to.ID(); {
	case id == cudf.FLOAT32:
		dst := column.Values[float32](out)
		return func(i int) castStatus {
			dst[i] = float32(src(i).ToFloat64(fs))
			return castOK
		}, nil, nil
	case id == cudf.FLOAT64:
		dst := column.Values[float64](out)
		return func(i int) castStatus {
			dst[i] = src(i).ToFloat64(fs)
			return castOK
		}, nil, nil
	case id.IsInteger():
		// Rescale to an INT64 staging slice, then narrow per target.
		staged := make([]int64, out.Len())
		narrow, sat, err := castFrom(staged, out, mode)
		if err != nil {
			return nil, nil, err
		}
		return func(i int) castStatus {
			n, st := rescale(src(i), fs, 0, mode)
			if st != castOK {
				return st
			}
			if !fitsInt64(n) {
				staged[i] = int64(n.Sign())
				return castOverflow
			}
			staged[i] = int64(n.LowBits())
			return narrow(i)
		}, sat, nil
	}
	return nil, nil, fmt.Errorf("%w: cast from %s to %s", cudf.ErrUnsupportedType, from, to)
}

func formatter(col *column.Column) (func(i int) string, error) {
	dt := col.Type()
	switch id := dt.ID(); {
	case id == cudf.BOOL8:
		v := column.Values[uint8](col)
		return func(i int) string { return strconv.FormatBool(v[i] != 0) }, nil
	case id.IsDecimal():
		get, err := decimalAt(col)
		if err != nil {
			return nil, err
		}
		return func(i int) string { return get(i).ToString(dt.Scale()) }, nil
	case id.IsTimestamp():
		v := column.Values[int64](col)
		mult := dt.TimeUnit().Multiplier()
		return func(i int) string {
			sec, frac := v[i]/mult, v[i]%mult
			if frac < 0 {
				sec, frac = sec-1, frac+mult
			}
			return time.Unix(sec, frac*(1e9/mult)).UTC().Format(time.RFC3339Nano)
		}, nil
	case id.IsSignedInteger(), id.IsDuration():
		get, err := int64At(col)
		if err != nil {
			return nil, err
		}
		return func(i int) string { return strconv.FormatInt(get(i), 10) }, nil
	case id.IsUnsignedInteger():
		get, err := uint64At(col)
		if err != nil {
			return nil, err
		}
		return func(i int) string { return strconv.FormatUint(get(i), 10) }, nil
	case id == cudf.FLOAT32:
		v := column.Values[float32](col)
		return func(i int) string { return strconv.FormatFloat(float64(v[i]), 'g', -1, 32) }, nil
	case id == cudf.FLOAT64:
		v := column.Values[float64](col)
		return func(i int) string { return strconv.FormatFloat(v[i], 'g', -1, 64) }, nil
	}
	return nil, fmt.Errorf("%w: cast from %s to string", cudf.ErrUnsupportedType, dt)
}

func (c *call) formatStrings(col *column.Column) (*column.Column, error) {
	format, err := formatter(col)
	if err != nil {
		return nil, err
	}
	n := col.Len()
	vals := make([]string, n)
	var valid []bool
	if col.HasNulls() {
		valid = make([]bool, n)
	}
	err = c.forEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if !col.IsValid(i) {
				continue
			}
			vals[i] = format(i)
			if valid != nil {
				valid[i] = true
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return column.FromStrings(c.mem, vals, valid)
}

func parseStatus(err error) castStatus {
	if errors.Is(err, strconv.ErrRange) {
		return castOverflow
	}
	return castInvalid
}

// parser returns a function converting text to the Column.Value
// representation of dt.
func parser(dt cudf.DataType) (func(s string) (any, castStatus), error) {
	switch id := dt.ID(); {
	case id == cudf.BOOL8:
		return func(s string) (any, castStatus) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, castInvalid
			}
			return b, castOK
		}, nil
	case id.IsDecimal():
		prec, scale := decimalPrecision(id), dt.Scale()
		return func(s string) (any, castStatus) {
			n, err := decimal128.FromString(s, prec, scale)
			if err != nil {
				return nil, castInvalid
			}
			switch id {
			case cudf.DECIMAL32:
				return int32(n.LowBits()), castOK
			case cudf.DECIMAL64:
				return int64(n.LowBits()), castOK
			}
			return n, castOK
		}, nil
	case id.IsTimestamp():
		mult := dt.TimeUnit().Multiplier()
		return func(s string) (any, castStatus) {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, castInvalid
			}
			v, ok := overflow.Mul64(t.Unix(), mult)
			if !ok {
				return nil, castOverflow
			}
			return v + int64(t.Nanosecond())/(1e9/mult), castOK
		}, nil
	case id.IsSignedInteger(), id.IsDuration():
		bits := dt.Size() * 8
		return func(s string) (any, castStatus) {
			v, err := strconv.ParseInt(s, 10, bits)
			if err != nil {
				return nil, parseStatus(err)
			}
			switch id {
			case cudf.INT8:
				return int8(v), castOK
			case cudf.INT16:
				return int16(v), castOK
			case cudf.INT32:
				return int32(v), castOK
			}
			return v, castOK
		}, nil
	case id.IsUnsignedInteger():
		bits := dt.Size() * 8
		return func(s string) (any, castStatus) {
			v, err := strconv.ParseUint(s, 10, bits)
			if err != nil {
				return nil, parseStatus(err)
			}
			switch id {
			case cudf.UINT8:
				return uint8(v), castOK
			case cudf.UINT16:
				return uint16(v), castOK
			case cudf.UINT32:
				return uint32(v), castOK
			}
			return v, castOK
		}, nil
	case id.IsFloating():
		bits := dt.Size() * 8
		return func(s string) (any, castStatus) {
			v, err := strconv.ParseFloat(s, bits)
			if err != nil {
				return nil, parseStatus(err)
			}
			if bits == 32 {
				return float32(v), castOK
			}
			return v, castOK
		}, nil
	}
	return nil, fmt.Errorf("%w: cast from string to %s", cudf.ErrUnsupportedType, dt)
}

func (c *call) parseStrings(col *column.Column, to cudf.DataType, policy OverflowPolicy) (*column.Column, error) {
	parse, err := parser(to)
	if err != nil {
		return nil, err
	}
	out, err := c.newMasked(to, col.Len(), col)
	if err != nil {
		return nil, err
	}
	sv := column.Strings(col)
	fn := func(i int) castStatus {
		v, st := parse(strings.TrimSpace(sv.Value(i)))
		if st == castOK {
			column.SetValue(out, i, v)
		}
		return st
	}
	return finish(out, c.applyRows(out, policy, fn, nil))
}
