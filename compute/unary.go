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
	"golang.org/x/exp/constraints"
)

type UnaryOp int8

const (
	UnaryAbs UnaryOp = iota
	UnaryNegate
	// UnaryNot is logical negation; the result is BOOL8.
	UnaryNot
	UnaryBitInvert
	UnarySin
	UnaryCos
	UnaryTan
	UnaryArcsin
	UnaryArccos
	UnaryArctan
	UnarySinh
	UnaryCosh
	UnaryTanh
	UnaryExp
	UnaryLog
	UnarySqrt
	UnaryCbrt
	UnaryCeil
	UnaryFloor
	// UnaryRint rounds half to even.
	UnaryRint
)

var unaryNames = [...]string{
	UnaryAbs:       "abs",
	UnaryNegate:    "negate",
	UnaryNot:       "not",
	UnaryBitInvert: "bit_invert",
	UnarySin:       "sin",
	UnaryCos:       "cos",
	UnaryTan:       "tan",
	UnaryArcsin:    "arcsin",
	UnaryArccos:    "arccos",
	UnaryArctan:    "arctan",
	UnarySinh:      "sinh",
	UnaryCosh:      "cosh",
	UnaryTanh:      "tanh",
	UnaryExp:       "exp",
	UnaryLog:       "log",
	UnarySqrt:      "sqrt",
	UnaryCbrt:      "cbrt",
	UnaryCeil:      "ceil",
	UnaryFloor:     "floor",
	UnaryRint:      "rint",
}

func (op UnaryOp) String() string {
	if op >= 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("UnaryOp(%d)", op)
}

func UnaryOpFromString(s string) (UnaryOp, bool) {
	for i, n := range unaryNames {
		if n == s {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

var mathFuncs = map[UnaryOp]func(float64) float64{
	UnarySin:    math.Sin,
	UnaryCos:    math.Cos,
	UnaryTan:    math.Tan,
	UnaryArcsin: math.Asin,
	UnaryArccos: math.Acos,
	UnaryArctan: math.Atan,
	UnarySinh:   math.Sinh,
	UnaryCosh:   math.Cosh,
	UnaryTanh:   math.Tanh,
	UnaryExp:    math.Exp,
	UnaryLog:    math.Log,
	UnarySqrt:   math.Sqrt,
	UnaryCbrt:   math.Cbrt,
	UnaryCeil:   math.Ceil,
	UnaryFloor:  math.Floor,
	UnaryRint:   math.RoundToEven,
}

// Unary applies op to every valid row of col. Transcendental ops on
// non-float input compute in FLOAT64. CEIL, FLOOR and RINT leave integers
// unchanged. ABS and NEGATE of the minimum signed integer fail with
// cudf.ErrOverflow.
func Unary(ctx context.Context, op UnaryOp, col *column.Column) (out *column.Column, err error) {
	c, err := begin(ctx, "unary", col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "unaryop", op, "type", col.Type()) }()
	return c.unary(op, col)
}

func (c *call) unary(op UnaryOp, col *column.Column) (*column.Column, error) {
	dt := col.Type()
	id := dt.ID()
	unsupported := fmt.Errorf("%w: %s on %s", cudf.ErrUnsupportedType, op, dt)
	switch {
	case op < UnaryAbs || op > UnaryRint:
		return nil, fmt.Errorf("%w: unary op %d", cudf.ErrInvalidArgument, op)
	case op == UnaryNot:
		truthy, err := isTruthy(col)
		if err != nil {
			return nil, err
		}
		out, err := c.newMasked(cudf.Bool8, col.Len(), col)
		if err != nil {
			return nil, err
		}
		dst := column.Values[uint8](out)
		return finish(out, c.applyRows(out, OverflowError, func(i int) castStatus {
			if !truthy(i) {
				dst[i] = 1
			}
			return castOK
		}, nil))
	case op >= UnaryCeil && id.IsInteger():
		return c.concat([]*column.Column{col})
	case op >= UnarySin && !id.IsFloating():
		if !id.IsNumeric() && !id.IsDecimal() && id != cudf.BOOL8 {
			return nil, unsupported
		}
		f, err := c.cast(col, cudf.Float64, DefaultCastOptions())
		if err != nil {
			return nil, err
		}
		defer f.Release()
		return c.unary(op, f)
	case id.IsDecimal():
		if op != UnaryAbs && op != UnaryNegate {
			return nil, unsupported
		}
		return c.unaryDecimal(op, col)
	case id.IsNested(), id == cudf.STRING, id == cudf.BOOL8, id.IsTimestamp():
		return nil, unsupported
	}

	out, err := c.newMasked(dt, col.Len(), col)
	if err != nil {
		return nil, err
	}
	var fn func(int) castStatus
	switch dt.Physical() {
	case cudf.INT8:
		fn, err = unaryInt(op, column.Values[int8](col), column.Values[int8](out))
	case cudf.INT16:
		fn, err = unaryInt(op, column.Values[int16](col), column.Values[int16](out))
	case cudf.INT32:
		fn, err = unaryInt(op, column.Values[int32](col), column.Values[int32](out))
	case cudf.INT64:
		fn, err = unaryInt(op, column.Values[int64](col), column.Values[int64](out))
	case cudf.UINT8:
		fn, err = unaryInt(op, column.Values[uint8](col), column.Values[uint8](out))
	case cudf.UINT16:
		fn, err = unaryInt(op, column.Values[uint16](col), column.Values[uint16](out))
	case cudf.UINT32:
		fn, err = unaryInt(op, column.Values[uint32](col), column.Values[uint32](out))
	case cudf.UINT64:
		fn, err = unaryInt(op, column.Values[uint64](col), column.Values[uint64](out))
	case cudf.FLOAT32:
		fn, err = unaryFloat(op, column.Values[float32](col), column.Values[float32](out))
	case cudf.FLOAT64:
		fn, err = unaryFloat(op, column.Values[float64](col), column.Values[float64](out))
	default:
		err = unsupported
	}
	if err == nil && id.IsDuration() && op == UnaryBitInvert {
		err = unsupported
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	return finish(out, c.applyRows(out, OverflowError, fn, nil))
}

func unaryInt[T constraints.Integer](op UnaryOp, src, dst []T) (func(int) castStatus, error) {
	signed := isSigned[T]()
	lowest, _ := intLimits[T]()
	switch op {
	case UnaryAbs:
		return func(i int) castStatus {
			v := src[i]
			if signed && v == lowest {
				return castOverflow
			}
			if v < 0 {
				v = -v
			}
			dst[i] = v
			return castOK
		}, nil
	case UnaryNegate:
		if !signed {
			break
		}
		return func(i int) castStatus {
			if src[i] == lowest {
				return castOverflow
			}
			dst[i] = -src[i]
			return castOK
		}, nil
	case UnaryBitInvert:
		return func(i int) castStatus {
			dst[i] = ^src[i]
			return castOK
		}, nil
	}
	var zero T
	return nil, fmt.Errorf("%w: %s on %T", cudf.ErrUnsupportedType, op, zero)
}

func unaryFloat[T constraints.Float](op UnaryOp, src, dst []T) (func(int) castStatus, error) {
	switch op {
	case UnaryAbs:
		return func(i int) castStatus {
			dst[i] = T(math.Abs(float64(src[i])))
			return castOK
		}, nil
	case UnaryNegate:
		return func(i int) castStatus {
			dst[i] = -src[i]
			return castOK
		}, nil
	}
	f, ok := mathFuncs[op]
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s on %T", cudf.ErrUnsupportedType, op, zero)
	}
	return func(i int) castStatus {
		dst[i] = T(f(float64(src[i])))
		return castOK
	}, nil
}

func (c *call) unaryDecimal(op UnaryOp, col *column.Column) (*column.Column, error) {
	get, err := decimalAt(col)
	if err != nil {
		return nil, err
	}
	out, err := c.newMasked(col.Type(), col.Len(), col)
	if err != nil {
		return nil, err
	}
	put := decimalWriter(out)
	return finish(out, c.applyRows(out, OverflowError, func(i int) castStatus {
		v := get(i)
		if op == UnaryNegate || v.Sign() < 0 {
			v = v.Negate()
		}
		put(i, v)
		return castOK
	}, nil))
}

// IsNull returns a BOOL8 column without nulls that is true at null rows.
func IsNull(ctx context.Context, col *column.Column) (*column.Column, error) {
	return validity(ctx, "is_null", col, false)
}

// IsValid returns a BOOL8 column without nulls that is true at valid rows.
func IsValid(ctx context.Context, col *column.Column) (*column.Column, error) {
	return validity(ctx, "is_valid", col, true)
}

func validity(ctx context.Context, op string, col *column.Column, want bool) (out *column.Column, err error) {
	c, err := begin(ctx, op, col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()
	return c.rowTest(col.Len(), func(i int) bool { return col.IsValid(i) == want })
}

// IsNaN returns a BOOL8 column without nulls that is true at valid NaN rows
// of a float column.
func IsNaN(ctx context.Context, col *column.Column) (*column.Column, error) {
	return nanTest(ctx, "is_nan", col, true)
}

// IsNotNaN returns a BOOL8 column without nulls that is true at valid rows
// of a float column holding a number.
func IsNotNaN(ctx context.Context, col *column.Column) (*column.Column, error) {
	return nanTest(ctx, "is_not_nan", col, false)
}

func nanTest(ctx context.Context, op string, col *column.Column, want bool) (out *column.Column, err error) {
	c, err := begin(ctx, op, col.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()
	if !col.Type().ID().IsFloating() {
		return nil, fmt.Errorf("%w: %s on %s", cudf.ErrUnsupportedType, op, col.Type())
	}
	get, err := float64At(col)
	if err != nil {
		return nil, err
	}
	return c.rowTest(col.Len(), func(i int) bool { return col.IsValid(i) && math.IsNaN(get(i)) == want })
}

// rowTest evaluates test on every row into a BOOL8 column without nulls.
func (c *call) rowTest(n int, test func(i int) bool) (*column.Column, error) {
	out, err := column.NewFixedWidth(c.mem, cudf.Bool8, n, false)
	if err != nil {
		return nil, err
	}
	dst := column.Values[uint8](out)
	return finish(out, c.forEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if test(i) {
				dst[i] = 1
			}
		}
	}))
}
