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
	"math/big"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"golang.org/x/exp/constraints"
)

type BinaryOp int8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	// OpDiv is division in the operand type; integer division truncates.
	OpDiv
	// OpTrueDiv always divides as FLOAT64.
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpPow
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	// OpNullEquals is equality where null equals null. Its output has no
	// nulls.
	OpNullEquals
	OpLogicalAnd
	OpLogicalOr
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
)

var binaryNames = [...]string{
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpTrueDiv:      "true_div",
	OpFloorDiv:     "floor_div",
	OpMod:          "mod",
	OpPow:          "pow",
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpLess:         "less",
	OpLessEqual:    "less_equal",
	OpGreater:      "greater",
	OpGreaterEqual: "greater_equal",
	OpNullEquals:   "null_equals",
	OpLogicalAnd:   "logical_and",
	OpLogicalOr:    "logical_or",
	OpBitwiseAnd:   "bitwise_and",
	OpBitwiseOr:    "bitwise_or",
	OpBitwiseXor:   "bitwise_xor",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// BinaryOpFromString is the inverse of BinaryOp.String.
func BinaryOpFromString(s string) (BinaryOp, bool) {
	for i, n := range binaryNames {
		if n == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

func (op BinaryOp) isComparison() bool { return op >= OpEqual && op <= OpNullEquals }

type BinaryOptions struct {
	// OnOverflow applies to integer and decimal arithmetic and to the
	// promotion of operands to a common type.
	OnOverflow OverflowPolicy
}

func DefaultBinaryOptions() BinaryOptions { return BinaryOptions{} }

// Binary applies op row by row to lhs and rhs, each a column or a scalar.
// Two columns must have the same length; two scalars give a one-row
// column. A row is null when either input row is null, except for
// OpNullEquals. Integer division and modulo by zero give null.
func Binary(ctx context.Context, op BinaryOp, lhs, rhs Datum, opts BinaryOptions) (out *column.Column, err error) {
	n := 1
	switch {
	case lhs.Kind() == KindColumn && rhs.Kind() == KindColumn:
		if lhs.Len() != rhs.Len() {
			return nil, fmt.Errorf("%w: operands of %d and %d rows", cudf.ErrShapeMismatch, lhs.Len(), rhs.Len())
		}
		n = lhs.Len()
	case lhs.Kind() == KindColumn:
		n = lhs.Len()
	case rhs.Kind() == KindColumn:
		n = rhs.Len()
	}
	c, err := begin(ctx, "binary", n)
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "binop", op, "lhs", lhs.Type(), "rhs", rhs.Type()) }()

	l, err := c.broadcast(lhs, n)
	if err != nil {
		return nil, err
	}
	defer l.Release()
	r, err := c.broadcast(rhs, n)
	if err != nil {
		return nil, err
	}
	defer r.Release()
	return c.binary(op, l, r, opts)
}

func (c *call) binary(op BinaryOp, l, r *column.Column, opts BinaryOptions) (*column.Column, error) {
	lt, rt := l.Type(), r.Type()
	switch {
	case op < OpAdd || op > OpBitwiseXor:
		return nil, fmt.Errorf("%w: binary op %d", cudf.ErrInvalidArgument, op)
	case op.isComparison():
		return c.compare(op, l, r, opts)
	case op == OpLogicalAnd || op == OpLogicalOr:
		return c.logical(op, l, r)
	case lt.ID().IsNested() || rt.ID().IsNested() || lt.ID() == cudf.STRING || rt.ID() == cudf.STRING:
		return nil, fmt.Errorf("%w: %s on %s and %s", cudf.ErrUnsupportedType, op, lt, rt)
	case isTimeType(lt) || isTimeType(rt):
		return c.timeArith(op, l, r, opts)
	case (lt.ID().IsDecimal() || rt.ID().IsDecimal()) && !lt.ID().IsFloating() && !rt.ID().IsFloating():
		return c.decimalArith(op, l, r, opts)
	}

	var work cudf.DataType
	switch op {
	case OpTrueDiv:
		work = cudf.Float64
	case OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor:
		if !isIntegerLike(lt) || !isIntegerLike(rt) {
			return nil, fmt.Errorf("%w: %s on %s and %s", cudf.ErrUnsupportedType, op, lt, rt)
		}
		work = promoteNumeric(lt, rt)
	default:
		work = promoteNumeric(lt, rt)
	}
	if work.ID() == cudf.BOOL8 {
		work = cudf.Uint8
	}
	return c.numericArith(op, l, r, work, opts)
}

func isTimeType(dt cudf.DataType) bool { return dt.ID().IsTimestamp() || dt.ID().IsDuration() }

func isIntegerLike(dt cudf.DataType) bool { return dt.ID().IsInteger() || dt.ID() == cudf.BOOL8 }

// promoteNumeric is the common type of two numeric, BOOL8 or decimal types.
// Decimals mixed with floats promote to FLOAT64; other decimal mixes promote
// to DECIMAL128 at the larger scale.
func promoteNumeric(a, b cudf.DataType) cudf.DataType {
	if a.Equal(b) {
		return a
	}
	ai, bi := a.ID(), b.ID()
	if ai == cudf.BOOL8 {
		ai, a = cudf.UINT8, cudf.Uint8
	}
	if bi == cudf.BOOL8 {
		bi, b = cudf.UINT8, cudf.Uint8
	}
	switch {
	case ai.IsDecimal() || bi.IsDecimal():
		if ai.IsFloating() || bi.IsFloating() {
			return cudf.Float64
		}
		scale := a.Scale()
		if b.Scale() > scale {
			scale = b.Scale()
		}
		if ai == bi {
			return cudf.NewDataType(ai, scale)
		}
		return cudf.Decimal128(scale)
	case ai.IsFloating() || bi.IsFloating():
		if ai == cudf.FLOAT64 || bi == cudf.FLOAT64 {
			return cudf.Float64
		}
		other := ai
		if ai == cudf.FLOAT32 {
			other = bi
		}
		if other == cudf.FLOAT32 || other.Size() <= 2 {
			return cudf.Float32
		}
		return cudf.Float64
	case ai.IsSignedInteger() == bi.IsSignedInteger():
		if ai.Size() >= bi.Size() {
			return a
		}
		return b
	}
	s, u := ai, bi
	if !s.IsSignedInteger() {
		s, u = u, s
	}
	if s.Size() > u.Size() {
		return cudf.NewDataType(s, 0)
	}
	switch u.Size() {
	case 1:
		return cudf.Int16
	case 2:
		return cudf.Int32
	}
	return cudf.Int64
}

// promote returns col as type to, converting it when needed. The result must
// be released by the caller.
func (c *call) promote(col *column.Column, to cudf.DataType, policy OverflowPolicy) (*column.Column, error) {
	if col.Type().Equal(to) {
		col.Retain()
		return col, nil
	}
	return c.cast(col, to, CastOptions{OnOverflow: policy})
}

func (c *call) promoteBoth(l, r *column.Column, lt, rt cudf.DataType, policy OverflowPolicy) (*column.Column, *column.Column, error) {
	lp, err := c.promote(l, lt, policy)
	if err != nil {
		return nil, nil, err
	}
	rp, err := c.promote(r, rt, policy)
	if err != nil {
		lp.Release()
		return nil, nil, err
	}
	return lp, rp, nil
}

func (c *call) numericArith(op BinaryOp, l, r *column.Column, work cudf.DataType, opts BinaryOptions) (*column.Column, error) {
	lp, rp, err := c.promoteBoth(l, r, work, work, opts.OnOverflow)
	if err != nil {
		return nil, err
	}
	defer lp.Release()
	defer rp.Release()
	out, err := c.newMasked(work, l.Len(), lp, rp)
	if err != nil {
		return nil, err
	}
	fn, sat, err := arithKernel(op, lp, rp, out)
	if err != nil {
		out.Release()
		return nil, err
	}
	return finish(out, c.applyRows(out, opts.OnOverflow, fn, sat))
}

// arithKernel dispatches on the shared physical type of a, b and out.
func arithKernel(op BinaryOp, a, b, out *column.Column) (func(int) castStatus, func(int), error) {
	switch out.Type().Physical() {
	case cudf.INT8:
		return arithInt(op, column.Values[int8](a), column.Values[int8](b), column.Values[int8](out))
	case cudf.INT16:
		return arithInt(op, column.Values[int16](a), column.Values[int16](b), column.Values[int16](out))
	case cudf.INT32:
		return arithInt(op, column.Values[int32](a), column.Values[int32](b), column.Values[int32](out))
	case cudf.INT64:
		return arithInt(op, column.Values[int64](a), column.Values[int64](b), column.Values[int64](out))
	case cudf.UINT8:
		return arithInt(op, column.Values[uint8](a), column.Values[uint8](b), column.Values[uint8](out))
	case cudf.UINT16:
		return arithInt(op, column.Values[uint16](a), column.Values[uint16](b), column.Values[uint16](out))
	case cudf.UINT32:
		return arithInt(op, column.Values[uint32](a), column.Values[uint32](b), column.Values[uint32](out))
	case cudf.UINT64:
		return arithInt(op, column.Values[uint64](a), column.Values[uint64](b), column.Values[uint64](out))
	case cudf.FLOAT32:
		return arithFloat(op, column.Values[float32](a), column.Values[float32](b), column.Values[float32](out))
	case cudf.FLOAT64:
		return arithFloat(op, column.Values[float64](a), column.Values[float64](b), column.Values[float64](out))
	}
	return nil, nil, fmt.Errorf("%w: %s on %s", cudf.ErrUnsupportedType, op, out.Type())
}

func arithFloat[T constraints.Float](op BinaryOp, a, b, r []T) (func(int) castStatus, func(int), error) {
	var f func(x, y T) T
	switch op {
	case OpAdd:
		f = func(x, y T) T { return x + y }
	case OpSub:
		f = func(x, y T) T { return x - y }
	case OpMul:
		f = func(x, y T) T { return x * y }
	case OpDiv, OpTrueDiv:
		f = func(x, y T) T { return x / y }
	case OpFloorDiv:
		f = func(x, y T) T { return T(math.Floor(float64(x / y))) }
	case OpMod:
		f = func(x, y T) T { return T(math.Mod(float64(x), float64(y))) }
	case OpPow:
		f = func(x, y T) T { return T(math.Pow(float64(x), float64(y))) }
	default:
		var zero T
		return nil, nil, fmt.Errorf("%w: %s on %T", cudf.ErrUnsupportedType, op, zero)
	}
	return func(i int) castStatus {
		r[i] = f(a[i], b[i])
		return castOK
	}, nil, nil
}

// mulInt multiplies and reports whether the product fits T.
func mulInt[T constraints.Integer](x, y, lowest T, signed bool) (T, bool) {
	p := x * y
	if x == 0 {
		return p, true
	}
	if p/x != y || signed && x+1 == 0 && y == lowest {
		return p, false
	}
	return p, true
}

// powInt raises x to a non-negative power y by squaring.
func powInt[T constraints.Integer](x, y, lowest T, signed bool) (T, bool) {
	if signed && y < 0 {
		switch {
		case x == 1:
			return 1, true
		case x+1 == 0:
			if y%2 == 0 {
				return 1, true
			}
			return x, true
		}
		return 0, true
	}
	res, ok := T(1), true
	for base, e := x, y; e > 0; e >>= 1 {
		var fits bool
		if e&1 == 1 {
			if res, fits = mulInt(res, base, lowest, signed); !fits {
				ok = false
			}
		}
		if e > 1 {
			if base, fits = mulInt(base, base, lowest, signed); !fits {
				ok = false
			}
		}
	}
	return res, ok
}

func arithInt[T constraints.Integer](op BinaryOp, a, b, r []T) (func(int) castStatus, func(int), error) {
	signed := isSigned[T]()
	lowest, highest := intLimits[T]()
	towardSign := func(neg bool) T {
		if neg {
			return lowest
		}
		return highest
	}
	switch op {
	case OpAdd:
		return func(i int) castStatus {
				x, y := a[i], b[i]
				s := x + y
				r[i] = s
				if signed && (x < 0) == (y < 0) && (s < 0) != (x < 0) || !signed && s < x {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				r[i] = towardSign(signed && b[i] < 0)
			}, nil
	case OpSub:
		return func(i int) castStatus {
				x, y := a[i], b[i]
				s := x - y
				r[i] = s
				if signed && (x < 0) != (y < 0) && (s < 0) != (x < 0) || !signed && x < y {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				r[i] = towardSign(!signed || b[i] > 0)
			}, nil
	case OpMul:
		return func(i int) castStatus {
				p, ok := mulInt(a[i], b[i], lowest, signed)
				r[i] = p
				if !ok {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				r[i] = towardSign(signed && (a[i] < 0) != (b[i] < 0))
			}, nil
	case OpDiv, OpFloorDiv:
		floor := op == OpFloorDiv
		return func(i int) castStatus {
				x, y := a[i], b[i]
				if y == 0 {
					return castNull
				}
				if signed && y+1 == 0 && x == lowest {
					r[i] = lowest
					return castOverflow
				}
				q := x / y
				if floor && signed && x%y != 0 && (x < 0) != (y < 0) {
					q--
				}
				r[i] = q
				return castOK
			}, func(i int) {
				r[i] = highest
			}, nil
	case OpMod:
		return func(i int) castStatus {
			if b[i] == 0 {
				return castNull
			}
			r[i] = a[i] % b[i]
			return castOK
		}, nil, nil
	case OpPow:
		return func(i int) castStatus {
				p, ok := powInt(a[i], b[i], lowest, signed)
				r[i] = p
				if !ok {
					return castOverflow
				}
				return castOK
			}, func(i int) {
				r[i] = towardSign(signed && a[i] < 0 && b[i]%2 != 0)
			}, nil
	case OpBitwiseAnd:
		return func(i int) castStatus { r[i] = a[i] & b[i]; return castOK }, nil, nil
	case OpBitwiseOr:
		return func(i int) castStatus { r[i] = a[i] | b[i]; return castOK }, nil, nil
	case OpBitwiseXor:
		return func(i int) castStatus { r[i] = a[i] ^ b[i]; return castOK }, nil, nil
	}
	var zero T
	return nil, nil, fmt.Errorf("%w: %s on %T", cudf.ErrUnsupportedType, op, zero)
}

// finerUnit is the finer of the units of two time types.
func finerUnit(a, b cudf.DataType) cudf.TimeUnit {
	u := a.TimeUnit()
	if isTimeType(b) && b.TimeUnit() > u || !isTimeType(a) {
		u = b.TimeUnit()
	}
	return u
}

// timeArith supports TIMESTAMP-TIMESTAMP giving a DURATION, TIMESTAMP+-
// DURATION giving a TIMESTAMP, DURATION+-DURATION, and DURATION scaled by
// or divided by an integer. Mixed units compute in the finer unit.
func (c *call) timeArith(op BinaryOp, l, r *column.Column, opts BinaryOptions) (*column.Column, error) {
	lt, rt := l.Type(), r.Type()
	lid, rid := lt.ID(), rt.ID()
	unit := finerUnit(lt, rt)
	unsupported := fmt.Errorf("%w: %s on %s and %s", cudf.ErrUnsupportedType, op, lt, rt)

	var lw, rw, res cudf.DataType
	switch {
	case lid.IsTimestamp() && rid.IsTimestamp() && op == OpSub:
		lw, rw, res = cudf.Timestamp(unit), cudf.Timestamp(unit), cudf.Duration(unit)
	case lid.IsTimestamp() && rid.IsDuration() && (op == OpAdd || op == OpSub):
		lw, rw, res = cudf.Timestamp(unit), cudf.Duration(unit), cudf.Timestamp(unit)
	case lid.IsDuration() && rid.IsTimestamp() && op == OpAdd:
		lw, rw, res = cudf.Duration(unit), cudf.Timestamp(unit), cudf.Timestamp(unit)
	case lid.IsDuration() && rid.IsDuration() && (op == OpAdd || op == OpSub || op == OpMod):
		lw, rw, res = cudf.Duration(unit), cudf.Duration(unit), cudf.Duration(unit)
	case lid.IsDuration() && isIntegerLike(rt) && (op == OpMul || op == OpDiv || op == OpFloorDiv || op == OpMod):
		lw, rw, res = lt, cudf.Int64, lt
	case isIntegerLike(lt) && rid.IsDuration() && op == OpMul:
		lw, rw, res = cudf.Int64, rt, rt
	default:
		return nil, unsupported
	}
	lp, rp, err := c.promoteBoth(l, r, lw, rw, opts.OnOverflow)
	if err != nil {
		return nil, err
	}
	defer lp.Release()
	defer rp.Release()
	out, err := c.newMasked(res, l.Len(), lp, rp)
	if err != nil {
		return nil, err
	}
	fn, sat, err := arithInt(op, column.Values[int64](lp), column.Values[int64](rp), column.Values[int64](out))
	if err != nil {
		out.Release()
		return nil, err
	}
	return finish(out, c.applyRows(out, opts.OnOverflow, fn, sat))
}

// decimalArith computes ADD and SUB at the larger operand scale, MUL at the
// sum of the scales and DIV at their difference. Integer operands take
// scale zero.
func (c *call) decimalArith(op BinaryOp, l, r *column.Column, opts BinaryOptions) (*column.Column, error) {
	lt, rt := l.Type(), r.Type()
	toDecimal := func(dt cudf.DataType) (cudf.DataType, error) {
		switch {
		case dt.ID().IsDecimal():
			return dt, nil
		case isIntegerLike(dt):
			return cudf.Decimal128(0), nil
		}
		return cudf.DataType{}, fmt.Errorf("%w: %s on %s and %s", cudf.ErrUnsupportedType, op, lt, rt)
	}
	lw, err := toDecimal(lt)
	if err != nil {
		return nil, err
	}
	rw, err := toDecimal(rt)
	if err != nil {
		return nil, err
	}
	id := lw.ID()
	if rw.ID() > id {
		id = rw.ID()
	}
	ls, rs := lw.Scale(), rw.Scale()
	var scale int32
	switch op {
	case OpAdd, OpSub:
		scale = ls
		if rs > scale {
			scale = rs
		}
	case OpMul:
		scale = ls + rs
	case OpDiv:
		scale = ls - rs
	default:
		return nil, fmt.Errorf("%w: %s on %s and %s", cudf.ErrUnsupportedType, op, lt, rt)
	}

	lp, rp, err := c.promoteBoth(l, r, lw, rw, opts.OnOverflow)
	if err != nil {
		return nil, err
	}
	defer lp.Release()
	defer rp.Release()
	res := cudf.NewDataType(id, scale)
	out, err := c.newMasked(res, l.Len(), lp, rp)
	if err != nil {
		return nil, err
	}
	x, _ := decimalAt(lp)
	y, _ := decimalAt(rp)
	put := decimalWriter(out)
	prec := decimalPrecision(id)
	limit := maxDecimal(prec).BigInt()

	var f func(a, b decimal128.Num) (decimal128.Num, castStatus)
	switch op {
	case OpAdd, OpSub:
		f = func(a, b decimal128.Num) (decimal128.Num, castStatus) {
			a, st := rescale(a, ls, scale, RoundNone)
			if st != castOK {
				return a, st
			}
			b, st = rescale(b, rs, scale, RoundNone)
			if st != castOK {
				return b, st
			}
			if op == OpSub {
				b = b.Negate()
			}
			sum := new(big.Int).Add(a.BigInt(), b.BigInt())
			if sum.CmpAbs(limit) > 0 {
				return decimal128.Num{}, castOverflow
			}
			return decimal128.FromBigInt(sum), castOK
		}
	case OpMul:
		f = func(a, b decimal128.Num) (decimal128.Num, castStatus) {
			p := new(big.Int).Mul(a.BigInt(), b.BigInt())
			if p.CmpAbs(limit) > 0 {
				return decimal128.Num{}, castOverflow
			}
			return decimal128.FromBigInt(p), castOK
		}
	case OpDiv:
		f = func(a, b decimal128.Num) (decimal128.Num, castStatus) {
			if b.Sign() == 0 {
				return a, castNull
			}
			q, _ := a.Div(b)
			if !q.FitsInPrecision(prec) {
				return q, castOverflow
			}
			return q, castOK
		}
	}
	fn := func(i int) castStatus {
		v, st := f(x(i), y(i))
		if st == castOK {
			put(i, v)
		}
		return st
	}
	return finish(out, c.applyRows(out, opts.OnOverflow, fn, nil))
}

// compareType is the type both operands of a comparison are converted to.
func compareType(a, b cudf.DataType) (cudf.DataType, error) {
	switch ai, bi := a.ID(), b.ID(); {
	case a.Equal(b):
		return a, nil
	case (ai.IsNumeric() || ai.IsDecimal() || ai == cudf.BOOL8) && (bi.IsNumeric() || bi.IsDecimal() || bi == cudf.BOOL8):
		dt := promoteNumeric(a, b)
		if dt.ID().IsDecimal() {
			return cudf.Decimal128(dt.Scale()), nil
		}
		return dt, nil
	case ai.IsTimestamp() && bi.IsTimestamp():
		return cudf.Timestamp(finerUnit(a, b)), nil
	case ai.IsDuration() && bi.IsDuration():
		return cudf.Duration(finerUnit(a, b)), nil
	}
	return cudf.DataType{}, fmt.Errorf("%w: cannot compare %s with %s", cudf.ErrTypeMismatch, a, b)
}

func numTest[T numeric](op BinaryOp, a, b []T) func(i int) bool {
	switch op {
	case OpNotEqual:
		return func(i int) bool { return a[i] != b[i] }
	case OpLess:
		return func(i int) bool { return a[i] < b[i] }
	case OpLessEqual:
		return func(i int) bool { return a[i] <= b[i] }
	case OpGreater:
		return func(i int) bool { return a[i] > b[i] }
	case OpGreaterEqual:
		return func(i int) bool { return a[i] >= b[i] }
	}
	return func(i int) bool { return a[i] == b[i] }
}

func cmpTest(op BinaryOp, cmp func(i, j int) int) func(i int) bool {
	switch op {
	case OpNotEqual:
		return func(i int) bool { return cmp(i, i) != 0 }
	case OpLess:
		return func(i int) bool { return cmp(i, i) < 0 }
	case OpLessEqual:
		return func(i int) bool { return cmp(i, i) <= 0 }
	case OpGreater:
		return func(i int) bool { return cmp(i, i) > 0 }
	case OpGreaterEqual:
		return func(i int) bool { return cmp(i, i) >= 0 }
	}
	return func(i int) bool { return cmp(i, i) == 0 }
}

// comparison returns the row test of op on two columns of one type. Floats
// compare as IEEE values, so NaN is unequal to everything.
func comparison(op BinaryOp, a, b *column.Column) (func(i int) bool, error) {
	dt := a.Type()
	switch dt.ID() {
	case cudf.FLOAT32:
		return numTest(op, column.Values[float32](a), column.Values[float32](b)), nil
	case cudf.FLOAT64:
		return numTest(op, column.Values[float64](a), column.Values[float64](b)), nil
	case cudf.LIST, cudf.STRUCT:
		if op != OpEqual && op != OpNotEqual && op != OpNullEquals {
			return nil, fmt.Errorf("%w: ordering on %s", cudf.ErrUnsupportedType, dt)
		}
		eq, err := elemEqual(a, b)
		if err != nil {
			return nil, err
		}
		if op == OpNotEqual {
			return func(i int) bool { return !eq(i, i) }, nil
		}
		return func(i int) bool { return eq(i, i) }, nil
	}
	cmp, err := elemCompare(a, b)
	if err != nil {
		return nil, err
	}
	return cmpTest(op, cmp), nil
}

func (c *call) compare(op BinaryOp, l, r *column.Column, opts BinaryOptions) (*column.Column, error) {
	work, err := compareType(l.Type(), r.Type())
	if err != nil {
		return nil, err
	}
	lp, rp, err := c.promoteBoth(l, r, work, work, opts.OnOverflow)
	if err != nil {
		return nil, err
	}
	defer lp.Release()
	defer rp.Release()
	test, err := comparison(op, lp, rp)
	if err != nil {
		return nil, err
	}

	n := l.Len()
	if op == OpNullEquals {
		out, err := column.NewFixedWidth(c.mem, cudf.Bool8, n, false)
		if err != nil {
			return nil, err
		}
		dst := column.Values[uint8](out)
		err = c.forEach(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				ln, rn := lp.IsNull(i), rp.IsNull(i)
				if ln || rn {
					if ln && rn {
						dst[i] = 1
					}
					continue
				}
				if test(i) {
					dst[i] = 1
				}
			}
		})
		return finish(out, err)
	}

	out, err := c.newMasked(cudf.Bool8, n, lp, rp)
	if err != nil {
		return nil, err
	}
	dst := column.Values[uint8](out)
	return finish(out, c.applyRows(out, OverflowError, func(i int) castStatus {
		if test(i) {
			dst[i] = 1
		}
		return castOK
	}, nil))
}

func (c *call) logical(op BinaryOp, l, r *column.Column) (*column.Column, error) {
	x, err := isTruthy(l)
	if err != nil {
		return nil, err
	}
	y, err := isTruthy(r)
	if err != nil {
		return nil, err
	}
	out, err := c.newMasked(cudf.Bool8, l.Len(), l, r)
	if err != nil {
		return nil, err
	}
	dst := column.Values[uint8](out)
	and := op == OpLogicalAnd
	return finish(out, c.applyRows(out, OverflowError, func(i int) castStatus {
		if and && x(i) && y(i) || !and && (x(i) || y(i)) {
			dst[i] = 1
		}
		return castOK
	}, nil))
}
