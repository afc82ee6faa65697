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

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"golang.org/x/exp/constraints"
)

func widenInt[T constraints.Integer](v []T) func(i int) int64 {
	return func(i int) int64 { return int64(v[i]) }
}

func widenUint[T constraints.Unsigned](v []T) func(i int) uint64 {
	return func(i int) uint64 { return uint64(v[i]) }
}

func widenFloat[T constraints.Integer | constraints.Float](v []T) func(i int) float64 {
	return func(i int) float64 { return float64(v[i]) }
}

// int64At reads signed integers, BOOL8, durations and the unscaled values
// of DECIMAL32/64 as int64.
func int64At(c *column.Column) (func(i int) int64, error) {
	switch c.Type().Physical() {
	case cudf.INT8:
		return widenInt(column.Values[int8](c)), nil
	case cudf.INT16:
		return widenInt(column.Values[int16](c)), nil
	case cudf.INT32:
		return widenInt(column.Values[int32](c)), nil
	case cudf.INT64:
		return widenInt(column.Values[int64](c)), nil
	case cudf.UINT8:
		if c.Type().ID() == cudf.BOOL8 {
			return widenInt(column.Values[uint8](c)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not a signed integer type", cudf.ErrUnsupportedType, c.Type())
}

// uint64At reads unsigned integers as uint64.
func uint64At(c *column.Column) (func(i int) uint64, error) {
	if c.Type().ID() == cudf.BOOL8 {
		return nil, fmt.Errorf("%w: %s is not an unsigned integer type", cudf.ErrUnsupportedType, c.Type())
	}
	switch c.Type().Physical() {
	case cudf.UINT8:
		return widenUint(column.Values[uint8](c)), nil
	case cudf.UINT16:
		return widenUint(column.Values[uint16](c)), nil
	case cudf.UINT32:
		return widenUint(column.Values[uint32](c)), nil
	case cudf.UINT64:
		return widenUint(column.Values[uint64](c)), nil
	}
	return nil, fmt.Errorf("%w: %s is not an unsigned integer type", cudf.ErrUnsupportedType, c.Type())
}

// float64At reads numeric, BOOL8 and decimal columns as float64. Decimals
// are scaled; timestamps and durations are rejected.
func float64At(c *column.Column) (func(i int) float64, error) {
	dt := c.Type()
	switch dt.ID() {
	case cudf.INT8:
		return widenFloat(column.Values[int8](c)), nil
	case cudf.INT16:
		return widenFloat(column.Values[int16](c)), nil
	case cudf.INT32:
		return widenFloat(column.Values[int32](c)), nil
	case cudf.INT64:
		return widenFloat(column.Values[int64](c)), nil
	case cudf.UINT8, cudf.BOOL8:
		return widenFloat(column.Values[uint8](c)), nil
	case cudf.UINT16:
		return widenFloat(column.Values[uint16](c)), nil
	case cudf.UINT32:
		return widenFloat(column.Values[uint32](c)), nil
	case cudf.UINT64:
		return widenFloat(column.Values[uint64](c)), nil
	case cudf.FLOAT32:
		return widenFloat(column.Values[float32](c)), nil
	case cudf.FLOAT64:
		return widenFloat(column.Values[float64](c)), nil
	case cudf.DECIMAL32, cudf.DECIMAL64, cudf.DECIMAL128:
		get, err := decimalAt(c)
		if err != nil {
			return nil, err
		}
		scale := dt.Scale()
		return func(i int) float64 { return get(i).ToFloat64(scale) }, nil
	}
	return nil, fmt.Errorf("%w: %s is not numeric", cudf.ErrUnsupportedType, dt)
}

// decimalAt reads the unscaled values of a decimal column as
// decimal128.Num.
func decimalAt(c *column.Column) (func(i int) decimal128.Num, error) {
	switch c.Type().ID() {
	case cudf.DECIMAL32:
		v := column.Values[int32](c)
		return func(i int) decimal128.Num { return decimal128.FromI64(int64(v[i])) }, nil
	case cudf.DECIMAL64:
		v := column.Values[int64](c)
		return func(i int) decimal128.Num { return decimal128.FromI64(v[i]) }, nil
	case cudf.DECIMAL128:
		v := column.Values[decimal128.Num](c)
		return func(i int) decimal128.Num { return v[i] }, nil
	}
	return nil, fmt.Errorf("%w: %s is not a decimal type", cudf.ErrUnsupportedType, c.Type())
}

// isTruthy reads numeric and BOOL8 rows as booleans: non-zero is true.
func isTruthy(c *column.Column) (func(i int) bool, error) {
	if c.Type().ID() == cudf.BOOL8 {
		v := column.Values[uint8](c)
		return func(i int) bool { return v[i] != 0 }, nil
	}
	if !c.Type().ID().IsNumeric() {
		return nil, fmt.Errorf("%w: %s has no truth value", cudf.ErrUnsupportedType, c.Type())
	}
	f, err := float64At(c)
	if err != nil {
		return nil, err
	}
	return func(i int) bool { return f(i) != 0 }, nil
}
