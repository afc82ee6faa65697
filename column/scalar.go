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

package column

import (
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
)

// Scalar is a single nullable typed value. Its Go representation follows
// Column.Value.
type Scalar struct {
	dtype cudf.DataType
	valid bool
	value any
}

// NullScalar is the null value of type dt.
func NullScalar(dt cudf.DataType) Scalar { return Scalar{dtype: dt} }

// NewScalar checks that v has the Go representation of dt. Go int values
// are accepted for every integer-backed type and float64 for floats.
func NewScalar(dt cudf.DataType, v any) (Scalar, error) {
	if v == nil {
		return NullScalar(dt), nil
	}
	norm, err := normalize(dt, v)
	if err != nil {
		return Scalar{}, err
	}
	return Scalar{dtype: dt, valid: true, value: norm}, nil
}

// MakeScalar infers the type from the Go type of v.
func MakeScalar(v any) Scalar {
	var dt cudf.DataType
	switch v.(type) {
	case int8:
		dt = cudf.Int8
	case int16:
		dt = cudf.Int16
	case int32:
		dt = cudf.Int32
	case int64, int:
		dt = cudf.Int64
	case uint8:
		dt = cudf.Uint8
	case uint16:
		dt = cudf.Uint16
	case uint32:
		dt = cudf.Uint32
	case uint64:
		dt = cudf.Uint64
	case float32:
		dt = cudf.Float32
	case float64:
		dt = cudf.Float64
	case bool:
		dt = cudf.Bool8
	case string:
		dt = cudf.String
	default:
		panic(fmt.Sprintf("column: cannot infer scalar type of %T", v))
	}
	s, err := NewScalar(dt, v)
	if err != nil {
		panic(err)
	}
	return s
}

func normalize(dt cudf.DataType, v any) (any, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %T is not a %s value", cudf.ErrTypeMismatch, v, dt)
	}
	if i, ok := v.(int); ok {
		switch dt.Physical() {
		case cudf.INT8:
			return int8(i), nil
		case cudf.INT16:
			return int16(i), nil
		case cudf.INT32:
			return int32(i), nil
		case cudf.INT64:
			return int64(i), nil
		case cudf.UINT8:
			if dt.ID() == cudf.BOOL8 {
				return i != 0, nil
			}
			return uint8(i), nil
		case cudf.UINT16:
			return uint16(i), nil
		case cudf.UINT32:
			return uint32(i), nil
		case cudf.UINT64:
			return uint64(i), nil
		case cudf.FLOAT32:
			return float32(i), nil
		case cudf.FLOAT64:
			return float64(i), nil
		case cudf.DECIMAL128:
			return decimal128.FromI64(int64(i)), nil
		}
		return nil, mismatch()
	}
	if f, ok := v.(float64); ok && dt.ID() == cudf.FLOAT32 {
		return float32(f), nil
	}
	ok := false
	switch dt.ID() {
	case cudf.INT8:
		_, ok = v.(int8)
	case cudf.INT16:
		_, ok = v.(int16)
	case cudf.INT32, cudf.DECIMAL32:
		_, ok = v.(int32)
	case cudf.INT64, cudf.DECIMAL64,
		cudf.TIMESTAMP_S, cudf.TIMESTAMP_MS, cudf.TIMESTAMP_US, cudf.TIMESTAMP_NS,
		cudf.DURATION_S, cudf.DURATION_MS, cudf.DURATION_US, cudf.DURATION_NS:
		_, ok = v.(int64)
	case cudf.UINT8:
		_, ok = v.(uint8)
	case cudf.UINT16:
		_, ok = v.(uint16)
	case cudf.UINT32:
		_, ok = v.(uint32)
	case cudf.UINT64:
		_, ok = v.(uint64)
	case cudf.FLOAT32:
		_, ok = v.(float32)
	case cudf.FLOAT64:
		_, ok = v.(float64)
	case cudf.BOOL8:
		_, ok = v.(bool)
	case cudf.DECIMAL128:
		_, ok = v.(decimal128.Num)
	case cudf.STRING:
		_, ok = v.(string)
	case cudf.LIST, cudf.STRUCT:
		_, ok = v.([]any)
	}
	if !ok {
		return nil, mismatch()
	}
	return v, nil
}

func (s Scalar) Type() cudf.DataType { return s.dtype }
func (s Scalar) IsValid() bool       { return s.valid }

// Value is the Go value of the scalar, nil when null.
func (s Scalar) Value() any { return s.value }

func (s Scalar) String() string {
	if !s.valid {
		return "null"
	}
	return fmt.Sprint(s.value)
}

// Float64 converts a valid numeric scalar to float64. Decimals are scaled.
func (s Scalar) Float64() (float64, bool) {
	if !s.valid {
		return 0, false
	}
	switch v := s.value.(type) {
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		if s.dtype.ID() == cudf.DECIMAL32 {
			return decimal128.FromI64(int64(v)).ToFloat64(s.dtype.Scale()), true
		}
		return float64(v), true
	case int64:
		if s.dtype.ID() == cudf.DECIMAL64 {
			return decimal128.FromI64(v).ToFloat64(s.dtype.Scale()), true
		}
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case decimal128.Num:
		return v.ToFloat64(s.dtype.Scale()), true
	}
	return 0, false
}

// Scalar returns row i as a Scalar.
func (c *Column) Scalar(i int) Scalar {
	v := c.Value(i)
	if v == nil {
		return NullScalar(c.dtype)
	}
	return Scalar{dtype: c.dtype, valid: true, value: v}
}

// SetValue writes v to row i of a fixed-width column under construction.
// v must use the representation of Column.Value.
func SetValue(c *Column, i int, v any) {
	switch c.dtype.ID() {
	case cudf.INT8:
		Values[int8](c)[i] = v.(int8)
	case cudf.INT16:
		Values[int16](c)[i] = v.(int16)
	case cudf.INT32, cudf.DECIMAL32:
		Values[int32](c)[i] = v.(int32)
	case cudf.INT64, cudf.DECIMAL64,
		cudf.TIMESTAMP_S, cudf.TIMESTAMP_MS, cudf.TIMESTAMP_US, cudf.TIMESTAMP_NS,
		cudf.DURATION_S, cudf.DURATION_MS, cudf.DURATION_US, cudf.DURATION_NS:
		Values[int64](c)[i] = v.(int64)
	case cudf.UINT8:
		Values[uint8](c)[i] = v.(uint8)
	case cudf.UINT16:
		Values[uint16](c)[i] = v.(uint16)
	case cudf.UINT32:
		Values[uint32](c)[i] = v.(uint32)
	case cudf.UINT64:
		Values[uint64](c)[i] = v.(uint64)
	case cudf.FLOAT32:
		Values[float32](c)[i] = v.(float32)
	case cudf.FLOAT64:
		Values[float64](c)[i] = v.(float64)
	case cudf.BOOL8:
		var b uint8
		if v.(bool) {
			b = 1
		}
		Values[uint8](c)[i] = b
	case cudf.DECIMAL128:
		Values[decimal128.Num](c)[i] = v.(decimal128.Num)
	default:
		panic("column: SetValue on " + c.dtype.String())
	}
}

// MakeColumnFromScalar repeats s n times.
func MakeColumnFromScalar(mem memory.Allocator, s Scalar, n int) (*Column, error) {
	dt := s.dtype
	if !s.valid {
		return NewAllNull(mem, dt, n)
	}
	switch {
	case dt.ID() == cudf.STRING:
		vals := make([]string, n)
		for i := range vals {
			vals[i] = s.value.(string)
		}
		return FromStrings(mem, vals, nil)
	case dt.IsFixedWidth():
		c, err := NewFixedWidth(mem, dt, n, false)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			SetValue(c, i, s.value)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: cannot broadcast a %s scalar", cudf.ErrUnsupportedType, dt)
}
