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
	"strings"

	"github.com/VamsiTallam95/cudf"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
)

// Value returns row i as a Go value, or nil when the row is null. Integers,
// floats and time types map to the Go type of their storage, BOOL8 to bool,
// DECIMAL32/64 to their unscaled integer, DECIMAL128 to decimal128.Num,
// STRING to string, and LIST and STRUCT to []any.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.dtype.ID() {
	case cudf.INT8:
		return Values[int8](c)[i]
	case cudf.INT16:
		return Values[int16](c)[i]
	case cudf.INT32, cudf.DECIMAL32:
		return Values[int32](c)[i]
	case cudf.INT64, cudf.DECIMAL64,
		cudf.TIMESTAMP_S, cudf.TIMESTAMP_MS, cudf.TIMESTAMP_US, cudf.TIMESTAMP_NS,
		cudf.DURATION_S, cudf.DURATION_MS, cudf.DURATION_US, cudf.DURATION_NS:
		return Values[int64](c)[i]
	case cudf.UINT8:
		return Values[uint8](c)[i]
	case cudf.UINT16:
		return Values[uint16](c)[i]
	case cudf.UINT32:
		return Values[uint32](c)[i]
	case cudf.UINT64:
		return Values[uint64](c)[i]
	case cudf.FLOAT32:
		return Values[float32](c)[i]
	case cudf.FLOAT64:
		return Values[float64](c)[i]
	case cudf.BOOL8:
		return Values[uint8](c)[i] != 0
	case cudf.DECIMAL128:
		return Values[decimal128.Num](c)[i]
	case cudf.STRING:
		return Strings(c).Value(i)
	case cudf.LIST:
		lv := Lists(c)
		start, end := lv.Range(i)
		out := make([]any, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, lv.elems.Value(j))
		}
		return out
	case cudf.STRUCT:
		out := make([]any, len(c.children))
		for f, ch := range c.children {
			out[f] = ch.Value(i)
		}
		return out
	}
	return nil
}

// ToSlice returns every row as produced by Value.
func ToSlice(c *Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Format renders a column for debugging.
func Format(c *Column) string {
	var sb strings.Builder
	sb.WriteString(c.dtype.String())
	sb.WriteString("[")
	for i := 0; i < c.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		if v := c.Value(i); v == nil {
			sb.WriteString("null")
		} else if s, ok := v.(string); ok {
			fmt.Fprintf(&sb, "%q", s)
		} else {
			fmt.Fprint(&sb, v)
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Equal reports whether two columns have the same type, length, validity
// and values. Offsets of views do not matter.
func Equal(a, b *Column) bool {
	if !a.dtype.Equal(b.dtype) || a.Len() != b.Len() || a.NullCount() != b.NullCount() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !valuesEqual(a.Value(i), b.Value(i)) {
			return false
		}
	}
	return true
}

func valuesEqual(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	xs, xok := x.([]any)
	ys, yok := y.([]any)
	if xok || yok {
		if !xok || !yok || len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !valuesEqual(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	switch xv := x.(type) {
	case float32:
		yv := y.(float32)
		return xv == yv || (xv != xv && yv != yv)
	case float64:
		yv := y.(float64)
		return xv == yv || (xv != xv && yv != yv)
	}
	return x == y
}
