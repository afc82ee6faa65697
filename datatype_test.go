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

package cudf_test

import (
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/stretchr/testify/assert"
)

func TestTypeIDNames(t *testing.T) {
	for id := cudf.INT8; id <= cudf.STRUCT; id++ {
		got, ok := cudf.TypeIDFromString(id.String())
		assert.True(t, ok, id.String())
		assert.Equal(t, id, got)
	}
	_, ok := cudf.TypeIDFromString("float16")
	assert.False(t, ok)
}

func TestDataTypeLayout(t *testing.T) {
	tests := []struct {
		dt       cudf.DataType
		size     int
		physical cudf.TypeID
		str      string
	}{
		{cudf.Int8, 1, cudf.INT8, "int8"},
		{cudf.Bool8, 1, cudf.UINT8, "bool8"},
		{cudf.Float64, 8, cudf.FLOAT64, "float64"},
		{cudf.Decimal32(-2), 4, cudf.INT32, "decimal32(scale=-2)"},
		{cudf.Decimal64(3), 8, cudf.INT64, "decimal64(scale=3)"},
		{cudf.Decimal128(0), 16, cudf.DECIMAL128, "decimal128(scale=0)"},
		{cudf.Timestamp(cudf.Millisecond), 8, cudf.INT64, "timestamp[ms]"},
		{cudf.Duration(cudf.Second), 8, cudf.INT64, "duration[s]"},
		{cudf.String, 0, cudf.STRING, "string"},
		{cudf.ListOf(cudf.Int32), 0, cudf.LIST, "list<int32>"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.dt.Size())
			assert.Equal(t, tt.size > 0, tt.dt.IsFixedWidth())
			assert.Equal(t, tt.physical, tt.dt.Physical())
			assert.Equal(t, tt.str, tt.dt.String())
		})
	}
}

func TestDataTypeEqual(t *testing.T) {
	assert.True(t, cudf.Decimal64(2).Equal(cudf.Decimal64(2)))
	assert.False(t, cudf.Decimal64(2).Equal(cudf.Decimal64(3)))
	assert.False(t, cudf.Int32.Equal(cudf.Uint32))
	assert.True(t, cudf.ListOf(cudf.String).Equal(cudf.ListOf(cudf.String)))
	assert.False(t, cudf.ListOf(cudf.String).Equal(cudf.ListOf(cudf.Int8)))

	st := cudf.StructOf([]cudf.DataType{cudf.Int64, cudf.String}, "id", "name")
	assert.Equal(t, "struct<id: int64, name: string>", st.String())
	assert.Equal(t, 2, st.NumChildren())
	assert.Equal(t, "name", st.FieldName(1))
	assert.Equal(t, cudf.Millisecond, cudf.Timestamp(cudf.Millisecond).TimeUnit())
	assert.EqualValues(t, 1000, cudf.Millisecond.Multiplier())
}
