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

package column_test

import (
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	col, err := column.FromSlice(mem, cudf.Int32, []int32{1, 2, 3, 4}, []bool{true, false, true, true})
	require.NoError(t, err)
	defer col.Release()

	assert.Equal(t, 4, col.Len())
	assert.Equal(t, 1, col.NullCount())
	assert.True(t, col.HasNulls())
	assert.True(t, col.NullMaskPresent())
	assert.Equal(t, []any{int32(1), nil, int32(3), int32(4)}, column.ToSlice(col))
	assert.Equal(t, "int32[1, null, 3, 4]", col.String())

	_, err = column.FromSlice(mem, cudf.Int64, []int32{1}, nil)
	assert.ErrorIs(t, err, cudf.ErrTypeMismatch)
	_, err = column.FromSlice(mem, cudf.Int32, []int32{1}, []bool{true, true})
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)
}

func TestValueRepresentations(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := column.FromBools(mem, []bool{true, false}, nil)
	require.NoError(t, err)
	defer b.Release()
	assert.Equal(t, []any{true, false}, column.ToSlice(b))
	assert.False(t, b.NullMaskPresent())

	d, err := column.FromSlice(mem, cudf.Decimal32(2), []int32{12345}, nil)
	require.NoError(t, err)
	defer d.Release()
	assert.Equal(t, int32(12345), d.Value(0))
	f, ok := d.Scalar(0).Float64()
	assert.True(t, ok)
	assert.InDelta(t, 123.45, f, 1e-9)

	d128, err := column.FromSlice(mem, cudf.Decimal128(0), []decimal128.Num{decimal128.FromI64(-7)}, nil)
	require.NoError(t, err)
	defer d128.Release()
	assert.Equal(t, decimal128.FromI64(-7), d128.Value(0))

	s, err := column.FromStrings(mem, []string{"a", "ignored", "", "xyz"}, []bool{true, false, true, true})
	require.NoError(t, err)
	defer s.Release()
	assert.Equal(t, []any{"a", nil, "", "xyz"}, column.ToSlice(s))
	assert.Equal(t, 4, column.Strings(s).Len(3)+column.Strings(s).Len(0))
	assert.Equal(t, `string["a", null, "", "xyz"]`, column.Format(s))
}

func TestNestedColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	elems, err := column.FromSlice(mem, cudf.Int64, []int64{1, 2, 3, 4, 5}, []bool{true, true, false, true, true})
	require.NoError(t, err)
	list, err := column.NewList(mem, []int32{0, 2, 2, 5}, elems, []bool{true, false, true})
	require.NoError(t, err)
	defer list.Release()

	assert.Equal(t, cudf.ListOf(cudf.Int64), list.Type())
	assert.Equal(t, []any{[]any{int64(1), int64(2)}, nil, []any{nil, int64(4), int64(5)}}, column.ToSlice(list))
	start, end := column.Lists(list).Range(2)
	assert.Equal(t, [2]int{2, 5}, [2]int{start, end})

	ids, err := column.FromSlice(mem, cudf.Int32, []int32{7, 8}, nil)
	require.NoError(t, err)
	names, err := column.FromStrings(mem, []string{"x", "y"}, nil)
	require.NoError(t, err)
	st := cudf.StructOf([]cudf.DataType{cudf.Int32, cudf.String}, "id", "name")
	rec, err := column.NewStruct(mem, st, []*column.Column{ids, names}, []bool{true, false})
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, []any{int32(7), "x"}, rec.Value(0))
	assert.Nil(t, rec.Value(1))
	assert.Equal(t, 2, len(rec.Fields()))

	bad, err := column.FromSlice(mem, cudf.Int8, []int8{1}, nil)
	require.NoError(t, err)
	_, err = column.NewStruct(mem, st, []*column.Column{bad}, nil)
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)
}

func TestNewValidatesLayout(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	data, err := memory.NewBuffer(mem, 8)
	require.NoError(t, err)
	defer data.Release()

	_, err = column.New(cudf.Int32, 4, 0, data, bitmask.Mask{}, 0)
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)

	data.Retain()
	col, err := column.New(cudf.Int32, 2, 0, data, bitmask.Mask{}, column.UnknownNullCount)
	require.NoError(t, err)
	assert.Zero(t, col.NullCount())
	col.Release()

	_, err = column.New(cudf.String, 1, 0, nil, bitmask.Mask{}, 0)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestAllNullAndEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	types := []cudf.DataType{
		cudf.Float32,
		cudf.String,
		cudf.ListOf(cudf.Int8),
		cudf.StructOf([]cudf.DataType{cudf.Int16, cudf.String}),
	}
	for _, dt := range types {
		t.Run(dt.String(), func(t *testing.T) {
			col, err := column.NewAllNull(mem, dt, 3)
			require.NoError(t, err)
			defer col.Release()
			assert.True(t, col.Type().Equal(dt))
			assert.Equal(t, 3, col.NullCount())
			assert.Equal(t, []any{nil, nil, nil}, column.ToSlice(col))

			empty, err := column.NewEmpty(mem, dt)
			require.NoError(t, err)
			defer empty.Release()
			assert.Zero(t, empty.Len())
			assert.Zero(t, empty.NullCount())
		})
	}
}

func TestSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	col, err := column.FromSlice(mem, cudf.Int16, []int16{0, 1, 2, 3, 4, 5}, []bool{true, true, false, true, false, true})
	require.NoError(t, err)
	view, err := col.Slice(2, 3)
	require.NoError(t, err)
	col.Release()
	defer view.Release()

	assert.Equal(t, 2, view.Offset())
	assert.Equal(t, 2, view.NullCount())
	assert.Equal(t, []any{nil, int16(3), nil}, column.ToSlice(view))
	assert.Equal(t, []int16{2, 3, 4}, column.Values[int16](view))

	_, err = view.Slice(1, 3)
	assert.ErrorIs(t, err, cudf.ErrIndexOutOfBounds)

	s, err := column.FromStrings(mem, []string{"ab", "c", "def"}, nil)
	require.NoError(t, err)
	defer s.Release()
	sv, err := s.Slice(1, 2)
	require.NoError(t, err)
	defer sv.Release()
	assert.Equal(t, []any{"c", "def"}, column.ToSlice(sv))

	want, err := column.FromStrings(mem, []string{"c", "def"}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, column.Equal(want, sv))
}

func TestEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	nan := []float64{1, 0, 3}
	nan[1] = nan[1] / nan[1]
	a, err := column.FromSlice(mem, cudf.Float64, nan, nil)
	require.NoError(t, err)
	defer a.Release()
	b, err := column.FromSlice(mem, cudf.Float64, append([]float64(nil), nan...), nil)
	require.NoError(t, err)
	defer b.Release()
	assert.True(t, column.Equal(a, b))

	c, err := column.FromSlice(mem, cudf.Float64, []float64{1, 2, 3}, []bool{true, false, true})
	require.NoError(t, err)
	defer c.Release()
	assert.False(t, column.Equal(a, c))
}

func TestScalars(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc, err := column.NewScalar(cudf.Int8, 5)
	require.NoError(t, err)
	assert.Equal(t, int8(5), sc.Value())
	assert.True(t, sc.IsValid())

	_, err = column.NewScalar(cudf.Int8, "five")
	assert.ErrorIs(t, err, cudf.ErrTypeMismatch)

	null := column.NullScalar(cudf.String)
	assert.False(t, null.IsValid())
	assert.Equal(t, "null", null.String())
	_, ok := null.Float64()
	assert.False(t, ok)

	assert.Equal(t, cudf.Bool8, column.MakeScalar(true).Type())
	assert.Equal(t, cudf.Int64, column.MakeScalar(3).Type())
	assert.Panics(t, func() { column.MakeScalar(struct{}{}) })

	col, err := column.MakeColumnFromScalar(mem, column.MakeScalar("hi"), 3)
	require.NoError(t, err)
	defer col.Release()
	assert.Equal(t, []any{"hi", "hi", "hi"}, column.ToSlice(col))

	nulls, err := column.MakeColumnFromScalar(mem, column.NullScalar(cudf.Float64), 2)
	require.NoError(t, err)
	defer nulls.Release()
	assert.Equal(t, 2, nulls.NullCount())

	f32, err := column.MakeColumnFromScalar(mem, column.MakeScalar(float32(1.5)), 2)
	require.NoError(t, err)
	defer f32.Release()
	assert.Equal(t, []float32{1.5, 1.5}, column.Values[float32](f32))
	assert.Equal(t, column.MakeScalar(float32(1.5)), f32.Scalar(1))
}

func TestTable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a, err := column.FromSlice(mem, cudf.Int64, []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	b, err := column.FromStrings(mem, []string{"x", "y", "z"}, nil)
	require.NoError(t, err)
	short, err := column.FromSlice(mem, cudf.Int64, []int64{1}, nil)
	require.NoError(t, err)
	defer short.Release()

	_, err = column.TableOf(a, short)
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)

	tbl, err := column.TableOf(a, b)
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []cudf.DataType{cudf.Int64, cudf.String}, tbl.Types())

	sel, err := tbl.Select(1)
	require.NoError(t, err)
	defer sel.Release()
	assert.Same(t, b, sel.Column(0))

	none, err := tbl.Select()
	require.NoError(t, err)
	defer none.Release()
	assert.Equal(t, 3, none.NumRows())

	_, err = tbl.Select(2)
	assert.ErrorIs(t, err, cudf.ErrIndexOutOfBounds)

	view, err := tbl.Slice(1, 2)
	require.NoError(t, err)
	defer view.Release()
	assert.Equal(t, []any{"y", "z"}, column.ToSlice(view.Column(1)))
	assert.False(t, column.TablesEqual(tbl, view))

	again, err := tbl.Slice(1, 2)
	require.NoError(t, err)
	defer again.Release()
	assert.True(t, column.TablesEqual(again, view))
	assert.Equal(t, "0: int64[2, 3]\n1: string[\"y\", \"z\"]\n", view.String())
}
