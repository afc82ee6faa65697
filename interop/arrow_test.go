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

package interop_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	arrowmem "github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkedContext(t *testing.T) (context.Context, *memory.CheckedAllocator) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return compute.WithAllocator(context.Background(), mem), mem
}

func roundTrip(t *testing.T, ctx context.Context, col *column.Column) *column.Column {
	t.Helper()
	f, err := interop.Field("x", col.Type())
	require.NoError(t, err)
	arr, err := interop.ExportColumn(ctx, col)
	require.NoError(t, err)
	defer arr.Release()
	back, err := interop.ImportField(ctx, f, arr)
	require.NoError(t, err)
	return back
}

func TestArrowRoundTrip(t *testing.T) {
	ctx, mem := checkedContext(t)

	i32, err := column.FromSlice(mem, cudf.Int32, []int32{1, 2, 3}, []bool{true, false, true})
	require.NoError(t, err)
	b8, err := column.FromBools(mem, []bool{true, false, true}, []bool{true, true, false})
	require.NoError(t, err)
	d32, err := column.FromSlice(mem, cudf.Decimal32(2), []int32{150, -275, 0}, []bool{true, true, false})
	require.NoError(t, err)
	ts, err := column.FromSlice(mem, cudf.Timestamp(cudf.Millisecond), []int64{0, 1500, -1}, nil)
	require.NoError(t, err)
	s, err := column.FromStrings(mem, []string{"a", "", "long string"}, []bool{true, false, true})
	require.NoError(t, err)

	for _, col := range []*column.Column{i32, b8, d32, ts, s} {
		back := roundTrip(t, ctx, col)
		assert.True(t, back.Type().Equal(col.Type()), "%s became %s", col.Type(), back.Type())
		assert.True(t, column.Equal(col, back), "%s: %s", col.Type(), column.Format(back))
		back.Release()
		col.Release()
	}
}

func TestArrowNestedRoundTrip(t *testing.T) {
	ctx, mem := checkedContext(t)

	elems, err := column.FromSlice(mem, cudf.Int64, []int64{1, 2, 3, 4}, []bool{true, true, false, true})
	require.NoError(t, err)
	list, err := column.NewList(mem, []int32{0, 2, 2, 4}, elems, []bool{true, false, true})
	require.NoError(t, err)
	defer list.Release()

	back := roundTrip(t, ctx, list)
	assert.Equal(t, []any{[]any{int64(1), int64(2)}, nil, []any{nil, int64(4)}}, column.ToSlice(back))
	back.Release()

	id, err := column.FromSlice(mem, cudf.Int32, []int32{7, 8}, nil)
	require.NoError(t, err)
	name, err := column.FromStrings(mem, []string{"x", "y"}, nil)
	require.NoError(t, err)
	dt := cudf.StructOf([]cudf.DataType{cudf.Int32, cudf.String}, "id", "name")
	st, err := column.NewStruct(mem, dt, []*column.Column{id, name}, []bool{true, false})
	require.NoError(t, err)
	defer st.Release()

	f, err := interop.Field("s", dt)
	require.NoError(t, err)
	assert.Equal(t, "id", f.Type.(*arrow.StructType).Field(0).Name)
	back = roundTrip(t, ctx, st)
	assert.Equal(t, []any{[]any{int32(7), "x"}, nil}, column.ToSlice(back))
	back.Release()
}

func TestExportSharesMemory(t *testing.T) {
	ctx, mem := checkedContext(t)

	col, err := column.FromSlice(mem, cudf.Float64, []float64{1.5, 2.5, 3.5, 4.5}, nil)
	require.NoError(t, err)
	view, err := col.Slice(1, 2)
	require.NoError(t, err)
	col.Release()

	arr, err := interop.ExportColumn(ctx, view)
	require.NoError(t, err)
	view.Release()
	assert.Equal(t, []float64{2.5, 3.5}, arr.(*array.Float64).Float64Values())
	assert.NotZero(t, mem.CurrentAlloc())

	back, err := interop.ImportColumn(ctx, arr)
	require.NoError(t, err)
	arr.Release()
	assert.Equal(t, []any{2.5, 3.5}, column.ToSlice(back))
	back.Release()
}

func TestImportDecimalOverflow(t *testing.T) {
	ctx, _ := checkedContext(t)

	bld := array.NewDecimal128Builder(arrowmem.DefaultAllocator, &arrow.Decimal128Type{Precision: 38, Scale: 0})
	defer bld.Release()
	bld.Append(decimal128.FromI64(1 << 40))
	arr := bld.NewArray()
	defer arr.Release()

	f := arrow.Field{Name: "d", Type: arr.DataType(),
		Metadata: arrow.NewMetadata([]string{interop.TypeKey}, []string{cudf.DECIMAL32.String()})}
	_, err := interop.ImportField(ctx, f, arr)
	assert.ErrorIs(t, err, cudf.ErrOverflow)

	col, err := interop.ImportColumn(ctx, arr)
	require.NoError(t, err)
	assert.Equal(t, cudf.DECIMAL128, col.Type().ID())
	col.Release()
}

func TestExportTableNames(t *testing.T) {
	ctx, mem := checkedContext(t)

	a, err := column.FromSlice(mem, cudf.Int8, []int8{1, 2}, nil)
	require.NoError(t, err)
	b, err := column.FromSlice(mem, cudf.Uint16, []uint16{3, 4}, nil)
	require.NoError(t, err)
	tbl, err := column.TableOf(a, b)
	require.NoError(t, err)
	defer tbl.Release()

	rec, err := interop.ExportTable(ctx, tbl, []string{"a"})
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, []string{"a", "c1"}, interop.FieldNames(rec.Schema()))
	assert.EqualValues(t, 2, rec.NumRows())

	back, err := interop.ImportTable(ctx, rec)
	require.NoError(t, err)
	assert.True(t, column.TablesEqual(tbl, back))
	back.Release()
}

func TestIPCRoundTrip(t *testing.T) {
	for _, codec := range []memory.Codec{memory.CodecNone, memory.CodecLZ4, memory.CodecZstd} {
		t.Run(string(codec), func(t *testing.T) {
			ctx := context.Background()
			mem := memory.DefaultAllocator

			i64, err := column.FromSlice(mem, cudf.Int64, []int64{10, 20, 30}, []bool{true, false, true})
			require.NoError(t, err)
			s, err := column.FromStrings(mem, []string{"x", "yy", "zzz"}, nil)
			require.NoError(t, err)
			tbl, err := column.TableOf(i64, s)
			require.NoError(t, err)
			defer tbl.Release()

			var buf bytes.Buffer
			require.NoError(t, interop.WriteIPC(ctx, &buf, tbl, interop.IPCOptions{Names: []string{"n", "s"}, Codec: codec}))
			back, names, err := interop.ReadIPC(ctx, &buf)
			require.NoError(t, err)
			defer back.Release()
			assert.Equal(t, []string{"n", "s"}, names)
			assert.True(t, column.TablesEqual(tbl, back))
		})
	}

	var buf bytes.Buffer
	empty, err := column.TableOf()
	require.NoError(t, err)
	err = interop.WriteIPC(context.Background(), &buf, empty, interop.IPCOptions{Codec: memory.CodecSnappy})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestDescribe(t *testing.T) {
	_, mem := checkedContext(t)

	col, err := column.FromSlice(mem, cudf.Int32, []int32{1, 2, 3}, []bool{true, false, true})
	require.NoError(t, err)
	defer col.Release()
	view, err := col.Slice(1, 2)
	require.NoError(t, err)
	defer view.Release()

	d := interop.Describe(col)
	assert.Equal(t, cudf.INT32, d.Type)
	assert.Equal(t, 3, d.Rows)
	assert.Equal(t, 1, d.NullCount)
	assert.NotZero(t, d.Mask)
	assert.Equal(t, d.Data+4, interop.Describe(view).Data)

	plain, err := column.FromSlice(mem, cudf.Int32, []int32{1}, nil)
	require.NoError(t, err)
	defer plain.Release()
	assert.Zero(t, interop.Describe(plain).Mask)
}
