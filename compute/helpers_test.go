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

package compute_test

import (
	"context"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/stretchr/testify/require"
)

// testContext returns a context whose allocator is checked for leaks when
// the test ends. The small block size splits even short inputs across
// several tasks.
func testContext(t *testing.T) (context.Context, *memory.CheckedAllocator) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	ctx := compute.SetExecCtx(context.Background(), compute.ExecCtx{
		Allocator:  mem,
		NumWorkers: 4,
		BlockSize:  64,
	})
	return ctx, mem
}

func fixed[T column.Fixed](t *testing.T, mem memory.Allocator, dt cudf.DataType, vals []T, valid []bool) *column.Column {
	t.Helper()
	col, err := column.FromSlice(mem, dt, vals, valid)
	require.NoError(t, err)
	return col
}

func int32s(t *testing.T, mem memory.Allocator, vals []int32, valid []bool) *column.Column {
	return fixed(t, mem, cudf.Int32, vals, valid)
}

func int64s(t *testing.T, mem memory.Allocator, vals []int64, valid []bool) *column.Column {
	return fixed(t, mem, cudf.Int64, vals, valid)
}

func float64s(t *testing.T, mem memory.Allocator, vals []float64, valid []bool) *column.Column {
	return fixed(t, mem, cudf.Float64, vals, valid)
}

func strs(t *testing.T, mem memory.Allocator, vals []string, valid []bool) *column.Column {
	t.Helper()
	col, err := column.FromStrings(mem, vals, valid)
	require.NoError(t, err)
	return col
}

func bools(t *testing.T, mem memory.Allocator, vals []bool, valid []bool) *column.Column {
	t.Helper()
	col, err := column.FromBools(mem, vals, valid)
	require.NoError(t, err)
	return col
}

// table takes over the references to cols.
func table(t *testing.T, cols ...*column.Column) *column.Table {
	t.Helper()
	tbl, err := column.TableOf(cols...)
	require.NoError(t, err)
	return tbl
}

func sequence(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}
