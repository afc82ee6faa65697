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

package lib_test

import (
	"context"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/lib"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmodules(t *testing.T) {
	subs := lib.Submodules()
	assert.IsIncreasing(t, subs)
	for _, want := range []string{"binops", "copying", "groupby", "join", "sort", "stream_compaction", "typecast"} {
		assert.Contains(t, subs, want)
	}
	for _, sub := range subs {
		assert.NotEmpty(t, lib.Entries(sub), sub)
	}
	assert.Empty(t, lib.Entries("nope"))
}

func TestLookup(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	ctx := compute.WithAllocator(context.Background(), mem)

	fn, ok := lib.Lookup("copying", "inverse_permutation")
	require.True(t, ok)
	inverse, ok := fn.(func(context.Context, *column.Column) (*column.Column, error))
	require.True(t, ok)

	perm, err := column.FromSlice(mem, cudf.Int32, []int32{2, 0, 1}, nil)
	require.NoError(t, err)
	defer perm.Release()
	out, err := inverse(ctx, perm)
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), int32(2), int32(0)}, column.ToSlice(out))
	out.Release()

	_, ok = lib.Lookup("copying", "nope")
	assert.False(t, ok)
	_, ok = lib.Lookup("nope", "gather")
	assert.False(t, ok)
}

func TestNVTXRange(t *testing.T) {
	ctx, end := lib.NVTXRange(context.Background(), "outer")
	require.NotNil(t, ctx)
	end()
}
