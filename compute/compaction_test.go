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
	"math"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBooleanMask(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t,
		int32s(t, mem, []int32{1, 2, 3, 4}, []bool{true, false, true, true}),
		strs(t, mem, []string{"a", "b", "c", "d"}, nil),
	)
	defer tbl.Release()
	mask := bools(t, mem, []bool{true, false, true, true}, []bool{true, true, false, true})
	defer mask.Release()

	kept, err := compute.ApplyBooleanMask(ctx, tbl, mask)
	require.NoError(t, err)
	defer kept.Release()
	assert.Equal(t, []any{"a", "d"}, column.ToSlice(kept.Column(1)))

	// A mask and its negation partition the rows when the mask has no nulls.
	full := bools(t, mem, []bool{true, false, false, true}, nil)
	defer full.Release()
	neg, err := compute.Unary(ctx, compute.UnaryNot, full)
	require.NoError(t, err)
	defer neg.Release()
	yes, err := compute.ApplyBooleanMask(ctx, tbl, full)
	require.NoError(t, err)
	defer yes.Release()
	no, err := compute.ApplyBooleanMask(ctx, tbl, neg)
	require.NoError(t, err)
	defer no.Release()
	assert.Equal(t, tbl.NumRows(), yes.NumRows()+no.NumRows())
	assert.Equal(t, []any{int32(1), int32(4)}, column.ToSlice(yes.Column(0)))
	assert.Equal(t, []any{nil, int32(3)}, column.ToSlice(no.Column(0)))

	ints := int32s(t, mem, []int32{1, 0, 1, 0}, nil)
	defer ints.Release()
	_, err = compute.ApplyBooleanMask(ctx, tbl, ints)
	assert.ErrorIs(t, err, cudf.ErrTypeMismatch)
	short := bools(t, mem, []bool{true}, nil)
	defer short.Release()
	_, err = compute.ApplyBooleanMask(ctx, tbl, short)
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)
}

func TestDropNulls(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t,
		int32s(t, mem, []int32{1, 0, 3, 0}, []bool{true, false, true, false}),
		int32s(t, mem, []int32{0, 0, 3, 4}, []bool{false, false, true, true}),
		int64s(t, mem, sequence(4), nil),
	)
	defer tbl.Release()

	tests := []struct {
		name      string
		keys      []int
		threshold int
		rows      []any
	}{
		{"all_keys", []int{0, 1}, -1, []any{int64(2)}},
		{"any_valid", []int{0, 1}, 1, []any{int64(0), int64(2), int64(3)}},
		{"one_key", []int{0}, -1, []any{int64(0), int64(2)}},
		{"all_columns", nil, -1, []any{int64(2)}},
		{"zero_threshold", []int{0, 1}, 0, []any{int64(0), int64(1), int64(2), int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := compute.DropNulls(ctx, tbl, tt.keys, tt.threshold)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.rows, column.ToSlice(out.Column(2)))
		})
	}
}

func TestDropNaNs(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t,
		float64s(t, mem, []float64{1, math.NaN(), 0, math.NaN()}, []bool{true, true, false, true}),
		int64s(t, mem, sequence(4), nil),
	)
	defer tbl.Release()

	out, err := compute.DropNaNs(ctx, tbl, []int{0}, -1)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(0), int64(2)}, column.ToSlice(out.Column(1)))

	_, err = compute.DropNaNs(ctx, tbl, []int{1}, -1)
	assert.ErrorIs(t, err, cudf.ErrUnsupportedType)
}

func TestDistinct(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t,
		int32s(t, mem, []int32{1, 2, 1, 3, 2}, nil),
		int64s(t, mem, sequence(5), nil),
	)
	defer tbl.Release()

	tests := []struct {
		keep compute.DuplicateKeep
		rows []any
	}{
		{compute.KeepFirst, []any{int64(0), int64(1), int64(3)}},
		{compute.KeepLast, []any{int64(2), int64(3), int64(4)}},
		{compute.KeepAny, []any{int64(0), int64(1), int64(3)}},
		{compute.KeepNone, []any{int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.keep.String(), func(t *testing.T) {
			out, err := compute.Distinct(ctx, tbl, []int{0}, tt.keep, compute.NullsEqual)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.rows, column.ToSlice(out.Column(1)))
		})
	}

	keep, ok := compute.DuplicateKeepFromString("none")
	assert.True(t, ok)
	assert.Equal(t, compute.KeepNone, keep)
	_, err := compute.Distinct(ctx, tbl, []int{0}, compute.DuplicateKeep(9), compute.NullsEqual)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestUnique(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t,
		int32s(t, mem, []int32{1, 1, 2, 1}, nil),
		int64s(t, mem, sequence(4), nil),
	)
	defer tbl.Release()

	tests := []struct {
		keep compute.DuplicateKeep
		rows []any
	}{
		{compute.KeepFirst, []any{int64(0), int64(2), int64(3)}},
		{compute.KeepLast, []any{int64(1), int64(2), int64(3)}},
		{compute.KeepNone, []any{int64(2), int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.keep.String(), func(t *testing.T) {
			out, err := compute.Unique(ctx, tbl, []int{0}, tt.keep, compute.NullsEqual)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.rows, column.ToSlice(out.Column(1)))
		})
	}
}

func TestDistinctCounts(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t, int32s(t, mem, []int32{1, 2, 1, 0, 0}, []bool{true, true, true, false, false}))
	defer tbl.Release()

	n, err := compute.DistinctCount(ctx, tbl, compute.NullsEqual)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = compute.DistinctCount(ctx, tbl, compute.NullsUnequal)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = compute.UniqueCount(ctx, tbl, compute.NullsEqual)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = compute.UniqueCount(ctx, tbl, compute.NullsUnequal)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Distinct rows never outnumber the input and are themselves distinct.
	out, err := compute.Distinct(ctx, tbl, nil, compute.KeepFirst, compute.NullsEqual)
	require.NoError(t, err)
	defer out.Release()
	again, err := compute.DistinctCount(ctx, out, compute.NullsEqual)
	require.NoError(t, err)
	assert.Equal(t, out.NumRows(), again)
}
