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
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherMap(c *column.Column) []int32 {
	if c == nil {
		return nil
	}
	return append([]int32{}, column.Values[int32](c)...)
}

func TestJoinKinds(t *testing.T) {
	ctx, mem := testContext(t)

	left := table(t, int32s(t, mem, []int32{1, 2, 3}, nil))
	defer left.Release()
	right := table(t, int32s(t, mem, []int32{2, 3, 4}, nil))
	defer right.Release()

	nf := compute.NotFound
	tests := []struct {
		kind        compute.JoinKind
		left, right []int32
	}{
		{compute.InnerJoin, []int32{1, 2}, []int32{0, 1}},
		{compute.LeftJoin, []int32{0, 1, 2}, []int32{nf, 0, 1}},
		{compute.RightJoin, []int32{1, 2, nf}, []int32{0, 1, 2}},
		{compute.FullJoin, []int32{0, 1, 2, nf}, []int32{nf, 0, 1, 2}},
		{compute.LeftSemiJoin, []int32{1, 2}, nil},
		{compute.LeftAntiJoin, []int32{0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			res, err := compute.Join(ctx, left, right, []int{0}, []int{0}, tt.kind, compute.JoinOptions{})
			require.NoError(t, err)
			defer res.Release()
			assert.Equal(t, len(tt.left), res.Len())
			assert.Equal(t, tt.left, gatherMap(res.Left))
			assert.Equal(t, tt.right, gatherMap(res.Right))
		})
	}
}

func TestJoinDuplicatesKeepOrder(t *testing.T) {
	ctx, mem := testContext(t)

	left := table(t, int32s(t, mem, []int32{5, 1, 1}, nil))
	defer left.Release()
	right := table(t, int32s(t, mem, []int32{1, 7, 1}, nil))
	defer right.Release()

	res, err := compute.Join(ctx, left, right, []int{0}, []int{0}, compute.InnerJoin, compute.JoinOptions{})
	require.NoError(t, err)
	defer res.Release()
	assert.Equal(t, []int32{1, 1, 2, 2}, gatherMap(res.Left))
	assert.Equal(t, []int32{0, 2, 0, 2}, gatherMap(res.Right))
}

func TestJoinCardinality(t *testing.T) {
	ctx, mem := testContext(t)

	const n = 200
	lv, rv := make([]int64, n), make([]int64, n/2)
	for i := range lv {
		lv[i] = int64(i % 37)
	}
	for i := range rv {
		rv[i] = int64(i%29) + 20
	}
	left := table(t, int64s(t, mem, lv, nil))
	defer left.Release()
	right := table(t, int64s(t, mem, rv, nil))
	defer right.Release()

	count := func(kind compute.JoinKind, l, r *column.Table) int {
		res, err := compute.Join(ctx, l, r, []int{0}, []int{0}, kind, compute.JoinOptions{})
		require.NoError(t, err)
		defer res.Release()
		return res.Len()
	}
	inner := count(compute.InnerJoin, left, right)
	assert.GreaterOrEqual(t, count(compute.LeftJoin, left, right), left.NumRows())
	assert.Equal(t, inner+count(compute.LeftAntiJoin, left, right)+count(compute.LeftAntiJoin, right, left),
		count(compute.FullJoin, left, right))
	assert.Equal(t, left.NumRows(), count(compute.LeftSemiJoin, left, right)+count(compute.LeftAntiJoin, left, right))
	assert.Equal(t, inner, count(compute.InnerJoin, right, left))
}

func TestJoinNullKeys(t *testing.T) {
	ctx, mem := testContext(t)

	left := table(t, int32s(t, mem, []int32{0, 1}, []bool{false, true}))
	defer left.Release()
	right := table(t, int32s(t, mem, []int32{1, 0}, []bool{true, false}))
	defer right.Release()

	res, err := compute.Join(ctx, left, right, []int{0}, []int{0}, compute.InnerJoin, compute.JoinOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1}, gatherMap(res.Left))
	assert.Equal(t, []int32{1, 0}, gatherMap(res.Right))
	res.Release()

	res, err = compute.Join(ctx, left, right, []int{0}, []int{0}, compute.InnerJoin, compute.JoinOptions{NullEqual: compute.NullsUnequal})
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, gatherMap(res.Left))
	assert.Equal(t, []int32{0}, gatherMap(res.Right))
	res.Release()

	_, err = compute.Join(ctx, left, right, []int{0}, []int{0, 0}, compute.InnerJoin, compute.JoinOptions{})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestJoinTables(t *testing.T) {
	ctx, mem := testContext(t)

	left := table(t,
		int32s(t, mem, []int32{1, 2, 3}, nil),
		strs(t, mem, []string{"a", "b", "c"}, nil),
	)
	defer left.Release()
	right := table(t,
		int32s(t, mem, []int32{3, 1}, nil),
		float64s(t, mem, []float64{0.3, 0.1}, nil),
	)
	defer right.Release()

	out, err := compute.JoinTables(ctx, left, right, []int{0}, []int{0}, compute.LeftJoin, compute.JoinOptions{})
	require.NoError(t, err)
	defer out.Release()
	require.Equal(t, 4, out.NumColumns())
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, column.ToSlice(out.Column(0)))
	assert.Equal(t, []any{"a", "b", "c"}, column.ToSlice(out.Column(1)))
	assert.Equal(t, []any{int32(1), nil, int32(3)}, column.ToSlice(out.Column(2)))
	assert.Equal(t, []any{0.1, nil, 0.3}, column.ToSlice(out.Column(3)))

	semi, err := compute.JoinTables(ctx, left, right, []int{0}, []int{0}, compute.LeftSemiJoin, compute.JoinOptions{})
	require.NoError(t, err)
	defer semi.Release()
	assert.Equal(t, 2, semi.NumColumns())
	assert.Equal(t, []any{"a", "c"}, column.ToSlice(semi.Column(1)))
}
