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

func TestGroupBySum(t *testing.T) {
	ctx, mem := testContext(t)

	keys := table(t, int32s(t, mem, []int32{1, 2, 1, 0}, []bool{true, true, true, false}))
	defer keys.Release()
	vals := int32s(t, mem, []int32{10, 20, 30, 40}, nil)
	defer vals.Release()

	res, err := compute.GroupBy(ctx, keys, []compute.AggRequest{
		{Values: vals, Aggs: []compute.Aggregation{compute.NewAggregation(compute.AggSum)}},
	}, compute.GroupByOptions{})
	require.NoError(t, err)
	defer res.Release()

	require.Equal(t, 3, res.NumGroups())
	assert.Equal(t, []any{int32(1), int32(2), nil}, column.ToSlice(res.Keys.Column(0)))
	require.Len(t, res.Values, 1)
	assert.Equal(t, cudf.Int64, res.Values[0].Type())
	assert.Equal(t, []any{int64(40), int64(20), int64(40)}, column.ToSlice(res.Values[0]))
}

func TestGroupByStrategies(t *testing.T) {
	ctx, mem := testContext(t)

	keys := table(t, int32s(t, mem, []int32{3, 1, 3, 2, 1}, nil))
	defer keys.Release()
	vals := float64s(t, mem, []float64{1, 2, 3, 4, 5}, nil)
	defer vals.Release()
	reqs := []compute.AggRequest{{Values: vals, Aggs: []compute.Aggregation{
		compute.NewAggregation(compute.AggMean),
		compute.NewAggregation(compute.AggFirst),
		compute.NewAggregation(compute.AggCollectList),
	}}}

	hashed, err := compute.GroupBy(ctx, keys, reqs, compute.GroupByOptions{Strategy: compute.HashStrategy})
	require.NoError(t, err)
	defer hashed.Release()
	assert.Equal(t, []any{int32(3), int32(1), int32(2)}, column.ToSlice(hashed.Keys.Column(0)))
	assert.Equal(t, []any{2.0, 3.5, 4.0}, column.ToSlice(hashed.Values[0]))
	assert.Equal(t, []any{1.0, 2.0, 4.0}, column.ToSlice(hashed.Values[1]))
	assert.Equal(t, []any{[]any{1.0, 3.0}, []any{2.0, 5.0}, []any{4.0}}, column.ToSlice(hashed.Values[2]))

	sorted, err := compute.GroupBy(ctx, keys, reqs, compute.GroupByOptions{Strategy: compute.SortStrategy})
	require.NoError(t, err)
	defer sorted.Release()
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, column.ToSlice(sorted.Keys.Column(0)))
	assert.Equal(t, []any{3.5, 4.0, 2.0}, column.ToSlice(sorted.Values[0]))

	desc, err := compute.GroupBy(ctx, keys, reqs[:0], compute.GroupByOptions{
		Strategy: compute.SortStrategy,
		KeyOrder: []compute.SortKey{{Column: 0, Order: compute.Descending}},
	})
	require.NoError(t, err)
	defer desc.Release()
	assert.Equal(t, []any{int32(3), int32(2), int32(1)}, column.ToSlice(desc.Keys.Column(0)))
	assert.Empty(t, desc.Values)
}

func TestGroupByNullKeys(t *testing.T) {
	ctx, mem := testContext(t)

	keys := table(t, int32s(t, mem, []int32{1, 0, 0, 1}, []bool{true, false, false, true}))
	defer keys.Release()
	vals := int64s(t, mem, []int64{1, 2, 3, 4}, nil)
	defer vals.Release()
	reqs := []compute.AggRequest{{Values: vals, Aggs: []compute.Aggregation{compute.NewAggregation(compute.AggSum)}}}

	tests := []struct {
		name string
		opts compute.GroupByOptions
		keys []any
		sums []any
	}{
		{"nulls_equal", compute.GroupByOptions{}, []any{int32(1), nil}, []any{int64(5), int64(5)}},
		{"nulls_unequal", compute.GroupByOptions{NullEqual: compute.NullsUnequal}, []any{int32(1), nil, nil}, []any{int64(5), int64(2), int64(3)}},
		{"drop_null_keys", compute.GroupByOptions{DropNullKeys: true}, []any{int32(1)}, []any{int64(5)}},
		{"sorted_drop", compute.GroupByOptions{Strategy: compute.SortStrategy, DropNullKeys: true}, []any{int32(1)}, []any{int64(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := compute.GroupBy(ctx, keys, reqs, tt.opts)
			require.NoError(t, err)
			defer res.Release()
			assert.Equal(t, tt.keys, column.ToSlice(res.Keys.Column(0)))
			assert.Equal(t, tt.sums, column.ToSlice(res.Values[0]))
		})
	}
}

func TestGroupByInvariants(t *testing.T) {
	ctx, mem := testContext(t)

	const n = 500
	kv, vv := make([]int64, n), make([]float64, n)
	valid := make([]bool, n)
	for i := range kv {
		kv[i] = int64(i*7) % 13
		vv[i] = float64((i * 31) % 101)
		valid[i] = i%11 != 0
	}
	keys := table(t, int64s(t, mem, kv, nil))
	defer keys.Release()
	vals := float64s(t, mem, vv, valid)
	defer vals.Release()

	res, err := compute.GroupBy(ctx, keys, []compute.AggRequest{{Values: vals, Aggs: []compute.Aggregation{
		compute.NewAggregation(compute.AggCountAll),
		compute.NewAggregation(compute.AggMin),
		compute.NewAggregation(compute.AggMean),
		compute.NewAggregation(compute.AggMax),
	}}}, compute.GroupByOptions{})
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, 13, res.NumGroups())
	var total int64
	for _, c := range column.Values[int64](res.Values[0]) {
		total += c
	}
	assert.Equal(t, int64(n), total)

	lo, mean, hi := column.Values[float64](res.Values[1]), column.Values[float64](res.Values[2]), column.Values[float64](res.Values[3])
	for g := 0; g < res.NumGroups(); g++ {
		assert.LessOrEqual(t, lo[g], mean[g])
		assert.LessOrEqual(t, mean[g], hi[g])
	}
}

func TestGroupByErrors(t *testing.T) {
	ctx, mem := testContext(t)

	keys := table(t, int32s(t, mem, []int32{1, 2}, nil))
	defer keys.Release()
	short := int32s(t, mem, []int32{1}, nil)
	defer short.Release()
	_, err := compute.GroupBy(ctx, keys, []compute.AggRequest{{Values: short, Aggs: []compute.Aggregation{compute.NewAggregation(compute.AggSum)}}}, compute.GroupByOptions{})
	assert.ErrorIs(t, err, cudf.ErrShapeMismatch)

	text := strs(t, mem, []string{"a", "b"}, nil)
	defer text.Release()
	_, err = compute.GroupBy(ctx, keys, []compute.AggRequest{{Values: text, Aggs: []compute.Aggregation{compute.NewAggregation(compute.AggMean)}}}, compute.GroupByOptions{})
	assert.ErrorIs(t, err, cudf.ErrUnsupportedType)
}
