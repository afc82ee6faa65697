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

func TestReduceSum(t *testing.T) {
	ctx, mem := testContext(t)

	col := int32s(t, mem, []int32{1, 2, 0, 4}, []bool{true, true, false, true})
	defer col.Release()

	sum, err := compute.Reduce(ctx, col, compute.NewAggregation(compute.AggSum), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, cudf.Int64, sum.Type())
	assert.Equal(t, int64(7), sum.Value())

	init := column.MakeScalar(10)
	sum, err = compute.Reduce(ctx, col, compute.NewAggregation(compute.AggSum), compute.ReduceOptions{Init: &init})
	require.NoError(t, err)
	assert.Equal(t, int64(17), sum.Value())

	nullInit := column.NullScalar(cudf.Int64)
	sum, err = compute.Reduce(ctx, col, compute.NewAggregation(compute.AggSum), compute.ReduceOptions{Init: &nullInit})
	require.NoError(t, err)
	assert.Equal(t, int64(7), sum.Value())

	prod, err := compute.Reduce(ctx, col, compute.NewAggregation(compute.AggProduct), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(8), prod.Value())

	squares, err := compute.Reduce(ctx, col, compute.NewAggregation(compute.AggSumOfSquares), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(21), squares.Value())
}

func TestReduceBlocks(t *testing.T) {
	ctx, mem := testContext(t)

	col := int64s(t, mem, sequence(1000), nil)
	defer col.Release()

	tests := []struct {
		kind compute.AggKind
		want any
	}{
		{compute.AggSum, int64(499500)},
		{compute.AggMin, int64(0)},
		{compute.AggMax, int64(999)},
		{compute.AggCountValid, int64(1000)},
		{compute.AggCountAll, int64(1000)},
		{compute.AggNunique, int64(1000)},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			res, err := compute.Reduce(ctx, col, compute.NewAggregation(tt.kind), compute.ReduceOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value())
		})
	}
}

func TestReduceStatistics(t *testing.T) {
	ctx, mem := testContext(t)

	col := int32s(t, mem, []int32{2, 4, 4, 4, 5, 5, 7, 9, 0}, []bool{true, true, true, true, true, true, true, true, false})
	defer col.Release()

	reduce := func(agg compute.Aggregation) column.Scalar {
		res, err := compute.Reduce(ctx, col, agg, compute.ReduceOptions{})
		require.NoError(t, err)
		return res
	}
	float := func(agg compute.Aggregation) float64 {
		v, ok := reduce(agg).Float64()
		require.True(t, ok)
		return v
	}

	assert.Equal(t, int32(2), reduce(compute.NewAggregation(compute.AggMin)).Value())
	assert.Equal(t, int32(9), reduce(compute.NewAggregation(compute.AggMax)).Value())
	assert.Equal(t, int32(0), reduce(compute.NewAggregation(compute.AggArgmin)).Value())
	assert.Equal(t, int32(7), reduce(compute.NewAggregation(compute.AggArgmax)).Value())
	assert.Equal(t, int32(2), reduce(compute.NewAggregation(compute.AggFirst)).Value())
	assert.Equal(t, int32(9), reduce(compute.NewAggregation(compute.AggLast)).Value())
	assert.Equal(t, int64(8), reduce(compute.NewAggregation(compute.AggCountValid)).Value())
	assert.Equal(t, int64(9), reduce(compute.NewAggregation(compute.AggCountAll)).Value())
	assert.Equal(t, int64(5), reduce(compute.NewAggregation(compute.AggNunique)).Value())

	assert.InDelta(t, 5.0, float(compute.NewAggregation(compute.AggMean)), 1e-12)
	assert.InDelta(t, 32.0/7, float(compute.NewAggregation(compute.AggVariance)), 1e-12)
	assert.InDelta(t, 4.0, float(compute.Variance(0)), 1e-12)
	assert.InDelta(t, 2.0, float(compute.Std(0)), 1e-12)
	assert.InDelta(t, 4.5, float(compute.NewAggregation(compute.AggMedian)), 1e-12)
	assert.InDelta(t, 4.0, float(compute.QuantileAgg(0.25, compute.Linear)), 1e-12)

	single := int32s(t, mem, []int32{3}, nil)
	defer single.Release()
	v, err := compute.Reduce(ctx, single, compute.NewAggregation(compute.AggVariance), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.False(t, v.IsValid())
}

func TestReduceNulls(t *testing.T) {
	ctx, mem := testContext(t)

	col, err := column.NewAllNull(mem, cudf.Int32, 3)
	require.NoError(t, err)
	defer col.Release()

	for _, kind := range []compute.AggKind{compute.AggSum, compute.AggMin, compute.AggMean, compute.AggMedian, compute.AggAny} {
		res, err := compute.Reduce(ctx, col, compute.NewAggregation(kind), compute.ReduceOptions{})
		require.NoError(t, err)
		assert.False(t, res.IsValid(), kind.String())
	}
	count, err := compute.Reduce(ctx, col, compute.NewAggregation(compute.AggCountValid), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count.Value())

	_, err = compute.Reduce(ctx, col, compute.NewAggregation(compute.AggCollectList), compute.ReduceOptions{})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestReduceOverflowAndBooleans(t *testing.T) {
	ctx, mem := testContext(t)

	big := int64s(t, mem, []int64{1 << 62, 1 << 62}, nil)
	defer big.Release()
	_, err := compute.Reduce(ctx, big, compute.NewAggregation(compute.AggSum), compute.ReduceOptions{})
	assert.ErrorIs(t, err, cudf.ErrOverflow)

	flags := bools(t, mem, []bool{true, false, true}, []bool{true, true, false})
	defer flags.Release()
	anyTrue, err := compute.Reduce(ctx, flags, compute.NewAggregation(compute.AggAny), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, true, anyTrue.Value())
	allTrue, err := compute.Reduce(ctx, flags, compute.NewAggregation(compute.AggAll), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, false, allTrue.Value())

	text := strs(t, mem, []string{"b", "a"}, nil)
	defer text.Release()
	_, err = compute.Reduce(ctx, text, compute.NewAggregation(compute.AggSum), compute.ReduceOptions{})
	assert.ErrorIs(t, err, cudf.ErrUnsupportedType)
	least, err := compute.Reduce(ctx, text, compute.NewAggregation(compute.AggMin), compute.ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", least.Value())
}

func TestQuantile(t *testing.T) {
	ctx, mem := testContext(t)

	col := int32s(t, mem, []int32{4, 0, 2, 1, 3}, []bool{true, false, true, true, true})
	defer col.Release()
	qs := []float64{0, 0.5, 1}

	tests := []struct {
		interp compute.Interpolation
		want   []any
	}{
		{compute.Linear, []any{1.0, 2.5, 4.0}},
		{compute.Midpoint, []any{1.0, 2.5, 4.0}},
		{compute.Lower, []any{int32(1), int32(2), int32(4)}},
		{compute.Higher, []any{int32(1), int32(3), int32(4)}},
		{compute.Nearest, []any{int32(1), int32(3), int32(4)}},
	}
	for _, tt := range tests {
		out, err := compute.Quantile(ctx, col, qs, tt.interp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, column.ToSlice(out), "interpolation %d", tt.interp)
		out.Release()
	}

	_, err := compute.Quantile(ctx, col, []float64{1.5}, compute.Linear)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)

	empty, err := column.NewAllNull(mem, cudf.Float64, 2)
	require.NoError(t, err)
	defer empty.Release()
	out, err := compute.Quantile(ctx, empty, []float64{0.5}, compute.Lower)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, column.ToSlice(out))
	out.Release()
}

func TestRolling(t *testing.T) {
	ctx, mem := testContext(t)

	col := int64s(t, mem, []int64{1, 2, 3, 4, 5}, nil)
	defer col.Release()
	sum := compute.NewAggregation(compute.AggSum)

	tests := []struct {
		name   string
		window compute.Window
		agg    compute.Aggregation
		want   []any
	}{
		{"trailing", compute.FixedWindow(3), sum, []any{int64(1), int64(3), int64(6), int64(9), int64(12)}},
		{"min_periods", compute.Window{Size: 3, MinPeriods: 3}, sum, []any{nil, nil, int64(6), int64(9), int64(12)}},
		{"centered", compute.Window{Size: 3, Center: true, MinPeriods: 1}, sum, []any{int64(3), int64(6), int64(9), int64(12), int64(9)}},
		{"count_all", compute.FixedWindow(3), compute.NewAggregation(compute.AggCountAll), []any{int64(1), int64(2), int64(3), int64(3), int64(3)}},
		{"max", compute.FixedWindow(2), compute.NewAggregation(compute.AggMax), []any{int64(1), int64(2), int64(3), int64(4), int64(5)}},
		{"mean", compute.FixedWindow(2), compute.NewAggregation(compute.AggMean), []any{1.0, 1.5, 2.5, 3.5, 4.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := compute.Rolling(ctx, col, tt.window, tt.agg)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.want, column.ToSlice(out))
		})
	}

	prec := int32s(t, mem, []int32{1, 2, 2, 2, 2}, nil)
	defer prec.Release()
	fol := int32s(t, mem, []int32{0, 0, 0, 0, 1}, nil)
	defer fol.Release()
	out, err := compute.Rolling(ctx, col, compute.Window{Preceding: prec, Following: fol, MinPeriods: 1}, sum)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(3), int64(5), int64(7), int64(9)}, column.ToSlice(out))
	out.Release()

	_, err = compute.Rolling(ctx, col, compute.FixedWindow(0), sum)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
	_, err = compute.Rolling(ctx, col, compute.FixedWindow(2), compute.NewAggregation(compute.AggCollectList))
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestRollingSkipsNulls(t *testing.T) {
	ctx, mem := testContext(t)

	col := int64s(t, mem, []int64{1, 0, 3, 0}, []bool{true, false, true, false})
	defer col.Release()
	out, err := compute.Rolling(ctx, col, compute.FixedWindow(2), compute.NewAggregation(compute.AggSum))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(1), int64(1), int64(3), int64(3)}, column.ToSlice(out))

	counts, err := compute.Rolling(ctx, col, compute.FixedWindow(2), compute.NewAggregation(compute.AggCountValid))
	require.NoError(t, err)
	defer counts.Release()
	assert.Equal(t, []any{int64(1), int64(1), int64(1), int64(1)}, column.ToSlice(counts))
}
