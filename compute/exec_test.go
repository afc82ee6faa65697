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
	"errors"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExecCtxDefaults(t *testing.T) {
	e := compute.GetExecCtx(context.Background())
	assert.NotNil(t, e.Allocator)
	assert.Positive(t, e.NumWorkers)
	assert.Zero(t, e.BlockSize%64)

	mem := memory.NewGoAllocator()
	e = compute.GetExecCtx(compute.SetExecCtx(context.Background(), compute.ExecCtx{Allocator: mem, BlockSize: 100}))
	assert.Same(t, mem, e.Allocator)
	assert.Equal(t, 128, e.BlockSize)
	assert.Positive(t, e.NumWorkers)
	assert.NotNil(t, e.Logger)

	ctx := compute.WithAllocator(context.Background(), mem)
	assert.Same(t, mem, compute.GetAllocator(ctx))
}

func TestExecCtxFromEnv(t *testing.T) {
	t.Setenv("CUDF_NUM_WORKERS", "3")
	t.Setenv("CUDF_BLOCK_SIZE", "1000")
	e, err := compute.ExecCtxFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, e.NumWorkers)
	assert.Equal(t, 1024, e.BlockSize)

	t.Setenv("CUDF_NUM_WORKERS", "zero")
	_, err = compute.ExecCtxFromEnv()
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestCanceledContext(t *testing.T) {
	ctx, mem := testContext(t)

	tbl := table(t, int64s(t, mem, sequence(10), nil))
	defer tbl.Release()

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := compute.Sort(canceled, tbl, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = compute.Reduce(canceled, tbl.Column(0), compute.NewAggregation(compute.AggSum), compute.ReduceOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutOfMemory(t *testing.T) {
	ctx, mem := testContext(t)

	col := int64s(t, mem, sequence(100), nil)
	defer col.Release()

	limited := compute.WithAllocator(ctx, memory.NewLimitedAllocator(mem, 64))
	_, err := compute.Copy(limited, col)
	assert.ErrorIs(t, err, cudf.ErrOutOfMemory)
}
