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

// Package compute implements the engine operations of cudf: null-aware
// elementwise kernels, casts, reductions, hashing and search, sorting,
// joins, groupby-aggregate and stream compaction.
//
// Every operation takes a context.Context carrying an ExecCtx that selects
// the allocator, the degree of parallelism, the logger and the tracer.
// Operations never modify their inputs and always return freshly allocated
// results that the caller must Release.
package compute

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/go-kit/log"
	"github.com/klauspost/cpuid/v2"
	"go.opentelemetry.io/otel/trace"
)

// ExecCtx configures how operations run.
type ExecCtx struct {
	// Allocator provides all output and scratch memory.
	Allocator memory.Allocator
	// NumWorkers bounds the number of block tasks running at once.
	NumWorkers int
	// BlockSize is the number of rows handled by one block task. It is
	// rounded up to a multiple of 64 so that concurrent tasks never write
	// to the same null mask byte.
	BlockSize int
	Logger    log.Logger
	// Tracer receives one span per operation. When nil the global
	// OpenTelemetry tracer provider is used.
	Tracer trace.Tracer
}

const (
	minBlockSize = 1 << 10
	maxBlockSize = 1 << 18
)

type ctxExecKey struct{}

var defaultExecCtx ExecCtx

func init() {
	defaultExecCtx = ExecCtx{
		Allocator:  memory.DefaultAllocator,
		NumWorkers: runtime.GOMAXPROCS(0),
		BlockSize:  defaultBlockSize(),
		Logger:     log.NewNopLogger(),
	}
}

// defaultBlockSize sizes a block so that one block of 16-byte rows fits in
// half of the L2 cache.
func defaultBlockSize() int {
	l2 := cpuid.CPU.Cache.L2
	if l2 <= 0 {
		return 1 << 14
	}
	n := l2 / 2 / 16
	switch {
	case n < minBlockSize:
		n = minBlockSize
	case n > maxBlockSize:
		n = maxBlockSize
	}
	return roundBlock(n)
}

func roundBlock(n int) int { return (n + 63) &^ 63 }

// DefaultExecCtx returns the configuration used when a context carries none.
func DefaultExecCtx() ExecCtx { return defaultExecCtx }

func SetExecCtx(ctx context.Context, e ExecCtx) context.Context {
	return context.WithValue(ctx, ctxExecKey{}, e)
}

// GetExecCtx returns the ExecCtx stored in ctx with unset fields filled in
// from the defaults.
func GetExecCtx(ctx context.Context) ExecCtx {
	e, ok := ctx.Value(ctxExecKey{}).(ExecCtx)
	if !ok {
		return defaultExecCtx
	}
	if e.Allocator == nil {
		e.Allocator = defaultExecCtx.Allocator
	}
	if e.NumWorkers <= 0 {
		e.NumWorkers = defaultExecCtx.NumWorkers
	}
	if e.BlockSize <= 0 {
		e.BlockSize = defaultExecCtx.BlockSize
	}
	e.BlockSize = roundBlock(e.BlockSize)
	if e.Logger == nil {
		e.Logger = defaultExecCtx.Logger
	}
	return e
}

// WithAllocator returns a context whose ExecCtx allocates from mem.
func WithAllocator(ctx context.Context, mem memory.Allocator) context.Context {
	e := GetExecCtx(ctx)
	e.Allocator = mem
	return SetExecCtx(ctx, e)
}

// GetAllocator returns the allocator of the ExecCtx in ctx.
func GetAllocator(ctx context.Context) memory.Allocator {
	return GetExecCtx(ctx).Allocator
}

// ExecCtxFromEnv returns the default ExecCtx with NumWorkers and BlockSize
// overridden by CUDF_NUM_WORKERS and CUDF_BLOCK_SIZE when set.
func ExecCtxFromEnv() (ExecCtx, error) {
	e := defaultExecCtx
	if v := os.Getenv("CUDF_NUM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return e, fmt.Errorf("%w: CUDF_NUM_WORKERS=%q", cudf.ErrInvalidArgument, v)
		}
		e.NumWorkers = n
	}
	if v := os.Getenv("CUDF_BLOCK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return e, fmt.Errorf("%w: CUDF_BLOCK_SIZE=%q", cudf.ErrInvalidArgument, v)
		}
		e.BlockSize = roundBlock(n)
	}
	return e, nil
}
