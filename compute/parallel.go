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

package compute

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/VamsiTallam95/cudf"
	"golang.org/x/sync/errgroup"
)

func numBlocks(n, blockSize int) int {
	return (n + blockSize - 1) / blockSize
}

// blockRange returns the rows [lo, hi) of block b.
func blockRange(b, n, blockSize int) (lo, hi int) {
	lo = b * blockSize
	hi = lo + blockSize
	if hi > n {
		hi = n
	}
	return
}

// recoverTask turns a panic inside a block task into an error for the
// running call.
func recoverTask(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v\n%s", cudf.ErrDeviceFault, r, debug.Stack())
	}
}

// launch runs fn once per block of n rows and waits for all of them.
func (c *call) launch(n int, fn func(block, lo, hi int) error) error {
	bs := c.exec.BlockSize
	return c.tasks(numBlocks(n, bs), func(b int) error {
		lo, hi := blockRange(b, n, bs)
		return fn(b, lo, hi)
	})
}

// tasks runs fn(0..k-1) with at most e.NumWorkers tasks in flight. Once
// issued the tasks run to completion even if ctx is cancelled; after the
// first failure the tasks that have not started yet are skipped.
func (c *call) tasks(k int, fn func(i int) error) error {
	if k == 1 || c.exec.NumWorkers == 1 {
		for i := 0; i < k; i++ {
			if err := runTask(fn, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(c.ctx))
	g.SetLimit(c.exec.NumWorkers)
	for i := 0; i < k; i++ {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return runTask(fn, i)
		})
	}
	return g.Wait()
}

func runTask(fn func(i int) error, i int) (err error) {
	defer recoverTask(&err)
	return fn(i)
}

// forEach is launch for tasks that cannot fail.
func (c *call) forEach(n int, fn func(lo, hi int)) error {
	return c.launch(n, func(_, lo, hi int) error {
		fn(lo, hi)
		return nil
	})
}

// exclusiveScan replaces counts with their exclusive prefix sums and returns
// the total.
func exclusiveScan(counts []int) int {
	total := 0
	for i, c := range counts {
		counts[i] = total
		total += c
	}
	return total
}
