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

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"golang.org/x/exp/slices"
)

// SortedOrder returns the INT32 permutation that stably sorts t by keys.
// With no keys every column is a key, ascending with nulls last.
func SortedOrder(ctx context.Context, t *column.Table, keys []SortKey) (out *column.Column, err error) {
	c, err := begin(ctx, "sorted_order", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "keys", len(keys)) }()

	order, err := c.sortedOrder(t, keys)
	if err != nil {
		return nil, err
	}
	return column.FromSlice(c.mem, cudf.Int32, order, nil)
}

// Sort returns t reordered by keys.
func Sort(ctx context.Context, t *column.Table, keys []SortKey) (*column.Table, error) {
	return SortByKey(ctx, t, t, keys)
}

// SortByKey returns values reordered by the keys of keyTable.
func SortByKey(ctx context.Context, values, keyTable *column.Table, keys []SortKey) (out *column.Table, err error) {
	c, err := begin(ctx, "sort_by_key", keyTable.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "keys", len(keys)) }()

	if values.NumRows() != keyTable.NumRows() {
		return nil, fmt.Errorf("%w: %d value rows, %d key rows", cudf.ErrShapeMismatch, values.NumRows(), keyTable.NumRows())
	}
	order, err := c.sortedOrder(keyTable, keys)
	if err != nil {
		return nil, err
	}
	return c.gatherTable(values, order, false)
}

// IsSorted reports whether t is already ordered by keys.
func IsSorted(ctx context.Context, t *column.Table, keys []SortKey) (sorted bool, err error) {
	c, err := begin(ctx, "is_sorted", t.NumRows())
	if err != nil {
		return false, err
	}
	defer func() { c.end(err, "sorted", sorted) }()

	if len(keys) == 0 {
		keys = allKeys(t)
	}
	cols, orders, nulls, err := resolveKeys(t, keys)
	if err != nil {
		return false, err
	}
	cmp, err := rowComparator(cols, cols, orders, nulls)
	if err != nil {
		return false, err
	}
	n := t.NumRows()
	unsorted := make([]bool, numBlocks(n, c.exec.BlockSize))
	err = c.launch(n, func(b, lo, hi int) error {
		for i := lo; i < hi && i+1 < n; i++ {
			if cmp(i, i+1) > 0 {
				unsorted[b] = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	for _, u := range unsorted {
		if u {
			return false, nil
		}
	}
	return true, nil
}

// sortedOrder sorts each block stably, then merges runs of blocks pairwise
// until one run is left. Merges take from the left run on ties, so the
// result is stable.
func (c *call) sortedOrder(t *column.Table, keys []SortKey) ([]int32, error) {
	if len(keys) == 0 {
		keys = allKeys(t)
	}
	cols, orders, nulls, err := resolveKeys(t, keys)
	if err != nil {
		return nil, err
	}
	cmp, err := rowComparator(cols, cols, orders, nulls)
	if err != nil {
		return nil, err
	}
	n := t.NumRows()
	order := identity(n)
	bs := c.exec.BlockSize
	err = c.forEach(n, func(lo, hi int) {
		slices.SortStableFunc(order[lo:hi], func(a, b int32) int { return cmp(int(a), int(b)) })
	})
	if err != nil {
		return nil, err
	}

	scratch := make([]int32, n)
	for width := bs; width < n; width *= 2 {
		pairs := (n + 2*width - 1) / (2 * width)
		src, dst := order, scratch
		err := c.tasks(pairs, func(p int) error {
			lo := p * 2 * width
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRuns(src[lo:mid], src[mid:hi], dst[lo:hi], cmp)
			return nil
		})
		if err != nil {
			return nil, err
		}
		order, scratch = scratch, order
	}
	return order, nil
}

func mergeRuns(a, b, dst []int32, cmp func(i, j int) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if cmp(int(b[j]), int(a[i])) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
