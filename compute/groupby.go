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
	"github.com/VamsiTallam95/cudf/compute/internal/hashing"
)

type GroupStrategy int8

const (
	// HashStrategy reports groups in the order of their first row.
	HashStrategy GroupStrategy = iota
	// SortStrategy reports groups in key order.
	SortStrategy
)

func (s GroupStrategy) String() string {
	if s == SortStrategy {
		return "sort"
	}
	return "hash"
}

// AggRequest asks for aggregations of one value column.
type AggRequest struct {
	Values *column.Column
	Aggs   []Aggregation
}

type GroupByOptions struct {
	Strategy GroupStrategy
	// KeyOrder orders the groups of SortStrategy. Column indexes refer to
	// the key table; key columns not named follow in ascending order. The
	// default is every key column ascending with nulls last.
	KeyOrder []SortKey
	// NullEqual decides whether null key components form one group.
	NullEqual NullEquality
	// DropNullKeys leaves out rows with a null in any key column.
	DropNullKeys bool
}

// GroupByResult holds one row per group: the group keys and, in request
// order, one column per requested aggregation.
type GroupByResult struct {
	Keys   *column.Table
	Values []*column.Column
}

func (r *GroupByResult) Release() {
	if r.Keys != nil {
		r.Keys.Release()
	}
	releaseColumns(r.Values)
}

// NumGroups is the number of groups.
func (r *GroupByResult) NumGroups() int { return r.Keys.NumRows() }

// GroupBy groups the rows of keys by equal key rows and aggregates the
// value columns of requests per group. Within a group rows keep their
// original order, so FIRST, LAST, ARGMIN, ARGMAX and COLLECT_LIST are
// deterministic.
func GroupBy(ctx context.Context, keys *column.Table, requests []AggRequest, opts GroupByOptions) (res *GroupByResult, err error) {
	c, err := begin(ctx, "groupby", keys.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			c.end(nil, "strategy", opts.Strategy, "groups", res.NumGroups())
		} else {
			c.end(err, "strategy", opts.Strategy)
		}
	}()

	n := keys.NumRows()
	for k, req := range requests {
		if req.Values.Len() != n {
			return nil, fmt.Errorf("%w: request %d has %d rows, keys have %d", cudf.ErrShapeMismatch, k, req.Values.Len(), n)
		}
	}
	seg, rep, err := c.groups(keys, opts)
	if err != nil {
		return nil, err
	}
	kt, err := c.gatherTable(keys, rep, false)
	if err != nil {
		return nil, err
	}
	res = &GroupByResult{Keys: kt}
	for _, req := range requests {
		for _, agg := range req.Aggs {
			col, err := c.aggregate(req.Values, seg, agg)
			if err != nil {
				res.Release()
				return nil, err
			}
			res.Values = append(res.Values, col)
		}
	}
	return res, nil
}

// groups assigns every included row of keys to a group. It returns the
// rows of each group in original order and the first row of each group.
func (c *call) groups(keys *column.Table, opts GroupByOptions) (segments, []int32, error) {
	n := keys.NumRows()
	cols := keys.Columns()
	eq, err := rowEqual(cols, cols, opts.NullEqual)
	if err != nil {
		return segments{}, nil, err
	}
	dropped := func(i int) bool { return opts.DropNullKeys && anyNull(cols, i) }

	gid := make([]int32, n)
	var rep []int32
	switch opts.Strategy {
	case HashStrategy:
		rh, err := newRowHasher(cols, DefaultHashSeed)
		if err != nil {
			return segments{}, nil, err
		}
		hashes, err := c.hashAll(rh, n)
		if err != nil {
			return segments{}, nil, err
		}
		// Rows with a null key that equals nothing are singleton groups.
		single := func(i int) bool { return opts.NullEqual == NullsUnequal && anyNull(cols, i) }
		tbl := hashing.NewTable(hashes, func(i int) bool { return !dropped(i) && !single(i) })
		first := make([]int32, n)
		err = c.forEach(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				switch {
				case dropped(i):
					first[i] = NotFound
				case single(i):
					first[i] = int32(i)
				default:
					first[i] = int32(tbl.Find(hashes[i], func(r int) bool { return eq(i, r) }))
				}
			}
		})
		if err != nil {
			return segments{}, nil, err
		}
		for i, f := range first {
			switch {
			case f == NotFound:
				gid[i] = NotFound
			case int(f) == i:
				gid[i] = int32(len(rep))
				rep = append(rep, int32(i))
			default:
				gid[i] = gid[f]
			}
		}
	case SortStrategy:
		order, err := c.sortedOrder(keys, groupSortKeys(keys.NumColumns(), opts.KeyOrder))
		if err != nil {
			return segments{}, nil, err
		}
		prev := -1
		for _, r := range order {
			i := int(r)
			if dropped(i) {
				gid[i] = NotFound
				continue
			}
			if prev < 0 || !eq(prev, i) {
				rep = append(rep, r)
			}
			gid[i] = int32(len(rep) - 1)
			prev = i
		}
	default:
		return segments{}, nil, fmt.Errorf("%w: groupby strategy %d", cudf.ErrInvalidArgument, opts.Strategy)
	}

	// Counting sort by group keeps rows in original order within a group.
	offsets := make([]int, len(rep)+1)
	for _, g := range gid {
		if g != NotFound {
			offsets[g+1]++
		}
	}
	for g := 0; g < len(rep); g++ {
		offsets[g+1] += offsets[g]
	}
	perm := make([]int32, offsets[len(rep)])
	pos := append([]int(nil), offsets[:len(rep)]...)
	for i, g := range gid {
		if g != NotFound {
			perm[pos[g]] = int32(i)
			pos[g]++
		}
	}
	return segments{perm: perm, offsets: offsets}, rep, nil
}

// groupSortKeys completes order with the key columns it leaves out.
func groupSortKeys(numKeys int, order []SortKey) []SortKey {
	keys := append([]SortKey(nil), order...)
	named := make(map[int]bool, len(order))
	for _, k := range order {
		named[k.Column] = true
	}
	for i := 0; i < numKeys; i++ {
		if !named[i] {
			keys = append(keys, SortKey{Column: i})
		}
	}
	return keys
}
