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
	"sort"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute/internal/hashing"
)

type SearchMethod int8

const (
	// SearchBinary requires the haystack to be sorted by SearchOptions.Keys.
	SearchBinary SearchMethod = iota
	SearchHash
)

type SearchMode int8

const (
	// SearchFirst finds the lowest matching haystack row of each needle.
	SearchFirst SearchMode = iota
	// SearchAll lists every matching (needle, haystack) pair.
	SearchAll
)

type SearchOptions struct {
	Method SearchMethod
	Mode   SearchMode
	// Keys describe the order of the haystack for binary search. Column
	// indices refer to both haystack and needles. Empty means every column
	// ascending with nulls last.
	Keys      []SortKey
	NullEqual NullEquality
}

// SearchResult holds the INT32 output of Search. In SearchFirst mode Index
// has one row per needle with NotFound for misses. In SearchAll mode
// NeedleRows and HaystackRows list the matching pairs, ordered by needle
// and then by haystack row.
type SearchResult struct {
	Index        *column.Column
	NeedleRows   *column.Column
	HaystackRows *column.Column
}

func (r *SearchResult) Release() {
	for _, c := range []*column.Column{r.Index, r.NeedleRows, r.HaystackRows} {
		if c != nil {
			c.Release()
		}
	}
}

func checkSearchTables(haystack, needles *column.Table) error {
	if haystack.NumColumns() != needles.NumColumns() {
		return fmt.Errorf("%w: haystack has %d columns, needles %d", cudf.ErrInvalidArgument, haystack.NumColumns(), needles.NumColumns())
	}
	for i := range haystack.Columns() {
		if err := checkComparable(haystack.Column(i), needles.Column(i)); err != nil {
			return err
		}
	}
	return nil
}

// Search looks up every row of needles in haystack.
func Search(ctx context.Context, haystack, needles *column.Table, opts SearchOptions) (res *SearchResult, err error) {
	c, err := begin(ctx, "search", needles.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "haystack_rows", haystack.NumRows()) }()

	if err := checkSearchTables(haystack, needles); err != nil {
		return nil, err
	}
	var matches func(j int, emit func(i int) bool) error
	switch opts.Method {
	case SearchBinary:
		matches, err = c.binaryMatcher(haystack, needles, opts)
	case SearchHash:
		matches, err = c.hashMatcher(haystack, needles, opts.NullEqual)
	default:
		err = fmt.Errorf("%w: search method %d", cudf.ErrInvalidArgument, opts.Method)
	}
	if err != nil {
		return nil, err
	}

	n := needles.NumRows()
	if opts.Mode == SearchFirst {
		idx := make([]int32, n)
		err := c.launch(n, func(_, lo, hi int) error {
			for j := lo; j < hi; j++ {
				idx[j] = NotFound
				err := matches(j, func(i int) bool {
					idx[j] = int32(i)
					return false
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		col, err := column.FromSlice(c.mem, cudf.Int32, idx, nil)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Index: col}, nil
	}

	nb := numBlocks(n, c.exec.BlockSize)
	left, right := make([][]int32, nb), make([][]int32, nb)
	err = c.launch(n, func(b, lo, hi int) error {
		for j := lo; j < hi; j++ {
			err := matches(j, func(i int) bool {
				left[b] = append(left[b], int32(j))
				right[b] = append(right[b], int32(i))
				return true
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l, r, err := c.pairColumns(left, right)
	if err != nil {
		return nil, err
	}
	return &SearchResult{NeedleRows: l, HaystackRows: r}, nil
}

// pairColumns concatenates per-block index lists in block order.
func (c *call) pairColumns(left, right [][]int32) (*column.Column, *column.Column, error) {
	var l, r []int32
	for b := range left {
		l = append(l, left[b]...)
		if right != nil {
			r = append(r, right[b]...)
		}
	}
	lc, err := column.FromSlice(c.mem, cudf.Int32, l, nil)
	if err != nil {
		return nil, nil, err
	}
	if right == nil {
		return lc, nil, nil
	}
	rc, err := column.FromSlice(c.mem, cudf.Int32, r, nil)
	if err != nil {
		lc.Release()
		return nil, nil, err
	}
	return lc, rc, nil
}

// binaryMatcher enumerates the haystack rows equal to needle j in
// ascending order by bisecting the sorted haystack.
func (c *call) binaryMatcher(haystack, needles *column.Table, opts SearchOptions) (func(int, func(int) bool) error, error) {
	lower, upper, err := boundFuncs(haystack, needles, opts.Keys)
	if err != nil {
		return nil, err
	}
	keyCols := needles.Columns()
	return func(j int, emit func(int) bool) error {
		if opts.NullEqual == NullsUnequal && anyNull(keyCols, j) {
			return nil
		}
		for i, end := lower(j), upper(j); i < end; i++ {
			if !emit(i) {
				break
			}
		}
		return nil
	}, nil
}

// boundFuncs returns the lower and upper bound of needle rows within the
// sorted haystack.
func boundFuncs(haystack, needles *column.Table, keys []SortKey) (lower, upper func(j int) int, err error) {
	if len(keys) == 0 {
		keys = allKeys(haystack)
	}
	hcols, orders, nulls, err := resolveKeys(haystack, keys)
	if err != nil {
		return nil, nil, err
	}
	ncols, _, _, err := resolveKeys(needles, keys)
	if err != nil {
		return nil, nil, err
	}
	cmp, err := rowComparator(hcols, ncols, orders, nulls)
	if err != nil {
		return nil, nil, err
	}
	n := haystack.NumRows()
	lower = func(j int) int { return sort.Search(n, func(i int) bool { return cmp(i, j) >= 0 }) }
	upper = func(j int) int { return sort.Search(n, func(i int) bool { return cmp(i, j) > 0 }) }
	return lower, upper, nil
}

// hashMatcher enumerates the haystack rows equal to needle j in ascending
// order through a hash table built over the haystack.
func (c *call) hashMatcher(haystack, needles *column.Table, nullEq NullEquality) (func(int, func(int) bool) error, error) {
	hcols, ncols := haystack.Columns(), needles.Columns()
	tbl, eq, err := c.buildTable(hcols, ncols, nullEq)
	if err != nil {
		return nil, err
	}
	probe, err := newRowHasher(ncols, DefaultHashSeed)
	if err != nil {
		return nil, err
	}
	return func(j int, emit func(int) bool) error {
		if nullEq == NullsUnequal && anyNull(ncols, j) {
			return nil
		}
		h := probe.hash(j)
		for i := tbl.First(h); i >= 0; i = tbl.Next(i, h) {
			if eq(j, i) && !emit(i) {
				break
			}
		}
		return nil
	}, nil
}

// buildTable hashes the build side and indexes it. The returned predicate
// compares probe row j with build row i. Under NullsUnequal build rows with
// a null key are left out.
func (c *call) buildTable(build, probe []*column.Column, nullEq NullEquality) (*hashing.Table, func(j, i int) bool, error) {
	eq, err := rowEqual(probe, build, nullEq)
	if err != nil {
		return nil, nil, err
	}
	rh, err := newRowHasher(build, DefaultHashSeed)
	if err != nil {
		return nil, nil, err
	}
	n := 0
	if len(build) > 0 {
		n = build[0].Len()
	}
	hashes, err := c.hashAll(rh, n)
	if err != nil {
		return nil, nil, err
	}
	var include func(int) bool
	if nullEq == NullsUnequal && hasNulls(build) {
		include = func(i int) bool { return !anyNull(build, i) }
	}
	return hashing.NewTable(hashes, include), eq, nil
}

// LowerBound returns, for each needle, the first haystack row that does not
// order before it.
func LowerBound(ctx context.Context, haystack, needles *column.Table, keys []SortKey) (*column.Column, error) {
	return bound(ctx, "lower_bound", haystack, needles, keys, true)
}

// UpperBound returns, for each needle, the first haystack row that orders
// after it.
func UpperBound(ctx context.Context, haystack, needles *column.Table, keys []SortKey) (*column.Column, error) {
	return bound(ctx, "upper_bound", haystack, needles, keys, false)
}

func bound(ctx context.Context, op string, haystack, needles *column.Table, keys []SortKey, lowerBound bool) (out *column.Column, err error) {
	c, err := begin(ctx, op, needles.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()

	if err := checkSearchTables(haystack, needles); err != nil {
		return nil, err
	}
	lower, upper, err := boundFuncs(haystack, needles, keys)
	if err != nil {
		return nil, err
	}
	f := upper
	if lowerBound {
		f = lower
	}
	idx := make([]int32, needles.NumRows())
	err = c.forEach(len(idx), func(lo, hi int) {
		for j := lo; j < hi; j++ {
			idx[j] = int32(f(j))
		}
	})
	if err != nil {
		return nil, err
	}
	return column.FromSlice(c.mem, cudf.Int32, idx, nil)
}

// Contains returns a BOOL8 column telling for each needle whether it occurs
// in haystack. Null needles produce null.
func Contains(ctx context.Context, haystack, needles *column.Column) (out *column.Column, err error) {
	c, err := begin(ctx, "contains", needles.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()

	hcols, ncols := []*column.Column{haystack}, []*column.Column{needles}
	tbl, eq, err := c.buildTable(hcols, ncols, NullsUnequal)
	if err != nil {
		return nil, err
	}
	probe, err := newRowHasher(ncols, DefaultHashSeed)
	if err != nil {
		return nil, err
	}
	n := needles.Len()
	out, err = column.NewFixedWidth(c.mem, cudf.Bool8, n, needles.HasNulls())
	if err != nil {
		return nil, err
	}
	vals := column.Values[uint8](out)
	err = c.forEach(n, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			if needles.IsNull(j) {
				out.Mask().SetValid(j, false)
				continue
			}
			h := probe.hash(j)
			if tbl.Find(h, func(i int) bool { return eq(j, i) }) >= 0 {
				vals[j] = 1
			}
		}
	})
	if err != nil {
		out.Release()
		return nil, err
	}
	out.ResetNullCount()
	return out, nil
}
