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
	"math"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute/internal/hashing"
)

// DuplicateKeep selects which row of a set of duplicates is kept.
type DuplicateKeep int8

const (
	KeepFirst DuplicateKeep = iota
	KeepLast
	// KeepAny keeps one unspecified row; this implementation keeps the first.
	KeepAny
	// KeepNone drops every row that has a duplicate.
	KeepNone
)

var keepNames = [...]string{KeepFirst: "first", KeepLast: "last", KeepAny: "any", KeepNone: "none"}

func (k DuplicateKeep) String() string {
	if k >= 0 && int(k) < len(keepNames) {
		return keepNames[k]
	}
	return fmt.Sprintf("DuplicateKeep(%d)", k)
}

func DuplicateKeepFromString(s string) (DuplicateKeep, bool) {
	for i, n := range keepNames {
		if n == s {
			return DuplicateKeep(i), true
		}
	}
	return 0, false
}

// compact returns the rows of t for which keep reports true, in order.
// Blocks count their kept rows, an exclusive scan places each block's
// output and the blocks then write their row indexes in parallel.
func (c *call) compact(t *column.Table, keep func(i int) bool) (*column.Table, error) {
	n := t.NumRows()
	counts := make([]int, numBlocks(n, c.exec.BlockSize))
	err := c.launch(n, func(b, lo, hi int) error {
		k := 0
		for i := lo; i < hi; i++ {
			if keep(i) {
				k++
			}
		}
		counts[b] = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	total := exclusiveScan(counts)
	idx := make([]int32, total)
	err = c.launch(n, func(b, lo, hi int) error {
		pos := counts[b]
		for i := lo; i < hi; i++ {
			if keep(i) {
				idx[pos] = int32(i)
				pos++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.gatherTable(t, idx, false)
}

// ApplyBooleanMask keeps the rows of t where mask is true. Null mask rows
// drop their row.
func ApplyBooleanMask(ctx context.Context, t *column.Table, mask *column.Column) (out *column.Table, err error) {
	c, err := begin(ctx, "apply_boolean_mask", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "rows_out", rowsOf(out)) }()

	if mask.Type().ID() != cudf.BOOL8 {
		return nil, fmt.Errorf("%w: boolean mask must be bool8, got %s", cudf.ErrTypeMismatch, mask.Type())
	}
	if mask.Len() != t.NumRows() {
		return nil, fmt.Errorf("%w: mask of %d rows for %d rows", cudf.ErrShapeMismatch, mask.Len(), t.NumRows())
	}
	v := column.Values[uint8](mask)
	return c.compact(t, func(i int) bool { return mask.IsValid(i) && v[i] != 0 })
}

func rowsOf(t *column.Table) int {
	if t == nil {
		return 0
	}
	return t.NumRows()
}

// keyColumns returns the columns of t named by keys, or all of them when
// keys is nil.
func keyColumns(t *column.Table, keys []int) ([]*column.Column, error) {
	if keys == nil {
		return t.Columns(), nil
	}
	return selectColumns(t, keys)
}

// DropNulls keeps the rows of t with at least threshold valid values among
// the key columns. A negative threshold requires every key to be valid.
func DropNulls(ctx context.Context, t *column.Table, keys []int, threshold int) (out *column.Table, err error) {
	c, err := begin(ctx, "drop_nulls", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "rows_out", rowsOf(out)) }()

	cols, err := keyColumns(t, keys)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = len(cols)
	}
	return c.compact(t, func(i int) bool {
		k := 0
		for _, col := range cols {
			if col.IsValid(i) {
				k++
			}
		}
		return k >= threshold
	})
}

// DropNaNs keeps the rows of t with at least threshold non-NaN values among
// the float key columns. Nulls are not NaN. A negative threshold requires
// every key to be a number or null.
func DropNaNs(ctx context.Context, t *column.Table, keys []int, threshold int) (out *column.Table, err error) {
	c, err := begin(ctx, "drop_nans", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "rows_out", rowsOf(out)) }()

	cols, err := keyColumns(t, keys)
	if err != nil {
		return nil, err
	}
	gets := make([]func(int) float64, len(cols))
	for k, col := range cols {
		if !col.Type().ID().IsFloating() {
			return nil, fmt.Errorf("%w: NaN test on %s", cudf.ErrUnsupportedType, col.Type())
		}
		if gets[k], err = float64At(col); err != nil {
			return nil, err
		}
	}
	if threshold < 0 {
		threshold = len(cols)
	}
	return c.compact(t, func(i int) bool {
		k := 0
		for j, col := range cols {
			if col.IsNull(i) || !math.IsNaN(gets[j](i)) {
				k++
			}
		}
		return k >= threshold
	})
}

// firstEqual returns, for every row, the first row with an equal key.
// Under NullsUnequal a row with a null key is its own first row.
func (c *call) firstEqual(cols []*column.Column, n int, nullEq NullEquality) ([]int32, error) {
	eq, err := rowEqual(cols, cols, nullEq)
	if err != nil {
		return nil, err
	}
	rh, err := newRowHasher(cols, DefaultHashSeed)
	if err != nil {
		return nil, err
	}
	hashes, err := c.hashAll(rh, n)
	if err != nil {
		return nil, err
	}
	single := func(i int) bool { return nullEq == NullsUnequal && anyNull(cols, i) }
	tbl := hashing.NewTable(hashes, func(i int) bool { return !single(i) })
	first := make([]int32, n)
	err = c.forEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if single(i) {
				first[i] = int32(i)
				continue
			}
			first[i] = int32(tbl.Find(hashes[i], func(r int) bool { return eq(i, r) }))
		}
	})
	return first, err
}

// distinctKeep returns the keep predicate of Distinct.
func (c *call) distinctKeep(cols []*column.Column, n int, keep DuplicateKeep, nullEq NullEquality) (func(i int) bool, error) {
	if keep < KeepFirst || keep > KeepNone {
		return nil, fmt.Errorf("%w: keep option %d", cudf.ErrInvalidArgument, keep)
	}
	first, err := c.firstEqual(cols, n, nullEq)
	if err != nil {
		return nil, err
	}
	switch keep {
	case KeepLast:
		last := make([]int32, n)
		for i, f := range first {
			last[f] = int32(i)
		}
		return func(i int) bool { return last[first[i]] == int32(i) }, nil
	case KeepNone:
		count := make([]int32, n)
		for _, f := range first {
			count[f]++
		}
		return func(i int) bool { return count[first[i]] == 1 }, nil
	}
	return func(i int) bool { return first[i] == int32(i) }, nil
}

// Distinct keeps one row, or none with KeepNone, of every set of rows of t
// with equal keys. Output rows keep their input order.
func Distinct(ctx context.Context, t *column.Table, keys []int, keep DuplicateKeep, nullEq NullEquality) (out *column.Table, err error) {
	c, err := begin(ctx, "distinct", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "keep", keep, "rows_out", rowsOf(out)) }()

	cols, err := keyColumns(t, keys)
	if err != nil {
		return nil, err
	}
	pred, err := c.distinctKeep(cols, t.NumRows(), keep, nullEq)
	if err != nil {
		return nil, err
	}
	return c.compact(t, pred)
}

// uniqueKeep returns the keep predicate of Unique.
func uniqueKeep(cols []*column.Column, n int, keep DuplicateKeep, nullEq NullEquality) (func(i int) bool, error) {
	if keep < KeepFirst || keep > KeepNone {
		return nil, fmt.Errorf("%w: keep option %d", cudf.ErrInvalidArgument, keep)
	}
	eq, err := rowEqual(cols, cols, nullEq)
	if err != nil {
		return nil, err
	}
	starts := func(i int) bool { return i == 0 || !eq(i-1, i) }
	ends := func(i int) bool { return i == n-1 || !eq(i, i+1) }
	switch keep {
	case KeepLast:
		return ends, nil
	case KeepNone:
		return func(i int) bool { return starts(i) && ends(i) }, nil
	}
	return starts, nil
}

// Unique is Distinct restricted to runs of consecutive rows with equal
// keys.
func Unique(ctx context.Context, t *column.Table, keys []int, keep DuplicateKeep, nullEq NullEquality) (out *column.Table, err error) {
	c, err := begin(ctx, "unique", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "keep", keep, "rows_out", rowsOf(out)) }()

	cols, err := keyColumns(t, keys)
	if err != nil {
		return nil, err
	}
	pred, err := uniqueKeep(cols, t.NumRows(), keep, nullEq)
	if err != nil {
		return nil, err
	}
	return c.compact(t, pred)
}

// DistinctCount is the number of distinct rows of t.
func DistinctCount(ctx context.Context, t *column.Table, nullEq NullEquality) (count int, err error) {
	c, err := begin(ctx, "distinct_count", t.NumRows())
	if err != nil {
		return 0, err
	}
	defer func() { c.end(err, "count", count) }()

	first, err := c.firstEqual(t.Columns(), t.NumRows(), nullEq)
	if err != nil {
		return 0, err
	}
	for i, f := range first {
		if int(f) == i {
			count++
		}
	}
	return count, nil
}

// UniqueCount is the number of runs of consecutive equal rows of t.
func UniqueCount(ctx context.Context, t *column.Table, nullEq NullEquality) (count int, err error) {
	c, err := begin(ctx, "unique_count", t.NumRows())
	if err != nil {
		return 0, err
	}
	defer func() { c.end(err, "count", count) }()

	n := t.NumRows()
	starts, err := uniqueKeep(t.Columns(), n, KeepFirst, nullEq)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if starts(i) {
			count++
		}
	}
	return count, nil
}
