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
	"bytes"
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute/internal/hashing"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"golang.org/x/exp/constraints"
)

// NullEquality selects how null key components compare in joins, groupby,
// distinct and hash search.
type NullEquality int8

const (
	// NullsEqual treats two null key components as equal.
	NullsEqual NullEquality = iota
	// NullsUnequal makes a row with any null key component match nothing.
	NullsUnequal
)

type Order int8

const (
	Ascending Order = iota
	Descending
)

// NullOrder places nulls independently of the sort direction.
type NullOrder int8

const (
	NullsLast NullOrder = iota
	NullsFirst
)

// SortKey names a key column of a table and how it is ordered.
type SortKey struct {
	Column int
	Order  Order
	Nulls  NullOrder
}

// NotFound marks a missing index in search results and join gather maps.
const NotFound int32 = -1

func checkComparable(a, b *column.Column) error {
	if !a.Type().Equal(b.Type()) {
		return fmt.Errorf("%w: cannot compare %s with %s", cudf.ErrTypeMismatch, a.Type(), b.Type())
	}
	return nil
}

func eqFixed[T comparable](a, b []T) func(i, j int) bool {
	return func(i, j int) bool { return a[i] == b[j] }
}

func eqFloat[T constraints.Float](a, b []T) func(i, j int) bool {
	return func(i, j int) bool {
		x, y := a[i], b[j]
		return x == y || (x != x && y != y)
	}
}

// elemEqual returns a predicate comparing non-null row i of a with non-null
// row j of b. Floats compare NaN equal to NaN and -0 equal to +0.
func elemEqual(a, b *column.Column) (func(i, j int) bool, error) {
	if err := checkComparable(a, b); err != nil {
		return nil, err
	}
	switch a.Type().Physical() {
	case cudf.INT8:
		return eqFixed(column.Values[int8](a), column.Values[int8](b)), nil
	case cudf.INT16:
		return eqFixed(column.Values[int16](a), column.Values[int16](b)), nil
	case cudf.INT32:
		return eqFixed(column.Values[int32](a), column.Values[int32](b)), nil
	case cudf.INT64:
		return eqFixed(column.Values[int64](a), column.Values[int64](b)), nil
	case cudf.UINT8:
		return eqFixed(column.Values[uint8](a), column.Values[uint8](b)), nil
	case cudf.UINT16:
		return eqFixed(column.Values[uint16](a), column.Values[uint16](b)), nil
	case cudf.UINT32:
		return eqFixed(column.Values[uint32](a), column.Values[uint32](b)), nil
	case cudf.UINT64:
		return eqFixed(column.Values[uint64](a), column.Values[uint64](b)), nil
	case cudf.FLOAT32:
		return eqFloat(column.Values[float32](a), column.Values[float32](b)), nil
	case cudf.FLOAT64:
		return eqFloat(column.Values[float64](a), column.Values[float64](b)), nil
	case cudf.DECIMAL128:
		return eqFixed(column.Values[decimal128.Num](a), column.Values[decimal128.Num](b)), nil
	case cudf.STRING:
		sa, sb := column.Strings(a), column.Strings(b)
		return func(i, j int) bool { return bytes.Equal(sa.Bytes(i), sb.Bytes(j)) }, nil
	case cudf.STRUCT:
		fields := make([]func(i, j int) bool, a.NumChildren())
		for f := range fields {
			eq, err := nullableEqual(a.Field(f), b.Field(f))
			if err != nil {
				return nil, err
			}
			fields[f] = eq
		}
		return func(i, j int) bool {
			for _, eq := range fields {
				if !eq(i, j) {
					return false
				}
			}
			return true
		}, nil
	case cudf.LIST:
		la, lb := column.Lists(a), column.Lists(b)
		eq, err := nullableEqual(la.Elements(), lb.Elements())
		if err != nil {
			return nil, err
		}
		return func(i, j int) bool {
			s1, e1 := la.Range(i)
			s2, e2 := lb.Range(j)
			if e1-s1 != e2-s2 {
				return false
			}
			for k := 0; k < e1-s1; k++ {
				if !eq(s1+k, s2+k) {
					return false
				}
			}
			return true
		}, nil
	}
	return nil, fmt.Errorf("%w: equality on %s", cudf.ErrUnsupportedType, a.Type())
}

// nullableEqual is elemEqual for rows that may be null; nulls are equal to
// each other.
func nullableEqual(a, b *column.Column) (func(i, j int) bool, error) {
	eq, err := elemEqual(a, b)
	if err != nil {
		return nil, err
	}
	if !a.HasNulls() && !b.HasNulls() {
		return eq, nil
	}
	return func(i, j int) bool {
		an, bn := a.IsNull(i), b.IsNull(j)
		if an || bn {
			return an && bn
		}
		return eq(i, j)
	}, nil
}

func cmpOrdered[T constraints.Integer](a, b []T) func(i, j int) int {
	return func(i, j int) int {
		switch x, y := a[i], b[j]; {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
}

func compareFloat[T constraints.Float](x, y T) int {
	xn, yn := x != x, y != y
	switch {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpFloat[T constraints.Float](a, b []T) func(i, j int) int {
	return func(i, j int) int { return compareFloat(a[i], b[j]) }
}

func compareDecimal(x, y decimal128.Num) int {
	switch {
	case x.HighBits() < y.HighBits():
		return -1
	case x.HighBits() > y.HighBits():
		return 1
	case x.LowBits() < y.LowBits():
		return -1
	case x.LowBits() > y.LowBits():
		return 1
	}
	return 0
}

// elemCompare returns a three-way comparison of non-null row i of a with
// non-null row j of b in ascending order. NaN sorts after every number.
func elemCompare(a, b *column.Column) (func(i, j int) int, error) {
	if err := checkComparable(a, b); err != nil {
		return nil, err
	}
	switch a.Type().Physical() {
	case cudf.INT8:
		return cmpOrdered(column.Values[int8](a), column.Values[int8](b)), nil
	case cudf.INT16:
		return cmpOrdered(column.Values[int16](a), column.Values[int16](b)), nil
	case cudf.INT32:
		return cmpOrdered(column.Values[int32](a), column.Values[int32](b)), nil
	case cudf.INT64:
		return cmpOrdered(column.Values[int64](a), column.Values[int64](b)), nil
	case cudf.UINT8:
		return cmpOrdered(column.Values[uint8](a), column.Values[uint8](b)), nil
	case cudf.UINT16:
		return cmpOrdered(column.Values[uint16](a), column.Values[uint16](b)), nil
	case cudf.UINT32:
		return cmpOrdered(column.Values[uint32](a), column.Values[uint32](b)), nil
	case cudf.UINT64:
		return cmpOrdered(column.Values[uint64](a), column.Values[uint64](b)), nil
	case cudf.FLOAT32:
		return cmpFloat(column.Values[float32](a), column.Values[float32](b)), nil
	case cudf.FLOAT64:
		return cmpFloat(column.Values[float64](a), column.Values[float64](b)), nil
	case cudf.DECIMAL128:
		x, y := column.Values[decimal128.Num](a), column.Values[decimal128.Num](b)
		return func(i, j int) int { return compareDecimal(x[i], y[j]) }, nil
	case cudf.STRING:
		sa, sb := column.Strings(a), column.Strings(b)
		return func(i, j int) int { return bytes.Compare(sa.Bytes(i), sb.Bytes(j)) }, nil
	}
	return nil, fmt.Errorf("%w: ordering on %s", cudf.ErrUnsupportedType, a.Type())
}

func hashInts[T constraints.Integer](v []T, seed uint64) func(i int) uint64 {
	return func(i int) uint64 { return hashing.Uint64(uint64(v[i]), seed) }
}

func hashFloats[T constraints.Float](v []T, seed uint64) func(i int) uint64 {
	return func(i int) uint64 { return hashing.Float64(float64(v[i]), seed) }
}

// elemHash returns the hash of non-null row i of c. Rows that elemEqual
// reports equal hash equally.
func elemHash(c *column.Column, seed uint64) (func(i int) uint64, error) {
	switch c.Type().Physical() {
	case cudf.INT8:
		return hashInts(column.Values[int8](c), seed), nil
	case cudf.INT16:
		return hashInts(column.Values[int16](c), seed), nil
	case cudf.INT32:
		return hashInts(column.Values[int32](c), seed), nil
	case cudf.INT64:
		return hashInts(column.Values[int64](c), seed), nil
	case cudf.UINT8:
		return hashInts(column.Values[uint8](c), seed), nil
	case cudf.UINT16:
		return hashInts(column.Values[uint16](c), seed), nil
	case cudf.UINT32:
		return hashInts(column.Values[uint32](c), seed), nil
	case cudf.UINT64:
		return hashInts(column.Values[uint64](c), seed), nil
	case cudf.FLOAT32:
		return hashFloats(column.Values[float32](c), seed), nil
	case cudf.FLOAT64:
		return hashFloats(column.Values[float64](c), seed), nil
	case cudf.DECIMAL128:
		v := column.Values[decimal128.Num](c)
		return func(i int) uint64 { return hashing.Pair(v[i].LowBits(), uint64(v[i].HighBits()), seed) }, nil
	case cudf.STRING:
		s := column.Strings(c)
		return func(i int) uint64 { return hashing.Hash(s.Bytes(i), seed) }, nil
	case cudf.STRUCT:
		fields := make([]func(i int) uint64, c.NumChildren())
		for f := range fields {
			h, err := nullableHash(c.Field(f), seed)
			if err != nil {
				return nil, err
			}
			fields[f] = h
		}
		return func(i int) uint64 {
			h := seed
			for _, fh := range fields {
				h = hashing.Combine(h, fh(i))
			}
			return h
		}, nil
	case cudf.LIST:
		lv := column.Lists(c)
		eh, err := nullableHash(lv.Elements(), seed)
		if err != nil {
			return nil, err
		}
		return func(i int) uint64 {
			start, end := lv.Range(i)
			h := hashing.Uint64(uint64(end-start), seed)
			for k := start; k < end; k++ {
				h = hashing.Combine(h, eh(k))
			}
			return h
		}, nil
	}
	return nil, fmt.Errorf("%w: hashing %s", cudf.ErrUnsupportedType, c.Type())
}

func nullableHash(c *column.Column, seed uint64) (func(i int) uint64, error) {
	h, err := elemHash(c, seed)
	if err != nil {
		return nil, err
	}
	if !c.HasNulls() {
		return h, nil
	}
	return func(i int) uint64 {
		if c.IsNull(i) {
			return hashing.NullHash
		}
		return h(i)
	}, nil
}

// rowHasher hashes composite keys made of several columns.
type rowHasher struct {
	cols   []*column.Column
	hashes []func(i int) uint64
	seed   uint64
}

func newRowHasher(cols []*column.Column, seed uint64) (*rowHasher, error) {
	rh := &rowHasher{cols: cols, hashes: make([]func(int) uint64, len(cols)), seed: seed}
	for k, c := range cols {
		h, err := nullableHash(c, seed)
		if err != nil {
			return nil, err
		}
		rh.hashes[k] = h
	}
	return rh, nil
}

func (rh *rowHasher) hash(i int) uint64 {
	h := rh.seed
	for _, fh := range rh.hashes {
		h = hashing.Combine(h, fh(i))
	}
	return h
}

// hashAll hashes every row in parallel.
func (c *call) hashAll(rh *rowHasher, n int) ([]uint64, error) {
	out := make([]uint64, n)
	err := c.forEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = rh.hash(i)
		}
	})
	return out, err
}

// rowEqual compares composite keys of two tables under a null policy.
func rowEqual(left, right []*column.Column, nullEq NullEquality) (func(i, j int) bool, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: %d key columns against %d", cudf.ErrInvalidArgument, len(left), len(right))
	}
	eqs := make([]func(i, j int) bool, len(left))
	for k := range left {
		eq, err := elemEqual(left[k], right[k])
		if err != nil {
			return nil, err
		}
		eqs[k] = eq
	}
	return func(i, j int) bool {
		for k, eq := range eqs {
			ln, rn := left[k].IsNull(i), right[k].IsNull(j)
			if ln || rn {
				if ln && rn && nullEq == NullsEqual {
					continue
				}
				return false
			}
			if !eq(i, j) {
				return false
			}
		}
		return true
	}, nil
}

// anyNull reports whether row i has a null in any of cols.
func anyNull(cols []*column.Column, i int) bool {
	for _, c := range cols {
		if c.IsNull(i) {
			return true
		}
	}
	return false
}

func hasNulls(cols []*column.Column) bool {
	for _, c := range cols {
		if c.HasNulls() {
			return true
		}
	}
	return false
}

// rowComparator orders composite keys of two tables. orders and nulls give
// the direction and null placement of each key column.
func rowComparator(left, right []*column.Column, orders []Order, nulls []NullOrder) (func(i, j int) int, error) {
	cmps := make([]func(i, j int) int, len(left))
	for k := range left {
		if !left[k].Type().ID().IsOrderable() {
			return nil, fmt.Errorf("%w: ordering on %s", cudf.ErrUnsupportedType, left[k].Type())
		}
		cmp, err := elemCompare(left[k], right[k])
		if err != nil {
			return nil, err
		}
		cmps[k] = cmp
	}
	return func(i, j int) int {
		for k, cmp := range cmps {
			ln, rn := left[k].IsNull(i), right[k].IsNull(j)
			if ln || rn {
				if ln && rn {
					continue
				}
				r := 1
				if ln == (nulls[k] == NullsFirst) {
					r = -1
				}
				return r
			}
			r := cmp(i, j)
			if orders[k] == Descending {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	}, nil
}

// resolveKeys returns the key columns named by keys together with their
// directions.
func resolveKeys(t *column.Table, keys []SortKey) ([]*column.Column, []Order, []NullOrder, error) {
	cols := make([]*column.Column, len(keys))
	orders := make([]Order, len(keys))
	nulls := make([]NullOrder, len(keys))
	for k, key := range keys {
		if key.Column < 0 || key.Column >= t.NumColumns() {
			return nil, nil, nil, fmt.Errorf("%w: key column %d of %d", cudf.ErrInvalidArgument, key.Column, t.NumColumns())
		}
		cols[k], orders[k], nulls[k] = t.Column(key.Column), key.Order, key.Nulls
	}
	return cols, orders, nulls, nil
}

// allKeys orders by every column of t ascending with nulls last.
func allKeys(t *column.Table) []SortKey {
	keys := make([]SortKey, t.NumColumns())
	for i := range keys {
		keys[i] = SortKey{Column: i}
	}
	return keys
}

// selectColumns returns the columns of t at the given indices.
func selectColumns(t *column.Table, idx []int) ([]*column.Column, error) {
	cols := make([]*column.Column, len(idx))
	for k, i := range idx {
		if i < 0 || i >= t.NumColumns() {
			return nil, fmt.Errorf("%w: key column %d of %d", cudf.ErrInvalidArgument, i, t.NumColumns())
		}
		cols[k] = t.Column(i)
	}
	return cols, nil
}
