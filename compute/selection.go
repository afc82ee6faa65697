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
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
)

type GatherOptions struct {
	// NullifyOutOfBounds makes out of range indices, including NotFound,
	// produce null rows instead of failing with ErrIndexOutOfBounds.
	NullifyOutOfBounds bool
}

func DefaultGatherOptions() GatherOptions { return GatherOptions{} }

// indexValues returns the values of an INT32 index column. Index columns
// must not contain nulls.
func indexValues(what string, c *column.Column) ([]int32, error) {
	if c.Type().ID() != cudf.INT32 {
		return nil, fmt.Errorf("%w: %s must be int32, got %s", cudf.ErrTypeMismatch, what, c.Type())
	}
	if c.HasNulls() {
		return nil, fmt.Errorf("%w: %s contains nulls", cudf.ErrInvalidArgument, what)
	}
	return column.Values[int32](c), nil
}

// checkMap validates idx against a source of n rows. It reports whether
// any index is out of range; that is an error unless nullify is set.
func (c *call) checkMap(idx []int32, n int, nullify bool) (bool, error) {
	nb := numBlocks(len(idx), c.exec.BlockSize)
	bad := make([]bool, nb)
	err := c.launch(len(idx), func(b, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if j := idx[i]; j < 0 || int(j) >= n {
				if !nullify {
					return fmt.Errorf("%w: index %d at row %d, source has %d rows", cudf.ErrIndexOutOfBounds, j, i, n)
				}
				bad[b] = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	for _, v := range bad {
		if v {
			return true, nil
		}
	}
	return false, nil
}

// Gather returns the rows of t selected by gatherMap, in map order.
func Gather(ctx context.Context, t *column.Table, gatherMap *column.Column, opts GatherOptions) (out *column.Table, err error) {
	c, err := begin(ctx, "gather", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "rows_out", gatherMap.Len()) }()

	idx, err := indexValues("gather map", gatherMap)
	if err != nil {
		return nil, err
	}
	return c.gatherTable(t, idx, opts.NullifyOutOfBounds)
}

// GatherColumn is Gather for a single column.
func GatherColumn(ctx context.Context, col *column.Column, gatherMap *column.Column, opts GatherOptions) (*column.Column, error) {
	t, err := column.NewTable(col)
	if err != nil {
		return nil, err
	}
	defer t.Release()
	out, err := Gather(ctx, t, gatherMap, opts)
	if err != nil {
		return nil, err
	}
	defer out.Release()
	res := out.Column(0)
	res.Retain()
	return res, nil
}

func (c *call) gatherTable(t *column.Table, idx []int32, nullify bool) (*column.Table, error) {
	oob, err := c.checkMap(idx, t.NumRows(), nullify)
	if err != nil {
		return nil, err
	}
	cols := make([]*column.Column, t.NumColumns())
	for i, col := range t.Columns() {
		if cols[i], err = c.gather(col, idx, oob); err != nil {
			releaseColumns(cols[:i])
			return nil, err
		}
	}
	return column.TableOf(cols...)
}

func releaseColumns(cols []*column.Column) {
	for _, c := range cols {
		if c != nil {
			c.Release()
		}
	}
}

func gatherFixed[T column.Fixed](src, dst []T, idx []int32, lo, hi int) {
	for i := lo; i < hi; i++ {
		if j := idx[i]; j >= 0 && int(j) < len(src) {
			dst[i] = src[j]
		}
	}
}

// gatherMask returns the validity of the gathered rows: absent when the
// source has no nulls and no index is out of range.
func (c *call) gatherMask(col *column.Column, idx []int32, oob bool) (bitmask.Mask, error) {
	if !col.HasNulls() && !oob {
		return bitmask.Mask{}, nil
	}
	m, err := bitmask.New(c.mem, len(idx))
	if err != nil {
		return bitmask.Mask{}, err
	}
	n := col.Len()
	err = c.forEach(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			j := int(idx[i])
			if j < 0 || j >= n || col.IsNull(j) {
				m.SetValid(i, false)
			}
		}
	})
	if err != nil {
		m.Release()
		return bitmask.Mask{}, err
	}
	return m, nil
}

// gather copies rows idx of col into a new column. oob reports that some
// index is out of range and must produce a null row.
func (c *call) gather(col *column.Column, idx []int32, oob bool) (*column.Column, error) {
	n := len(idx)
	dt := col.Type()
	mask, err := c.gatherMask(col, idx, oob)
	if err != nil {
		return nil, err
	}

	switch dt.ID() {
	case cudf.STRING:
		return c.gatherStrings(col, idx, mask)
	case cudf.LIST:
		return c.gatherList(col, idx, mask)
	case cudf.STRUCT:
		fields := make([]*column.Column, col.NumChildren())
		for f := range fields {
			if fields[f], err = c.gather(col.Field(f), idx, oob); err != nil {
				releaseColumns(fields[:f])
				mask.Release()
				return nil, err
			}
		}
		out, err := column.New(dt, n, 0, nil, mask, column.UnknownNullCount, fields...)
		if err != nil {
			releaseColumns(fields)
			mask.Release()
		}
		return out, err
	}

	data, err := memory.NewStridedBuffer(c.mem, n, dt.Size())
	if err != nil {
		mask.Release()
		return nil, err
	}
	out, err := column.New(dt, n, 0, data, mask, column.UnknownNullCount)
	if err != nil {
		data.Release()
		mask.Release()
		return nil, err
	}
	switch dt.Size() {
	case 1:
		src, dst := column.Values[uint8](col), column.Values[uint8](out)
		err = c.forEach(n, func(lo, hi int) { gatherFixed(src, dst, idx, lo, hi) })
	case 2:
		src, dst := column.Values[uint16](col), column.Values[uint16](out)
		err = c.forEach(n, func(lo, hi int) { gatherFixed(src, dst, idx, lo, hi) })
	case 4:
		src, dst := column.Values[uint32](col), column.Values[uint32](out)
		err = c.forEach(n, func(lo, hi int) { gatherFixed(src, dst, idx, lo, hi) })
	case 8:
		src, dst := column.Values[uint64](col), column.Values[uint64](out)
		err = c.forEach(n, func(lo, hi int) { gatherFixed(src, dst, idx, lo, hi) })
	case 16:
		src, dst := column.Values[decimal128.Num](col), column.Values[decimal128.Num](out)
		err = c.forEach(n, func(lo, hi int) { gatherFixed(src, dst, idx, lo, hi) })
	default:
		err = fmt.Errorf("%w: gather of %s", cudf.ErrUnsupportedType, dt)
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// gatherOffsets computes the offsets of the gathered rows of a STRING or
// LIST column from the source row sizes. Null rows are empty.
func (c *call) gatherOffsets(size func(row int) int, srcRows int, idx []int32, mask bitmask.Mask) ([]int32, error) {
	offsets := make([]int32, len(idx)+1)
	err := c.forEach(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			j := int(idx[i])
			if j >= 0 && j < srcRows && mask.IsValid(i) {
				offsets[i+1] = int32(size(j))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	total := int64(0)
	for i := 1; i < len(offsets); i++ {
		total += int64(offsets[i])
		if total > math.MaxInt32 {
			return nil, fmt.Errorf("%w: gathered column exceeds %d elements", cudf.ErrOverflow, math.MaxInt32)
		}
		offsets[i] = int32(total)
	}
	return offsets, nil
}

func (c *call) gatherStrings(col *column.Column, idx []int32, mask bitmask.Mask) (*column.Column, error) {
	sv := column.Strings(col)
	offsets, err := c.gatherOffsets(sv.Len, col.Len(), idx, mask)
	if err != nil {
		mask.Release()
		return nil, err
	}
	chars, err := memory.NewBuffer(c.mem, int(offsets[len(idx)]))
	if err != nil {
		mask.Release()
		return nil, err
	}
	dst := chars.Bytes()
	err = c.forEach(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if offsets[i+1] > offsets[i] {
				copy(dst[offsets[i]:offsets[i+1]], sv.Bytes(int(idx[i])))
			}
		}
	})
	if err != nil {
		chars.Release()
		mask.Release()
		return nil, err
	}
	return c.assembleVarWidth(col.Type(), offsets, chars, mask)
}

func (c *call) gatherList(col *column.Column, idx []int32, mask bitmask.Mask) (*column.Column, error) {
	lv := column.Lists(col)
	size := func(row int) int {
		s, e := lv.Range(row)
		return e - s
	}
	offsets, err := c.gatherOffsets(size, col.Len(), idx, mask)
	if err != nil {
		mask.Release()
		return nil, err
	}
	elemIdx := make([]int32, offsets[len(idx)])
	err = c.forEach(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if offsets[i+1] > offsets[i] {
				s, _ := lv.Range(int(idx[i]))
				for k := offsets[i]; k < offsets[i+1]; k++ {
					elemIdx[k] = int32(s) + k - offsets[i]
				}
			}
		}
	})
	if err != nil {
		mask.Release()
		return nil, err
	}
	elems, err := c.gather(lv.Elements(), elemIdx, false)
	if err != nil {
		mask.Release()
		return nil, err
	}
	offs, err := column.FromSlice(c.mem, cudf.Int32, offsets, nil)
	if err != nil {
		elems.Release()
		mask.Release()
		return nil, err
	}
	out, err := column.New(col.Type(), len(idx), 0, nil, mask, column.UnknownNullCount, offs, elems)
	if err != nil {
		offs.Release()
		elems.Release()
		mask.Release()
	}
	return out, err
}

// assembleVarWidth builds a STRING column, taking over chars and mask.
func (c *call) assembleVarWidth(dt cudf.DataType, offsets []int32, chars *memory.Buffer, mask bitmask.Mask) (*column.Column, error) {
	offs, err := column.FromSlice(c.mem, cudf.Int32, offsets, nil)
	if err != nil {
		chars.Release()
		mask.Release()
		return nil, err
	}
	out, err := column.New(dt, len(offsets)-1, 0, chars, mask, column.UnknownNullCount, offs)
	if err != nil {
		offs.Release()
		chars.Release()
		mask.Release()
	}
	return out, err
}
