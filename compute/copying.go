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
)

// Concatenate appends columns of the same type into one new column.
func Concatenate(ctx context.Context, cols ...*column.Column) (out *column.Column, err error) {
	rows := 0
	for _, col := range cols {
		rows += col.Len()
	}
	c, err := begin(ctx, "concatenate", rows)
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "inputs", len(cols)) }()

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", cudf.ErrInvalidArgument)
	}
	return c.concat(cols)
}

// ConcatenateTables appends tables with the same column types.
func ConcatenateTables(ctx context.Context, tables ...*column.Table) (out *column.Table, err error) {
	rows := 0
	for _, t := range tables {
		rows += t.NumRows()
	}
	c, err := begin(ctx, "concatenate_tables", rows)
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "inputs", len(tables)) }()

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", cudf.ErrInvalidArgument)
	}
	ncols := tables[0].NumColumns()
	for _, t := range tables[1:] {
		if t.NumColumns() != ncols {
			return nil, fmt.Errorf("%w: tables with %d and %d columns", cudf.ErrShapeMismatch, ncols, t.NumColumns())
		}
	}
	cols := make([]*column.Column, ncols)
	parts := make([]*column.Column, len(tables))
	for i := range cols {
		for k, t := range tables {
			parts[k] = t.Column(i)
		}
		if cols[i], err = c.concat(parts); err != nil {
			releaseColumns(cols[:i])
			return nil, err
		}
	}
	return column.TableOf(cols...)
}

// Copy returns a deep copy of col in fresh memory.
func Copy(ctx context.Context, col *column.Column) (*column.Column, error) {
	return Concatenate(ctx, col)
}

func (c *call) concat(cols []*column.Column) (*column.Column, error) {
	dt := cols[0].Type()
	n := 0
	nulls := 0
	for _, col := range cols {
		if !col.Type().Equal(dt) {
			return nil, fmt.Errorf("%w: cannot concatenate %s with %s", cudf.ErrTypeMismatch, dt, col.Type())
		}
		n += col.Len()
		nulls += col.NullCount()
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: concatenation of %d rows", cudf.ErrOverflow, n)
	}

	var mask bitmask.Mask
	if nulls > 0 {
		m, err := bitmask.New(c.mem, n)
		if err != nil {
			return nil, err
		}
		at := 0
		for _, col := range cols {
			col.Mask().CopyInto(col.Len(), m, at)
			at += col.Len()
		}
		mask = m
	}

	switch dt.ID() {
	case cudf.STRING:
		return c.concatStrings(cols, n, mask)
	case cudf.LIST:
		return c.concatLists(cols, n, mask)
	case cudf.STRUCT:
		fields := make([]*column.Column, dt.NumChildren())
		parts := make([]*column.Column, len(cols))
		for f := range fields {
			for k, col := range cols {
				parts[k] = col.Field(f)
			}
			var err error
			if fields[f], err = c.concat(parts); err != nil {
				releaseColumns(fields[:f])
				mask.Release()
				return nil, err
			}
		}
		out, err := column.New(dt, n, 0, nil, mask, nulls, fields...)
		if err != nil {
			releaseColumns(fields)
			mask.Release()
		}
		return out, err
	}

	size := dt.Size()
	data, err := memory.NewStridedBuffer(c.mem, n, size)
	if err != nil {
		mask.Release()
		return nil, err
	}
	dst := data.Bytes()
	at := 0
	for _, col := range cols {
		if col.Len() > 0 {
			src := col.DataBytes()[col.Offset()*size : (col.Offset()+col.Len())*size]
			copy(dst[at:], src)
			at += len(src)
		}
	}
	out, err := column.New(dt, n, 0, data, mask, nulls)
	if err != nil {
		data.Release()
		mask.Release()
	}
	return out, err
}

func (c *call) concatStrings(cols []*column.Column, n int, mask bitmask.Mask) (*column.Column, error) {
	offsets := make([]int32, 0, n+1)
	offsets = append(offsets, 0)
	total := int64(0)
	for _, col := range cols {
		src := column.Values[int32](col.Offsets())
		for i := 1; i < len(src); i++ {
			offsets = append(offsets, int32(total+int64(src[i]-src[0])))
		}
		total += int64(src[len(src)-1] - src[0])
		if total > math.MaxInt32 {
			mask.Release()
			return nil, fmt.Errorf("%w: concatenated strings exceed %d bytes", cudf.ErrOverflow, math.MaxInt32)
		}
	}
	chars, err := memory.NewBuffer(c.mem, int(total))
	if err != nil {
		mask.Release()
		return nil, err
	}
	dst := chars.Bytes()
	at := 0
	for _, col := range cols {
		src := column.Values[int32](col.Offsets())
		at += copy(dst[at:], col.DataBytes()[src[0]:src[len(src)-1]])
	}
	return c.assembleVarWidth(cudf.String, offsets, chars, mask)
}

func (c *call) concatLists(cols []*column.Column, n int, mask bitmask.Mask) (*column.Column, error) {
	offsets := make([]int32, 0, n+1)
	offsets = append(offsets, 0)
	elems := make([]*column.Column, len(cols))
	defer releaseColumns(elems)
	total := int32(0)
	for k, col := range cols {
		src := column.Values[int32](col.Offsets())
		for i := 1; i < len(src); i++ {
			offsets = append(offsets, total+src[i]-src[0])
		}
		total += src[len(src)-1] - src[0]
		view, err := col.Elements().Slice(int(src[0]), int(src[len(src)-1]-src[0]))
		if err != nil {
			mask.Release()
			return nil, err
		}
		elems[k] = view
	}
	merged, err := c.concat(elems)
	if err != nil {
		mask.Release()
		return nil, err
	}
	offs, err := column.FromSlice(c.mem, cudf.Int32, offsets, nil)
	if err != nil {
		merged.Release()
		mask.Release()
		return nil, err
	}
	out, err := column.New(cols[0].Type(), n, 0, nil, mask, column.UnknownNullCount, offs, merged)
	if err != nil {
		offs.Release()
		merged.Release()
		mask.Release()
	}
	return out, err
}

// Scatter returns a copy of target in which row scatterMap[i] is replaced
// by row i of source. When the map repeats a target row the last write
// wins.
func Scatter(ctx context.Context, source *column.Table, scatterMap *column.Column, target *column.Table) (out *column.Table, err error) {
	c, err := begin(ctx, "scatter", source.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "target_rows", target.NumRows()) }()

	idx, err := indexValues("scatter map", scatterMap)
	if err != nil {
		return nil, err
	}
	if len(idx) != source.NumRows() {
		return nil, fmt.Errorf("%w: scatter map has %d rows, source %d", cudf.ErrShapeMismatch, len(idx), source.NumRows())
	}
	if source.NumColumns() != target.NumColumns() {
		return nil, fmt.Errorf("%w: source has %d columns, target %d", cudf.ErrShapeMismatch, source.NumColumns(), target.NumColumns())
	}
	if _, err := c.checkMap(idx, target.NumRows(), false); err != nil {
		return nil, err
	}

	// Rows of the concatenation target ++ source to pick for each output row.
	tn := target.NumRows()
	pick := make([]int32, tn)
	for r := range pick {
		pick[r] = int32(r)
	}
	for i, r := range idx {
		pick[r] = int32(tn + i)
	}

	cols := make([]*column.Column, target.NumColumns())
	for i := range cols {
		both, err := c.concat([]*column.Column{target.Column(i), source.Column(i)})
		if err != nil {
			releaseColumns(cols[:i])
			return nil, err
		}
		cols[i], err = c.gather(both, pick, false)
		both.Release()
		if err != nil {
			releaseColumns(cols[:i])
			return nil, err
		}
	}
	return column.TableOf(cols...)
}

// InversePermutation returns the permutation q with q[p[i]] = i.
func InversePermutation(ctx context.Context, perm *column.Column) (out *column.Column, err error) {
	c, err := begin(ctx, "inverse_permutation", perm.Len())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()

	p, err := indexValues("permutation", perm)
	if err != nil {
		return nil, err
	}
	inv := make([]int32, len(p))
	seen := make([]bool, len(p))
	for i, v := range p {
		if v < 0 || int(v) >= len(p) || seen[v] {
			return nil, fmt.Errorf("%w: not a permutation at row %d", cudf.ErrInvalidArgument, i)
		}
		seen[v] = true
		inv[v] = int32(i)
	}
	return column.FromSlice(c.mem, cudf.Int32, inv, nil)
}

// Split cuts t into views at the given row boundaries. splits must be
// ascending; n splits yield n+1 tables.
func Split(t *column.Table, splits []int) ([]*column.Table, error) {
	out := make([]*column.Table, 0, len(splits)+1)
	prev := 0
	for _, s := range append(append([]int(nil), splits...), t.NumRows()) {
		if s < prev {
			for _, v := range out {
				v.Release()
			}
			return nil, fmt.Errorf("%w: split points must be ascending", cudf.ErrInvalidArgument)
		}
		v, err := t.Slice(prev, s-prev)
		if err != nil {
			for _, v := range out {
				v.Release()
			}
			return nil, err
		}
		out = append(out, v)
		prev = s
	}
	return out, nil
}

// identity returns the indices 0..n-1.
func identity(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}
