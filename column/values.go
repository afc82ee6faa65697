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

package column

import (
	"fmt"
	"unsafe"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/internal/debug"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
)

// Fixed is the set of Go types that can back a fixed-width column. Decimal
// and time types use the signed integer of their width, DECIMAL128 uses
// decimal128.Num and BOOL8 uses uint8.
type Fixed interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | decimal128.Num
}

// Values returns the rows of a fixed-width column as a typed slice sharing
// the column's memory. Entries at null rows are unspecified.
func Values[T Fixed](c *Column) []T {
	var zero T
	debug.Assert(int(unsafe.Sizeof(zero)) == c.dtype.Size(), "column: element type does not match column width")
	if c.length == 0 || c.data == nil {
		return nil
	}
	b := c.data.Bytes()[c.offset*c.dtype.Size():]
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), c.length)
}

func bytesOf[T Fixed](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*int(unsafe.Sizeof(zero)))
}

// NewFixedWidth allocates a zeroed fixed-width column of n rows. When
// withMask is true the column gets an all-valid mask that the caller may
// clear bits in before calling ResetNullCount.
func NewFixedWidth(mem memory.Allocator, dt cudf.DataType, n int, withMask bool) (*Column, error) {
	if !dt.IsFixedWidth() {
		return nil, fmt.Errorf("%w: %s is not fixed width", cudf.ErrUnsupportedType, dt)
	}
	data, err := memory.NewStridedBuffer(mem, n, dt.Size())
	if err != nil {
		return nil, err
	}
	var mask bitmask.Mask
	if withMask {
		if mask, err = bitmask.New(mem, n); err != nil {
			data.Release()
			return nil, err
		}
	}
	return &Column{refCount: 1, dtype: dt, length: n, data: data, mask: mask}, nil
}

// FromSlice copies vals into a new column of type dt. valid may be nil for a
// column without nulls; otherwise it must have one entry per value.
func FromSlice[T Fixed](mem memory.Allocator, dt cudf.DataType, vals []T, valid []bool) (*Column, error) {
	var zero T
	if int(unsafe.Sizeof(zero)) != dt.Size() {
		return nil, fmt.Errorf("%w: %T values cannot back a %s column", cudf.ErrTypeMismatch, zero, dt)
	}
	if valid != nil && len(valid) != len(vals) {
		return nil, fmt.Errorf("%w: %d values with %d validity flags", cudf.ErrShapeMismatch, len(vals), len(valid))
	}
	c, err := NewFixedWidth(mem, dt, len(vals), false)
	if err != nil {
		return nil, err
	}
	copy(c.data.Bytes(), bytesOf(vals))
	if valid != nil {
		mask, nulls, err := bitmask.FromBools(mem, valid)
		if err != nil {
			c.Release()
			return nil, err
		}
		c.mask, c.nulls = mask, nulls
	}
	return c, nil
}

// FromBools builds a BOOL8 column.
func FromBools(mem memory.Allocator, vals []bool, valid []bool) (*Column, error) {
	raw := make([]uint8, len(vals))
	for i, v := range vals {
		if v {
			raw[i] = 1
		}
	}
	return FromSlice(mem, cudf.Bool8, raw, valid)
}

// NewAllNull returns a column of n null rows.
func NewAllNull(mem memory.Allocator, dt cudf.DataType, n int) (*Column, error) {
	switch dt.ID() {
	case cudf.STRING:
		c, err := FromStrings(mem, make([]string, n), make([]bool, n))
		return c, err
	case cudf.LIST:
		elems, err := NewAllNull(mem, dt.Elem(), 0)
		if err != nil {
			return nil, err
		}
		return NewList(mem, make([]int32, n+1), elems, make([]bool, n))
	case cudf.STRUCT:
		fields := make([]*Column, dt.NumChildren())
		for i := range fields {
			f, err := NewAllNull(mem, dt.Child(i), n)
			if err != nil {
				releaseAll(fields[:i])
				return nil, err
			}
			fields[i] = f
		}
		return NewStruct(mem, dt, fields, make([]bool, n))
	}
	c, err := NewFixedWidth(mem, dt, n, false)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		if c.mask, err = bitmask.NewAllNull(mem, n); err != nil {
			c.Release()
			return nil, err
		}
	}
	c.nulls = n
	return c, nil
}

// NewEmpty returns a column of type dt with zero rows.
func NewEmpty(mem memory.Allocator, dt cudf.DataType) (*Column, error) {
	return NewAllNull(mem, dt, 0)
}

// FromStrings builds a STRING column. Values at invalid rows are ignored.
func FromStrings(mem memory.Allocator, vals []string, valid []bool) (*Column, error) {
	if valid != nil && len(valid) != len(vals) {
		return nil, fmt.Errorf("%w: %d values with %d validity flags", cudf.ErrShapeMismatch, len(vals), len(valid))
	}
	offsets := make([]int32, len(vals)+1)
	total := 0
	for i, v := range vals {
		if valid == nil || valid[i] {
			total += len(v)
		}
		offsets[i+1] = int32(total)
	}
	chars, err := memory.NewBuffer(mem, total)
	if err != nil {
		return nil, err
	}
	b := chars.Bytes()
	for i, v := range vals {
		copy(b[offsets[i]:offsets[i+1]], v)
	}
	return NewStrings(mem, offsets, chars, valid)
}

// NewStrings assembles a STRING column from offsets and a character buffer,
// taking over the reference to chars.
func NewStrings(mem memory.Allocator, offsets []int32, chars *memory.Buffer, valid []bool) (*Column, error) {
	offs, err := FromSlice(mem, cudf.Int32, offsets, nil)
	if err != nil {
		chars.Release()
		return nil, err
	}
	mask, nulls, err := bitmask.FromBools(mem, valid)
	if err != nil {
		chars.Release()
		offs.Release()
		return nil, err
	}
	c, err := New(cudf.String, len(offsets)-1, 0, chars, mask, nulls, offs)
	if err != nil {
		chars.Release()
		mask.Release()
		offs.Release()
		return nil, err
	}
	return c, nil
}

// NewList builds a LIST column over elems, taking over the reference to
// elems. Row i holds elements [offsets[i], offsets[i+1]).
func NewList(mem memory.Allocator, offsets []int32, elems *Column, valid []bool) (*Column, error) {
	offs, err := FromSlice(mem, cudf.Int32, offsets, nil)
	if err != nil {
		elems.Release()
		return nil, err
	}
	mask, nulls, err := bitmask.FromBools(mem, valid)
	if err != nil {
		elems.Release()
		offs.Release()
		return nil, err
	}
	c, err := New(cudf.ListOf(elems.Type()), len(offsets)-1, 0, nil, mask, nulls, offs, elems)
	if err != nil {
		elems.Release()
		mask.Release()
		offs.Release()
		return nil, err
	}
	return c, nil
}

// NewStruct builds a STRUCT column from its fields, taking over the
// references to fields.
func NewStruct(mem memory.Allocator, dt cudf.DataType, fields []*Column, valid []bool) (*Column, error) {
	n := 0
	if len(fields) > 0 {
		n = fields[0].Len()
	} else if valid != nil {
		n = len(valid)
	}
	mask, nulls, err := bitmask.FromBools(mem, valid)
	if err != nil {
		releaseAll(fields)
		return nil, err
	}
	c, err := New(dt, n, 0, nil, mask, nulls, fields...)
	if err != nil {
		releaseAll(fields)
		mask.Release()
		return nil, err
	}
	return c, nil
}

func releaseAll(cols []*Column) {
	for _, c := range cols {
		if c != nil {
			c.Release()
		}
	}
}

// StringView gives indexed access to the rows of a STRING column.
type StringView struct {
	offsets []int32
	chars   []byte
}

func Strings(c *Column) StringView {
	debug.Assert(c.dtype.ID() == cudf.STRING, "column: Strings on non-string column")
	return StringView{offsets: Values[int32](c.children[0]), chars: c.DataBytes()}
}

func (s StringView) Bytes(i int) []byte { return s.chars[s.offsets[i]:s.offsets[i+1]] }
func (s StringView) Value(i int) string { return string(s.Bytes(i)) }
func (s StringView) Len(i int) int      { return int(s.offsets[i+1] - s.offsets[i]) }

// ListView gives access to the element ranges of a LIST column.
type ListView struct {
	offsets []int32
	elems   *Column
}

func Lists(c *Column) ListView {
	debug.Assert(c.dtype.ID() == cudf.LIST, "column: Lists on non-list column")
	return ListView{offsets: Values[int32](c.children[0]), elems: c.children[1]}
}

// Range returns the element rows [start, end) of list row i.
func (l ListView) Range(i int) (start, end int) { return int(l.offsets[i]), int(l.offsets[i+1]) }
func (l ListView) Elements() *Column            { return l.elems }
