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

// Package column implements the Column, Table and Scalar data model of the
// engine.
//
// A Column is a typed, nullable vector of n rows. Fixed-width columns keep
// their values in one data buffer; STRING columns keep an INT32 offsets
// child of n+1 entries and a character data buffer; LIST columns keep an
// offsets child and an element child; STRUCT columns keep one child per
// field. The validity mask is optional and absent when every row is valid.
//
// Columns are reference counted. The creator owns one reference and must
// call Release when done; views created with Slice share the underlying
// buffers and keep them alive.
package column

import (
	"fmt"
	"sync/atomic"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/internal/debug"
	"github.com/VamsiTallam95/cudf/memory"
)

// UnknownNullCount asks New to count the nulls of the supplied mask.
const UnknownNullCount = -1

type Column struct {
	refCount int64

	dtype    cudf.DataType
	length   int
	offset   int
	data     *memory.Buffer
	mask     bitmask.Mask
	nulls    int
	children []*Column
}

// New assembles a column from its parts, taking over the caller's
// references to data, mask and children. offset is the row offset into a
// fixed-width data buffer. The layout is validated against the type.
func New(dt cudf.DataType, n, offset int, data *memory.Buffer, mask bitmask.Mask, nulls int, children ...*Column) (*Column, error) {
	c := &Column{
		refCount: 1,
		dtype:    dt,
		length:   n,
		offset:   offset,
		data:     data,
		mask:     mask,
		nulls:    nulls,
		children: children,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.nulls < 0 {
		c.nulls = c.mask.CountNulls(n)
	}
	return c, nil
}

func (c *Column) validate() error {
	if c.length < 0 || c.offset < 0 {
		return fmt.Errorf("%w: negative length or offset", cudf.ErrInvalidArgument)
	}
	if c.mask.Present() && (c.mask.Offset()+c.length+7)/8 > c.mask.Buffer().Len() {
		return fmt.Errorf("%w: null mask of %d bytes cannot cover %d rows",
			cudf.ErrShapeMismatch, c.mask.Buffer().Len(), c.length)
	}
	switch id := c.dtype.ID(); {
	case c.dtype.IsFixedWidth():
		need := (c.offset + c.length) * c.dtype.Size()
		if c.length > 0 && (c.data == nil || c.data.Len() < need) {
			return fmt.Errorf("%w: %s data buffer too small for %d rows", cudf.ErrShapeMismatch, c.dtype, c.length)
		}
		if len(c.children) != 0 {
			return fmt.Errorf("%w: fixed width column with children", cudf.ErrInvalidArgument)
		}
	case id == cudf.STRING, id == cudf.LIST:
		want := 1
		if id == cudf.LIST {
			want = 2
		}
		if len(c.children) != want {
			return fmt.Errorf("%w: %s column needs %d children", cudf.ErrInvalidArgument, id, want)
		}
		offs := c.children[0]
		if offs.dtype.ID() != cudf.INT32 || offs.length != c.length+1 || offs.NullCount() != 0 {
			return fmt.Errorf("%w: %s offsets must be %d non-null int32 values", cudf.ErrShapeMismatch, id, c.length+1)
		}
		if id == cudf.LIST && !c.children[1].dtype.Equal(c.dtype.Elem()) {
			return fmt.Errorf("%w: list elements are %s, type declares %s",
				cudf.ErrTypeMismatch, c.children[1].dtype, c.dtype.Elem())
		}
	case id == cudf.STRUCT:
		if len(c.children) != c.dtype.NumChildren() {
			return fmt.Errorf("%w: struct has %d fields, got %d children",
				cudf.ErrShapeMismatch, c.dtype.NumChildren(), len(c.children))
		}
		for i, ch := range c.children {
			if ch.length != c.length {
				return fmt.Errorf("%w: struct field %d has %d rows, want %d", cudf.ErrShapeMismatch, i, ch.length, c.length)
			}
			if !ch.dtype.Equal(c.dtype.Child(i)) {
				return fmt.Errorf("%w: struct field %d is %s, type declares %s", cudf.ErrTypeMismatch, i, ch.dtype, c.dtype.Child(i))
			}
		}
	default:
		return fmt.Errorf("%w: %s", cudf.ErrUnsupportedType, c.dtype)
	}
	return nil
}

func (c *Column) Retain() { atomic.AddInt64(&c.refCount, 1) }

func (c *Column) Release() {
	debug.Assert(atomic.LoadInt64(&c.refCount) > 0, "column: too many releases")
	if atomic.AddInt64(&c.refCount, -1) == 0 {
		if c.data != nil {
			c.data.Release()
			c.data = nil
		}
		c.mask.Release()
		c.mask = bitmask.Mask{}
		for _, ch := range c.children {
			ch.Release()
		}
		c.children = nil
		debug.Log("msg", "column freed", "type", c.dtype, "rows", c.length)
	}
}

func (c *Column) Type() cudf.DataType { return c.dtype }
func (c *Column) Len() int            { return c.length }

// Offset is the row offset into the data buffer of a fixed-width column.
func (c *Column) Offset() int           { return c.offset }
func (c *Column) Data() *memory.Buffer  { return c.data }
func (c *Column) Mask() bitmask.Mask    { return c.mask }
func (c *Column) NumChildren() int      { return len(c.children) }
func (c *Column) Child(i int) *Column   { return c.children[i] }
func (c *Column) NullCount() int        { return c.nulls }
func (c *Column) HasNulls() bool        { return c.nulls > 0 }
func (c *Column) IsValid(i int) bool    { return c.mask.IsValid(i) }
func (c *Column) IsNull(i int) bool     { return !c.mask.IsValid(i) }
func (c *Column) NullMaskPresent() bool { return c.mask.Present() }
func (c *Column) ElementSize() int      { return c.dtype.Size() }
func (c *Column) String() string        { return Format(c) }
func (c *Column) released() bool        { return atomic.LoadInt64(&c.refCount) <= 0 }
func (c *Column) Offsets() *Column      { return c.children[0] }
func (c *Column) Elements() *Column     { return c.children[1] }
func (c *Column) Field(i int) *Column   { return c.children[i] }
func (c *Column) Fields() []*Column     { return c.children }

func (c *Column) assertLive(what string) {
	debug.Assert(!c.released(), "column: "+what+" on released column")
}

// DataBytes returns the raw data buffer contents, nil when the column has no
// data buffer.
func (c *Column) DataBytes() []byte {
	if c.data == nil {
		return nil
	}
	return c.data.Bytes()
}

// ResetNullCount recounts the nulls after the mask of a column under
// construction was modified. A mask with no nulls left is dropped.
func (c *Column) ResetNullCount() {
	c.nulls = c.mask.CountNulls(c.length)
	if c.nulls == 0 && c.mask.Present() {
		c.mask.Release()
		c.mask = bitmask.Mask{}
	}
}

// Slice returns a view of rows [offset, offset+length). The view shares the
// column's buffers and must be released independently.
func (c *Column) Slice(offset, length int) (*Column, error) {
	c.assertLive("Slice")
	if offset < 0 || length < 0 || offset+length > c.length {
		return nil, fmt.Errorf("%w: slice [%d, %d) of column with %d rows",
			cudf.ErrIndexOutOfBounds, offset, offset+length, c.length)
	}
	out := &Column{
		refCount: 1,
		dtype:    c.dtype,
		length:   length,
		mask:     c.mask.Slice(offset),
	}
	switch c.dtype.ID() {
	case cudf.STRING:
		offs, _ := c.children[0].Slice(offset, length+1)
		if c.data != nil {
			c.data.Retain()
		}
		out.data = c.data
		out.children = []*Column{offs}
	case cudf.LIST:
		offs, _ := c.children[0].Slice(offset, length+1)
		c.children[1].Retain()
		out.children = []*Column{offs, c.children[1]}
	case cudf.STRUCT:
		out.children = make([]*Column, len(c.children))
		for i, ch := range c.children {
			out.children[i], _ = ch.Slice(offset, length)
		}
	default:
		if c.data != nil {
			c.data.Retain()
		}
		out.data = c.data
		out.offset = c.offset + offset
	}
	out.nulls = out.mask.CountNulls(length)
	return out, nil
}
