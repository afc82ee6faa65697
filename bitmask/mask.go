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

// Package bitmask implements the optional per-row validity bitmap of a
// column. Bit i of a present mask is 1 when row i is valid; an absent mask
// means every row is valid.
package bitmask

import (
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow/bitutil"
)

// Mask is an optional validity bitmap. The zero value is the absent mask.
type Mask struct {
	buf    *memory.Buffer
	offset int
}

// BytesFor is the minimum number of bytes of a bitmap covering n rows.
func BytesFor(n int) int { return int(bitutil.BytesForBits(int64(n))) }

// allocSize pads bitmaps to 64 bytes so that whole-word readers never run
// off the end of the allocation.
func allocSize(n int) int {
	return (BytesFor(n) + 63) &^ 63
}

// New allocates a mask of n rows, all set to valid.
func New(mem memory.Allocator, n int) (Mask, error) {
	buf, err := memory.NewBuffer(mem, allocSize(n))
	if err != nil {
		return Mask{}, err
	}
	bitutil.SetBitsTo(buf.Bytes(), 0, int64(n), true)
	return Mask{buf: buf}, nil
}

// NewAllNull allocates a mask of n rows, all set to null.
func NewAllNull(mem memory.Allocator, n int) (Mask, error) {
	buf, err := memory.NewBuffer(mem, allocSize(n))
	if err != nil {
		return Mask{}, err
	}
	return Mask{buf: buf}, nil
}

// FromBuffer wraps an existing bitmap starting at bit offset. The mask takes
// over the caller's reference to buf.
func FromBuffer(buf *memory.Buffer, offset int) Mask {
	if buf == nil {
		return Mask{}
	}
	return Mask{buf: buf, offset: offset}
}

// FromBools builds a mask from per-row validity flags. It returns the
// absent mask when every flag is true.
func FromBools(mem memory.Allocator, valid []bool) (Mask, int, error) {
	nulls := 0
	for _, v := range valid {
		if !v {
			nulls++
		}
	}
	if nulls == 0 {
		return Mask{}, 0, nil
	}
	m, err := NewAllNull(mem, len(valid))
	if err != nil {
		return Mask{}, 0, err
	}
	bits := m.buf.Bytes()
	for i, v := range valid {
		if v {
			bitutil.SetBit(bits, i)
		}
	}
	return m, nulls, nil
}

func (m Mask) Present() bool          { return m.buf != nil }
func (m Mask) Buffer() *memory.Buffer { return m.buf }
func (m Mask) Offset() int            { return m.offset }

// Bytes returns the bitmap storage, nil for the absent mask. Bit offset
// Offset() of the returned slice corresponds to row 0.
func (m Mask) Bytes() []byte {
	if m.buf == nil {
		return nil
	}
	return m.buf.Bytes()
}

func (m Mask) IsValid(i int) bool {
	if m.buf == nil {
		return true
	}
	return bitutil.BitIsSet(m.buf.Bytes(), m.offset+i)
}

func (m Mask) IsNull(i int) bool { return !m.IsValid(i) }

// SetValid marks row i. It must only be called on a mask that is still
// being built and is not shared.
func (m Mask) SetValid(i int, valid bool) {
	bitutil.SetBitTo(m.buf.Bytes(), m.offset+i, valid)
}

// SetRange marks rows [start, start+length).
func (m Mask) SetRange(start, length int, valid bool) {
	bitutil.SetBitsTo(m.buf.Bytes(), int64(m.offset+start), int64(length), valid)
}

// CountNulls counts the null rows among the first n rows.
func (m Mask) CountNulls(n int) int {
	if m.buf == nil || n == 0 {
		return 0
	}
	return n - bitutil.CountSetBits(m.buf.Bytes(), m.offset, n)
}

// Slice returns a mask whose row 0 is row offset of m. The result shares
// storage and takes a new reference.
func (m Mask) Slice(offset int) Mask {
	if m.buf == nil {
		return Mask{}
	}
	m.buf.Retain()
	return Mask{buf: m.buf, offset: m.offset + offset}
}

func (m Mask) Retain() {
	if m.buf != nil {
		m.buf.Retain()
	}
}

func (m Mask) Release() {
	if m.buf != nil {
		m.buf.Release()
	}
}

// Copy returns a fresh zero-offset mask holding rows [0, n) of m.
func (m Mask) Copy(mem memory.Allocator, n int) (Mask, error) {
	if m.buf == nil {
		return Mask{}, nil
	}
	out, err := NewAllNull(mem, n)
	if err != nil {
		return Mask{}, err
	}
	bitutil.CopyBitmap(m.buf.Bytes(), m.offset, n, out.buf.Bytes(), 0)
	return out, nil
}

// CopyInto writes rows [0, n) of m to dst starting at row dstOffset.
func (m Mask) CopyInto(n int, dst Mask, dstOffset int) {
	if m.buf == nil {
		dst.SetRange(dstOffset, n, true)
		return
	}
	bitutil.CopyBitmap(m.buf.Bytes(), m.offset, n, dst.buf.Bytes(), dst.offset+dstOffset)
}

// And returns the intersection of the given masks over n rows: a row is
// valid only if it is valid in every mask. Absent masks are skipped; when all
// are absent the result is absent too. The second result is the null count.
func And(mem memory.Allocator, n int, masks ...Mask) (Mask, int, error) {
	var present []Mask
	for _, m := range masks {
		if m.Present() {
			present = append(present, m)
		}
	}
	if len(present) == 0 {
		return Mask{}, 0, nil
	}
	out, err := present[0].Copy(mem, n)
	if err != nil {
		return Mask{}, 0, err
	}
	dst := out.buf.Bytes()
	for _, m := range present[1:] {
		bitutil.BitmapAnd(dst, m.buf.Bytes(), 0, int64(m.offset), dst, 0, int64(n))
	}
	nulls := out.CountNulls(n)
	if nulls == 0 {
		out.Release()
		return Mask{}, 0, nil
	}
	return out, nulls, nil
}

// AndWith clears in m every row among the first n that is null in other.
// m must be a mask under construction.
func (m Mask) AndWith(other Mask, n int) {
	if other.buf == nil || n == 0 {
		return
	}
	dst := m.buf.Bytes()
	bitutil.BitmapAnd(dst, other.buf.Bytes(), int64(m.offset), int64(other.offset), dst, int64(m.offset), int64(n))
}
