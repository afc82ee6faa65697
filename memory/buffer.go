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

package memory

import (
	"fmt"
	"sync/atomic"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/internal/debug"
)

// Buffer is a contiguous extent of device memory with shared ownership.
// The creator holds one reference; every view or column that keeps the
// memory alive takes another with Retain and gives it back with Release.
// The memory is returned to its allocator when the last reference goes.
type Buffer struct {
	refCount int64
	buf      []byte
	stride   int

	mem    Allocator
	parent *Buffer
	owner  Releaser

	// counted is set for buffers whose references are tracked. It stays
	// set after the last release.
	counted bool
}

// NewBuffer allocates size zeroed bytes from mem.
func NewBuffer(mem Allocator, size int) (*Buffer, error) {
	return NewStridedBuffer(mem, size, 1)
}

// NewStridedBuffer allocates room for n elements of stride bytes each.
func NewStridedBuffer(mem Allocator, n, stride int) (*Buffer, error) {
	if n < 0 || stride <= 0 {
		return nil, fmt.Errorf("%w: buffer of %d elements with stride %d", cudf.ErrInvalidArgument, n, stride)
	}
	if mem == nil {
		mem = DefaultAllocator
	}
	b, err := mem.Allocate(n * stride)
	if err != nil {
		return nil, err
	}
	clear(b)
	return &Buffer{refCount: 1, buf: b, stride: stride, mem: mem, counted: true}, nil
}

// NewEmptyBuffer allocates size zeroed bytes from the default allocator.
func NewEmptyBuffer(size int) (*Buffer, error) {
	return NewBuffer(DefaultAllocator, size)
}

// NewBufferBytes wraps memory that the Buffer does not own. Releasing the
// buffer never frees b.
func NewBufferBytes(b []byte) *Buffer {
	return &Buffer{refCount: 1, buf: b, stride: 1}
}

// NewForeignBuffer wraps memory owned by another library. owner is released
// when the last reference to the buffer goes.
func NewForeignBuffer(b []byte, owner Releaser) *Buffer {
	return &Buffer{refCount: 1, buf: b, stride: 1, owner: owner, counted: true}
}

// SliceBuffer returns a view of length bytes of buf starting at offset. The
// view keeps buf alive until the view itself is released.
func SliceBuffer(buf *Buffer, offset, length int) *Buffer {
	debug.Assert(offset >= 0 && length >= 0 && offset+length <= buf.Len(), "memory: slice out of range")
	buf.Retain()
	return &Buffer{refCount: 1, buf: buf.Bytes()[offset : offset+length], stride: buf.stride, parent: buf, counted: true}
}

func (b *Buffer) Retain() {
	if b.counted {
		n := atomic.AddInt64(&b.refCount, 1)
		debug.Assert(n > 1, "memory: retain of released buffer")
	}
}

func (b *Buffer) Release() {
	if !b.counted {
		return
	}
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "memory: too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.mem != nil {
			b.mem.Free(b.buf)
		}
		if b.parent != nil {
			b.parent.Release()
			b.parent = nil
		}
		if b.owner != nil {
			b.owner.Release()
			b.owner = nil
		}
		b.buf, b.mem = nil, nil
	}
}

// Released reports whether the last reference to an owned buffer has been
// given back.
func (b *Buffer) Released() bool {
	return b.counted && atomic.LoadInt64(&b.refCount) <= 0
}

func (b *Buffer) Bytes() []byte { return b.buf }
func (b *Buffer) Len() int      { return len(b.buf) }

// Stride is the size in bytes of one element stored in the buffer.
func (b *Buffer) Stride() int { return b.stride }

// Addr is the device address of the first byte, 0 for an empty buffer.
func (b *Buffer) Addr() uintptr { return addressOf(b.buf) }

// Allocator returns the allocator owning the memory, nil for wrapped bytes
// and views.
func (b *Buffer) Allocator() Allocator { return b.mem }

// Copy returns a new buffer from mem holding a copy of the contents.
func (b *Buffer) Copy(mem Allocator) (*Buffer, error) {
	out, err := NewBuffer(mem, b.Len())
	if err != nil {
		return nil, err
	}
	out.stride = b.stride
	copy(out.buf, b.buf)
	return out, nil
}

// Resize grows or shrinks an owned buffer in place. Bytes beyond the old
// length are zeroed.
func (b *Buffer) Resize(size int) error {
	if b.mem == nil {
		return fmt.Errorf("%w: cannot resize a buffer that does not own its memory", cudf.ErrInvalidArgument)
	}
	old := len(b.buf)
	out, err := b.mem.Reallocate(size, b.buf)
	if err != nil {
		return err
	}
	if size > old {
		clear(out[old:])
	}
	b.buf = out
	return nil
}
