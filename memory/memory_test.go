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

package memory_test

import (
	"errors"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferLifetime(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf, err := memory.NewStridedBuffer(mem, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 40, buf.Len())
	assert.Equal(t, 4, buf.Stride())
	assert.Equal(t, make([]byte, 40), buf.Bytes())
	assert.Zero(t, buf.Addr()%64)
	assert.Same(t, mem, buf.Allocator().(*memory.CheckedAllocator))

	buf.Retain()
	buf.Release()
	assert.False(t, buf.Released())
	assert.Equal(t, 40, mem.CurrentAlloc())

	buf.Release()
	assert.True(t, buf.Released())
	assert.Nil(t, buf.Bytes())
}

func TestBufferInvalidShape(t *testing.T) {
	_, err := memory.NewStridedBuffer(memory.DefaultAllocator, -1, 4)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
	_, err = memory.NewStridedBuffer(memory.DefaultAllocator, 1, 0)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestSliceBufferKeepsParentAlive(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf, err := memory.NewBuffer(mem, 16)
	require.NoError(t, err)
	copy(buf.Bytes(), "0123456789abcdef")

	view := memory.SliceBuffer(buf, 4, 8)
	buf.Release()
	assert.Equal(t, 16, mem.CurrentAlloc())
	assert.Equal(t, "456789ab", string(view.Bytes()))
	assert.Nil(t, view.Allocator())

	view.Release()
	assert.True(t, view.Released())
}

type countingOwner struct{ released int }

func (o *countingOwner) Release() { o.released++ }

func TestForeignBuffer(t *testing.T) {
	owner := &countingOwner{}
	buf := memory.NewForeignBuffer([]byte("abc"), owner)
	buf.Retain()
	buf.Release()
	assert.Zero(t, owner.released)
	buf.Release()
	assert.Equal(t, 1, owner.released)

	plain := memory.NewBufferBytes([]byte("xyz"))
	plain.Release()
	assert.Equal(t, "xyz", string(plain.Bytes()))
	assert.False(t, plain.Released())
}

func TestBufferCopyAndResize(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf, err := memory.NewBuffer(mem, 4)
	require.NoError(t, err)
	defer buf.Release()
	copy(buf.Bytes(), []byte{1, 2, 3, 4})

	cp, err := buf.Copy(mem)
	require.NoError(t, err)
	defer cp.Release()
	cp.Bytes()[0] = 9
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())

	require.NoError(t, buf.Resize(8))
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, buf.Bytes())
	require.NoError(t, buf.Resize(2))
	assert.Equal(t, []byte{1, 2}, buf.Bytes())

	err = memory.NewBufferBytes([]byte{1}).Resize(4)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestSerializeRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	src, err := memory.NewBuffer(mem, 1000)
	require.NoError(t, err)
	defer src.Release()
	for i := range src.Bytes() {
		src.Bytes()[i] = byte(i % 7)
	}

	for _, codec := range []memory.Codec{memory.CodecNone, memory.CodecSnappy, memory.CodecLZ4, memory.CodecZstd, memory.CodecBrotli} {
		t.Run(string(codec)+"codec", func(t *testing.T) {
			hdr, frames, err := src.Serialize(codec)
			require.NoError(t, err)
			require.Len(t, frames, 1)

			out, err := memory.DeserializeBuffer(mem, hdr, frames)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, src.Bytes(), out.Bytes())
		})
	}
}

func TestDeserializeRejectsBadInput(t *testing.T) {
	buf := memory.NewBufferBytes([]byte("hello"))
	hdr, frames, err := buf.Serialize(memory.CodecNone)
	require.NoError(t, err)

	_, err = memory.DeserializeBuffer(memory.DefaultAllocator, hdr, append(frames, frames[0]))
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)

	_, err = memory.DeserializeBuffer(memory.DefaultAllocator, hdr, [][]byte{[]byte("hi")})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)

	_, err = memory.DeserializeBuffer(memory.DefaultAllocator, []byte("{"), frames)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)

	_, err = memory.DeserializeBuffer(memory.DefaultAllocator,
		[]byte(`{"type-serialized":"cudf.memory.Buffer","desc":{"shape":[5],"strides":[1],"typestr":"<f8","version":3},"frame_count":1}`),
		frames)
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestIsCContiguous(t *testing.T) {
	assert.True(t, memory.IsCContiguous([]int{10}, nil, 1))
	assert.True(t, memory.IsCContiguous([]int{10}, []int{1}, 1))
	assert.False(t, memory.IsCContiguous([]int{10}, []int{2}, 1))
	assert.True(t, memory.IsCContiguous([]int{2, 3}, []int{12, 4}, 4))
	assert.False(t, memory.IsCContiguous([]int{2, 3}, []int{4, 8}, 4))
	assert.True(t, memory.IsCContiguous([]int{0, 3}, []int{4, 8}, 4))
}

func TestLimitedAllocator(t *testing.T) {
	mem := memory.NewLimitedAllocator(memory.NewGoAllocator(), 100)

	a, err := memory.NewBuffer(mem, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, mem.InUse())

	_, err = memory.NewBuffer(mem, 50)
	assert.True(t, errors.Is(err, cudf.ErrOutOfMemory))
	assert.Equal(t, 60, mem.InUse())

	assert.ErrorIs(t, a.Resize(120), cudf.ErrOutOfMemory)
	require.NoError(t, a.Resize(90))
	assert.Equal(t, 90, mem.InUse())

	a.Release()
	assert.Zero(t, mem.InUse())
	assert.Equal(t, 100, mem.Limit())
}

func TestStatsAllocator(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats, err := memory.NewStatsAllocator(memory.NewLimitedAllocator(memory.NewGoAllocator(), 64), reg)
	require.NoError(t, err)

	a, err := memory.NewBuffer(stats, 32)
	require.NoError(t, err)
	b, err := memory.NewBuffer(stats, 16)
	require.NoError(t, err)
	assert.Equal(t, 48, stats.CurrentBytes())

	_, err = memory.NewBuffer(stats, 32)
	assert.ErrorIs(t, err, cudf.ErrOutOfMemory)

	a.Release()
	b.Release()
	assert.Zero(t, stats.CurrentBytes())
	assert.Equal(t, 48, stats.PeakBytes())

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, f := range families {
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			got[f.GetName()] = m.GetCounter().GetValue()
		} else {
			got[f.GetName()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, got["cudf_memory_allocations_total"])
	assert.Equal(t, 2.0, got["cudf_memory_frees_total"])
	assert.Equal(t, 1.0, got["cudf_memory_allocation_failures_total"])
	assert.Equal(t, 48.0, got["cudf_memory_peak_bytes"])
	assert.Equal(t, 0.0, got["cudf_memory_bytes_in_use"])

	// a second allocator on the same registry shares the collectors
	_, err = memory.NewStatsAllocator(memory.NewGoAllocator(), reg)
	assert.NoError(t, err)
}

type orderedOwner struct {
	id  int
	log *[]int
}

func (o orderedOwner) Release() { *o.log = append(*o.log, o.id) }

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var log []int
	scope := memory.NewScope()
	assert.NotEqual(t, scope.ID(), memory.NewScope().ID())
	for i := 0; i < 3; i++ {
		memory.Keep(scope, orderedOwner{id: i, log: &log})
	}
	assert.Equal(t, 3, scope.Len())
	scope.Release()
	assert.Equal(t, []int{2, 1, 0}, log)
	assert.Zero(t, scope.Len())

	scope.Track(orderedOwner{id: 7, log: &log})
	assert.Equal(t, []int{2, 1, 0, 7}, log)
}

func TestSet(t *testing.T) {
	buf := make([]byte, 5)
	memory.Set(buf, 3)
	assert.Equal(t, []byte{3, 3, 3, 3, 3}, buf)
	memory.Set(buf, 0)
	assert.Equal(t, make([]byte, 5), buf)
}
