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

package interop

import (
	"errors"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/memory"
	arrowmem "github.com/apache/arrow/go/v17/arrow/memory"
)

type arrowAllocator struct {
	mem memory.Allocator
}

// ArrowAllocator adapts an engine allocator to the Arrow allocator
// interface, so that buffers built on the Arrow side are accounted to the
// same memory resource. Allocation failures panic with an error wrapping
// cudf.ErrOutOfMemory; the package entry points turn them back into
// errors.
func ArrowAllocator(mem memory.Allocator) arrowmem.Allocator {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return arrowAllocator{mem: mem}
}

func (a arrowAllocator) Allocate(size int) []byte {
	b, err := a.mem.Allocate(size)
	if err != nil {
		panic(err)
	}
	return b
}

func (a arrowAllocator) Reallocate(size int, b []byte) []byte {
	b, err := a.mem.Reallocate(size, b)
	if err != nil {
		panic(err)
	}
	return b
}

func (a arrowAllocator) Free(b []byte) { a.mem.Free(b) }

// recoverOOM converts an allocation panic raised through ArrowAllocator
// into *err.
func recoverOOM(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok && errors.Is(e, cudf.ErrOutOfMemory) {
			*err = e
			return
		}
		panic(r)
	}
}
