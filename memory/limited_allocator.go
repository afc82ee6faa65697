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
)

// LimitedAllocator caps the number of bytes outstanding from the wrapped
// allocator, the way a fixed size device pool does. Requests that would
// exceed the limit fail with cudf.ErrOutOfMemory and are not retried.
type LimitedAllocator struct {
	mem   Allocator
	limit int64
	inUse int64
}

func NewLimitedAllocator(mem Allocator, limit int) *LimitedAllocator {
	return &LimitedAllocator{mem: mem, limit: int64(limit)}
}

func (a *LimitedAllocator) InUse() int { return int(atomic.LoadInt64(&a.inUse)) }
func (a *LimitedAllocator) Limit() int { return int(a.limit) }

func (a *LimitedAllocator) reserve(delta int64) error {
	for {
		cur := atomic.LoadInt64(&a.inUse)
		if cur+delta > a.limit {
			return fmt.Errorf("%w: requested %d bytes with %d of %d in use",
				cudf.ErrOutOfMemory, delta, cur, a.limit)
		}
		if atomic.CompareAndSwapInt64(&a.inUse, cur, cur+delta) {
			return nil
		}
	}
}

func (a *LimitedAllocator) Allocate(size int) ([]byte, error) {
	if err := a.reserve(int64(size)); err != nil {
		return nil, err
	}
	out, err := a.mem.Allocate(size)
	if err != nil {
		atomic.AddInt64(&a.inUse, -int64(size))
		return nil, err
	}
	return out, nil
}

func (a *LimitedAllocator) Reallocate(size int, b []byte) ([]byte, error) {
	delta := int64(size - len(b))
	if delta > 0 {
		if err := a.reserve(delta); err != nil {
			return nil, err
		}
	}
	out, err := a.mem.Reallocate(size, b)
	if err != nil {
		if delta > 0 {
			atomic.AddInt64(&a.inUse, -delta)
		}
		return nil, err
	}
	if delta < 0 {
		atomic.AddInt64(&a.inUse, delta)
	}
	return out, nil
}

func (a *LimitedAllocator) Free(b []byte) {
	atomic.AddInt64(&a.inUse, -int64(len(b)))
	a.mem.Free(b)
}

var _ Allocator = (*LimitedAllocator)(nil)
