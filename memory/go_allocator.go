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

	"github.com/VamsiTallam95/cudf"
)

// GoAllocator hands out 64-byte aligned, zeroed memory from the Go heap.
type GoAllocator struct{}

func NewGoAllocator() *GoAllocator { return &GoAllocator{} }

func (a *GoAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: allocation of %d bytes", cudf.ErrInvalidArgument, size)
	}
	// over-allocate so the returned slice can start on a 64-byte boundary
	raw := make([]byte, size+alignment)
	shift := roundUpToMultipleOf64(int(addressOf(raw))) - int(addressOf(raw))
	return raw[shift : shift+size : shift+size], nil
}

// Reallocate returns b when the size is unchanged, otherwise a new block
// holding the common prefix of b.
func (a *GoAllocator) Reallocate(size int, b []byte) ([]byte, error) {
	if size == len(b) {
		return b, nil
	}
	out, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	copy(out, b)
	return out, nil
}

func (a *GoAllocator) Free(b []byte) {}
