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

import "unsafe"

func roundToPowerOf2(v, round int) int {
	forceCarry := round - 1
	truncateMask := ^forceCarry
	return (v + forceCarry) & truncateMask
}

func roundUpToMultipleOf64(v int) int {
	return roundToPowerOf2(v, 64)
}

func addressOf(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// Set assigns c to every byte of buf.
func Set(buf []byte, c byte) {
	if c == 0 {
		clear(buf)
		return
	}
	for i := range buf {
		buf[i] = c
	}
}

// IsCContiguous reports whether an array interface with the given shape,
// strides (in bytes, nil meaning packed) and item size describes a single
// C-contiguous extent.
func IsCContiguous(shape, strides []int, itemsize int) bool {
	if len(shape) == 0 || strides == nil {
		return true
	}
	if len(strides) != len(shape) {
		return false
	}
	if len(shape) == 1 && strides[0] == itemsize {
		return true
	}
	for _, dim := range shape {
		if dim == 0 {
			return true
		}
	}
	expected := itemsize
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] > 1 && strides[i] != expected {
			return false
		}
		expected *= shape[i]
	}
	return true
}
