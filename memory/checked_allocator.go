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
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// allocSkip is the number of stack frames between the allocating kernel
// and CheckedAllocator: the allocator method itself and NewBuffer. Set
// CUDF_CHECKED_ALLOC_SKIP to report a different frame.
var allocSkip = 3

func init() {
	if v, ok := os.LookupEnv("CUDF_CHECKED_ALLOC_SKIP"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			allocSkip = n
		}
	}
}

type allocSite struct {
	fn   string
	line int
	size int
}

func callerSite(size int) allocSite {
	pc, _, line, ok := runtime.Caller(allocSkip)
	if !ok {
		return allocSite{fn: "unknown", size: size}
	}
	name := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		name = f.Name()
	}
	return allocSite{fn: name, line: line, size: size}
}

// CheckedAllocator wraps an allocator and remembers where every live
// allocation was made, so that tests can assert an operation gave back
// all of its device memory.
type CheckedAllocator struct {
	mem Allocator

	mu    sync.Mutex
	bytes int
	live  map[*byte]allocSite
}

func NewCheckedAllocator(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem, live: make(map[*byte]allocSite)}
}

// CurrentAlloc is the number of bytes allocated and not yet freed.
func (a *CheckedAllocator) CurrentAlloc() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes
}

func (a *CheckedAllocator) track(b []byte, site allocSite) {
	a.bytes += site.size
	if len(b) > 0 {
		a.live[&b[0]] = site
	}
}

func (a *CheckedAllocator) forget(b []byte) {
	a.bytes -= len(b)
	if len(b) > 0 {
		delete(a.live, &b[0])
	}
}

func (a *CheckedAllocator) Allocate(size int) ([]byte, error) {
	b, err := a.mem.Allocate(size)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.track(b, callerSite(size))
	a.mu.Unlock()
	return b, nil
}

func (a *CheckedAllocator) Reallocate(size int, b []byte) ([]byte, error) {
	out, err := a.mem.Reallocate(size, b)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.forget(b)
	a.track(out, callerSite(size))
	a.mu.Unlock()
	return out, nil
}

func (a *CheckedAllocator) Free(b []byte) {
	a.mu.Lock()
	a.forget(b)
	a.mu.Unlock()
	a.mem.Free(b)
}

// TestingT is the subset of testing.TB used by AssertSize.
type TestingT interface {
	Errorf(format string, args ...any)
	Helper()
}

// AssertSize fails the test when the number of outstanding bytes is not
// size, listing the sites of the allocations still alive.
func (a *CheckedAllocator) AssertSize(t TestingT, size int) {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bytes == size {
		return
	}
	leaks := make([]string, 0, len(a.live))
	for _, s := range a.live {
		leaks = append(leaks, fmt.Sprintf("%d bytes from %s:%d", s.size, s.fn, s.line))
	}
	sort.Strings(leaks)
	t.Errorf("device memory: %d bytes outstanding, want %d\n\t%s", a.bytes, size, strings.Join(leaks, "\n\t"))
}

var _ Allocator = (*CheckedAllocator)(nil)
