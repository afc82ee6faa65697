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
	"sync"

	"github.com/google/uuid"
)

// Releaser is anything holding device memory references.
type Releaser interface {
	Release()
}

// Scope owns a set of references and gives them all back on Release, in
// reverse order of acquisition. It is the explicit owning scope of the
// buffers and columns created inside it:
//
//	scope := memory.NewScope()
//	defer scope.Release()
//	out := memory.Keep(scope, mustColumn(...))
type Scope struct {
	id uuid.UUID

	mu       sync.Mutex
	items    []Releaser
	released bool
}

func NewScope() *Scope { return &Scope{id: uuid.New()} }

// ID identifies the scope in log output.
func (s *Scope) ID() uuid.UUID { return s.id }

// Track adds r to the scope. Tracking into a released scope releases r
// immediately.
func (s *Scope) Track(r Releaser) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		r.Release()
		return
	}
	s.items = append(s.items, r)
	s.mu.Unlock()
}

// Len is the number of references currently held.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Scope) Release() {
	s.mu.Lock()
	items := s.items
	s.items, s.released = nil, true
	s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Release()
	}
}

// Keep tracks v in s and returns it.
func Keep[T Releaser](s *Scope, v T) T {
	s.Track(v)
	return v
}
