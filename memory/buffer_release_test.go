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

//go:build !assert

package memory_test

import (
	"testing"

	"github.com/VamsiTallam95/cudf/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraReleaseFreesOnce(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf, err := memory.NewBuffer(mem, 8)
	require.NoError(t, err)
	buf.Release()
	buf.Release()
	assert.True(t, buf.Released())
	assert.Zero(t, mem.CurrentAlloc())

	owner := &countingOwner{}
	foreign := memory.NewForeignBuffer([]byte("abc"), owner)
	foreign.Release()
	foreign.Release()
	assert.True(t, foreign.Released())
	assert.Equal(t, 1, owner.released)
}
