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

package hashing

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spread is the share of distinct hashes among the hashes of n distinct
// keys under two seeds.
func spread(n int, hash func(i int, seed uint64) uint64) float64 {
	seen := make(map[uint64]struct{}, 2*n)
	for i := 0; i < n; i++ {
		seen[hash(i, 0)] = struct{}{}
		seen[hash(i, altSeed)] = struct{}{}
	}
	return float64(len(seen)) / float64(2*n)
}

const altSeed = 0x2545f4914f6cdd1d

func TestIntegerSpread(t *testing.T) {
	const n = 20000
	rng := rand.New(rand.NewSource(1))
	random := make([]uint64, n)
	for i := range random {
		random[i] = rng.Uint64()
	}

	assert.GreaterOrEqual(t, spread(n, func(i int, seed uint64) uint64 { return Uint64(uint64(i), seed) }), 0.98, "sequential keys")
	assert.GreaterOrEqual(t, spread(n, func(i int, seed uint64) uint64 { return Uint64(random[i], seed) }), 0.98, "random keys")
	assert.GreaterOrEqual(t, spread(n, func(i int, seed uint64) uint64 { return Pair(uint64(i), uint64(n-i), seed) }), 0.98, "pairs")
}

func TestStringSpread(t *testing.T) {
	const n = 20000
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%05d", i)
	}
	assert.GreaterOrEqual(t, spread(n, func(i int, seed uint64) uint64 { return String(keys[i], seed) }), 0.98)
	assert.Equal(t, String("abc", 3), Hash([]byte("abc"), 3))
}

func TestLastByteChangesHash(t *testing.T) {
	for _, size := range []int{1, 3, 8, 9, 16, 17, 33, 64, 129} {
		b := make([]byte, size)
		for i := range b {
			b[i] = byte(i * 7)
		}
		seen := make(map[uint64]struct{})
		for v := 0; v < 256; v++ {
			b[size-1] = byte(v)
			seen[Hash(b, 1)] = struct{}{}
		}
		assert.Len(t, seen, 256, "size %d", size)
	}
}

func TestCombineOrder(t *testing.T) {
	a, b := String("left", 1), String("right", 1)
	assert.NotEqual(t, Combine(Combine(0, a), b), Combine(Combine(0, b), a))
	assert.Equal(t, Combine(7, a), Combine(7, a))
}

func TestFloatKeys(t *testing.T) {
	assert.Equal(t, Float64(0, 7), Float64(math.Copysign(0, -1), 7))
	assert.Equal(t, Float64(math.NaN(), 7), Float64(-math.NaN(), 7))
	assert.NotEqual(t, Float64(1, 7), Float64(2, 7))
}

func TestTableChains(t *testing.T) {
	// rows 0, 2 and 4 share a hash
	hashes := []uint64{5, 9, 5, 21, 5}
	tbl := NewTable(hashes, nil)
	require.Equal(t, 5, tbl.Len())

	var rows []int
	tbl.ForEach(5, func(int) bool { return true }, func(r int) { rows = append(rows, r) })
	assert.Equal(t, []int{0, 2, 4}, rows)

	// 21 and 5 land in the same bucket of a 16-slot table
	assert.Equal(t, 3, tbl.First(21))
	assert.Equal(t, -1, tbl.Next(3, 21))
	assert.Equal(t, -1, tbl.First(37))
	assert.Equal(t, 4, tbl.Find(5, func(r int) bool { return r > 2 }))
}

func TestTableInclude(t *testing.T) {
	hashes := []uint64{1, 1, 1}
	tbl := NewTable(hashes, func(r int) bool { return r != 1 })
	assert.Equal(t, 2, tbl.Len())

	var rows []int
	tbl.ForEach(1, func(int) bool { return true }, func(r int) { rows = append(rows, r) })
	assert.Equal(t, []int{0, 2}, rows)
}
