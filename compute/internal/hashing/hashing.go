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

// Package hashing provides the row hash functions and the transient
// multimap used by joins, groupby, distinct and hash search.
package hashing

import (
	"math"
	"math/bits"

	"github.com/zeebo/xxh3"
)

// Two of xxhash's prime multipliers.
var multipliers = [2]uint64{11400714785074694791, 14029467366897019727}

// NullHash is mixed in for a null value.
const NullHash uint64 = 0x5bd1e9955bd1e995

// hashInt mixes the low bits of val into the high bits and byte swaps the
// result so that both halves take part in a bucket index.
func hashInt(val uint64, alg uint64) uint64 {
	return bits.ReverseBytes64(multipliers[alg&1] * (val ^ alg))
}

// Hash hashes an arbitrary byte string.
func Hash(b []byte, seed uint64) uint64 { return xxh3.HashSeed(b, seed) }

func hashString(s string, seed uint64) uint64 { return xxh3.HashStringSeed(s, seed) }

// Uint64 hashes an 8-byte or narrower fixed-width value.
func Uint64(v, seed uint64) uint64 { return hashInt(v, seed) }

// String hashes a string value.
func String(s string, seed uint64) uint64 { return hashString(s, seed) }

// Float64 hashes a float so that keys comparing equal hash equally: -0 and
// +0 share a hash and so does every NaN.
func Float64(v float64, seed uint64) uint64 {
	switch {
	case v == 0:
		v = 0
	case v != v:
		v = math.NaN()
	}
	return hashInt(math.Float64bits(v), seed)
}

// Pair hashes a 128-bit value given as two halves.
func Pair(lo, hi, seed uint64) uint64 {
	return hashInt(lo, seed) ^ bits.RotateLeft64(hashInt(hi, seed+1), 31)
}

// Combine folds the hash of the next key column into a row hash.
func Combine(seed, h uint64) uint64 {
	return seed ^ (h + 0x9e3779b97f4a7c15 + (seed << 6) + (seed >> 2))
}
