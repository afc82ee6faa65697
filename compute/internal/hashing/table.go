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

// Table is a bucket-chained multimap from row hashes to build rows. Rows
// are identified by 1-based ids so that the zero value marks an empty
// bucket or the end of a chain. Chains list rows in ascending order.
type Table struct {
	hashes []uint64
	// headID[b] is the first row id in bucket b.
	headID []int32
	// next[id] is the row id after id in its chain.
	next []int32
	mask uint64
	size int
}

// NewTable builds a table over rows [0, len(hashes)). Rows for which
// include reports false are left out; include may be nil.
func NewTable(hashes []uint64, include func(row int) bool) *Table {
	nb := uint64(16)
	for nb < uint64(2*len(hashes)) {
		nb <<= 1
	}
	t := &Table{
		hashes: hashes,
		headID: make([]int32, nb),
		next:   make([]int32, len(hashes)+1),
		mask:   nb - 1,
	}
	// Inserting in reverse leaves every chain in ascending row order.
	for row := len(hashes) - 1; row >= 0; row-- {
		if include != nil && !include(row) {
			continue
		}
		b := hashes[row] & t.mask
		id := int32(row + 1)
		t.next[id] = t.headID[b]
		t.headID[b] = id
		t.size++
	}
	return t
}

// Len is the number of rows in the table.
func (t *Table) Len() int { return t.size }

// First returns the first row whose stored hash equals h, or -1.
func (t *Table) First(h uint64) int {
	return t.scan(t.headID[h&t.mask], h)
}

// Next returns the row after row in the chain of hash h, or -1.
func (t *Table) Next(row int, h uint64) int {
	return t.scan(t.next[row+1], h)
}

func (t *Table) scan(id int32, h uint64) int {
	for id != 0 {
		if t.hashes[id-1] == h {
			return int(id - 1)
		}
		id = t.next[id]
	}
	return -1
}

// Find returns the first row with hash h for which eq reports true, or -1.
func (t *Table) Find(h uint64, eq func(row int) bool) int {
	for r := t.First(h); r >= 0; r = t.Next(r, h) {
		if eq(r) {
			return r
		}
	}
	return -1
}

// ForEach calls fn for every row with hash h for which eq reports true,
// in ascending row order.
func (t *Table) ForEach(h uint64, eq func(row int) bool, fn func(row int)) {
	for r := t.First(h); r >= 0; r = t.Next(r, h) {
		if eq(r) {
			fn(r)
		}
	}
}
