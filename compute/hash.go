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

package compute

import (
	"context"
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
)

// DefaultHashSeed is the seed used when HashOptions.Seed is zero.
const DefaultHashSeed uint64 = 0x2545f4914f6cdd1d

type HashOptions struct {
	// Columns restricts hashing to these columns; all columns when empty.
	Columns []int
	Seed    uint64
}

func (o HashOptions) seed() uint64 {
	if o.Seed == 0 {
		return DefaultHashSeed
	}
	return o.Seed
}

func (o HashOptions) columns(t *column.Table) ([]*column.Column, error) {
	if len(o.Columns) == 0 {
		return t.Columns(), nil
	}
	return selectColumns(t, o.Columns)
}

// HashRows returns a UINT64 column holding one hash per row of t. Equal
// rows, with nulls equal, hash equally. The column never contains nulls.
func HashRows(ctx context.Context, t *column.Table, opts HashOptions) (out *column.Column, err error) {
	c, err := begin(ctx, "hash", t.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err) }()

	cols, err := opts.columns(t)
	if err != nil {
		return nil, err
	}
	rh, err := newRowHasher(cols, opts.seed())
	if err != nil {
		return nil, err
	}
	hashes, err := c.hashAll(rh, t.NumRows())
	if err != nil {
		return nil, err
	}
	return column.FromSlice(c.mem, cudf.Uint64, hashes, nil)
}

// HashPartition distributes the rows of t into n partitions by the hash of
// the key columns. It returns the rows grouped by partition and the start
// row of each partition. Rows keep their relative order within a
// partition.
func HashPartition(ctx context.Context, t *column.Table, keys []int, n int, seed uint64) (out *column.Table, offsets []int, err error) {
	c, err := begin(ctx, "hash_partition", t.NumRows())
	if err != nil {
		return nil, nil, err
	}
	defer func() { c.end(err, "partitions", n) }()

	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d partitions", cudf.ErrInvalidArgument, n)
	}
	opts := HashOptions{Columns: keys, Seed: seed}
	cols, err := opts.columns(t)
	if err != nil {
		return nil, nil, err
	}
	rh, err := newRowHasher(cols, opts.seed())
	if err != nil {
		return nil, nil, err
	}
	rows := t.NumRows()
	hashes, err := c.hashAll(rh, rows)
	if err != nil {
		return nil, nil, err
	}

	part := make([]int, rows)
	nb := numBlocks(rows, c.exec.BlockSize)
	counts := make([][]int, nb)
	err = c.launch(rows, func(b, lo, hi int) error {
		counts[b] = make([]int, n)
		for i := lo; i < hi; i++ {
			p := int(hashes[i] % uint64(n))
			part[i] = p
			counts[b][p]++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Partition-major, block-minor positions keep every partition stable.
	offsets = make([]int, n)
	start := make([][]int, nb)
	pos := 0
	for p := 0; p < n; p++ {
		offsets[p] = pos
		for b := 0; b < nb; b++ {
			if start[b] == nil {
				start[b] = make([]int, n)
			}
			start[b][p] = pos
			pos += counts[b][p]
		}
	}
	order := make([]int32, rows)
	err = c.launch(rows, func(b, lo, hi int) error {
		next := start[b]
		for i := lo; i < hi; i++ {
			order[next[part[i]]] = int32(i)
			next[part[i]]++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	out, err = c.gatherTable(t, order, false)
	if err != nil {
		return nil, nil, err
	}
	return out, offsets, nil
}
