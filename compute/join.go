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

type JoinKind int8

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	LeftSemiJoin
	LeftAntiJoin
)

var joinNames = [...]string{
	InnerJoin:    "inner",
	LeftJoin:     "left",
	RightJoin:    "right",
	FullJoin:     "full",
	LeftSemiJoin: "left_semi",
	LeftAntiJoin: "left_anti",
}

func (k JoinKind) String() string {
	if int(k) < len(joinNames) {
		return joinNames[k]
	}
	return fmt.Sprintf("JoinKind(%d)", k)
}

type JoinOptions struct {
	NullEqual NullEquality
}

// JoinResult holds the INT32 gather maps of a join. Row k of the result
// joins left row Left[k] with right row Right[k]; NotFound marks the
// missing side of an outer join row. Semi and anti joins only produce Left.
type JoinResult struct {
	Left  *column.Column
	Right *column.Column
}

func (r *JoinResult) Release() {
	if r.Left != nil {
		r.Left.Release()
	}
	if r.Right != nil {
		r.Right.Release()
	}
}

// Len is the number of joined rows.
func (r *JoinResult) Len() int { return r.Left.Len() }

// Join matches the rows of left and right on equal keys. The right table is
// the build side and left rows probe it in order, so output rows follow the
// left row order and, for each left row, the right row order. A full join
// appends the unmatched right rows in right row order.
func Join(ctx context.Context, left, right *column.Table, leftKeys, rightKeys []int, kind JoinKind, opts JoinOptions) (res *JoinResult, err error) {
	c, err := begin(ctx, "join", left.NumRows()+right.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			c.end(nil, "kind", kind, "rows_out", res.Len())
		} else {
			c.end(err, "kind", kind)
		}
	}()
	return c.join(left, right, leftKeys, rightKeys, kind, opts)
}

func (c *call) join(left, right *column.Table, leftKeys, rightKeys []int, kind JoinKind, opts JoinOptions) (*JoinResult, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("%w: %d left keys, %d right keys", cudf.ErrInvalidArgument, len(leftKeys), len(rightKeys))
	}
	if kind == RightJoin {
		res, err := c.join(right, left, rightKeys, leftKeys, LeftJoin, opts)
		if err != nil {
			return nil, err
		}
		res.Left, res.Right = res.Right, res.Left
		return res, nil
	}
	if kind < InnerJoin || kind > LeftAntiJoin {
		return nil, fmt.Errorf("%w: join kind %d", cudf.ErrInvalidArgument, kind)
	}
	lcols, err := selectColumns(left, leftKeys)
	if err != nil {
		return nil, err
	}
	rcols, err := selectColumns(right, rightKeys)
	if err != nil {
		return nil, err
	}
	tbl, eq, err := c.buildTable(rcols, lcols, opts.NullEqual)
	if err != nil {
		return nil, err
	}
	probe, err := newRowHasher(lcols, DefaultHashSeed)
	if err != nil {
		return nil, err
	}

	n := left.NumRows()
	nb := numBlocks(n, c.exec.BlockSize)
	lidx, ridx := make([][]int32, nb), make([][]int32, nb)
	err = c.launch(n, func(b, lo, hi int) error {
		for j := lo; j < hi; j++ {
			found := false
			if opts.NullEqual == NullsEqual || !anyNull(lcols, j) {
				h := probe.hash(j)
				for i := tbl.First(h); i >= 0; i = tbl.Next(i, h) {
					if !eq(j, i) {
						continue
					}
					found = true
					if kind == LeftSemiJoin || kind == LeftAntiJoin {
						break
					}
					lidx[b] = append(lidx[b], int32(j))
					ridx[b] = append(ridx[b], int32(i))
				}
			}
			switch {
			case found && kind == LeftSemiJoin, !found && kind == LeftAntiJoin:
				lidx[b] = append(lidx[b], int32(j))
			case !found && (kind == LeftJoin || kind == FullJoin):
				lidx[b] = append(lidx[b], int32(j))
				ridx[b] = append(ridx[b], NotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if kind == LeftSemiJoin || kind == LeftAntiJoin {
		l, _, err := c.pairColumns(lidx, nil)
		if err != nil {
			return nil, err
		}
		return &JoinResult{Left: l}, nil
	}
	if kind == FullJoin {
		matched := make([]bool, right.NumRows())
		for _, blk := range ridx {
			for _, i := range blk {
				if i >= 0 {
					matched[i] = true
				}
			}
		}
		var ul, ur []int32
		for i, m := range matched {
			if !m {
				ul = append(ul, NotFound)
				ur = append(ur, int32(i))
			}
		}
		lidx = append(lidx, ul)
		ridx = append(ridx, ur)
	}
	l, r, err := c.pairColumns(lidx, ridx)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Left: l, Right: r}, nil
}

// JoinTables joins left and right and materializes the result: the left
// columns followed by the right columns, with null rows on the missing side
// of outer join rows. Semi and anti joins return left columns only.
func JoinTables(ctx context.Context, left, right *column.Table, leftKeys, rightKeys []int, kind JoinKind, opts JoinOptions) (out *column.Table, err error) {
	c, err := begin(ctx, "join_tables", left.NumRows()+right.NumRows())
	if err != nil {
		return nil, err
	}
	defer func() { c.end(err, "kind", kind) }()

	res, err := c.join(left, right, leftKeys, rightKeys, kind, opts)
	if err != nil {
		return nil, err
	}
	defer res.Release()

	lt, err := c.gatherTable(left, column.Values[int32](res.Left), true)
	if err != nil {
		return nil, err
	}
	defer lt.Release()
	cols := append([]*column.Column(nil), lt.Columns()...)
	if res.Right != nil {
		rt, err := c.gatherTable(right, column.Values[int32](res.Right), true)
		if err != nil {
			return nil, err
		}
		defer rt.Release()
		cols = append(cols, rt.Columns()...)
	}
	return column.NewTable(cols...)
}
