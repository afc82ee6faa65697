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

package column

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/internal/debug"
)

// Table is an ordered set of columns with the same number of rows.
type Table struct {
	refCount int64
	cols     []*Column
	rows     int
}

// NewTable retains cols and returns a table over them. The caller keeps its
// own references. All columns must have the same length.
func NewTable(cols ...*Column) (*Table, error) {
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	for i, c := range cols {
		if c.Len() != rows {
			return nil, fmt.Errorf("%w: column %d has %d rows, column 0 has %d",
				cudf.ErrShapeMismatch, i, c.Len(), rows)
		}
	}
	for _, c := range cols {
		c.Retain()
	}
	return &Table{refCount: 1, cols: append([]*Column(nil), cols...), rows: rows}, nil
}

// TableOf is NewTable for columns the caller hands over: it takes over the
// references instead of retaining them.
func TableOf(cols ...*Column) (*Table, error) {
	t, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		c.Release()
	}
	return t, nil
}

func (t *Table) Retain() { atomic.AddInt64(&t.refCount, 1) }

func (t *Table) Release() {
	debug.Assert(atomic.LoadInt64(&t.refCount) > 0, "table: too many releases")
	if atomic.AddInt64(&t.refCount, -1) == 0 {
		for _, c := range t.cols {
			c.Release()
		}
		t.cols = nil
	}
}

func (t *Table) NumRows() int         { return t.rows }
func (t *Table) NumColumns() int      { return len(t.cols) }
func (t *Table) Column(i int) *Column { return t.cols[i] }
func (t *Table) Columns() []*Column   { return t.cols }

// Types returns the column types in order.
func (t *Table) Types() []cudf.DataType {
	out := make([]cudf.DataType, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Type()
	}
	return out
}

// Select returns a table over the given columns, sharing them.
func (t *Table) Select(indices ...int) (*Table, error) {
	cols := make([]*Column, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.cols) {
			return nil, fmt.Errorf("%w: column %d of %d", cudf.ErrIndexOutOfBounds, idx, len(t.cols))
		}
		cols[i] = t.cols[idx]
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		out.rows = t.rows
	}
	return out, nil
}

// Slice returns a view of rows [offset, offset+length) of every column.
func (t *Table) Slice(offset, length int) (*Table, error) {
	if offset < 0 || length < 0 || offset+length > t.rows {
		return nil, fmt.Errorf("%w: slice [%d, %d) of table with %d rows",
			cudf.ErrIndexOutOfBounds, offset, offset+length, t.rows)
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i], _ = c.Slice(offset, length)
	}
	out := &Table{refCount: 1, cols: cols, rows: length}
	return out, nil
}

func (t *Table) String() string {
	var sb strings.Builder
	for i, c := range t.cols {
		fmt.Fprintf(&sb, "%d: %s\n", i, Format(c))
	}
	return sb.String()
}

// TablesEqual compares two tables column by column with Equal.
func TablesEqual(a, b *Table) bool {
	if a.NumColumns() != b.NumColumns() || a.NumRows() != b.NumRows() {
		return false
	}
	for i := range a.cols {
		if !Equal(a.cols[i], b.cols[i]) {
			return false
		}
	}
	return true
}
