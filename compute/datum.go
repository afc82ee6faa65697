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
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
)

type DatumKind int8

const (
	KindNone   DatumKind = iota // none
	KindScalar                  // scalar
	KindColumn                  // column
)

func (k DatumKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindColumn:
		return "column"
	}
	return "none"
}

// Datum is an operand of an elementwise operation: a column or a scalar
// broadcast to the length of the other operand.
type Datum interface {
	fmt.Stringer
	Kind() DatumKind
	Type() cudf.DataType
	// Len is the number of rows, or -1 for a scalar.
	Len() int
}

type ScalarDatum struct {
	Value column.Scalar
}

func (ScalarDatum) Kind() DatumKind       { return KindScalar }
func (ScalarDatum) Len() int              { return -1 }
func (d ScalarDatum) Type() cudf.DataType { return d.Value.Type() }
func (d ScalarDatum) String() string      { return "Scalar:{" + d.Value.String() + "}" }

type ColumnDatum struct {
	Value *column.Column
}

func (ColumnDatum) Kind() DatumKind       { return KindColumn }
func (d ColumnDatum) Len() int            { return d.Value.Len() }
func (d ColumnDatum) Type() cudf.DataType { return d.Value.Type() }
func (d ColumnDatum) String() string      { return fmt.Sprintf("Column:{%s}", d.Value.Type()) }

// NewDatum wraps a *column.Column, a column.Scalar or a Go value accepted
// by column.MakeScalar.
func NewDatum(value any) Datum {
	switch v := value.(type) {
	case Datum:
		return v
	case *column.Column:
		return ColumnDatum{v}
	case column.Scalar:
		return ScalarDatum{v}
	default:
		return ScalarDatum{column.MakeScalar(value)}
	}
}

// broadcast returns the datum as a column of n rows. The result must be
// released by the caller.
func (c *call) broadcast(d Datum, n int) (*column.Column, error) {
	switch d := d.(type) {
	case ColumnDatum:
		d.Value.Retain()
		return d.Value, nil
	case ScalarDatum:
		return column.MakeColumnFromScalar(c.mem, d.Value, n)
	}
	return nil, fmt.Errorf("%w: unsupported datum %s", cudf.ErrInvalidArgument, d)
}
