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

// Package interop exchanges columns and tables with Apache Arrow, the Arrow
// IPC stream format and DLPack tensors.
//
// Arrow export and import share memory whenever the layouts agree: fixed
// width values, string offsets and characters, list offsets and validity
// bitmaps are handed over without copying and stay alive for as long as
// either side holds a reference. BOOL8 columns are converted to and from
// bit-packed booleans, and DECIMAL32 and DECIMAL64 columns are widened to
// decimal128 with their original type recorded in the field metadata.
package interop

import (
	"context"
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/bitmask"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/bitutil"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	arrowmem "github.com/apache/arrow/go/v17/arrow/memory"
)

// TypeKey is the field metadata key holding the engine type of a field
// whose Arrow type does not identify it, such as a widened decimal.
const TypeKey = "cudf.type"

var arrowUnits = [...]arrow.TimeUnit{
	cudf.Second:      arrow.Second,
	cudf.Millisecond: arrow.Millisecond,
	cudf.Microsecond: arrow.Microsecond,
	cudf.Nanosecond:  arrow.Nanosecond,
}

func unitOf(u arrow.TimeUnit) cudf.TimeUnit {
	for i, au := range arrowUnits {
		if au == u {
			return cudf.TimeUnit(i)
		}
	}
	return cudf.Second
}

// Field returns the Arrow field that ExportTable emits for a column of type
// dt.
func Field(name string, dt cudf.DataType) (arrow.Field, error) {
	f := arrow.Field{Name: name, Nullable: true}
	switch id := dt.ID(); id {
	case cudf.INT8:
		f.Type = arrow.PrimitiveTypes.Int8
	case cudf.INT16:
		f.Type = arrow.PrimitiveTypes.Int16
	case cudf.INT32:
		f.Type = arrow.PrimitiveTypes.Int32
	case cudf.INT64:
		f.Type = arrow.PrimitiveTypes.Int64
	case cudf.UINT8:
		f.Type = arrow.PrimitiveTypes.Uint8
	case cudf.UINT16:
		f.Type = arrow.PrimitiveTypes.Uint16
	case cudf.UINT32:
		f.Type = arrow.PrimitiveTypes.Uint32
	case cudf.UINT64:
		f.Type = arrow.PrimitiveTypes.Uint64
	case cudf.FLOAT32:
		f.Type = arrow.PrimitiveTypes.Float32
	case cudf.FLOAT64:
		f.Type = arrow.PrimitiveTypes.Float64
	case cudf.BOOL8:
		f.Type = arrow.FixedWidthTypes.Boolean
	case cudf.DECIMAL32, cudf.DECIMAL64:
		f.Metadata = arrow.NewMetadata([]string{TypeKey}, []string{id.String()})
		fallthrough
	case cudf.DECIMAL128:
		f.Type = &arrow.Decimal128Type{Precision: 38, Scale: dt.Scale()}
	case cudf.TIMESTAMP_S, cudf.TIMESTAMP_MS, cudf.TIMESTAMP_US, cudf.TIMESTAMP_NS:
		f.Type = &arrow.TimestampType{Unit: arrowUnits[dt.TimeUnit()]}
	case cudf.DURATION_S, cudf.DURATION_MS, cudf.DURATION_US, cudf.DURATION_NS:
		f.Type = &arrow.DurationType{Unit: arrowUnits[dt.TimeUnit()]}
	case cudf.STRING:
		f.Type = arrow.BinaryTypes.String
	case cudf.LIST:
		elem, err := Field("item", dt.Elem())
		if err != nil {
			return f, err
		}
		f.Type = arrow.ListOfField(elem)
	case cudf.STRUCT:
		fields := make([]arrow.Field, dt.NumChildren())
		for i := range fields {
			name := dt.FieldName(i)
			if name == "" {
				name = fmt.Sprintf("f%d", i)
			}
			var err error
			if fields[i], err = Field(name, dt.Child(i)); err != nil {
				return f, err
			}
		}
		f.Type = arrow.StructOf(fields...)
	default:
		return f, fmt.Errorf("%w: no arrow type for %s", cudf.ErrUnsupportedType, dt)
	}
	return f, nil
}

// TypeOf returns the engine type of an Arrow field, honoring TypeKey.
func TypeOf(f arrow.Field) (cudf.DataType, error) {
	switch t := f.Type.(type) {
	case *arrow.Int8Type:
		return cudf.Int8, nil
	case *arrow.Int16Type:
		return cudf.Int16, nil
	case *arrow.Int32Type:
		return cudf.Int32, nil
	case *arrow.Int64Type:
		return cudf.Int64, nil
	case *arrow.Uint8Type:
		return cudf.Uint8, nil
	case *arrow.Uint16Type:
		return cudf.Uint16, nil
	case *arrow.Uint32Type:
		return cudf.Uint32, nil
	case *arrow.Uint64Type:
		return cudf.Uint64, nil
	case *arrow.Float32Type:
		return cudf.Float32, nil
	case *arrow.Float64Type:
		return cudf.Float64, nil
	case *arrow.BooleanType:
		return cudf.Bool8, nil
	case *arrow.Decimal128Type:
		if i := f.Metadata.FindKey(TypeKey); i >= 0 {
			switch f.Metadata.Values()[i] {
			case cudf.DECIMAL32.String():
				return cudf.Decimal32(t.Scale), nil
			case cudf.DECIMAL64.String():
				return cudf.Decimal64(t.Scale), nil
			}
		}
		return cudf.Decimal128(t.Scale), nil
	case *arrow.TimestampType:
		return cudf.Timestamp(unitOf(t.Unit)), nil
	case *arrow.DurationType:
		return cudf.Duration(unitOf(t.Unit)), nil
	case *arrow.StringType:
		return cudf.String, nil
	case *arrow.ListType:
		elem, err := TypeOf(t.ElemField())
		if err != nil {
			return cudf.DataType{}, err
		}
		return cudf.ListOf(elem), nil
	case *arrow.StructType:
		fields := make([]cudf.DataType, t.NumFields())
		names := make([]string, t.NumFields())
		for i := range fields {
			var err error
			if fields[i], err = TypeOf(t.Field(i)); err != nil {
				return cudf.DataType{}, err
			}
			names[i] = t.Field(i).Name
		}
		return cudf.StructOf(fields, names...), nil
	}
	return cudf.DataType{}, fmt.Errorf("%w: arrow type %s", cudf.ErrUnsupportedType, f.Type)
}

// columnOwner frees nothing itself: the shared bytes belong to col, and
// the Arrow buffer gives back its reference to col once released.
type columnOwner struct{ col *column.Column }

func (o columnOwner) Allocate(int) []byte {
	panic("interop: allocate on a shared column buffer")
}

func (o columnOwner) Reallocate(int, []byte) []byte {
	panic("interop: reallocate on a shared column buffer")
}

func (o columnOwner) Free([]byte) { o.col.Release() }

type exporter struct {
	mem arrowmem.Allocator
}

// share wraps b, which belongs to col, in an Arrow buffer that keeps col
// alive.
func (e exporter) share(col *column.Column, b []byte) *arrowmem.Buffer {
	if b == nil {
		return nil
	}
	col.Retain()
	return arrowmem.NewBufferWithAllocator(b, columnOwner{col})
}

func (e exporter) alloc(n int) *arrowmem.Buffer {
	buf := arrowmem.NewResizableBuffer(e.mem)
	buf.Resize(n)
	clear(buf.Bytes())
	return buf
}

func (e exporter) validity(col *column.Column) *arrowmem.Buffer {
	m := col.Mask()
	n := col.Len()
	if !m.Present() || col.NullCount() == 0 {
		return nil
	}
	if m.Offset()%8 == 0 {
		lo := m.Offset() / 8
		return e.share(col, m.Bytes()[lo:lo+bitmask.BytesFor(n)])
	}
	buf := e.alloc(bitmask.BytesFor(n))
	bitutil.CopyBitmap(m.Bytes(), m.Offset(), n, buf.Bytes(), 0)
	return buf
}

// offsets shares the n+1 offsets of a STRING or LIST column.
func (e exporter) offsets(col *column.Column) *arrowmem.Buffer {
	offs := col.Offsets()
	lo := offs.Offset() * 4
	return e.share(col, offs.DataBytes()[lo:lo+offs.Len()*4])
}

func releaseBuffers(bufs []*arrowmem.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}

func (e exporter) data(col *column.Column, at arrow.DataType) (arrow.ArrayData, error) {
	n := col.Len()
	dt := col.Type()
	var (
		bufs     = []*arrowmem.Buffer{e.validity(col)}
		children []arrow.ArrayData
	)
	defer func() {
		releaseBuffers(bufs)
		for _, ch := range children {
			ch.Release()
		}
	}()

	switch id := dt.ID(); {
	case id == cudf.BOOL8:
		buf := e.alloc(bitmask.BytesFor(n))
		bits := buf.Bytes()
		for i, v := range column.Values[uint8](col) {
			if v != 0 {
				bitutil.SetBit(bits, i)
			}
		}
		bufs = append(bufs, buf)
	case id == cudf.DECIMAL32 || id == cudf.DECIMAL64:
		buf := e.alloc(n * arrow.Decimal128SizeBytes)
		out := arrow.Decimal128Traits.CastFromBytes(buf.Bytes())
		if id == cudf.DECIMAL32 {
			for i, v := range column.Values[int32](col) {
				out[i] = decimal128.FromI64(int64(v))
			}
		} else {
			for i, v := range column.Values[int64](col) {
				out[i] = decimal128.FromI64(v)
			}
		}
		bufs = append(bufs, buf)
	case dt.IsFixedWidth():
		var b []byte
		if n > 0 {
			w := dt.Size()
			b = col.DataBytes()[col.Offset()*w : (col.Offset()+n)*w]
		}
		bufs = append(bufs, e.share(col, b))
	case id == cudf.STRING:
		bufs = append(bufs, e.offsets(col), e.share(col, col.DataBytes()))
	case id == cudf.LIST:
		bufs = append(bufs, e.offsets(col))
		elems, err := e.data(col.Elements(), at.(*arrow.ListType).Elem())
		if err != nil {
			return nil, err
		}
		children = append(children, elems)
	case id == cudf.STRUCT:
		st := at.(*arrow.StructType)
		for i, f := range col.Fields() {
			ch, err := e.data(f, st.Field(i).Type)
			if err != nil {
				return nil, err
			}
			children = append(children, ch)
		}
	default:
		return nil, fmt.Errorf("%w: export of %s", cudf.ErrUnsupportedType, dt)
	}
	return array.NewData(at, n, bufs, children, col.NullCount(), 0), nil
}

// ExportColumn returns an Arrow array sharing the memory of col. The
// array holds its own references; col may be released independently.
// DECIMAL32 and DECIMAL64 columns are exported as decimal128; use Field to
// describe them so that ImportField restores the original type.
func ExportColumn(ctx context.Context, col *column.Column) (arrow.Array, error) {
	f, err := Field("", col.Type())
	if err != nil {
		return nil, err
	}
	e := exporter{mem: ArrowAllocator(compute.GetAllocator(ctx))}
	data, err := e.data(col, f.Type)
	if err != nil {
		return nil, err
	}
	defer data.Release()
	return array.MakeFromData(data), nil
}

// ExportTable returns an Arrow record over the columns of t. names label
// the fields and may be shorter than the number of columns; unnamed
// columns are called c0, c1 and so on.
func ExportTable(ctx context.Context, t *column.Table, names []string) (arrow.Record, error) {
	fields := make([]arrow.Field, t.NumColumns())
	cols := make([]arrow.Array, 0, t.NumColumns())
	defer func() {
		for _, a := range cols {
			a.Release()
		}
	}()
	for i, col := range t.Columns() {
		name := fmt.Sprintf("c%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		var err error
		if fields[i], err = Field(name, col.Type()); err != nil {
			return nil, err
		}
		a, err := ExportColumn(ctx, col)
		if err != nil {
			return nil, err
		}
		cols = append(cols, a)
	}
	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(t.NumRows())), nil
}

// foreign adopts an Arrow buffer as engine memory, keeping it alive until
// the engine side is released.
func foreign(b *arrowmem.Buffer) *memory.Buffer {
	if b == nil {
		return nil
	}
	b.Retain()
	return memory.NewForeignBuffer(b.Bytes(), b)
}

// assemble is column.New that gives back its arguments on failure.
func assemble(dt cudf.DataType, n, offset int, data *memory.Buffer, mask bitmask.Mask, nulls int, children ...*column.Column) (*column.Column, error) {
	col, err := column.New(dt, n, offset, data, mask, nulls, children...)
	if err != nil {
		if data != nil {
			data.Release()
		}
		mask.Release()
		for _, ch := range children {
			ch.Release()
		}
		return nil, err
	}
	return col, nil
}

type importer struct {
	mem memory.Allocator
}

func (im importer) validity(arr arrow.Array) (bitmask.Mask, int) {
	data := arr.Data()
	if arr.NullN() == 0 || data.Buffers()[0] == nil {
		return bitmask.Mask{}, 0
	}
	return bitmask.FromBuffer(foreign(data.Buffers()[0]), data.Offset()), arr.NullN()
}

func (im importer) valid(arr arrow.Array) []bool {
	if arr.NullN() == 0 {
		return nil
	}
	valid := make([]bool, arr.Len())
	for i := range valid {
		valid[i] = arr.IsValid(i)
	}
	return valid
}

// offsets adopts the n+1 offsets of a string or list array.
func (im importer) offsets(arr arrow.Array) (*column.Column, error) {
	data := arr.Data()
	buf := data.Buffers()[1]
	if buf == nil {
		return column.FromSlice(im.mem, cudf.Int32, []int32{0}, nil)
	}
	return assemble(cudf.Int32, arr.Len()+1, data.Offset(), foreign(buf), bitmask.Mask{}, 0)
}

func (im importer) column(arr arrow.Array, dt cudf.DataType) (*column.Column, error) {
	n := arr.Len()
	data := arr.Data()
	switch id := dt.ID(); {
	case id == cudf.BOOL8:
		a := arr.(*array.Boolean)
		vals := make([]uint8, n)
		for i := range vals {
			if a.Value(i) {
				vals[i] = 1
			}
		}
		return column.FromSlice(im.mem, dt, vals, im.valid(arr))
	case id == cudf.DECIMAL32:
		return narrowDecimals[int32](im, arr.(*array.Decimal128), dt, 9)
	case id == cudf.DECIMAL64:
		return narrowDecimals[int64](im, arr.(*array.Decimal128), dt, 18)
	case dt.IsFixedWidth():
		mask, nulls := im.validity(arr)
		return assemble(dt, n, data.Offset(), foreign(data.Buffers()[1]), mask, nulls)
	case id == cudf.STRING:
		offs, err := im.offsets(arr)
		if err != nil {
			return nil, err
		}
		mask, nulls := im.validity(arr)
		return assemble(dt, n, 0, foreign(data.Buffers()[2]), mask, nulls, offs)
	case id == cudf.LIST:
		offs, err := im.offsets(arr)
		if err != nil {
			return nil, err
		}
		elems, err := im.column(arr.(*array.List).ListValues(), dt.Elem())
		if err != nil {
			offs.Release()
			return nil, err
		}
		mask, nulls := im.validity(arr)
		return assemble(dt, n, 0, nil, mask, nulls, offs, elems)
	case id == cudf.STRUCT:
		a := arr.(*array.Struct)
		fields := make([]*column.Column, 0, a.NumField())
		for i := 0; i < a.NumField(); i++ {
			f, err := im.column(a.Field(i), dt.Child(i))
			if err != nil {
				for _, f := range fields {
					f.Release()
				}
				return nil, err
			}
			fields = append(fields, f)
		}
		mask, nulls := im.validity(arr)
		return assemble(dt, n, 0, nil, mask, nulls, fields...)
	}
	return nil, fmt.Errorf("%w: import of %s", cudf.ErrUnsupportedType, dt)
}

// narrowDecimals converts decimal128 values back to a DECIMAL32 or
// DECIMAL64 column, failing when a value needs more than prec digits.
func narrowDecimals[T int32 | int64](im importer, a *array.Decimal128, dt cudf.DataType, prec int32) (*column.Column, error) {
	vals := make([]T, a.Len())
	for i := range vals {
		if a.IsNull(i) {
			continue
		}
		v := a.Value(i)
		if !v.FitsInPrecision(prec) {
			return nil, fmt.Errorf("%w: %s does not fit %s", cudf.ErrOverflow, v.ToString(dt.Scale()), dt)
		}
		vals[i] = T(int64(v.LowBits()))
	}
	return column.FromSlice(im.mem, dt, vals, im.valid(a))
}

// ImportColumn returns a column sharing the memory of arr. The column holds
// its own references; arr may be released independently.
func ImportColumn(ctx context.Context, arr arrow.Array) (*column.Column, error) {
	return ImportField(ctx, arrow.Field{Name: "", Type: arr.DataType()}, arr)
}

// ImportField is ImportColumn for an array described by f, which restores
// widened decimals from the field metadata.
func ImportField(ctx context.Context, f arrow.Field, arr arrow.Array) (*column.Column, error) {
	dt, err := TypeOf(f)
	if err != nil {
		return nil, err
	}
	return importer{mem: compute.GetAllocator(ctx)}.column(arr, dt)
}

// ImportTable returns a table over the columns of rec.
func ImportTable(ctx context.Context, rec arrow.Record) (*column.Table, error) {
	cols := make([]*column.Column, 0, rec.NumCols())
	for i, a := range rec.Columns() {
		col, err := ImportField(ctx, rec.Schema().Field(i), a)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, col)
	}
	t, err := column.TableOf(cols...)
	if err != nil {
		for _, c := range cols {
			c.Release()
		}
		return nil, err
	}
	return t, nil
}

// Description is the raw layout of a column: its type tag, row count, the
// address of its first row and of its null mask, and its null count. A
// zero address means the buffer is absent.
type Description struct {
	Type      cudf.TypeID
	Rows      int
	Data      uintptr
	Mask      uintptr
	NullCount int
}

func Describe(col *column.Column) Description {
	d := Description{Type: col.Type().ID(), Rows: col.Len(), NullCount: col.NullCount()}
	if buf := col.Data(); buf != nil && buf.Len() > 0 {
		d.Data = buf.Addr() + uintptr(col.Offset()*col.ElementSize())
	}
	if m := col.Mask(); m.Present() {
		d.Mask = m.Buffer().Addr() + uintptr(m.Offset()/8)
	}
	return d
}
