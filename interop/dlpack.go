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

package interop

import (
	"context"
	"fmt"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/memory"
)

// DLDataTypeCode is the type class of DLPack tensor elements.
type DLDataTypeCode uint8

const (
	DLInt   DLDataTypeCode = 0
	DLUInt  DLDataTypeCode = 1
	DLFloat DLDataTypeCode = 2
)

// DLDeviceType is the DLPack device kind. Engine memory is host
// addressable, so tensors produced here are always on DLCPU.
type DLDeviceType int32

const DLCPU DLDeviceType = 1

type DLDevice struct {
	Type DLDeviceType
	ID   int32
}

type DLDataType struct {
	Code  DLDataTypeCode
	Bits  uint8
	Lanes uint16
}

// Tensor is a DLPack tensor descriptor. Shape and Strides count elements;
// nil Strides means a compact row-major layout. A tensor produced by
// ToDLPack must be released.
type Tensor struct {
	Data       []byte
	Device     DLDevice
	DType      DLDataType
	Shape      []int64
	Strides    []int64
	ByteOffset uint64

	owner memory.Releaser
}

func (t *Tensor) NDim() int { return len(t.Shape) }

// Release gives back the memory held by the tensor.
func (t *Tensor) Release() {
	if t.owner != nil {
		t.owner.Release()
		t.owner = nil
	}
	t.Data = nil
}

func dlType(dt cudf.DataType) (DLDataType, error) {
	bits := uint8(dt.Size() * 8)
	switch id := dt.ID(); {
	case id.IsSignedInteger():
		return DLDataType{Code: DLInt, Bits: bits, Lanes: 1}, nil
	case id.IsUnsignedInteger():
		return DLDataType{Code: DLUInt, Bits: bits, Lanes: 1}, nil
	case id.IsFloating():
		return DLDataType{Code: DLFloat, Bits: bits, Lanes: 1}, nil
	}
	return DLDataType{}, fmt.Errorf("%w: dlpack export of %s", cudf.ErrUnsupportedType, dt)
}

func typeOfDL(t DLDataType) (cudf.DataType, error) {
	if t.Lanes == 1 {
		switch {
		case t.Code == DLInt && t.Bits == 8:
			return cudf.Int8, nil
		case t.Code == DLInt && t.Bits == 16:
			return cudf.Int16, nil
		case t.Code == DLInt && t.Bits == 32:
			return cudf.Int32, nil
		case t.Code == DLInt && t.Bits == 64:
			return cudf.Int64, nil
		case t.Code == DLUInt && t.Bits == 8:
			return cudf.Uint8, nil
		case t.Code == DLUInt && t.Bits == 16:
			return cudf.Uint16, nil
		case t.Code == DLUInt && t.Bits == 32:
			return cudf.Uint32, nil
		case t.Code == DLUInt && t.Bits == 64:
			return cudf.Uint64, nil
		case t.Code == DLFloat && t.Bits == 32:
			return cudf.Float32, nil
		case t.Code == DLFloat && t.Bits == 64:
			return cudf.Float64, nil
		}
	}
	return cudf.DataType{}, fmt.Errorf("%w: dlpack type code %d with %d bits and %d lanes",
		cudf.ErrUnsupportedType, t.Code, t.Bits, t.Lanes)
}

// ToDLPack exports t as a tensor. Every column must have the same numeric
// type and no nulls. A single column becomes a 1-D tensor sharing the
// column memory; several columns are copied into a column-major 2-D
// tensor of shape (rows, columns).
func ToDLPack(ctx context.Context, t *column.Table) (*Tensor, error) {
	k, n := t.NumColumns(), t.NumRows()
	if k == 0 {
		return nil, fmt.Errorf("%w: dlpack export of a table without columns", cudf.ErrInvalidArgument)
	}
	dt := t.Column(0).Type()
	for _, col := range t.Columns() {
		if !col.Type().Equal(dt) {
			return nil, fmt.Errorf("%w: dlpack export of %s with %s", cudf.ErrUnsupportedType, dt, col.Type())
		}
		if col.HasNulls() {
			return nil, fmt.Errorf("%w: dlpack export of a column with nulls", cudf.ErrUnsupportedType)
		}
	}
	dl, err := dlType(dt)
	if err != nil {
		return nil, err
	}
	w := dt.Size()
	if k == 1 {
		col := t.Column(0)
		var data []byte
		if n > 0 {
			data = col.DataBytes()[col.Offset()*w : (col.Offset()+n)*w]
		}
		col.Retain()
		return &Tensor{
			Data:    data,
			Device:  DLDevice{Type: DLCPU},
			DType:   dl,
			Shape:   []int64{int64(n)},
			Strides: []int64{1},
			owner:   col,
		}, nil
	}

	buf, err := memory.NewBuffer(compute.GetAllocator(ctx), n*k*w)
	if err != nil {
		return nil, err
	}
	dst := buf.Bytes()
	for j, col := range t.Columns() {
		if n > 0 {
			copy(dst[j*n*w:(j+1)*n*w], col.DataBytes()[col.Offset()*w:])
		}
	}
	return &Tensor{
		Data:    dst,
		Device:  DLDevice{Type: DLCPU},
		DType:   dl,
		Shape:   []int64{int64(n), int64(k)},
		Strides: []int64{1, int64(n)},
		owner:   buf,
	}, nil
}

// FromDLPack copies a 1-D or 2-D host tensor into a table with one column
// per tensor column. Any element strides are accepted.
func FromDLPack(ctx context.Context, tensor *Tensor) (*column.Table, error) {
	if tensor.Device.Type != DLCPU {
		return nil, fmt.Errorf("%w: dlpack device type %d", cudf.ErrInvalidArgument, tensor.Device.Type)
	}
	dt, err := typeOfDL(tensor.DType)
	if err != nil {
		return nil, err
	}
	var n, k, s0, s1 int64
	switch tensor.NDim() {
	case 1:
		n, k, s0 = tensor.Shape[0], 1, 1
		if tensor.Strides != nil {
			s0 = tensor.Strides[0]
		}
	case 2:
		n, k = tensor.Shape[0], tensor.Shape[1]
		s0, s1 = k, 1
		if tensor.Strides != nil {
			s0, s1 = tensor.Strides[0], tensor.Strides[1]
		}
	default:
		return nil, fmt.Errorf("%w: dlpack tensor with %d dimensions", cudf.ErrInvalidArgument, tensor.NDim())
	}
	if n < 0 || k < 0 || s0 < 0 || s1 < 0 || len(tensor.Strides) > 0 && len(tensor.Strides) != tensor.NDim() {
		return nil, fmt.Errorf("%w: dlpack shape %v with strides %v", cudf.ErrInvalidArgument, tensor.Shape, tensor.Strides)
	}
	w := int64(dt.Size())
	src := tensor.Data[min(tensor.ByteOffset, uint64(len(tensor.Data))):]
	if n > 0 && k > 0 && ((n-1)*s0+(k-1)*s1+1)*w > int64(len(src)) {
		return nil, fmt.Errorf("%w: dlpack data of %d bytes cannot hold shape %v", cudf.ErrIndexOutOfBounds, len(src), tensor.Shape)
	}

	mem := compute.GetAllocator(ctx)
	cols := make([]*column.Column, 0, k)
	for j := int64(0); j < k; j++ {
		col, err := column.NewFixedWidth(mem, dt, int(n), false)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		dst := col.DataBytes()
		if s0 == 1 {
			start := j * s1 * w
			copy(dst, src[start:start+n*w])
		} else {
			for i := int64(0); i < n; i++ {
				at := (i*s0 + j*s1) * w
				copy(dst[i*w:(i+1)*w], src[at:at+w])
			}
		}
		cols = append(cols, col)
	}
	return column.TableOf(cols...)
}
