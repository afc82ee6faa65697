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

package cudf

import (
	"fmt"
	"strings"
)

// TypeID is the discriminant of the closed set of element types a Column
// can hold.
type TypeID int8

const (
	INT8 TypeID = iota
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT32
	FLOAT64
	// BOOL8 stores one byte per row, 0 for false and 1 for true.
	BOOL8
	DECIMAL32
	DECIMAL64
	DECIMAL128
	TIMESTAMP_S
	TIMESTAMP_MS
	TIMESTAMP_US
	TIMESTAMP_NS
	DURATION_S
	DURATION_MS
	DURATION_US
	DURATION_NS
	STRING
	LIST
	STRUCT

	numTypeIDs
)

var typeNames = [...]string{
	INT8:         "int8",
	INT16:        "int16",
	INT32:        "int32",
	INT64:        "int64",
	UINT8:        "uint8",
	UINT16:       "uint16",
	UINT32:       "uint32",
	UINT64:       "uint64",
	FLOAT32:      "float32",
	FLOAT64:      "float64",
	BOOL8:        "bool8",
	DECIMAL32:    "decimal32",
	DECIMAL64:    "decimal64",
	DECIMAL128:   "decimal128",
	TIMESTAMP_S:  "timestamp[s]",
	TIMESTAMP_MS: "timestamp[ms]",
	TIMESTAMP_US: "timestamp[us]",
	TIMESTAMP_NS: "timestamp[ns]",
	DURATION_S:   "duration[s]",
	DURATION_MS:  "duration[ms]",
	DURATION_US:  "duration[us]",
	DURATION_NS:  "duration[ns]",
	STRING:       "string",
	LIST:         "list",
	STRUCT:       "struct",
}

func (t TypeID) String() string {
	if t < 0 || t >= numTypeIDs {
		return fmt.Sprintf("TypeID(%d)", int8(t))
	}
	return typeNames[t]
}

// TypeIDFromString is the inverse of TypeID.String.
func TypeIDFromString(s string) (TypeID, bool) {
	for i, n := range typeNames {
		if n == s {
			return TypeID(i), true
		}
	}
	return 0, false
}

// TimeUnit is the resolution of a timestamp or duration type.
type TimeUnit int8

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

var unitNames = [...]string{"s", "ms", "us", "ns"}

func (u TimeUnit) String() string { return unitNames[u] }

// Multiplier returns the number of units in one second.
func (u TimeUnit) Multiplier() int64 {
	switch u {
	case Millisecond:
		return 1e3
	case Microsecond:
		return 1e6
	case Nanosecond:
		return 1e9
	}
	return 1
}

// DataType is a tagged variant: the TypeID selects the variant and the
// remaining fields carry its payload (decimal scale, nested child types).
// DataType values are immutable and comparable with Equal.
type DataType struct {
	id       TypeID
	scale    int32
	children []DataType
	names    []string
}

var (
	Int8    = DataType{id: INT8}
	Int16   = DataType{id: INT16}
	Int32   = DataType{id: INT32}
	Int64   = DataType{id: INT64}
	Uint8   = DataType{id: UINT8}
	Uint16  = DataType{id: UINT16}
	Uint32  = DataType{id: UINT32}
	Uint64  = DataType{id: UINT64}
	Float32 = DataType{id: FLOAT32}
	Float64 = DataType{id: FLOAT64}
	Bool8   = DataType{id: BOOL8}
	String  = DataType{id: STRING}
)

// Decimal32, Decimal64 and Decimal128 return fixed point types with the
// given number of fractional digits.
func Decimal32(scale int32) DataType  { return DataType{id: DECIMAL32, scale: scale} }
func Decimal64(scale int32) DataType  { return DataType{id: DECIMAL64, scale: scale} }
func Decimal128(scale int32) DataType { return DataType{id: DECIMAL128, scale: scale} }

func Timestamp(unit TimeUnit) DataType { return DataType{id: TIMESTAMP_S + TypeID(unit)} }
func Duration(unit TimeUnit) DataType  { return DataType{id: DURATION_S + TypeID(unit)} }

// ListOf returns a list type with the given element type.
func ListOf(elem DataType) DataType {
	return DataType{id: LIST, children: []DataType{elem}}
}

// StructOf returns a struct type. Field names are optional and only used
// when exchanging data with external representations.
func StructOf(fields []DataType, names ...string) DataType {
	return DataType{id: STRUCT, children: append([]DataType(nil), fields...), names: append([]string(nil), names...)}
}

// NewDataType builds a non-nested type from its id and scale.
func NewDataType(id TypeID, scale int32) DataType {
	if !id.IsDecimal() {
		scale = 0
	}
	return DataType{id: id, scale: scale}
}

func (dt DataType) ID() TypeID           { return dt.id }
func (dt DataType) Scale() int32         { return dt.scale }
func (dt DataType) NumChildren() int     { return len(dt.children) }
func (dt DataType) Child(i int) DataType { return dt.children[i] }
func (dt DataType) Children() []DataType { return dt.children }
func (dt DataType) FieldName(i int) string {
	if i < len(dt.names) {
		return dt.names[i]
	}
	return ""
}

// Elem is the element type of a LIST.
func (dt DataType) Elem() DataType { return dt.children[0] }

// TimeUnit is only meaningful for timestamp and duration types.
func (dt DataType) TimeUnit() TimeUnit {
	switch {
	case dt.id.IsTimestamp():
		return TimeUnit(dt.id - TIMESTAMP_S)
	case dt.id.IsDuration():
		return TimeUnit(dt.id - DURATION_S)
	}
	return Second
}

// Size is the byte width of one element, or 0 for types without fixed
// width storage (STRING, LIST, STRUCT).
func (dt DataType) Size() int { return dt.id.Size() }

func (dt DataType) IsFixedWidth() bool { return dt.id.Size() > 0 }

// Physical returns the id of the storage class used by the type: decimals
// and time types are stored as signed integers of their width.
func (dt DataType) Physical() TypeID { return dt.id.Physical() }

func (dt DataType) Equal(other DataType) bool {
	if dt.id != other.id || dt.scale != other.scale || len(dt.children) != len(other.children) {
		return false
	}
	for i := range dt.children {
		if !dt.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

func (dt DataType) String() string {
	switch dt.id {
	case DECIMAL32, DECIMAL64, DECIMAL128:
		return fmt.Sprintf("%s(scale=%d)", dt.id, dt.scale)
	case LIST:
		return fmt.Sprintf("list<%s>", dt.children[0])
	case STRUCT:
		parts := make([]string, len(dt.children))
		for i, c := range dt.children {
			if n := dt.FieldName(i); n != "" {
				parts[i] = n + ": " + c.String()
			} else {
				parts[i] = c.String()
			}
		}
		return "struct<" + strings.Join(parts, ", ") + ">"
	}
	return dt.id.String()
}

func (t TypeID) Size() int {
	switch t {
	case INT8, UINT8, BOOL8:
		return 1
	case INT16, UINT16:
		return 2
	case INT32, UINT32, FLOAT32, DECIMAL32:
		return 4
	case INT64, UINT64, FLOAT64, DECIMAL64,
		TIMESTAMP_S, TIMESTAMP_MS, TIMESTAMP_US, TIMESTAMP_NS,
		DURATION_S, DURATION_MS, DURATION_US, DURATION_NS:
		return 8
	case DECIMAL128:
		return 16
	}
	return 0
}

func (t TypeID) Physical() TypeID {
	switch t {
	case BOOL8:
		return UINT8
	case DECIMAL32:
		return INT32
	case DECIMAL64,
		TIMESTAMP_S, TIMESTAMP_MS, TIMESTAMP_US, TIMESTAMP_NS,
		DURATION_S, DURATION_MS, DURATION_US, DURATION_NS:
		return INT64
	}
	return t
}

func (t TypeID) IsSignedInteger() bool   { return t >= INT8 && t <= INT64 }
func (t TypeID) IsUnsignedInteger() bool { return t >= UINT8 && t <= UINT64 }
func (t TypeID) IsInteger() bool         { return t >= INT8 && t <= UINT64 }
func (t TypeID) IsFloating() bool        { return t == FLOAT32 || t == FLOAT64 }
func (t TypeID) IsNumeric() bool         { return t >= INT8 && t <= FLOAT64 }
func (t TypeID) IsDecimal() bool         { return t >= DECIMAL32 && t <= DECIMAL128 }
func (t TypeID) IsTimestamp() bool       { return t >= TIMESTAMP_S && t <= TIMESTAMP_NS }
func (t TypeID) IsDuration() bool        { return t >= DURATION_S && t <= DURATION_NS }
func (t TypeID) IsNested() bool          { return t == LIST || t == STRUCT }

// IsOrderable reports whether values of the type have a total order usable
// by sort and binary search.
func (t TypeID) IsOrderable() bool { return t != LIST && t != STRUCT }
