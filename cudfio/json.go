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

package cudfio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/goccy/go-json"
)

// ReadJSON reads line-delimited JSON objects, one row per object. Without
// WithSchema the fields are taken in order of first appearance among the
// first records and their types inferred from the values: integers become
// INT64, other numbers FLOAT64, arrays lists and objects structs.
func ReadJSON(ctx context.Context, r io.Reader, opts ...Option) (*column.Table, []string, error) {
	cfg := newConfig(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	schema := cfg.schema
	if schema == nil {
		if schema, err = inferJSONSchema(data, cfg.inferRows); err != nil {
			return nil, nil, err
		}
	}
	rdr := array.NewJSONReader(bytes.NewReader(data), schema,
		array.WithAllocator(arrowAllocator(ctx)),
		array.WithChunk(cfg.chunk),
	)
	defer rdr.Release()
	return interop.ReadRecords(ctx, rdr)
}

// inferJSONSchema derives a schema from the first limit records of data.
func inferJSONSchema(data []byte, limit int) (*arrow.Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var names []string
	types := make(map[string]arrow.DataType)
	for row := 0; row < limit; row++ {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: json record %d: %v", cudf.ErrInvalidArgument, row, err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("%w: json record %d is not an object", cudf.ErrInvalidArgument, row)
		}
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: json record %d: %v", cudf.ErrInvalidArgument, row, err)
			}
			name, _ := key.(string)
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("%w: json record %d: %v", cudf.ErrInvalidArgument, row, err)
			}
			prev, seen := types[name]
			if !seen {
				names = append(names, name)
			}
			t, err := mergeJSONTypes(prev, jsonType(v))
			if err != nil {
				return nil, fmt.Errorf("%w: json field %q: %v", cudf.ErrTypeMismatch, name, err)
			}
			types[name] = t
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: json record %d: %v", cudf.ErrInvalidArgument, row, err)
		}
	}

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: resolveJSONType(types[name]), Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// jsonType is the Arrow type of one decoded value, nil for null. The
// element type of an empty or all-null array is arrow.Null until another
// record settles it.
func jsonType(v any) arrow.DataType {
	switch v := v.(type) {
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return arrow.PrimitiveTypes.Int64
		}
		return arrow.PrimitiveTypes.Float64
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case string:
		return arrow.BinaryTypes.String
	case []any:
		var elem arrow.DataType
		for _, e := range v {
			if t, err := mergeJSONTypes(elem, jsonType(e)); err == nil {
				elem = t
			} else {
				elem = arrow.BinaryTypes.String
			}
		}
		if elem == nil {
			elem = arrow.Null
		}
		return arrow.ListOf(elem)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]arrow.Field, len(keys))
		for i, k := range keys {
			t := jsonType(v[k])
			if t == nil {
				t = arrow.Null
			}
			fields[i] = arrow.Field{Name: k, Type: t, Nullable: true}
		}
		return arrow.StructOf(fields...)
	}
	return nil
}

// resolveJSONType replaces the types nothing settled, at any depth, with
// utf8.
func resolveJSONType(t arrow.DataType) arrow.DataType {
	if t == nil {
		return arrow.BinaryTypes.String
	}
	switch t.ID() {
	case arrow.NULL:
		return arrow.BinaryTypes.String
	case arrow.LIST:
		return arrow.ListOf(resolveJSONType(t.(*arrow.ListType).Elem()))
	case arrow.STRUCT:
		st := t.(*arrow.StructType)
		fields := make([]arrow.Field, st.NumFields())
		for i, f := range st.Fields() {
			fields[i] = arrow.Field{Name: f.Name, Type: resolveJSONType(f.Type), Nullable: true}
		}
		return arrow.StructOf(fields...)
	}
	return t
}

// mergeJSONTypes widens two inferred types to one that holds both.
func mergeJSONTypes(a, b arrow.DataType) (arrow.DataType, error) {
	switch {
	case a == nil || a.ID() == arrow.NULL:
		return b, nil
	case b == nil || b.ID() == arrow.NULL, arrow.TypeEqual(a, b):
		return a, nil
	case isJSONNumber(a) && isJSONNumber(b):
		return arrow.PrimitiveTypes.Float64, nil
	case a.ID() == arrow.LIST && b.ID() == arrow.LIST:
		elem, err := mergeJSONTypes(a.(*arrow.ListType).Elem(), b.(*arrow.ListType).Elem())
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case a.ID() == arrow.STRUCT && b.ID() == arrow.STRUCT:
		return mergeJSONStructs(a.(*arrow.StructType), b.(*arrow.StructType))
	}
	return nil, fmt.Errorf("values of type %s and %s", a, b)
}

func isJSONNumber(t arrow.DataType) bool {
	return t.ID() == arrow.INT64 || t.ID() == arrow.FLOAT64
}

// mergeJSONStructs merges the fields of two struct types by name. Keys stay
// sorted.
func mergeJSONStructs(a, b *arrow.StructType) (arrow.DataType, error) {
	types := make(map[string]arrow.DataType, a.NumFields()+b.NumFields())
	for _, f := range a.Fields() {
		types[f.Name] = f.Type
	}
	for _, f := range b.Fields() {
		t, err := mergeJSONTypes(types[f.Name], f.Type)
		if err != nil {
			return nil, err
		}
		types[f.Name] = t
	}
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]arrow.Field, len(keys))
	for i, k := range keys {
		fields[i] = arrow.Field{Name: k, Type: types[k], Nullable: true}
	}
	return arrow.StructOf(fields...), nil
}
