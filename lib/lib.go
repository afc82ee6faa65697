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

// Package lib is the binding surface of the engine: a registry of its
// entry points grouped by submodule, for callers that look operations up
// by name, such as language bindings and the command line tool.
//
// Every submodule also has typed variables in this package, named after
// the submodule and the operation, that forward to the implementing
// packages.
package lib

import (
	"context"
	"sort"

	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/cudfio"
	"github.com/VamsiTallam95/cudf/interop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/VamsiTallam95/cudf/lib"

var (
	AvroRead = cudfio.ReadAvro

	BinopsBinary = compute.Binary

	ConcatColumns = compute.Concatenate
	ConcatTables  = compute.ConcatenateTables

	CopyingGather             = compute.Gather
	CopyingScatter            = compute.Scatter
	CopyingCopy               = compute.Copy
	CopyingSplit              = compute.Split
	CopyingInversePermutation = compute.InversePermutation

	CSVRead  = cudfio.ReadCSV
	CSVWrite = cudfio.WriteCSV

	DLPackTo   = interop.ToDLPack
	DLPackFrom = interop.FromDLPack

	GPUArrowExportColumn = interop.ExportColumn
	GPUArrowImportColumn = interop.ImportColumn
	GPUArrowExportTable  = interop.ExportTable
	GPUArrowImportTable  = interop.ImportTable
	GPUArrowWriteIPC     = interop.WriteIPC
	GPUArrowReadIPC      = interop.ReadIPC
	GPUArrowDescribe     = interop.Describe
	GPUArrowServeIPC     = interop.IPCHandler
	GPUArrowFetchIPC     = interop.FetchIPC

	GroupByAggregate = compute.GroupBy

	HashRows      = compute.HashRows
	HashPartition = compute.HashPartition

	IsSortedCheck = compute.IsSorted

	JoinIndices = compute.Join
	JoinTables  = compute.JoinTables

	JSONRead = cudfio.ReadJSON

	ParquetRead  = cudfio.ReadParquet
	ParquetWrite = cudfio.WriteParquet

	QuantileCompute = compute.Quantile

	ReduceCompute = compute.Reduce

	ReplaceNulls     = compute.ReplaceNulls
	ReplaceFillNulls = compute.FillNulls

	RollingWindow = compute.Rolling

	SearchBounds   = compute.Search
	SearchContains = compute.Contains

	SortTable      = compute.Sort
	SortOrder      = compute.SortedOrder
	SortByKey      = compute.SortByKey
	SortLowerBound = compute.LowerBound
	SortUpperBound = compute.UpperBound

	StreamCompactionApplyBooleanMask = compute.ApplyBooleanMask
	StreamCompactionDropNulls        = compute.DropNulls
	StreamCompactionDropNaNs         = compute.DropNaNs
	StreamCompactionDistinct         = compute.Distinct
	StreamCompactionUnique           = compute.Unique
	StreamCompactionDistinctCount    = compute.DistinctCount
	StreamCompactionUniqueCount      = compute.UniqueCount

	TransposeTable = compute.Transpose

	TypecastCast = compute.Cast

	UnaryOpsUnary    = compute.Unary
	UnaryOpsIsNull   = compute.IsNull
	UnaryOpsIsValid  = compute.IsValid
	UnaryOpsIsNaN    = compute.IsNaN
	UnaryOpsIsNotNaN = compute.IsNotNaN
)

// NVTXRange opens a named tracing range around caller code, nesting the
// spans of the operations run with the returned context. Call the
// returned function to close the range.
func NVTXRange(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, func() { span.End() }
}

var registry = map[string]map[string]any{
	"avro":   {"read": AvroRead},
	"binops": {"binary": BinopsBinary},
	"concat": {"columns": ConcatColumns, "tables": ConcatTables},
	"copying": {
		"gather":              CopyingGather,
		"scatter":             CopyingScatter,
		"copy":                CopyingCopy,
		"split":               CopyingSplit,
		"inverse_permutation": CopyingInversePermutation,
	},
	"csv":    {"read": CSVRead, "write": CSVWrite},
	"dlpack": {"to_dlpack": DLPackTo, "from_dlpack": DLPackFrom},
	"gpuarrow": {
		"export_column": GPUArrowExportColumn,
		"import_column": GPUArrowImportColumn,
		"export_table":  GPUArrowExportTable,
		"import_table":  GPUArrowImportTable,
		"write_ipc":     GPUArrowWriteIPC,
		"read_ipc":      GPUArrowReadIPC,
		"describe":      GPUArrowDescribe,
		"serve_ipc":     GPUArrowServeIPC,
		"fetch_ipc":     GPUArrowFetchIPC,
	},
	"groupby":  {"aggregate": GroupByAggregate},
	"hash":     {"hash_rows": HashRows, "hash_partition": HashPartition},
	"issorted": {"is_sorted": IsSortedCheck},
	"join":     {"join": JoinIndices, "join_tables": JoinTables},
	"json":     {"read": JSONRead},
	"nvtx":     {"range": NVTXRange},
	"parquet":  {"read": ParquetRead, "write": ParquetWrite},
	"quantile": {"quantile": QuantileCompute},
	"reduce":   {"reduce": ReduceCompute},
	"replace":  {"replace_nulls": ReplaceNulls, "fill_nulls": ReplaceFillNulls},
	"rolling":  {"rolling": RollingWindow},
	"search":   {"search": SearchBounds, "contains": SearchContains},
	"sort": {
		"sort":         SortTable,
		"sorted_order": SortOrder,
		"sort_by_key":  SortByKey,
		"lower_bound":  SortLowerBound,
		"upper_bound":  SortUpperBound,
	},
	"stream_compaction": {
		"apply_boolean_mask": StreamCompactionApplyBooleanMask,
		"drop_nulls":         StreamCompactionDropNulls,
		"drop_nans":          StreamCompactionDropNaNs,
		"distinct":           StreamCompactionDistinct,
		"unique":             StreamCompactionUnique,
		"distinct_count":     StreamCompactionDistinctCount,
		"unique_count":       StreamCompactionUniqueCount,
	},
	"transpose": {"transpose": TransposeTable},
	"typecast":  {"cast": TypecastCast},
	"unaryops": {
		"unary":      UnaryOpsUnary,
		"is_null":    UnaryOpsIsNull,
		"is_valid":   UnaryOpsIsValid,
		"is_nan":     UnaryOpsIsNaN,
		"is_not_nan": UnaryOpsIsNotNaN,
	},
}

// Submodules lists the registered submodule names in order.
func Submodules() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries lists the operation names of a submodule in order.
func Entries(submodule string) []string {
	ops := registry[submodule]
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the function registered as name in submodule. Callers
// type assert it to the signature of the operation.
func Lookup(submodule, name string) (any, bool) {
	fn, ok := registry[submodule][name]
	return fn, ok
}
