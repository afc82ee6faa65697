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

// Package cudf defines the element type catalog and the error kinds shared
// by the cudf columnar compute engine.
//
// The engine itself is split across packages:
//
//   - memory: device buffers, allocators and ownership scopes
//   - bitmask: optional validity bitmaps
//   - column: Column, Table, Scalar and views
//   - compute: the null-aware kernels plus the sort, search, hash, join,
//     groupby and stream compaction engines
//   - interop: Arrow, Arrow IPC and DLPack exchange
//   - cudfio: CSV, JSON, Parquet and Avro readers producing Tables
//   - lib: the registry re-exporting every entry point
//
// A typical use:
//
//	ctx := compute.WithAllocator(context.Background(), memory.DefaultAllocator)
//	res, err := compute.Join(ctx, left, right, []int{0}, []int{0}, compute.InnerJoin, compute.JoinOptions{})
package cudf
