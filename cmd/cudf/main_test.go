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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/VamsiTallam95/cudf"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sales = `region,item,units
east,a,3
west,b,
east,c,5
north,a,1
west,a,2
`

func writeInput(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(sales), 0o644))
	return path
}

func runCommand(t *testing.T, cfg config) (string, error) {
	if cfg.Keep == "" {
		cfg.Keep = "first"
	}
	if cfg.MemoryLimit == "" {
		cfg.MemoryLimit = "0"
	}
	var out bytes.Buffer
	err := run(context.Background(), cfg, log.NewNopLogger(), &out)
	return out.String(), err
}

func TestDescribe(t *testing.T) {
	out, err := runCommand(t, config{Describe: true, File: writeInput(t)})
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 5")
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "int64")
}

func TestSort(t *testing.T) {
	out, err := runCommand(t, config{Sort: true, File: writeInput(t), By: "units", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, "region,item,units\neast,c,5\neast,a,3\nwest,a,2\nnorth,a,1\nwest,b,\n", out)

	out, err = runCommand(t, config{Sort: true, File: writeInput(t), By: "2", NullsFirst: true})
	require.NoError(t, err)
	assert.Equal(t, "region,item,units\nwest,b,\nnorth,a,1\nwest,a,2\neast,a,3\neast,c,5\n", out)
}

func TestGroupBy(t *testing.T) {
	out, err := runCommand(t, config{GroupBy: true, File: writeInput(t), Keys: "region", Agg: "units:sum,units:count_valid", Sorted: true})
	require.NoError(t, err)
	assert.Equal(t, "region,units_sum,units_count_valid\neast,8,2\nnorth,1,1\nwest,2,1\n", out)
}

func TestDistinctAndFilterNulls(t *testing.T) {
	out, err := runCommand(t, config{Distinct: true, File: writeInput(t), Keys: "item", Keep: "last"})
	require.NoError(t, err)
	assert.Equal(t, "region,item,units\nwest,b,\neast,c,5\nwest,a,2\n", out)

	out, err = runCommand(t, config{FilterNulls: true, File: writeInput(t), Keys: "units"})
	require.NoError(t, err)
	assert.NotContains(t, out, "west,b")
}

func TestRunErrors(t *testing.T) {
	path := writeInput(t)
	for name, cfg := range map[string]config{
		"unknown column": {Sort: true, File: path, By: "price"},
		"bad keep":       {Distinct: true, File: path, Keys: "item", Keep: "middle"},
		"bad agg":        {GroupBy: true, File: path, Keys: "region", Agg: "units"},
		"unknown agg":    {GroupBy: true, File: path, Keys: "region", Agg: "units:total"},
		"bad limit":      {Describe: true, File: path, MemoryLimit: "-1"},
	} {
		_, err := runCommand(t, cfg)
		assert.ErrorIs(t, err, cudf.ErrInvalidArgument, name)
	}

	_, err := runCommand(t, config{Describe: true, File: filepath.Join(t.TempDir(), "x.txt")})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, config{Serve: true, File: writeInput(t), Addr: "127.0.0.1:0", Codec: "zstd", Keep: "first", MemoryLimit: "0"}, log.NewNopLogger(), &bytes.Buffer{})
	assert.NoError(t, err)

	_, err = runCommand(t, config{Serve: true, File: writeInput(t), Addr: "127.0.0.1:0", Codec: "snappy"})
	assert.ErrorIs(t, err, cudf.ErrInvalidArgument)
}
