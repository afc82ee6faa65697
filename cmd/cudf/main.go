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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/VamsiTallam95/cudf"
	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/VamsiTallam95/cudf/cudfio"
	"github.com/VamsiTallam95/cudf/interop"
	"github.com/VamsiTallam95/cudf/memory"
	"github.com/docopt/docopt-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const usage = `cudf: run an engine operation over a columnar file and print the result as CSV.
The input format follows the file extension: .csv, .tsv, .json, .jsonl, .parquet or .avro.

Usage:
  cudf describe [options] <file>
  cudf sort [options] <file> --by=COLS [--desc] [--nulls-first]
  cudf groupby [options] <file> --keys=COLS --agg=SPECS [--sorted]
  cudf distinct [options] <file> --keys=COLS [--keep=KEEP]
  cudf filter-nulls [options] <file> --keys=COLS
  cudf serve [options] <file> [--addr=ADDR] [--codec=CODEC]
  cudf -h | --help

Options:
  -h --help             Show this screen.
  --by=COLS             Sort key columns, comma delimited names or indexes.
  --desc                Sort in descending order.
  --nulls-first         Place nulls before all other values.
  --keys=COLS           Key columns, comma delimited names or indexes.
  --agg=SPECS           Aggregations, comma delimited COLUMN:KIND pairs such as price:mean.
                        Quantiles take the fraction after an @, as in price:quantile@0.9.
  --sorted              Report groups in key order instead of first appearance.
  --keep=KEEP           Duplicate to keep: first, last, any or none [default: first].
  --addr=ADDR           Address to serve the table on as an Arrow IPC stream [default: localhost:8080].
  --codec=CODEC         IPC body compression: none, lz4 or zstd [default: none].
  --memory-limit=BYTES  Fail operations that would hold more device memory [default: 0].
  -v --verbose          Log every operation to stderr.`

type config struct {
	Describe    bool   `docopt:"describe"`
	Sort        bool   `docopt:"sort"`
	GroupBy     bool   `docopt:"groupby"`
	Distinct    bool   `docopt:"distinct"`
	FilterNulls bool   `docopt:"filter-nulls"`
	Serve       bool   `docopt:"serve"`
	File        string `docopt:"<file>"`
	By          string `docopt:"--by"`
	Desc        bool   `docopt:"--desc"`
	NullsFirst  bool   `docopt:"--nulls-first"`
	Keys        string `docopt:"--keys"`
	Agg         string `docopt:"--agg"`
	Sorted      bool   `docopt:"--sorted"`
	Keep        string `docopt:"--keep"`
	Addr        string `docopt:"--addr"`
	Codec       string `docopt:"--codec"`
	MemoryLimit string `docopt:"--memory-limit"`
	Verbose     bool   `docopt:"--verbose"`
}

func main() {
	opts, _ := docopt.ParseDoc(usage)
	var cfg config
	if err := opts.Bind(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if cfg.Verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger log.Logger, out io.Writer) error {
	exec, err := compute.ExecCtxFromEnv()
	if err != nil {
		return err
	}
	limit, err := strconv.Atoi(cfg.MemoryLimit)
	if err != nil || limit < 0 {
		return fmt.Errorf("%w: --memory-limit=%s", cudf.ErrInvalidArgument, cfg.MemoryLimit)
	}
	var mem memory.Allocator = memory.DefaultAllocator
	if limit > 0 {
		mem = memory.NewLimitedAllocator(mem, limit)
	}
	stats, err := memory.NewStatsAllocator(mem, nil)
	if err != nil {
		return err
	}
	exec.Allocator = stats
	exec.Logger = logger
	ctx = compute.SetExecCtx(ctx, exec)
	defer func() {
		level.Debug(logger).Log("msg", "device memory", "peak_bytes", stats.PeakBytes(), "in_use", stats.CurrentBytes())
	}()

	scope := memory.NewScope()
	defer scope.Release()

	t, names, err := cudfio.ReadFile(ctx, cfg.File)
	if err != nil {
		return err
	}
	memory.Keep(scope, t)
	level.Debug(logger).Log("msg", "read input", "file", cfg.File, "rows", t.NumRows(), "columns", t.NumColumns(), "scope", scope.ID())

	switch {
	case cfg.Describe:
		return describe(out, t, names)
	case cfg.Sort:
		by, err := resolveColumns(cfg.By, names)
		if err != nil {
			return err
		}
		keys := make([]compute.SortKey, len(by))
		for i, c := range by {
			keys[i] = compute.SortKey{Column: c}
			if cfg.Desc {
				keys[i].Order = compute.Descending
			}
			if cfg.NullsFirst {
				keys[i].Nulls = compute.NullsFirst
			}
		}
		sorted, err := compute.Sort(ctx, t, keys)
		if err != nil {
			return err
		}
		memory.Keep(scope, sorted)
		return cudfio.WriteCSV(ctx, out, sorted, names)
	case cfg.GroupBy:
		return groupBy(ctx, out, scope, cfg, t, names)
	case cfg.Distinct:
		keys, err := resolveColumns(cfg.Keys, names)
		if err != nil {
			return err
		}
		keep, ok := compute.DuplicateKeepFromString(cfg.Keep)
		if !ok {
			return fmt.Errorf("%w: --keep=%s", cudf.ErrInvalidArgument, cfg.Keep)
		}
		res, err := compute.Distinct(ctx, t, keys, keep, compute.NullsEqual)
		if err != nil {
			return err
		}
		memory.Keep(scope, res)
		return cudfio.WriteCSV(ctx, out, res, names)
	case cfg.FilterNulls:
		keys, err := resolveColumns(cfg.Keys, names)
		if err != nil {
			return err
		}
		res, err := compute.DropNulls(ctx, t, keys, -1)
		if err != nil {
			return err
		}
		memory.Keep(scope, res)
		return cudfio.WriteCSV(ctx, out, res, names)
	case cfg.Serve:
		return serve(ctx, cfg, t, names, logger)
	}
	return fmt.Errorf("%w: no command", cudf.ErrInvalidArgument)
}

// serve streams t to every GET request until ctx is done.
func serve(ctx context.Context, cfg config, t *column.Table, names []string, logger log.Logger) error {
	codec := memory.Codec(cfg.Codec)
	if cfg.Codec == "none" {
		codec = memory.CodecNone
	}
	if codec != memory.CodecNone && codec != memory.CodecLZ4 && codec != memory.CodecZstd {
		return fmt.Errorf("%w: --codec=%s", cudf.ErrInvalidArgument, cfg.Codec)
	}
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: interop.IPCHandler(ctx, t, interop.IPCOptions{Names: names, Codec: codec}),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	level.Info(logger).Log("msg", "serving table", "addr", cfg.Addr, "rows", t.NumRows(), "codec", cfg.Codec)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func describe(out io.Writer, t *column.Table, names []string) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "rows: %d\n", t.NumRows())
	fmt.Fprintln(tw, "column\ttype\tnulls\tdata\tmask")
	for i, col := range t.Columns() {
		d := interop.Describe(col)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%#x\t%#x\n", names[i], col.Type(), d.NullCount, d.Data, d.Mask)
	}
	return tw.Flush()
}

func groupBy(ctx context.Context, out io.Writer, scope *memory.Scope, cfg config, t *column.Table, names []string) error {
	keys, err := resolveColumns(cfg.Keys, names)
	if err != nil {
		return err
	}
	specs, err := parseAggs(cfg.Agg, names)
	if err != nil {
		return err
	}
	kt, err := t.Select(keys...)
	if err != nil {
		return err
	}
	memory.Keep(scope, kt)

	opts := compute.GroupByOptions{}
	if cfg.Sorted {
		opts.Strategy = compute.SortStrategy
	}
	reqs := make([]compute.AggRequest, len(specs))
	outNames := make([]string, 0, len(keys)+len(specs))
	for _, k := range keys {
		outNames = append(outNames, names[k])
	}
	for i, s := range specs {
		reqs[i] = compute.AggRequest{Values: t.Column(s.column), Aggs: []compute.Aggregation{s.agg}}
		outNames = append(outNames, s.name)
	}
	res, err := compute.GroupBy(ctx, kt, reqs, opts)
	if err != nil {
		return err
	}
	memory.Keep(scope, res)

	cols := append(append([]*column.Column(nil), res.Keys.Columns()...), res.Values...)
	result, err := column.NewTable(cols...)
	if err != nil {
		return err
	}
	memory.Keep(scope, result)
	return cudfio.WriteCSV(ctx, out, result, outNames)
}

type aggSpec struct {
	column int
	agg    compute.Aggregation
	name   string
}

// parseAggs reads COLUMN:KIND[@Q] pairs.
func parseAggs(s string, names []string) ([]aggSpec, error) {
	var specs []aggSpec
	for _, part := range strings.Split(s, ",") {
		colName, kindName, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("%w: aggregation %q is not COLUMN:KIND", cudf.ErrInvalidArgument, part)
		}
		cols, err := resolveColumns(colName, names)
		if err != nil {
			return nil, err
		}
		kindName, q, hasQ := strings.Cut(kindName, "@")
		kind, ok := compute.AggKindFromString(kindName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown aggregation %q", cudf.ErrInvalidArgument, kindName)
		}
		agg := compute.NewAggregation(kind)
		if hasQ {
			if agg.Q, err = strconv.ParseFloat(q, 64); err != nil {
				return nil, fmt.Errorf("%w: quantile %q", cudf.ErrInvalidArgument, q)
			}
		}
		specs = append(specs, aggSpec{column: cols[0], agg: agg, name: names[cols[0]] + "_" + kindName})
	}
	return specs, nil
}

// resolveColumns maps comma delimited column names or indexes to indexes.
func resolveColumns(s string, names []string) ([]int, error) {
	var idx []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		found := -1
		for i, n := range names {
			if n == part {
				found = i
				break
			}
		}
		if found < 0 {
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(names) {
				return nil, fmt.Errorf("%w: no column %q", cudf.ErrInvalidArgument, part)
			}
			found = i
		}
		idx = append(idx, found)
	}
	return idx, nil
}
