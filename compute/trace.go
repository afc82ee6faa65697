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
	"context"
	"time"

	"github.com/VamsiTallam95/cudf/memory"
	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/VamsiTallam95/cudf/compute"

// call is the state of one running operation.
type call struct {
	ctx   context.Context
	exec  ExecCtx
	mem   memory.Allocator
	op    string
	span  trace.Span
	start time.Time
}

// begin starts operation op over rows input rows. It fails with the context
// error when ctx is already done.
func begin(ctx context.Context, op string, rows int) (*call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := GetExecCtx(ctx)
	tracer := e.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "cudf."+op, trace.WithAttributes(
		attribute.Int("cudf.rows", rows),
		attribute.Int("cudf.workers", e.NumWorkers),
	))
	return &call{ctx: ctx, exec: e, mem: e.Allocator, op: op, span: span, start: time.Now()}, nil
}

// end closes the span of the operation and logs its outcome. kv are extra
// key/value pairs for the log line.
func (c *call) end(err error, kv ...interface{}) {
	elapsed := time.Since(c.start)
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		level.Debug(c.exec.Logger).Log(append([]interface{}{"op", c.op, "duration", elapsed, "err", err}, kv...)...)
	} else {
		level.Debug(c.exec.Logger).Log(append([]interface{}{"op", c.op, "duration", elapsed}, kv...)...)
	}
	c.span.End()
}
