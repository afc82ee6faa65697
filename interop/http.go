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
	"io"
	"net/http"

	"github.com/VamsiTallam95/cudf/column"
	"github.com/VamsiTallam95/cudf/compute"
	"github.com/go-kit/log/level"
)

// IPCContentType is the media type of an Arrow IPC stream.
const IPCContentType = "application/vnd.apache.arrow.stream"

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// IPCHandler answers GET requests with t as an Arrow IPC stream. Streams
// are encoded with the allocator and logger of ctx and stop when the
// request is cancelled. t must stay alive while the handler serves.
func IPCHandler(ctx context.Context, t *column.Table, opts IPCOptions) http.Handler {
	exec := compute.GetExecCtx(ctx)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("allow", http.MethodGet)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("content-type", IPCContentType)
		cw := &countingWriter{w: w}
		err := WriteIPC(compute.SetExecCtx(r.Context(), exec), cw, t, opts)
		if err == nil {
			level.Debug(exec.Logger).Log("msg", "served ipc stream", "remote", r.RemoteAddr, "bytes", cw.n)
			return
		}
		level.Error(exec.Logger).Log("msg", "ipc stream failed", "remote", r.RemoteAddr, "err", err)
		if cw.n == 0 {
			w.Header().Del("content-type")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// FetchIPC requests url and reads the Arrow IPC stream in the response
// body. A nil client means http.DefaultClient.
func FetchIPC(ctx context.Context, client *http.Client, url string) (*column.Table, []string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("interop: GET %s: %s", url, resp.Status)
	}
	return ReadIPC(ctx, resp.Body)
}
