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

package memory

import (
	"errors"
	"sync/atomic"

	"github.com/VamsiTallam95/cudf"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsAllocator tracks allocation statistics of the wrapped allocator and
// exports them as Prometheus metrics.
type StatsAllocator struct {
	mem Allocator

	current int64
	peak    int64

	bytesInUse  prometheus.Gauge
	peakBytes   prometheus.Gauge
	allocations prometheus.Counter
	frees       prometheus.Counter
	failures    prometheus.Counter
}

// NewStatsAllocator wraps mem. When reg is non-nil the metrics are
// registered with it; registration errors other than a duplicate
// registration are returned.
func NewStatsAllocator(mem Allocator, reg prometheus.Registerer) (*StatsAllocator, error) {
	a := &StatsAllocator{
		mem: mem,
		bytesInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cudf",
			Subsystem: "memory",
			Name:      "bytes_in_use",
			Help:      "Bytes of device memory currently allocated.",
		}),
		peakBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cudf",
			Subsystem: "memory",
			Name:      "peak_bytes",
			Help:      "High water mark of allocated device memory.",
		}),
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cudf",
			Subsystem: "memory",
			Name:      "allocations_total",
			Help:      "Number of successful allocations.",
		}),
		frees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cudf",
			Subsystem: "memory",
			Name:      "frees_total",
			Help:      "Number of released allocations.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cudf",
			Subsystem: "memory",
			Name:      "allocation_failures_total",
			Help:      "Number of allocations that failed with out of memory.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{a.bytesInUse, a.peakBytes, a.allocations, a.frees, a.failures} {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					return nil, err
				}
			}
		}
	}
	return a, nil
}

func (a *StatsAllocator) CurrentBytes() int { return int(atomic.LoadInt64(&a.current)) }
func (a *StatsAllocator) PeakBytes() int    { return int(atomic.LoadInt64(&a.peak)) }

func (a *StatsAllocator) track(delta int64) {
	cur := atomic.AddInt64(&a.current, delta)
	a.bytesInUse.Set(float64(cur))
	for {
		peak := atomic.LoadInt64(&a.peak)
		if cur <= peak || atomic.CompareAndSwapInt64(&a.peak, peak, cur) {
			break
		}
	}
	a.peakBytes.Set(float64(atomic.LoadInt64(&a.peak)))
}

func (a *StatsAllocator) failed(err error) error {
	if errors.Is(err, cudf.ErrOutOfMemory) {
		a.failures.Inc()
	}
	return err
}

func (a *StatsAllocator) Allocate(size int) ([]byte, error) {
	out, err := a.mem.Allocate(size)
	if err != nil {
		return nil, a.failed(err)
	}
	a.allocations.Inc()
	a.track(int64(size))
	return out, nil
}

func (a *StatsAllocator) Reallocate(size int, b []byte) ([]byte, error) {
	out, err := a.mem.Reallocate(size, b)
	if err != nil {
		return nil, a.failed(err)
	}
	a.track(int64(size - len(b)))
	return out, nil
}

func (a *StatsAllocator) Free(b []byte) {
	a.frees.Inc()
	a.track(-int64(len(b)))
	a.mem.Free(b)
}

var _ Allocator = (*StatsAllocator)(nil)
