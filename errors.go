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

import "errors"

// Error kinds reported by every engine operation. Operations wrap one of
// these with details using fmt.Errorf("%w: ...", ...); use errors.Is to
// classify a failure.
var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrOverflow         = errors.New("overflow")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnsupportedType  = errors.New("unsupported type")
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrDeviceFault reports a fault inside a kernel task. It is fatal to
	// the call that raised it; tables not produced by that call are intact.
	ErrDeviceFault = errors.New("device fault")
)
