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
	"bytes"
	"fmt"
	"io"

	"github.com/VamsiTallam95/cudf"
	"github.com/andybalholm/brotli"
	"github.com/goccy/go-json"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression applied to serialized buffer frames.
type Codec string

const (
	CodecNone   Codec = ""
	CodecSnappy Codec = "snappy"
	CodecLZ4    Codec = "lz4"
	CodecZstd   Codec = "zstd"
	CodecBrotli Codec = "brotli"
)

const bufferTypeName = "cudf.memory.Buffer"

// FrameDesc describes the memory layout of a serialized frame in the
// array interface vocabulary.
type FrameDesc struct {
	Shape   []int  `json:"shape"`
	Strides []int  `json:"strides"`
	Typestr string `json:"typestr"`
	Version int    `json:"version"`
}

// Header is the metadata half of a serialized Buffer. The data half is a
// list of frames.
type Header struct {
	TypeSerialized string    `json:"type-serialized"`
	Desc           FrameDesc `json:"desc"`
	FrameCount     int       `json:"frame_count"`
	Codec          Codec     `json:"codec,omitempty"`
}

// Serialize splits the buffer into a JSON header and a single data frame,
// optionally compressed with codec.
func (b *Buffer) Serialize(codec Codec) ([]byte, [][]byte, error) {
	hdr := Header{
		TypeSerialized: bufferTypeName,
		Desc: FrameDesc{
			Shape:   []int{b.Len()},
			Strides: []int{1},
			Typestr: "|u1",
		},
		FrameCount: 1,
		Codec:      codec,
	}
	frame, err := encodeFrame(codec, b.Bytes())
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(hdr)
	if err != nil {
		return nil, nil, err
	}
	return raw, [][]byte{frame}, nil
}

// DeserializeBuffer reverses Serialize, copying the frame into memory
// obtained from mem.
func DeserializeBuffer(mem Allocator, header []byte, frames [][]byte) (*Buffer, error) {
	var hdr Header
	if err := json.Unmarshal(header, &hdr); err != nil {
		return nil, fmt.Errorf("%w: malformed buffer header: %s", cudf.ErrInvalidArgument, err)
	}
	if hdr.TypeSerialized != bufferTypeName {
		return nil, fmt.Errorf("%w: header describes %q, not a buffer", cudf.ErrInvalidArgument, hdr.TypeSerialized)
	}
	if hdr.FrameCount != 1 || len(frames) != 1 {
		return nil, fmt.Errorf("%w: expected a single frame, header declares %d and %d were given",
			cudf.ErrInvalidArgument, hdr.FrameCount, len(frames))
	}
	if hdr.Desc.Typestr != "|u1" && hdr.Desc.Typestr != "|i1" {
		return nil, fmt.Errorf("%w: buffer data must be of uint8 type, got %q", cudf.ErrInvalidArgument, hdr.Desc.Typestr)
	}
	if !IsCContiguous(hdr.Desc.Shape, hdr.Desc.Strides, 1) {
		return nil, fmt.Errorf("%w: buffer data must be 1D C-contiguous", cudf.ErrInvalidArgument)
	}

	data, err := decodeFrame(hdr.Codec, frames[0])
	if err != nil {
		return nil, err
	}
	size := 1
	for _, d := range hdr.Desc.Shape {
		size *= d
	}
	if size != len(data) {
		return nil, fmt.Errorf("%w: received a buffer with the wrong size, expected %d but got %d",
			cudf.ErrInvalidArgument, size, len(data))
	}

	out, err := NewBuffer(mem, len(data))
	if err != nil {
		return nil, err
	}
	copy(out.Bytes(), data)
	return out, nil
}

func encodeFrame(codec Codec, src []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return append([]byte(nil), src...), nil
	case CodecSnappy:
		return snappy.Encode(nil, src), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(src, nil), nil
	case CodecBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: unknown codec %q", cudf.ErrInvalidArgument, codec)
}

func decodeFrame(codec Codec, src []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return src, nil
	case CodecSnappy:
		out, err := snappy.Decode(nil, src)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy frame: %s", cudf.ErrInvalidArgument, err)
		}
		return out, nil
	case CodecLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 frame: %s", cudf.ErrInvalidArgument, err)
		}
		return out, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(src, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd frame: %s", cudf.ErrInvalidArgument, err)
		}
		return out, nil
	case CodecBrotli:
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
		if err != nil {
			return nil, fmt.Errorf("%w: brotli frame: %s", cudf.ErrInvalidArgument, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown codec %q", cudf.ErrInvalidArgument, codec)
}
