// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding is an HTTP Content-Encoding applied to report bodies.
type Encoding string

const (
	// Identity sends the CBOR report as is.
	Identity Encoding = "identity"

	// Gzip is the encoding every ingestion endpoint accepts. Default
	// when compression is enabled.
	Gzip Encoding = "gzip"

	// Zstd trades broader compatibility for faster compression of
	// large reports.
	Zstd Encoding = "zstd"
)

// maxDecodedSize bounds decompression in Decode. Reports are capped far
// below this before upload; a body that inflates beyond it is hostile.
const maxDecodedSize = 256 << 20

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use through EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("upload: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxDecodedSize),
	)
	if err != nil {
		panic("upload: zstd decoder initialization failed: " + err.Error())
	}
}

// ParseEncoding maps a Content-Encoding header value (or config string)
// to an Encoding. The empty string means Identity.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(name) {
	case "", Identity:
		return Identity, nil
	case Gzip:
		return Gzip, nil
	case Zstd:
		return Zstd, nil
	default:
		return "", fmt.Errorf("unsupported content encoding %q", name)
	}
}

// header returns the Content-Encoding header value, empty for Identity.
func (e Encoding) header() string {
	if e == Identity || e == "" {
		return ""
	}
	return string(e)
}

// Encode compresses data with encoding.
func Encode(encoding Encoding, data []byte) ([]byte, error) {
	switch encoding {
	case "", Identity:
		return data, nil
	case Gzip:
		var buffer bytes.Buffer
		writer := gzip.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return buffer.Bytes(), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// Decode reverses Encode. The ingress mock uses it on request bodies.
func Decode(encoding Encoding, data []byte) ([]byte, error) {
	switch encoding {
	case "", Identity:
		return data, nil
	case Gzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close()
		decoded, err := io.ReadAll(io.LimitReader(reader, maxDecodedSize+1))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if len(decoded) > maxDecodedSize {
			return nil, fmt.Errorf("gzip: decoded body exceeds %d bytes", maxDecodedSize)
		}
		return decoded, nil
	case Zstd:
		decoded, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
