// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the serialization collaborator for trace reports.
//
// Traces are encoded to CBOR once, when the collector hands a finished
// request to the report channel. Reports are encoded once per upload,
// embedding the queued trace bytes as [RawMessage] values rather than
// decoding and re-encoding them.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Wire types use `json` struct tags: fxamacker/cbor reads them when no
// `cbor` tag is present, and the same tags drive the JSON rendering of
// reports in debug logs.
package codec
