// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracetree assembles the per-field timing nodes of one request
// while it executes.
//
// A [Tree] is flat-indexed by the full [Path] of each node. [Tree.Add]
// is idempotent and creates any missing ancestor on the way, so every
// node's parent exists and the wire tree produced by [Tree.Root] has no
// orphans. Errors reported by the engine are attached with
// [Tree.AddError] to the node at the error's path, or to the nearest
// ancestor that exists.
//
// A Tree has exactly one owner (the request executing it) and does no
// locking. Once the request completes the owner calls [Tree.Seal];
// every later mutation fails with [ErrSealed], and the tree may be read
// for serialization.
package tracetree
