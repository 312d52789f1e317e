// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads graphtrace configuration and resolves it into the
// immutable [ChannelConfig] each report channel is built from.
//
// A configuration file is YAML, or JSONC when its name ends in .json or
// .jsonc. The path comes from the --config flag (via [LoadFile]) or the
// GRAPHTRACE_CONFIG environment variable (via [Load]); with neither, the
// defaults apply. There is no automatic file discovery.
//
// [Resolve] fills every unset field with its default and applies the
// API key fallback chain: the file's api_key, then ENGINE_API_KEY, then
// APOLLO_KEY, then the literal "NO_API_KEY". String fields support
// ${VAR} and ${VAR:-default} expansion so a checked-in file can refer to
// a secret held in the environment.
//
// Key exports:
//
//   - [File] -- the on-disk shape, every field optional
//   - [ChannelConfig] -- the resolved, validated value type
//   - [Duration] -- accepts "5s" style strings or bare seconds
//
// This package depends on no other graphtrace packages.
package config
