// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"encoding/hex"
	"runtime"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/graphtrace/lib/hostinfo"
	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
	"github.com/bureau-foundation/graphtrace/lib/version"
)

// ServiceInfo identifies the traced service in every report header.
type ServiceInfo struct {
	Version  string
	GraphRef string

	// SchemaID is the executable schema identifier. When empty and
	// SchemaSDL is set, SchemaIDFromSDL derives it.
	SchemaID  string
	SchemaSDL string
}

// SchemaIDFromSDL returns the hex BLAKE3-256 digest of a schema
// document.
func SchemaIDFromSDL(sdl string) string {
	digest := blake3.Sum256([]byte(sdl))
	return hex.EncodeToString(digest[:])
}

// NewReportHeader builds the header for this process and service.
func NewReportHeader(host hostinfo.Info, service ServiceInfo) *trace.ReportHeader {
	schemaID := service.SchemaID
	if schemaID == "" && service.SchemaSDL != "" {
		schemaID = SchemaIDFromSDL(service.SchemaSDL)
	}
	return &trace.ReportHeader{
		Hostname:           host.Hostname,
		AgentVersion:       version.Agent(),
		ServiceVersion:     service.Version,
		RuntimeVersion:     runtime.Version(),
		Uname:              host.Uname,
		GraphRef:           service.GraphRef,
		ExecutableSchemaID: schemaID,
	}
}
