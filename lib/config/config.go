// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable Load reads the config
// file path from.
const EnvConfigPath = "GRAPHTRACE_CONFIG"

// File is a configuration file. Pointer fields distinguish "unset"
// (take the default) from an explicit zero.
type File struct {
	// Enabled turns tracing off entirely when false. Default: true.
	Enabled *bool `yaml:"enabled" json:"enabled"`

	// Compress enables body compression. Default: true.
	Compress *bool `yaml:"compress" json:"compress"`

	// Compression selects the encoding when Compress is true: "gzip"
	// (default) or "zstd".
	Compression string `yaml:"compression" json:"compression"`

	// APIKey authenticates uploads. See the package documentation for
	// the fallback chain.
	APIKey string `yaml:"api_key" json:"api_key"`

	// Endpoint overrides the ingestion URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// ReportingInterval is how often the channel drains its queue.
	// Default: 5s.
	ReportingInterval *Duration `yaml:"reporting_interval" json:"reporting_interval"`

	// MaxUncompressedReportSize cuts a report once the traces drained
	// into it reach this many bytes. Default: 4 MiB.
	MaxUncompressedReportSize *int64 `yaml:"max_uncompressed_report_size" json:"max_uncompressed_report_size"`

	// MaxQueueBytes is the backpressure threshold. Default: ten times
	// the resolved MaxUncompressedReportSize.
	MaxQueueBytes *int64 `yaml:"max_queue_bytes" json:"max_queue_bytes"`

	// MaxUploadAttempts counts the first attempt. Default: 5.
	MaxUploadAttempts *int `yaml:"max_upload_attempts" json:"max_upload_attempts"`

	// MinUploadRetryDelay is the backoff base. Default: 100ms.
	MinUploadRetryDelay *Duration `yaml:"min_upload_retry_delay" json:"min_upload_retry_delay"`

	// DebugReports logs every queued trace key and every sent report.
	DebugReports bool `yaml:"debug_reports" json:"debug_reports"`

	// Service identifies the traced service in report headers.
	Service ServiceFile `yaml:"service" json:"service"`
}

// ServiceFile is the report header section of a File.
type ServiceFile struct {
	// Version is the traced service's own version string.
	Version string `yaml:"version" json:"version"`

	// GraphRef is "graph@variant".
	GraphRef string `yaml:"graph_ref" json:"graph_ref"`

	// SchemaID is the executable schema identifier. When empty and
	// SchemaPath is set, the identifier is derived from the schema
	// document.
	SchemaID string `yaml:"schema_id" json:"schema_id"`

	// SchemaPath points at the schema SDL file.
	SchemaPath string `yaml:"schema_path" json:"schema_path"`
}

// Load loads the file named by GRAPHTRACE_CONFIG. When the variable is
// unset, Load returns an empty File, so every value takes its default.
func Load() (*File, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return &File{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads and parses one configuration file. Files named *.json
// or *.jsonc are parsed as JSONC (comments and trailing commas
// allowed); anything else as YAML. Unknown keys are errors.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	file, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse parses configuration data. extension selects the format the way
// LoadFile does (".json"/".jsonc" for JSONC, anything else YAML).
func Parse(data []byte, extension string) (*File, error) {
	file := &File{}
	switch strings.ToLower(extension) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(file); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// An empty document decodes as io.EOF and means "all defaults".
		if err := decoder.Decode(file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	file.expandVariables(os.LookupEnv)
	return file, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in string fields.
func (f *File) expandVariables(lookupEnv func(string) (string, bool)) {
	f.APIKey = expandVars(f.APIKey, lookupEnv)
	f.Endpoint = expandVars(f.Endpoint, lookupEnv)
	f.Service.Version = expandVars(f.Service.Version, lookupEnv)
	f.Service.GraphRef = expandVars(f.Service.GraphRef, lookupEnv)
	f.Service.SchemaID = expandVars(f.Service.SchemaID, lookupEnv)
	f.Service.SchemaPath = expandVars(f.Service.SchemaPath, lookupEnv)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, lookupEnv func(string) (string, bool)) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value, ok := lookupEnv(parts[1]); ok && value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
