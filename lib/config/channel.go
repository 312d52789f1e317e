// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied by Resolve.
const (
	DefaultCompression               = "gzip"
	DefaultReportingInterval         = 5 * time.Second
	DefaultMaxUncompressedReportSize = 4 << 20
	DefaultMaxUploadAttempts         = 5
	DefaultMinUploadRetryDelay       = 100 * time.Millisecond

	// DefaultQueueReports sizes the default queue limit as a multiple
	// of the report size.
	DefaultQueueReports = 10

	// NoAPIKey is the placeholder sent when no key is configured
	// anywhere. Uploads with it fail with 401, which is the intended
	// signal to the operator.
	NoAPIKey = "NO_API_KEY"

	// MaxUploadAttemptsLimit bounds MaxUploadAttempts.
	MaxUploadAttemptsLimit = 32
)

// API key environment fallbacks, in lookup order.
var apiKeyEnvironment = []string{"ENGINE_API_KEY", "APOLLO_KEY"}

// ChannelConfig is the resolved configuration of one report channel.
// It is a value type: Resolve builds it once and the channel copies it.
type ChannelConfig struct {
	Enabled                   bool
	Compress                  bool
	Compression               string
	APIKey                    string
	Endpoint                  string
	ReportingInterval         time.Duration
	MaxUncompressedReportSize int64
	MaxQueueBytes             int64
	MaxUploadAttempts         int
	MinUploadRetryDelay       time.Duration
	DebugReports              bool
}

// Default returns the configuration Resolve produces for an empty File
// and an empty environment.
func Default() ChannelConfig {
	return Resolve(&File{}, func(string) (string, bool) { return "", false })
}

// Resolve fills unset File fields with defaults. lookupEnv is normally
// os.LookupEnv; tests pass a map-backed function. A nil file is treated
// as empty.
func Resolve(file *File, lookupEnv func(string) (string, bool)) ChannelConfig {
	if file == nil {
		file = &File{}
	}
	config := ChannelConfig{
		Enabled:                   true,
		Compress:                  true,
		Compression:               DefaultCompression,
		APIKey:                    file.APIKey,
		Endpoint:                  file.Endpoint,
		ReportingInterval:         DefaultReportingInterval,
		MaxUncompressedReportSize: DefaultMaxUncompressedReportSize,
		MaxUploadAttempts:         DefaultMaxUploadAttempts,
		MinUploadRetryDelay:       DefaultMinUploadRetryDelay,
		DebugReports:              file.DebugReports,
	}
	if file.Enabled != nil {
		config.Enabled = *file.Enabled
	}
	if file.Compress != nil {
		config.Compress = *file.Compress
	}
	if file.Compression != "" {
		config.Compression = file.Compression
	}
	if file.ReportingInterval != nil {
		config.ReportingInterval = file.ReportingInterval.Std()
	}
	if file.MaxUncompressedReportSize != nil {
		config.MaxUncompressedReportSize = *file.MaxUncompressedReportSize
	}
	config.MaxQueueBytes = config.MaxUncompressedReportSize * DefaultQueueReports
	if file.MaxQueueBytes != nil {
		config.MaxQueueBytes = *file.MaxQueueBytes
	}
	if file.MaxUploadAttempts != nil {
		config.MaxUploadAttempts = *file.MaxUploadAttempts
	}
	if file.MinUploadRetryDelay != nil {
		config.MinUploadRetryDelay = file.MinUploadRetryDelay.Std()
	}

	if config.APIKey == "" {
		for _, name := range apiKeyEnvironment {
			if value, ok := lookupEnv(name); ok && value != "" {
				config.APIKey = value
				break
			}
		}
	}
	if config.APIKey == "" {
		config.APIKey = NoAPIKey
	}
	return config
}

// Validate rejects configurations a channel cannot run with.
func (c ChannelConfig) Validate() error {
	var errs []error

	if c.Compression != "gzip" && c.Compression != "zstd" {
		errs = append(errs, fmt.Errorf("compression must be gzip or zstd, got %q", c.Compression))
	}
	if c.ReportingInterval <= 0 {
		errs = append(errs, fmt.Errorf("reporting_interval must be positive, got %v", c.ReportingInterval))
	}
	if c.MaxUncompressedReportSize <= 0 {
		errs = append(errs, fmt.Errorf("max_uncompressed_report_size must be positive, got %d", c.MaxUncompressedReportSize))
	}
	if c.MaxQueueBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_queue_bytes must be positive, got %d", c.MaxQueueBytes))
	}
	if c.MaxUploadAttempts < 1 || c.MaxUploadAttempts > MaxUploadAttemptsLimit {
		errs = append(errs, fmt.Errorf("max_upload_attempts must be between 1 and %d, got %d", MaxUploadAttemptsLimit, c.MaxUploadAttempts))
	}
	if c.MinUploadRetryDelay < 0 {
		errs = append(errs, fmt.Errorf("min_upload_retry_delay must not be negative, got %v", c.MinUploadRetryDelay))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
