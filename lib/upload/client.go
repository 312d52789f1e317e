// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/netutil"
	"github.com/bureau-foundation/graphtrace/lib/version"
)

// DefaultEndpoint is the hosted ingestion endpoint.
const DefaultEndpoint = "https://engine-report.apollodata.com/api/ingress/traces"

const defaultTimeout = 30 * time.Second

// ClientConfig holds the settings for creating a Client. Zero fields
// take defaults in NewClient.
type ClientConfig struct {
	// Endpoint is the ingestion URL. Defaults to DefaultEndpoint.
	Endpoint string

	// HTTPClient performs the POSTs. Defaults to a client with a 30s
	// timeout.
	HTTPClient *http.Client

	// Clock times backoff waits. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives one warning per failed upload. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// UserAgent defaults to version.Agent().
	UserAgent string
}

// Options are the per-upload settings derived from the channel config.
type Options struct {
	APIKey        string
	Encoding      Encoding
	MaxAttempts   int
	MinRetryDelay time.Duration
}

// Client posts reports to one endpoint. Safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a Client from config.
func NewClient(config ClientConfig) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.UserAgent == "" {
		config.UserAgent = version.Agent()
	}
	return &Client{
		endpoint:   config.Endpoint,
		httpClient: config.HTTPClient,
		clock:      config.Clock,
		logger:     config.Logger,
		userAgent:  config.UserAgent,
	}
}

// Endpoint returns the URL reports are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Upload compresses report with options.Encoding and posts it, retrying
// retryable failures up to options.MaxAttempts total attempts.
//
// Returns nil on the first 2xx response. A fatal (non-retryable)
// response returns its *AttemptError. After the last attempt fails the
// returned error wraps both ErrAttemptsExhausted and the final
// *AttemptError. Context cancellation during a backoff wait returns
// the context's error.
func (c *Client) Upload(ctx context.Context, report []byte, options Options) error {
	if options.MaxAttempts < 1 {
		options.MaxAttempts = 1
	}

	body, err := Encode(options.Encoding, report)
	if err != nil {
		c.logger.Warn("report encoding failed", "encoding", options.Encoding, "error", err)
		return fmt.Errorf("encoding report: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err := c.post(ctx, body, options, attempt)
		if err == nil {
			return nil
		}
		if !err.Retryable {
			c.logger.Warn("report upload failed",
				"attempt", attempt,
				"status", err.StatusCode,
				"error", err,
			)
			return err
		}
		if attempt >= options.MaxAttempts {
			c.logger.Warn("report upload attempts exhausted",
				"attempts", attempt,
				"status", err.StatusCode,
				"error", err,
			)
			return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
		}

		delay := backoff(options.MinRetryDelay, attempt)
		c.logger.Warn("report upload failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if waitErr := c.wait(ctx, delay); waitErr != nil {
			c.logger.Warn("report upload abandoned", "attempt", attempt, "error", waitErr)
			return fmt.Errorf("waiting to retry upload: %w", waitErr)
		}
	}
}

// MaxRetryDelay caps the backoff so large attempt counts cannot
// overflow the shift.
const MaxRetryDelay = time.Hour

// backoff returns the delay before the retry that follows attempt:
// minimum * 2^attempt, capped at MaxRetryDelay.
func backoff(minimum time.Duration, attempt int) time.Duration {
	if minimum <= 0 {
		return 0
	}
	if minimum >= MaxRetryDelay || attempt >= 63 || minimum > MaxRetryDelay>>attempt {
		return MaxRetryDelay
	}
	return minimum << attempt
}

func (c *Client) wait(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := c.clock.NewTimer(delay)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}

// post performs one attempt. Returns nil on a 2xx response.
func (c *Client) post(ctx context.Context, body []byte, options Options, attempt int) *AttemptError {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		// The endpoint is fixed per client; a bad URL fails every attempt.
		return &AttemptError{Attempt: attempt, Err: err}
	}
	request.Header.Set("X-Api-Key", options.APIKey)
	request.Header.Set("Content-Type", "application/cbor")
	request.Header.Set("User-Agent", c.userAgent)
	if encoding := options.Encoding.header(); encoding != "" {
		request.Header.Set("Content-Encoding", encoding)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return &AttemptError{Attempt: attempt, Err: err, Retryable: netutil.IsTransientError(err)}
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		// Drain so the connection returns to the pool.
		_ = netutil.ErrorBody(response.Body)
		return nil
	}
	return &AttemptError{
		Attempt:    attempt,
		StatusCode: response.StatusCode,
		Status:     response.Status,
		Body:       netutil.ErrorBody(response.Body),
		Retryable:  response.StatusCode >= 500 && response.StatusCode < 600,
	}
}
