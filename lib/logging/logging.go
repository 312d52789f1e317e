// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Format selects the handler. FormatAuto picks text on a terminal and
// JSON otherwise.
type Format string

const (
	FormatAuto Format = ""
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New. The zero value logs at info level to stderr
// with automatic format selection.
type Options struct {
	Output io.Writer
	Level  slog.Level
	Format Format
}

// New returns a logger tagged with component=graphtrace.
//
// When the output is a terminal, records go through slog.TextHandler for
// human reading. When piped or redirected (CI, containers, log
// shippers), slog.JSONHandler produces machine-parseable lines.
func New(options Options) *slog.Logger {
	output := options.Output
	if output == nil {
		output = os.Stderr
	}
	handlerOptions := &slog.HandlerOptions{Level: options.Level}

	var handler slog.Handler
	switch resolveFormat(options.Format, output) {
	case FormatText:
		handler = slog.NewTextHandler(output, handlerOptions)
	default:
		handler = slog.NewJSONHandler(output, handlerOptions)
	}
	return slog.New(handler).With("component", "graphtrace")
}

// Discard returns a logger that drops every record. Tests use it when
// log output is not under examination.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func resolveFormat(format Format, output io.Writer) Format {
	if format != FormatAuto {
		return format
	}
	if file, ok := output.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return FormatText
	}
	return FormatJSON
}
