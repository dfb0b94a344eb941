// SPDX-License-Identifier: MPL-2.0

// Package logging installs a charmbracelet/log handler behind log/slog.
//
// Library packages log through slog and never configure handlers themselves;
// the CLI calls Setup once with the verbosity chosen by the user.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Prefix labels every log line.
const Prefix = "incipyt"

// Options configures the logger.
type Options struct {
	// Verbose lowers the level to debug and adds timestamps.
	Verbose bool
	// Quiet raises the level to error. Verbose wins over Quiet.
	Quiet bool
}

// New returns a charmbracelet logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.WarnLevel
	switch {
	case opts.Verbose:
		level = log.DebugLevel
	case opts.Quiet:
		level = log.ErrorLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           level,
		ReportTimestamp: opts.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// Setup builds a logger for w, installs it as the slog default and returns
// the slog front end.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := slog.New(New(w, opts))
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
