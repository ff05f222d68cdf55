// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger used by the command line.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format values accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	// Debug lowers the level to debug. Otherwise the level is info.
	Debug bool

	// Format is "console" (default) or "json".
	Format string

	// RunID, when set, is attached to every entry as run_id.
	RunID string
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) zerolog.Logger {
	out := w
	if !strings.EqualFold(opts.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run_id", opts.RunID)
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	return ctx.Logger().Level(level)
}
