// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the launcher's structured logger writing to output.
// When output is a terminal it uses slog.TextHandler; otherwise (the
// usual case under a container runtime) slog.JSONHandler, matching the
// engine's own machine-readable error log. debug lowers the level to
// Debug.
func NewLogger(output *os.File, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(output.Fd())) {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler)
}
