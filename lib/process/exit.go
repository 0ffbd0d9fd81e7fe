// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run(), where the logger may not exist yet.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// SyncStderr flushes stderr to its backing file. Called immediately
// before exec so that log lines written by the launcher are on disk
// when the engine takes over the descriptor. Errors are ignored:
// pipes and terminals do not support fsync.
func SyncStderr() {
	os.Stderr.Sync()
}
