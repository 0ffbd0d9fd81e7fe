// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the launcher binary.
// They cover the raw I/O that happens outside the structured logger:
//
//   - [Fatal] reports an unrecoverable error from run() and exits 1.
//   - [NewLogger] builds the launcher's slog logger, text on a terminal
//     and JSON otherwise.
//   - [SyncStderr] flushes stderr before the process image is replaced.
package process
