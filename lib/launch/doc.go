// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package launch assembles the engine's argument vector and
// environment and replaces the launcher process with the engine.
//
// [Assembler.Assemble] is pure apart from creating the log directory:
// it returns a [Plan] that the caller either prints (dry run) or hands
// to [Launcher.Exec]. Exec writes a handoff record to the state
// directory (see lib/watchdog), flushes stderr, and calls execve. It
// returns only on failure.
package launch
