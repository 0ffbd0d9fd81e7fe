// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile writes files so that readers never observe a
// partial write: data goes to a temporary file in the same directory,
// is fsynced, and is renamed into place, after which the parent
// directory is synced so the rename survives power loss.
//
// Every piece of persisted launcher state (identity files, the engine
// config file, the startup script, the handoff record) is written
// through [Write]. A crash at any point leaves either the previous
// content or the new content, never a truncated file.
//
// This package has no internal dependencies.
package atomicfile
