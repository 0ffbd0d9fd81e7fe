// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for launcher packages.
//
// [OccupyPort] holds a TCP listener on the wildcard address for the
// duration of a test, which is what the port negotiator's probe-bind
// sees as "in use". [FreePort] returns a port that was free a moment
// ago.
//
// [WriteTree] lays out a directory fixture (files, modes, symlinks)
// from a compact description, and [ReadTree] reads one back for
// comparison. The bootstrap tests use them for template and data
// directories.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
