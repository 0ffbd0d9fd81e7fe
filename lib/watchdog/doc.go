// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package watchdog records the launcher's one-way handoff to the
// database engine so the next start can tell whether the engine
// survived it.
//
// The launcher cannot observe the engine after exec: its process image
// is gone. Instead it calls [Write] immediately before the handoff with
// a [State] describing what it is about to run. The engine never
// touches the file. When the launcher starts again it calls [Check]:
//
//  1. No record, or a record older than the maximum age: the previous
//     engine ran for a meaningful time. Nothing to report.
//  2. A record younger than the maximum age: the engine exited shortly
//     after handoff. The launcher logs the recorded argument vector and
//     engine digest so the failing configuration is visible, then calls
//     [Clear].
//
// The record is CBOR (see lib/codec) and is written atomically, so a
// reader never sees a partial file.
package watchdog
