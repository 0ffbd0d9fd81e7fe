// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap prepares the MySQL data directory before the
// engine starts.
//
// A data directory is in one of three states, determined by marker
// files ([Inspect]):
//
//   - [Empty]: no storage-engine marker (ibdata1), or an interrupted
//     materialization left the in-progress marker behind. The template
//     tree is copied in and instance-unique artifacts (auto.cnf, the
//     auto-generated TLS and RSA key pairs) are stripped so that every
//     node cloned from the same template regenerates its own.
//   - [FirstBoot]: the storage marker exists but the launcher has never
//     completed a pass over this directory. The sentinel file is
//     written.
//   - [Warm]: the sentinel exists. Nothing is copied.
//
// In every state the initialization script is regenerated. It provisions
// the certificate-only principals, drops password-authenticated root
// accounts, and, when group replication is enabled, registers a
// self-deleting scheduled event that starts replication shortly after
// the server is up. The engine runs the script through --init-file.
//
// [Sequencer.Run] drives the whole sequence. A failure to write the
// script is logged and reported as an absent script; a failure to
// materialize is returned.
package bootstrap
